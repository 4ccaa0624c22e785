// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bitbucket

import "context"

// Sender issues an authenticated GET relative to the versioned API root and
// decodes the JSON answer into v. *Session implements it; MockSender stands
// in for it in tests.
type Sender interface {
	Send(ctx context.Context, relativePath string, v any) error
}

var _ Sender = (*Session)(nil)
