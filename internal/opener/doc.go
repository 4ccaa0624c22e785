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

// Package opener drains a stream of pull requests into the browser.
//
// The Opener enforces the pull request limit: once Limit pull requests have
// been opened, the next one aborts the run with a TooManyResultsError. Pull
// requests opened before the abort stay open and stay in the record.
package opener
