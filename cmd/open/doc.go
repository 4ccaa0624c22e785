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

// Package main implements the sirseer-open command-line interface.
// It lists the open pull requests of every Bitbucket repository the user
// contributes to or administers and opens each one in the browser.
//
// The CLI supports:
//   - Basic authentication with a prompted or keyring-stored password
//   - Filtering by repository short name with -r/--repositories
//   - A pull request limit (default 10) that aborts over-broad runs
//   - Dry runs that print URLs instead of opening them
//   - An NDJSON record of opened pull requests and a JSON run summary
//
// Usage:
//
//	sirseer-open -u <username> [-r <repository>]... [flags]
//
// Example:
//
//	sirseer-open -u alice -r api -r web --limit 20
//
// Exit codes:
//   - 0: Success, including when no pull requests were found
//   - 1: Connection, authentication or network error
//   - 2: Too many pull requests for the limit
//   - 3: Usage error
package main
