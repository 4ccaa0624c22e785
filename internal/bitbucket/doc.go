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

// Package bitbucket provides an authenticated session against the Bitbucket
// Cloud REST API (version 2.0) and lazy iterators over the repositories a user
// contributes to and the pull requests open in each of them.
//
// The package includes:
//   - Session: basic authentication, connectivity check and JSON GETs
//   - Request: an immutable request descriptor reused for every call
//   - RepositoryIterator and PullRequestIterator: cursor-driven pagination
//   - MockSender for testing code that consumes the iterators
//
// Basic usage:
//
//	session := bitbucket.New("alice", password)
//	if err := session.Connect(ctx); err != nil {
//	    // Handle error
//	}
//	prs := bitbucket.ListPullRequests(session, bitbucket.NewRepositoryFilter("api"))
//	for prs.Next(ctx) {
//	    fmt.Println(prs.Value().URL)
//	}
//	if err := prs.Err(); err != nil {
//	    // Handle error
//	}
package bitbucket
