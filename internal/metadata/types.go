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

// Package metadata types define the run summary written after each
// invocation.
package metadata

import (
	"time"
)

// Run outcomes.
const (
	OutcomeCompleted        = "completed"
	OutcomeTooManyResults   = "too_many_results"
	OutcomeConnectionFailed = "connection_failed"
	OutcomeFailed           = "failed"
)

// RunMetadata is the summary of one run, including an aborted one.
type RunMetadata struct {
	Version    string     `json:"version"`
	RunID      string     `json:"run_id"`
	Parameters RunParams  `json:"parameters"`
	Results    RunResults `json:"results"`
	Outcome    string     `json:"outcome"`
	Error      string     `json:"error,omitempty"`
}

// RunParams captures the inputs of a run. The password is never recorded.
type RunParams struct {
	Username     string   `json:"username"`
	APIEndpoint  string   `json:"api_endpoint"`
	Repositories []string `json:"repositories,omitempty"`
	Limit        int      `json:"limit"`
	PageOrder    string   `json:"page_order"`
	DryRun       bool     `json:"dry_run"`
}

// RunResults holds the counters collected while the run progressed.
type RunResults struct {
	RepositoriesScanned int       `json:"repositories_scanned"`
	RepositoriesMatched int       `json:"repositories_matched"`
	PullRequestsFound   int       `json:"pull_requests_found"`
	PullRequestsOpened  int       `json:"pull_requests_opened"`
	BrowserFailures     int       `json:"browser_failures"`
	APICallCount        int       `json:"api_calls_made"`
	FailedAPICalls      int       `json:"api_calls_failed"`
	Duration            string    `json:"run_duration"`
	StartedAt           time.Time `json:"started_at"`
	CompletedAt         time.Time `json:"completed_at"`
}
