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

// Package metadata tracks a run and persists its summary as JSON.
//
// The summary records how many repositories were scanned, how many pull
// requests were found and opened, how many API calls were made, and how the
// run ended, so an aborted run can be told apart from a completed one.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sirseerhq/sirseer-open/internal/giterror"
)

// Tracker collects statistics during a run. Its methods are safe for
// concurrent use.
type Tracker struct {
	mu             sync.Mutex
	startTime      time.Time
	apiCallCount   int
	failedAPICalls int
	prsFound       int
	now            func() time.Time
}

// New creates a new tracker started at the current time.
func New() *Tracker {
	return &Tracker{
		startTime: time.Now(),
		now:       time.Now,
	}
}

// ObserveCall records a completed API round trip. Its signature matches
// bitbucket.CallObserver.
func (t *Tracker) ObserveCall(method, url string, statusCode int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apiCallCount++
	if statusCode < 200 || statusCode > 299 {
		t.failedAPICalls++
	}
}

// IncrementPullRequests records a pull request yielded by the enumerator.
func (t *Tracker) IncrementPullRequests() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prsFound++
}

// APICallCount returns the number of API calls observed so far.
func (t *Tracker) APICallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.apiCallCount
}

// Summary holds counters owned by other components, passed in when the
// metadata is generated.
type Summary struct {
	RepositoriesScanned int
	RepositoriesMatched int
	PullRequestsOpened  int
	BrowserFailures     int
}

// GenerateMetadata creates the record for a finished run. runErr is the
// error the run ended with, or nil.
func (t *Tracker) GenerateMetadata(version string, params RunParams, summary Summary, runErr error) *RunMetadata {
	t.mu.Lock()
	defer t.mu.Unlock()

	completedAt := t.now()

	md := &RunMetadata{
		Version:    version,
		RunID:      uuid.NewString(),
		Parameters: params,
		Results: RunResults{
			RepositoriesScanned: summary.RepositoriesScanned,
			RepositoriesMatched: summary.RepositoriesMatched,
			PullRequestsFound:   t.prsFound,
			PullRequestsOpened:  summary.PullRequestsOpened,
			BrowserFailures:     summary.BrowserFailures,
			APICallCount:        t.apiCallCount,
			FailedAPICalls:      t.failedAPICalls,
			Duration:            completedAt.Sub(t.startTime).String(),
			StartedAt:           t.startTime,
			CompletedAt:         completedAt,
		},
		Outcome: Outcome(runErr),
	}
	if runErr != nil {
		md.Error = runErr.Error()
	}
	return md
}

// Outcome classifies the error a run ended with.
func Outcome(err error) string {
	if err == nil {
		return OutcomeCompleted
	}
	inspector := giterror.NewInspector()
	switch {
	case inspector.IsTooManyResults(err):
		return OutcomeTooManyResults
	case inspector.IsConnectionError(err):
		return OutcomeConnectionFailed
	default:
		return OutcomeFailed
	}
}

// SaveMetadata writes metadata to path as indented JSON. The file is written
// to a temporary name and renamed into place so readers never see a partial
// record.
func SaveMetadata(metadata *RunMetadata, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create metadata directory: %w", err)
		}
	}

	tmpFile := path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}

	if err := WriteMetadataToWriter(metadata, file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to close metadata file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to save metadata file: %w", err)
	}

	return nil
}

// WriteMetadataToWriter serializes metadata to w as indented JSON.
func WriteMetadataToWriter(metadata *RunMetadata, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}
