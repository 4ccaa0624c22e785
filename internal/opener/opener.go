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

package opener

import (
	"context"
	"fmt"
	"io"

	"github.com/sirseerhq/sirseer-open/internal/bitbucket"
	openerrors "github.com/sirseerhq/sirseer-open/internal/errors"
	"github.com/sirseerhq/sirseer-open/internal/output"
)

// DefaultLimit is the number of pull requests opened before a run aborts.
const DefaultLimit = 10

// NoPullRequestsMessage is printed when a run opens nothing.
const NoPullRequestsMessage = "No pull requests found"

// Browser opens a URL. Browse must not wait for the browser to exit.
type Browser interface {
	Browse(url string) error
}

// Source yields pull requests one at a time.
// *bitbucket.PullRequestIterator satisfies it.
type Source interface {
	Next(ctx context.Context) bool
	Value() bitbucket.PullRequestRef
	Err() error
}

var _ Source = (*bitbucket.PullRequestIterator)(nil)

// Result summarises a run, including an aborted one.
type Result struct {
	// Opened lists the pull requests handed to the browser, in order.
	Opened []bitbucket.PullRequestRef
	// BrowserFailures counts Browse calls that returned an error.
	BrowserFailures int
}

// Count returns the number of opened pull requests.
func (r *Result) Count() int {
	return len(r.Opened)
}

// URLs returns the opened URLs in order.
func (r *Result) URLs() []string {
	urls := make([]string, len(r.Opened))
	for i, pr := range r.Opened {
		urls[i] = pr.URL
	}
	return urls
}

// Record is the line written for each opened pull request.
type Record struct {
	bitbucket.PullRequestRef
	// BrowserFailed is set when the browser could not be launched for URL.
	BrowserFailed bool `json:"browser_failed,omitempty"`
}

// Opener hands pull requests to a Browser up to a limit.
type Opener struct {
	browser Browser
	limit   int
	dryRun  bool
	record  output.OutputWriter
	stdout  io.Writer
	stderr  io.Writer
}

// Option configures an Opener.
type Option func(*Opener)

// WithLimit sets the pull request limit. Values below 1 are ignored.
func WithLimit(limit int) Option {
	return func(o *Opener) {
		if limit > 0 {
			o.limit = limit
		}
	}
}

// WithDryRun prints URLs instead of opening them.
func WithDryRun(dryRun bool) Option {
	return func(o *Opener) {
		o.dryRun = dryRun
	}
}

// WithRecord writes every opened pull request to w.
func WithRecord(w output.OutputWriter) Option {
	return func(o *Opener) {
		if w != nil {
			o.record = w
		}
	}
}

// WithOutput sets where user-facing lines and warnings go.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *Opener) {
		if stdout != nil {
			o.stdout = stdout
		}
		if stderr != nil {
			o.stderr = stderr
		}
	}
}

// New creates an Opener. The browser may be nil in dry-run mode.
func New(browser Browser, opts ...Option) *Opener {
	o := &Opener{
		browser: browser,
		limit:   DefaultLimit,
		record:  output.Discard,
		stdout:  io.Discard,
		stderr:  io.Discard,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Limit returns the configured pull request limit.
func (o *Opener) Limit() int {
	return o.limit
}

// OpenAll drains src, opening each pull request.
//
// The returned Result is never nil and reflects everything opened before an
// error. Enumeration errors are returned unchanged; reaching the limit
// returns a *errors.TooManyResultsError.
func (o *Opener) OpenAll(ctx context.Context, src Source) (*Result, error) {
	result := &Result{}

	for src.Next(ctx) {
		pr := src.Value()

		if result.Count() >= o.limit {
			return result, &openerrors.TooManyResultsError{Limit: o.limit, Opened: result.Count()}
		}

		record := Record{PullRequestRef: pr}
		if err := o.open(pr); err != nil {
			result.BrowserFailures++
			record.BrowserFailed = true
			fmt.Fprintf(o.stderr, "Warning: could not open %s: %v\n", pr.URL, err)
		}
		result.Opened = append(result.Opened, pr)

		if err := o.record.Write(record); err != nil {
			return result, fmt.Errorf("failed to record %s: %w", pr.URL, err)
		}
	}
	if err := src.Err(); err != nil {
		return result, err
	}

	if result.Count() == 0 {
		fmt.Fprintln(o.stdout, NoPullRequestsMessage)
	}
	return result, nil
}

func (o *Opener) open(pr bitbucket.PullRequestRef) error {
	if o.dryRun || o.browser == nil {
		fmt.Fprintln(o.stdout, pr.URL)
		return nil
	}
	fmt.Fprintf(o.stderr, "Opening %s #%d: %s\n", pr.Repository, pr.ID, pr.Title)
	return o.browser.Browse(pr.URL)
}
