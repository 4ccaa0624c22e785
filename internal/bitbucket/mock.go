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

import (
	"context"
	"encoding/json"
	"fmt"

	openerrors "github.com/sirseerhq/sirseer-open/internal/errors"
)

// MockSender is a Sender serving canned responses keyed by relative path.
type MockSender struct {
	// Responses maps a relative path to the value returned for it. Values are
	// round-tripped through JSON into the caller's target.
	Responses map[string]any

	// Errors maps a relative path to the error returned for it.
	Errors map[string]error

	// Error, when set, is returned for every path.
	Error error

	// Calls records every requested path in order.
	Calls []string
}

// NewMockSender creates an empty mock.
func NewMockSender(opts ...MockSenderOption) *MockSender {
	m := &MockSender{
		Responses: make(map[string]any),
		Errors:    make(map[string]error),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send implements the Sender interface
func (m *MockSender) Send(ctx context.Context, relativePath string, v any) error {
	m.Calls = append(m.Calls, relativePath)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if m.Error != nil {
		return m.Error
	}
	if err, ok := m.Errors[relativePath]; ok {
		return err
	}

	resp, ok := m.Responses[relativePath]
	if !ok {
		return openerrors.NewConnectionError(404, "404 Not Found")
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("mock: marshaling response for %s: %w", relativePath, err)
	}
	if v == nil {
		return nil
	}
	return json.Unmarshal(data, v)
}

// CallCount returns how many times path was requested.
func (m *MockSender) CallCount(path string) int {
	n := 0
	for _, c := range m.Calls {
		if c == path {
			n++
		}
	}
	return n
}

// MockSenderOption allows configuring the mock sender
type MockSenderOption func(*MockSender)

// WithResponse serves resp for path.
func WithResponse(path string, resp any) MockSenderOption {
	return func(m *MockSender) {
		m.Responses[path] = resp
	}
}

// WithPathError fails requests for path with err.
func WithPathError(path string, err error) MockSenderOption {
	return func(m *MockSender) {
		m.Errors[path] = err
	}
}

// WithError makes the sender fail every request with err.
func WithError(err error) MockSenderOption {
	return func(m *MockSender) {
		m.Error = err
	}
}

// WithRepositories serves a single repositories page holding fullNames and,
// for each of them, a pull request page with one pull request.
func WithRepositories(fullNames ...string) MockSenderOption {
	return func(m *MockSender) {
		page := RepositoryPage{}
		for i, name := range fullNames {
			page.Values = append(page.Values, Repository{FullName: name, Name: ShortName(name)})
			m.Responses[PullRequestsPath(name)] = PullRequestPage{
				Values: []PullRequest{{
					ID:    i + 1,
					Title: "Update " + ShortName(name),
					State: "OPEN",
					Links: Links{HTML: Link{Href: fmt.Sprintf("https://bitbucket.org/%s/pull-requests/%d", name, i+1)}},
				}},
			}
		}
		m.Responses[FirstRepositoriesPage] = page
	}
}
