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

// Package testutil provides common test helpers for sirseer-open
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// BitbucketFixture describes the account served by a mock Bitbucket server.
type BitbucketFixture struct {
	// Username and Password are the only accepted basic-auth credentials.
	Username string
	Password string

	// RepositoryPages holds the full names listed on each repositories page.
	RepositoryPages [][]string

	// PullRequests maps a full name to the ids of its open pull requests.
	PullRequests map[string][]int

	// StatusOverrides forces a status code for a request path (no query).
	StatusOverrides map[string]int
}

// MockServer is an httptest server that records every request it receives.
type MockServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
}

// NewMockServer creates a recording mock server around handler.
func NewMockServer(t *testing.T, handler http.HandlerFunc) *MockServer {
	t.Helper()
	m := &MockServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// NewErrorServer creates a mock server that always returns the specified error
func NewErrorServer(t *testing.T, statusCode int) *MockServer {
	t.Helper()
	return NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(http.StatusText(statusCode)))
	})
}

// NewBitbucketServer serves the API root, the paginated repositories listing
// and per-repository pull requests for fixture.
func NewBitbucketServer(t *testing.T, fixture BitbucketFixture) *MockServer {
	t.Helper()
	var m *MockServer
	m = NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != fixture.Username || pass != fixture.Password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if code, ok := fixture.StatusOverrides[r.URL.Path]; ok {
			w.WriteHeader(code)
			return
		}

		switch {
		case r.URL.Path == "/" || r.URL.Path == "":
			writeJSON(w, map[string]any{"type": "api_root"})
		case r.URL.Path == "/2.0/repositories":
			page := 1
			if p := r.URL.Query().Get("page"); p != "" {
				page, _ = strconv.Atoi(p)
			}
			if page < 1 || page > len(fixture.RepositoryPages) {
				writeJSON(w, GenerateRepositoryPage(nil, ""))
				return
			}
			next := ""
			if page < len(fixture.RepositoryPages) {
				next = fmt.Sprintf("%s/2.0/repositories?role=contributor&role=admin&page=%d", m.URL, page+1)
			}
			writeJSON(w, GenerateRepositoryPage(fixture.RepositoryPages[page-1], next))
		case strings.HasPrefix(r.URL.Path, "/2.0/repositories/") && strings.HasSuffix(r.URL.Path, "/pullrequests"):
			fullName := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/2.0/repositories/"), "/pullrequests")
			ids, ok := fixture.PullRequests[fullName]
			if !ok {
				writeJSON(w, GeneratePullRequestPage(fullName))
				return
			}
			writeJSON(w, GeneratePullRequestPage(fullName, ids...))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	return m
}

// Requests returns the request URIs received so far, in order.
func (m *MockServer) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns how many requests were received.
func (m *MockServer) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockServer) record(r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, r.URL.RequestURI())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
