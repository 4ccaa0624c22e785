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

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/99designs/keyring"

	"github.com/sirseerhq/sirseer-open/internal/credential"
	openerrors "github.com/sirseerhq/sirseer-open/internal/errors"
	"github.com/sirseerhq/sirseer-open/internal/metadata"
	"github.com/sirseerhq/sirseer-open/internal/opener"
	"github.com/sirseerhq/sirseer-open/test/testutil"
)

type fakeBrowser struct {
	urls []string
}

func (b *fakeBrowser) Browse(url string) error {
	b.urls = append(b.urls, url)
	return nil
}

type harness struct {
	env     environment
	browser *fakeBrowser
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	ring    keyring.Keyring
}

// newHarness isolates the command from the user's configuration and
// keyring. stdin feeds the password prompt.
func newHarness(t *testing.T, stdin string) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"BITBUCKET_API_ENDPOINT", "BITBUCKET_USERNAME", "SIRSEER_PR_LIMIT",
		"SIRSEER_TIMEOUT", "SIRSEER_BROWSER", "SIRSEER_USE_KEYRING",
	} {
		t.Setenv(key, "")
	}

	h := &harness{
		browser: &fakeBrowser{},
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
		ring:    keyring.NewArrayKeyring(nil),
	}
	h.env = environment{
		stdin:  strings.NewReader(stdin),
		stdout: h.stdout,
		stderr: h.stderr,
		newBrowser: func(string, io.Writer, io.Writer) opener.Browser {
			return h.browser
		},
		openKeyring: func() (credentialStore, error) {
			return credential.NewStore(h.ring), nil
		},
	}
	return h
}

func (h *harness) run(args ...string) error {
	cmd := newRootCommand(h.env)
	cmd.SetArgs(append([]string{}, args...))
	return cmd.ExecuteContext(context.Background())
}

func defaultFixture() testutil.BitbucketFixture {
	return testutil.BitbucketFixture{
		Username: "alice",
		Password: "s3cret",
		RepositoryPages: [][]string{
			{"team/api", "team/web"},
			{"other/api"},
		},
		PullRequests: map[string][]int{
			"team/api":  {1, 2},
			"team/web":  {4},
			"other/api": {3},
		},
	}
}

func TestRun_OpensAllPullRequests(t *testing.T) {
	server := testutil.NewBitbucketServer(t, defaultFixture())
	h := newHarness(t, "s3cret\n")

	err := h.run("-u", "alice", "--config", writeEndpointConfig(t, server.URL))
	testutil.AssertNoError(t, err)

	testutil.AssertStrings(t, h.browser.urls, []string{
		testutil.PullRequestURL("team/api", 1),
		testutil.PullRequestURL("team/api", 2),
		testutil.PullRequestURL("team/web", 4),
		testutil.PullRequestURL("other/api", 3),
	})
	testutil.AssertContainsString(t, h.stderr.String(), "Opened 4 pull request(s) from 3 repositories")
	testutil.AssertNotContainsString(t, h.stderr.String(), "s3cret")
}

func TestRun_FilterByRepository(t *testing.T) {
	server := testutil.NewBitbucketServer(t, defaultFixture())
	h := newHarness(t, "s3cret\n")

	err := h.run("-u", "alice", "-r", "api", "--config", writeEndpointConfig(t, server.URL))
	testutil.AssertNoError(t, err)

	testutil.AssertStrings(t, h.browser.urls, []string{
		testutil.PullRequestURL("team/api", 1),
		testutil.PullRequestURL("team/api", 2),
		testutil.PullRequestURL("other/api", 3),
	})
	for _, uri := range server.Requests() {
		if strings.Contains(uri, "team/web/pullrequests") {
			t.Errorf("filtered repository was fetched: %s", uri)
		}
	}
}

func TestRun_TooManyResults(t *testing.T) {
	server := testutil.NewBitbucketServer(t, defaultFixture())
	h := newHarness(t, "s3cret\n")

	err := h.run("-u", "alice", "--limit", "2", "--config", writeEndpointConfig(t, server.URL))

	var tooMany *openerrors.TooManyResultsError
	if !errors.As(err, &tooMany) {
		t.Fatalf("expected TooManyResultsError, got %v", err)
	}
	if tooMany.Limit != 2 || tooMany.Opened != 2 {
		t.Errorf("error = %+v, want limit 2 opened 2", tooMany)
	}
	if len(h.browser.urls) != 2 {
		t.Errorf("browser called %d times, want 2", len(h.browser.urls))
	}
	if code := mapErrorToExitCode(err); code != exitTooManyResults {
		t.Errorf("exit code = %d, want %d", code, exitTooManyResults)
	}
}

func TestRun_WrongPassword(t *testing.T) {
	server := testutil.NewBitbucketServer(t, defaultFixture())
	h := newHarness(t, "wrong\n")

	err := h.run("-u", "alice", "--config", writeEndpointConfig(t, server.URL))

	var connErr *openerrors.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if connErr.StatusCode != 401 || connErr.Reason != "Unauthorized" {
		t.Errorf("error = %+v, want 401 Unauthorized", connErr)
	}
	if code := mapErrorToExitCode(err); code != exitConnection {
		t.Errorf("exit code = %d, want %d", code, exitConnection)
	}
	if server.RequestCount() != 1 {
		t.Errorf("expected only the connectivity check, got %v", server.Requests())
	}
	if len(h.browser.urls) != 0 {
		t.Errorf("nothing should be opened, got %v", h.browser.urls)
	}
}

func TestRun_NoPullRequests(t *testing.T) {
	fixture := defaultFixture()
	fixture.PullRequests = nil
	server := testutil.NewBitbucketServer(t, fixture)
	h := newHarness(t, "s3cret\n")

	err := h.run("-u", "alice", "--config", writeEndpointConfig(t, server.URL))
	testutil.AssertNoError(t, err)

	if strings.TrimSpace(h.stdout.String()) != opener.NoPullRequestsMessage {
		t.Errorf("stdout = %q, want %q", h.stdout.String(), opener.NoPullRequestsMessage)
	}
}

func TestRun_DryRunWithRecordAndMetadata(t *testing.T) {
	server := testutil.NewBitbucketServer(t, defaultFixture())
	h := newHarness(t, "s3cret\n")
	dir := t.TempDir()
	recordPath := filepath.Join(dir, "opened.ndjson")
	metadataPath := filepath.Join(dir, "run.json")

	err := h.run("-u", "alice", "-r", "web", "--dry-run",
		"--output", recordPath, "--metadata", metadataPath,
		"--config", writeEndpointConfig(t, server.URL))
	testutil.AssertNoError(t, err)

	if len(h.browser.urls) != 0 {
		t.Errorf("dry run opened %v", h.browser.urls)
	}
	testutil.AssertContainsString(t, h.stdout.String(), testutil.PullRequestURL("team/web", 4))

	testutil.AssertFileExists(t, recordPath)
	testutil.AssertFileExists(t, metadataPath)
	testutil.AssertFileNotExists(t, metadataPath+".tmp")

	urls := testutil.AssertNDJSONOutput(t, recordPath, 1)
	testutil.AssertStrings(t, urls, []string{testutil.PullRequestURL("team/web", 4)})

	var md metadata.RunMetadata
	testutil.ReadJSON(t, metadataPath, &md)
	if md.Outcome != metadata.OutcomeCompleted {
		t.Errorf("Outcome = %s, want %s", md.Outcome, metadata.OutcomeCompleted)
	}
	if md.Results.PullRequestsOpened != 1 || md.Results.PullRequestsFound != 1 {
		t.Errorf("found/opened = %d/%d, want 1/1", md.Results.PullRequestsFound, md.Results.PullRequestsOpened)
	}
	if md.Results.RepositoriesScanned != 3 || md.Results.RepositoriesMatched != 1 {
		t.Errorf("scanned/matched = %d/%d, want 3/1", md.Results.RepositoriesScanned, md.Results.RepositoriesMatched)
	}
	if md.Results.APICallCount != server.RequestCount() {
		t.Errorf("APICallCount = %d, want %d", md.Results.APICallCount, server.RequestCount())
	}
	if !md.Parameters.DryRun || md.Parameters.Username != "alice" {
		t.Errorf("Parameters = %+v", md.Parameters)
	}
}

func TestRun_MetadataRecordsFailure(t *testing.T) {
	server := testutil.NewBitbucketServer(t, defaultFixture())
	h := newHarness(t, "wrong\n")
	dir := t.TempDir()
	metadataPath := filepath.Join(dir, "run.json")
	recordPath := filepath.Join(dir, "opened.ndjson")

	err := h.run("-u", "alice", "--metadata", metadataPath, "--output", recordPath,
		"--config", writeEndpointConfig(t, server.URL))
	if err == nil {
		t.Fatal("expected an error")
	}
	testutil.AssertFileNotExists(t, recordPath)

	var md metadata.RunMetadata
	testutil.ReadJSON(t, metadataPath, &md)
	if md.Outcome != metadata.OutcomeConnectionFailed {
		t.Errorf("Outcome = %s, want %s", md.Outcome, metadata.OutcomeConnectionFailed)
	}
	testutil.AssertContainsString(t, md.Error, "Unauthorized")
}

func TestRun_LimitPrecedence(t *testing.T) {
	server := testutil.NewBitbucketServer(t, defaultFixture())
	configPath := testutil.WriteFile(t, t.TempDir(), "open.yaml", fmt.Sprintf(`
bitbucket:
  api_endpoint: %s
users:
  alice:
    pull_request_limit: 1
`, server.URL))

	t.Run("user section applies", func(t *testing.T) {
		h := newHarness(t, "s3cret\n")
		err := h.run("-u", "alice", "--config", configPath)
		if !errors.Is(err, openerrors.ErrTooManyResults) {
			t.Fatalf("expected the user limit of 1 to abort, got %v", err)
		}
		testutil.AssertContainsString(t, h.stderr.String(), "Connecting to "+server.URL+" as alice")
	})

	t.Run("environment beats user section", func(t *testing.T) {
		h := newHarness(t, "s3cret\n")
		t.Setenv("SIRSEER_PR_LIMIT", "10")
		err := h.run("-u", "alice", "--config", configPath)
		testutil.AssertNoError(t, err)
		if len(h.browser.urls) != 4 {
			t.Errorf("browser called %d times, want 4", len(h.browser.urls))
		}
	})

	t.Run("flag beats environment", func(t *testing.T) {
		h := newHarness(t, "s3cret\n")
		t.Setenv("SIRSEER_PR_LIMIT", "10")
		err := h.run("-u", "alice", "--limit", "3", "--config", configPath)
		if !errors.Is(err, openerrors.ErrTooManyResults) {
			t.Fatalf("expected --limit 3 to abort, got %v", err)
		}
		if len(h.browser.urls) != 3 {
			t.Errorf("browser called %d times, want 3", len(h.browser.urls))
		}
	})
}

func TestRun_Keyring(t *testing.T) {
	server := testutil.NewBitbucketServer(t, defaultFixture())
	configPath := writeEndpointConfig(t, server.URL)

	t.Run("remember stores the prompted password", func(t *testing.T) {
		h := newHarness(t, "s3cret\n")
		err := h.run("-u", "alice", "-r", "web", "--remember", "--config", configPath)
		testutil.AssertNoError(t, err)

		got, ok, err := credential.NewStore(h.ring).Password("alice")
		if err != nil || !ok || got != "s3cret" {
			t.Errorf("stored password = %q ok=%v err=%v", got, ok, err)
		}
	})

	t.Run("use-keyring skips the prompt", func(t *testing.T) {
		h := newHarness(t, "")
		if err := credential.NewStore(h.ring).SetPassword("alice", "s3cret"); err != nil {
			t.Fatal(err)
		}

		err := h.run("-u", "alice", "-r", "web", "--use-keyring", "--config", configPath)
		testutil.AssertNoError(t, err)
		testutil.AssertNotContainsString(t, h.stderr.String(), "Bitbucket password for")
	})

	t.Run("rejected keyring password is removed", func(t *testing.T) {
		h := newHarness(t, "")
		if err := credential.NewStore(h.ring).SetPassword("alice", "stale"); err != nil {
			t.Fatal(err)
		}

		err := h.run("-u", "alice", "--use-keyring", "--config", configPath)
		if !errors.Is(err, openerrors.ErrConnection) {
			t.Fatalf("expected connection error, got %v", err)
		}
		if _, ok, _ := credential.NewStore(h.ring).Password("alice"); ok {
			t.Error("stale password should have been removed")
		}
	})

	t.Run("missing keyring entry falls back to the prompt", func(t *testing.T) {
		h := newHarness(t, "s3cret\n")
		err := h.run("-u", "alice", "-r", "web", "--use-keyring", "--config", configPath)
		testutil.AssertNoError(t, err)
		testutil.AssertContainsString(t, h.stderr.String(), "Bitbucket password for alice")
	})
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantStderr string
	}{
		{name: "missing username", args: nil, wantStderr: "Usage:"},
		{name: "unknown flag", args: []string{"-u", "alice", "--bogus"}},
		{name: "positional argument", args: []string{"-u", "alice", "extra"}},
		{name: "zero limit", args: []string{"-u", "alice", "--limit", "0"}},
		{name: "colon in username", args: []string{"-u", "ali:ce"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "s3cret\n")
			err := h.run(tt.args...)
			if !errors.Is(err, openerrors.ErrUsage) {
				t.Fatalf("expected usage error, got %v", err)
			}
			if code := mapErrorToExitCode(err); code != exitUsage {
				t.Errorf("exit code = %d, want %d", code, exitUsage)
			}
			if tt.wantStderr != "" {
				testutil.AssertContainsString(t, h.stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestMapErrorToExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"nil", nil, exitOK},
		{"usage", fmt.Errorf("%w: missing username", openerrors.ErrUsage), exitUsage},
		{"too many results", &openerrors.TooManyResultsError{Limit: 10, Opened: 10}, exitTooManyResults},
		{"unauthorized", openerrors.NewConnectionError(401, "401 Unauthorized"), exitConnection},
		{"wrapped not found", fmt.Errorf("failed to connect: %w", openerrors.NewConnectionError(404, "")), exitConnection},
		{"network", fmt.Errorf("%w: dial tcp: refused", openerrors.ErrNetworkFailure), exitConnection},
		{"not connected", fmt.Errorf("GET /repositories: %w", openerrors.ErrNotConnected), exitConnection},
		{"other", errors.New("disk full"), exitConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapErrorToExitCode(tt.err); got != tt.wantCode {
				t.Errorf("mapErrorToExitCode(%v) = %d, want %d", tt.err, got, tt.wantCode)
			}
		})
	}
}

// writeEndpointConfig points the command at a mock server.
func writeEndpointConfig(t *testing.T, endpoint string) string {
	t.Helper()
	return testutil.WriteFile(t, t.TempDir(), "open.yaml", fmt.Sprintf("bitbucket:\n  api_endpoint: %s\n", endpoint))
}
