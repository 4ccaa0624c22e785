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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirseerhq/sirseer-open/internal/bitbucket"
)

// isolate points HOME at an empty directory so no real config is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"BITBUCKET_API_ENDPOINT", "BITBUCKET_USERNAME", "SIRSEER_PR_LIMIT",
		"SIRSEER_TIMEOUT", "SIRSEER_BROWSER", "SIRSEER_USE_KEYRING",
	} {
		t.Setenv(key, "")
	}
	return home
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Bitbucket.APIEndpoint != bitbucket.DefaultBaseURL {
		t.Errorf("APIEndpoint = %s, want %s", cfg.Bitbucket.APIEndpoint, bitbucket.DefaultBaseURL)
	}
	if cfg.Defaults.PullRequestLimit != 10 {
		t.Errorf("PullRequestLimit = %d, want 10", cfg.Defaults.PullRequestLimit)
	}
	if cfg.PageOrder() != bitbucket.PageOrderFIFO {
		t.Errorf("PageOrder = %s, want fifo", cfg.PageOrder())
	}
	if cfg.Defaults.Timeout != 0 {
		t.Errorf("Timeout = %s, want none", cfg.Defaults.Timeout)
	}
	if cfg.Credentials.UseKeyring {
		t.Error("UseKeyring = true, want false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), `
bitbucket:
  api_endpoint: https://bitbucket.example.com
  username: alice

defaults:
  pull_request_limit: 25
  repositories: [api, web]
  page_order: lifo
  timeout: 45s

users:
  bob:
    pull_request_limit: 3
    repositories: [infra]

browser:
  launcher: firefox

credentials:
  use_keyring: true

output:
  record_file: ~/runs/opened.ndjson
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Bitbucket.APIEndpoint != "https://bitbucket.example.com" {
		t.Errorf("APIEndpoint = %s", cfg.Bitbucket.APIEndpoint)
	}
	if cfg.Bitbucket.Username != "alice" {
		t.Errorf("Username = %s, want alice", cfg.Bitbucket.Username)
	}
	if cfg.Defaults.PullRequestLimit != 25 {
		t.Errorf("PullRequestLimit = %d, want 25", cfg.Defaults.PullRequestLimit)
	}
	if strings.Join(cfg.Defaults.Repositories, ",") != "api,web" {
		t.Errorf("Repositories = %v, want [api web]", cfg.Defaults.Repositories)
	}
	if cfg.PageOrder() != bitbucket.PageOrderLIFO {
		t.Errorf("PageOrder = %s, want lifo", cfg.PageOrder())
	}
	if cfg.Defaults.Timeout != 45*time.Second {
		t.Errorf("Timeout = %s, want 45s", cfg.Defaults.Timeout)
	}
	if cfg.Browser.Launcher != "firefox" {
		t.Errorf("Launcher = %s, want firefox", cfg.Browser.Launcher)
	}
	if !cfg.Credentials.UseKeyring {
		t.Error("UseKeyring = false, want true")
	}
	if strings.HasPrefix(cfg.Output.RecordFile, "~") || !strings.HasSuffix(cfg.Output.RecordFile, filepath.Join("runs", "opened.ndjson")) {
		t.Errorf("RecordFile = %s, want expanded home path", cfg.Output.RecordFile)
	}
	if user, ok := cfg.Users["bob"]; !ok || user.PullRequestLimit != 3 {
		t.Errorf("Users[bob] = %+v", user)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	isolate(t)
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), "defaults: [unclosed")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadConfig_DefaultLocation(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".sirseer")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "open.yaml"), []byte("defaults:\n  pull_request_limit: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Defaults.PullRequestLimit != 4 {
		t.Errorf("PullRequestLimit = %d, want 4 from ~/.sirseer/open.yaml", cfg.Defaults.PullRequestLimit)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), "defaults:\n  pull_request_limit: 25\n")

	t.Setenv("BITBUCKET_API_ENDPOINT", "https://env.example.com")
	t.Setenv("BITBUCKET_USERNAME", "carol")
	t.Setenv("SIRSEER_PR_LIMIT", "7")
	t.Setenv("SIRSEER_TIMEOUT", "2m")
	t.Setenv("SIRSEER_BROWSER", "lynx")
	t.Setenv("SIRSEER_USE_KEYRING", "yes")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Bitbucket.APIEndpoint != "https://env.example.com" {
		t.Errorf("APIEndpoint = %s", cfg.Bitbucket.APIEndpoint)
	}
	if cfg.Bitbucket.Username != "carol" {
		t.Errorf("Username = %s, want carol", cfg.Bitbucket.Username)
	}
	if cfg.Defaults.PullRequestLimit != 7 {
		t.Errorf("PullRequestLimit = %d, want 7 (env beats file)", cfg.Defaults.PullRequestLimit)
	}
	if cfg.Defaults.Timeout != 2*time.Minute {
		t.Errorf("Timeout = %s, want 2m", cfg.Defaults.Timeout)
	}
	if cfg.Browser.Launcher != "lynx" {
		t.Errorf("Launcher = %s, want lynx", cfg.Browser.Launcher)
	}
	if !cfg.Credentials.UseKeyring {
		t.Error("UseKeyring = false, want true")
	}
}

func TestEnvironmentOverrides_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero limit", "SIRSEER_PR_LIMIT", "0"},
		{"non numeric limit", "SIRSEER_PR_LIMIT", "many"},
		{"bad timeout", "SIRSEER_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)
			if _, err := LoadConfig(""); err == nil || !strings.Contains(err.Error(), tt.key) {
				t.Errorf("expected error naming %s, got %v", tt.key, err)
			}
		})
	}
}

func TestApplyUser(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Defaults.Repositories = []string{"api"}
	cfg.Users["bob"] = UserConfig{PullRequestLimit: 3, Repositories: []string{"infra"}}
	cfg.Users["dave"] = UserConfig{}

	cfg.applyUser("nobody")
	if cfg.Defaults.PullRequestLimit != 10 || cfg.Defaults.Repositories[0] != "api" {
		t.Errorf("unknown user changed defaults: %+v", cfg.Defaults)
	}

	cfg.applyUser("dave")
	if cfg.Defaults.PullRequestLimit != 10 || cfg.Defaults.Repositories[0] != "api" {
		t.Errorf("empty user overrides changed defaults: %+v", cfg.Defaults)
	}

	cfg.applyUser("bob")
	if cfg.Defaults.PullRequestLimit != 3 {
		t.Errorf("PullRequestLimit = %d, want 3", cfg.Defaults.PullRequestLimit)
	}
	if strings.Join(cfg.Defaults.Repositories, ",") != "infra" {
		t.Errorf("Repositories = %v, want [infra]", cfg.Defaults.Repositories)
	}
}

func TestLoadConfigForUser(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), `
bitbucket:
  username: alice
defaults:
  pull_request_limit: 8
users:
  alice:
    pull_request_limit: 4
  bob:
    pull_request_limit: 2
    repositories: [infra]
`)

	tests := []struct {
		name      string
		username  string
		envUser   string
		wantUser  string
		wantLimit int
	}{
		{name: "explicit user", username: "bob", wantUser: "bob", wantLimit: 2},
		{name: "user from file", wantUser: "alice", wantLimit: 4},
		{name: "user from environment", envUser: "bob", wantUser: "bob", wantLimit: 2},
		{name: "explicit user beats environment", username: "alice", envUser: "bob", wantUser: "alice", wantLimit: 4},
		{name: "user without overrides", username: "carol", wantUser: "carol", wantLimit: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BITBUCKET_USERNAME", tt.envUser)

			cfg, err := LoadConfigForUser(path, tt.username)
			if err != nil {
				t.Fatalf("LoadConfigForUser failed: %v", err)
			}
			if cfg.Bitbucket.Username != tt.wantUser {
				t.Errorf("Username = %s, want %s", cfg.Bitbucket.Username, tt.wantUser)
			}
			if cfg.Defaults.PullRequestLimit != tt.wantLimit {
				t.Errorf("PullRequestLimit = %d, want %d", cfg.Defaults.PullRequestLimit, tt.wantLimit)
			}
		})
	}
}

func TestLoadConfigForUser_EnvironmentBeatsUserOverrides(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), `
users:
  alice:
    pull_request_limit: 20
    repositories: [api]
`)
	t.Setenv("SIRSEER_PR_LIMIT", "5")

	cfg, err := LoadConfigForUser(path, "alice")
	if err != nil {
		t.Fatalf("LoadConfigForUser failed: %v", err)
	}
	if cfg.Defaults.PullRequestLimit != 5 {
		t.Errorf("PullRequestLimit = %d, want 5 from SIRSEER_PR_LIMIT", cfg.Defaults.PullRequestLimit)
	}
	if strings.Join(cfg.Defaults.Repositories, ",") != "api" {
		t.Errorf("Repositories = %v, want [api] from the user section", cfg.Defaults.Repositories)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero limit", mutate: func(c *Config) { c.Defaults.PullRequestLimit = 0 }, wantErr: "limit must be positive"},
		{name: "negative limit", mutate: func(c *Config) { c.Defaults.PullRequestLimit = -1 }, wantErr: "limit must be positive"},
		{name: "empty endpoint", mutate: func(c *Config) { c.Bitbucket.APIEndpoint = "" }, wantErr: "endpoint cannot be empty"},
		{name: "unknown page order", mutate: func(c *Config) { c.Defaults.PageOrder = "random" }, wantErr: "unknown page order"},
		{name: "empty page order", mutate: func(c *Config) { c.Defaults.PageOrder = "" }},
		{name: "negative timeout", mutate: func(c *Config) { c.Defaults.Timeout = -time.Second }, wantErr: "timeout cannot be negative"},
		{name: "negative user limit", mutate: func(c *Config) { c.Users["bob"] = UserConfig{PullRequestLimit: -2} }, wantErr: "user bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)
	t.Setenv("SIRSEER_TEST_DIR", "/var/runs")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~/opened.ndjson", filepath.Join(home, "opened.ndjson")},
		{"$SIRSEER_TEST_DIR/opened.ndjson", "/var/runs/opened.ndjson"},
		{"relative.ndjson", "relative.ndjson"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
