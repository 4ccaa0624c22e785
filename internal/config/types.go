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

// Package config types define the settings that can be loaded from YAML
// configuration files, environment variables, or command-line flags.
package config

import "time"

// Config represents the complete configuration for sirseer-open.
type Config struct {
	Bitbucket   BitbucketConfig       `yaml:"bitbucket"`
	Defaults    DefaultsConfig        `yaml:"defaults"`
	Users       map[string]UserConfig `yaml:"users"`
	Browser     BrowserConfig         `yaml:"browser"`
	Credentials CredentialsConfig     `yaml:"credentials"`
	Output      OutputConfig          `yaml:"output"`
}

// BitbucketConfig points the tool at a Bitbucket-compatible REST API.
type BitbucketConfig struct {
	APIEndpoint string `yaml:"api_endpoint"`
	Username    string `yaml:"username"`
}

// DefaultsConfig applies to every run unless overridden for a user or on
// the command line.
type DefaultsConfig struct {
	PullRequestLimit int           `yaml:"pull_request_limit"`
	Repositories     []string      `yaml:"repositories"`
	PageOrder        string        `yaml:"page_order"`
	Timeout          time.Duration `yaml:"timeout"`
}

// UserConfig overrides defaults for a single Bitbucket account.
type UserConfig struct {
	PullRequestLimit int      `yaml:"pull_request_limit"`
	Repositories     []string `yaml:"repositories"`
}

// BrowserConfig selects the program used to open pull requests.
// An empty launcher lets the system decide.
type BrowserConfig struct {
	Launcher string `yaml:"launcher"`
}

// CredentialsConfig controls whether passwords are read from the keyring.
type CredentialsConfig struct {
	UseKeyring bool `yaml:"use_keyring"`
}

// OutputConfig names files written after a run. Empty means not written.
type OutputConfig struct {
	RecordFile   string `yaml:"record_file"`
	MetadataFile string `yaml:"metadata_file"`
}

// DefaultConfig returns a Config targeting Bitbucket Cloud.
func DefaultConfig() *Config {
	return &Config{
		Bitbucket: BitbucketConfig{
			APIEndpoint: "https://api.bitbucket.org",
		},
		Defaults: DefaultsConfig{
			PullRequestLimit: 10,
			PageOrder:        "fifo",
		},
		Users: make(map[string]UserConfig),
	}
}
