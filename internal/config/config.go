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

// Package config provides configuration management for sirseer-open.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. User-specific configuration
//  4. Configuration file
//  5. Built-in defaults
//
// When no file is named explicitly, .sirseer-open.yaml in the working
// directory and ~/.sirseer/open.yaml are tried in turn.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sirseerhq/sirseer-open/internal/bitbucket"
)

// LoadConfig loads configuration from configPath, or from the first default
// location that exists when configPath is empty, and applies the overrides
// of the configured user and the environment.
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigForUser(configPath, "")
}

// LoadConfigForUser is LoadConfig for an explicitly named user, such as one
// given on the command line. An empty username falls back to
// BITBUCKET_USERNAME and then to bitbucket.username from the file.
//
// User overrides are folded in after the file and before the environment,
// so SIRSEER_PR_LIMIT beats users.<name>.pull_request_limit.
func LoadConfigForUser(configPath, username string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		for _, path := range DefaultPaths() {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	if username == "" {
		username = os.Getenv("BITBUCKET_USERNAME")
	}
	if username == "" {
		username = cfg.Bitbucket.Username
	}
	cfg.applyUser(username)

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if username != "" {
		cfg.Bitbucket.Username = username
	}

	cfg.Output.RecordFile = expandPath(cfg.Output.RecordFile)
	cfg.Output.MetadataFile = expandPath(cfg.Output.MetadataFile)

	return cfg, nil
}

// DefaultPaths lists the configuration files searched when none is given.
func DefaultPaths() []string {
	home := homeDir()
	return []string{
		".sirseer-open.yaml",
		".sirseer-open.yml",
		filepath.Join(home, ".sirseer", "open.yaml"),
		filepath.Join(home, ".sirseer", "open.yml"),
	}
}

// applyUser folds the overrides for username into Defaults.
func (c *Config) applyUser(username string) {
	userConfig, ok := c.Users[username]
	if !ok {
		return
	}
	if userConfig.PullRequestLimit > 0 {
		c.Defaults.PullRequestLimit = userConfig.PullRequestLimit
	}
	if len(userConfig.Repositories) > 0 {
		c.Defaults.Repositories = userConfig.Repositories
	}
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if endpoint := os.Getenv("BITBUCKET_API_ENDPOINT"); endpoint != "" {
		cfg.Bitbucket.APIEndpoint = endpoint
	}
	if username := os.Getenv("BITBUCKET_USERNAME"); username != "" {
		cfg.Bitbucket.Username = username
	}

	if limit := os.Getenv("SIRSEER_PR_LIMIT"); limit != "" {
		n, err := parsePositiveInt(limit)
		if err != nil {
			return fmt.Errorf("invalid SIRSEER_PR_LIMIT: %w", err)
		}
		cfg.Defaults.PullRequestLimit = n
	}
	if timeout := os.Getenv("SIRSEER_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid SIRSEER_TIMEOUT: %w", err)
		}
		cfg.Defaults.Timeout = d
	}

	if launcher := os.Getenv("SIRSEER_BROWSER"); launcher != "" {
		cfg.Browser.Launcher = launcher
	}
	if useKeyring := os.Getenv("SIRSEER_USE_KEYRING"); useKeyring != "" {
		cfg.Credentials.UseKeyring = parseBool(useKeyring)
	}
	return nil
}

func homeDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home = os.Getenv("USERPROFILE") // Windows
	}
	return home
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(homeDir(), path[2:])
	}
	return os.ExpandEnv(path)
}

func parsePositiveInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

// PageOrder returns the parsed page order. Call Validate first.
func (c *Config) PageOrder() bitbucket.PageOrder {
	order, _ := bitbucket.ParsePageOrder(c.Defaults.PageOrder)
	return order
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Defaults.PullRequestLimit <= 0 {
		return fmt.Errorf("pull request limit must be positive, got: %d", c.Defaults.PullRequestLimit)
	}
	if c.Bitbucket.APIEndpoint == "" {
		return fmt.Errorf("Bitbucket API endpoint cannot be empty")
	}
	if _, err := bitbucket.ParsePageOrder(c.Defaults.PageOrder); err != nil {
		return err
	}
	if c.Defaults.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got: %s", c.Defaults.Timeout)
	}
	for name, user := range c.Users {
		if user.PullRequestLimit < 0 {
			return fmt.Errorf("pull request limit for user %s cannot be negative, got: %d", name, user.PullRequestLimit)
		}
	}
	return nil
}
