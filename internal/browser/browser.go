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

// Package browser opens pull request pages in the user's web browser.
//
// The launcher is resolved by go-gh: an explicit launcher wins, otherwise
// GH_BROWSER, the gh configuration and BROWSER are consulted before falling
// back to the platform opener.
package browser

import (
	"fmt"
	"io"

	ghbrowser "github.com/cli/go-gh/pkg/browser"
)

// Launcher opens URLs through go-gh. It returns as soon as the launcher
// process has handed the URL over.
type Launcher struct {
	launcher string
	browse   func(string) error
}

// New creates a Launcher. An empty launcher selects the system default.
// Launcher output is forwarded to stdout and stderr.
func New(launcher string, stdout, stderr io.Writer) *Launcher {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	b := ghbrowser.New(launcher, stdout, stderr)
	return &Launcher{
		launcher: launcher,
		browse:   b.Browse,
	}
}

// Browse opens url.
func (l *Launcher) Browse(url string) error {
	if err := l.browse(url); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// String names the configured launcher.
func (l *Launcher) String() string {
	if l.launcher == "" {
		return "system default"
	}
	return l.launcher
}
