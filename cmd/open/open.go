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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-open/internal/bitbucket"
	"github.com/sirseerhq/sirseer-open/internal/browser"
	"github.com/sirseerhq/sirseer-open/internal/config"
	"github.com/sirseerhq/sirseer-open/internal/credential"
	openerrors "github.com/sirseerhq/sirseer-open/internal/errors"
	"github.com/sirseerhq/sirseer-open/internal/giterror"
	"github.com/sirseerhq/sirseer-open/internal/metadata"
	"github.com/sirseerhq/sirseer-open/internal/opener"
	"github.com/sirseerhq/sirseer-open/internal/output"
	"github.com/sirseerhq/sirseer-open/internal/prompt"
	"github.com/sirseerhq/sirseer-open/pkg/version"
)

const (
	exitOK             = 0
	exitConnection     = 1
	exitTooManyResults = 2
	exitUsage          = 3
)

// options holds the command-line flags.
type options struct {
	username     string
	repositories []string
	limit        int
	configPath   string
	outputFile   string
	metadataFile string
	launcher     string
	timeout      time.Duration
	dryRun       bool
	useKeyring   bool
	remember     bool
}

// credentialStore is the part of credential.Store the command uses.
type credentialStore interface {
	Password(username string) (string, bool, error)
	SetPassword(username, password string) error
	Delete(username string) error
}

// environment carries the process's I/O and the collaborators tests replace.
type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	newBrowser  func(launcher string, stdout, stderr io.Writer) opener.Browser
	openKeyring func() (credentialStore, error)
}

func defaultEnvironment() environment {
	return environment{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		newBrowser: func(launcher string, stdout, stderr io.Writer) opener.Browser {
			return browser.New(launcher, stdout, stderr)
		},
		openKeyring: func() (credentialStore, error) {
			return credential.Open()
		},
	}
}

func newRootCommand(env environment) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "sirseer-open",
		Short: "Open your Bitbucket pull requests in the browser",
		Long: `SirSeer Open lists the open pull requests of every Bitbucket repository
you contribute to or administer and opens each one in your web browser.

Authentication uses your Bitbucket username and password (or app password):
  - Use -u/--username, or set BITBUCKET_USERNAME
  - The password is prompted for without echo, or read from the system
    keyring with --use-keyring

Runs that would open more than --limit pull requests abort; narrow them
down with -r/--repositories.`,
		Version:       version.Version,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(cmd.Context(), cmd, opts, env)
		},
	}

	cmd.SetIn(env.stdin)
	cmd.SetOut(env.stdout)
	cmd.SetErr(env.stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", openerrors.ErrUsage, err)
	})

	flags := cmd.Flags()
	flags.StringVarP(&opts.username, "username", "u", "", "Bitbucket username (overrides BITBUCKET_USERNAME)")
	flags.StringSliceVarP(&opts.repositories, "repositories", "r", nil, "Only open pull requests of these repository short names (repeatable or comma separated)")
	flags.IntVar(&opts.limit, "limit", opener.DefaultLimit, "Abort when more than this many pull requests would be opened")
	flags.StringVar(&opts.configPath, "config", "", "Configuration file (default: .sirseer-open.yaml or ~/.sirseer/open.yaml)")
	flags.StringVar(&opts.outputFile, "output", "", "Write opened pull requests to this NDJSON file")
	flags.StringVar(&opts.metadataFile, "metadata", "", "Write a JSON run summary to this file")
	flags.StringVar(&opts.launcher, "browser", "", "Command used to open URLs (default: GH_BROWSER, BROWSER or the system opener)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Per-request timeout, 0 for none")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print pull request URLs instead of opening them")
	flags.BoolVar(&opts.useKeyring, "use-keyring", false, "Read the password from the system keyring")
	flags.BoolVar(&opts.remember, "remember", false, "Store the password in the system keyring after a successful login")

	return cmd
}

// usageArgs marks positional argument errors as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", openerrors.ErrUsage, err)
		}
		return nil
	}
}

// loadSettings merges configuration and flags. Flags win only when set.
func loadSettings(cmd *cobra.Command, opts options) (*config.Config, error) {
	flags := cmd.Flags()

	username := ""
	if flags.Changed("username") {
		username = opts.username
	}
	cfg, err := config.LoadConfigForUser(opts.configPath, username)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", openerrors.ErrUsage, err)
	}

	if flags.Changed("repositories") {
		cfg.Defaults.Repositories = opts.repositories
	}
	if flags.Changed("limit") {
		cfg.Defaults.PullRequestLimit = opts.limit
	}
	if flags.Changed("timeout") {
		cfg.Defaults.Timeout = opts.timeout
	}
	if flags.Changed("browser") {
		cfg.Browser.Launcher = opts.launcher
	}
	if flags.Changed("use-keyring") {
		cfg.Credentials.UseKeyring = opts.useKeyring
	}
	if flags.Changed("output") {
		cfg.Output.RecordFile = opts.outputFile
	}
	if flags.Changed("metadata") {
		cfg.Output.MetadataFile = opts.metadataFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid configuration: %w", openerrors.ErrUsage, err)
	}
	return cfg, nil
}

// runOpen executes a complete run: connect, enumerate, open.
func runOpen(ctx context.Context, cmd *cobra.Command, opts options, env environment) (err error) {
	cfg, err := loadSettings(cmd, opts)
	if err != nil {
		return err
	}

	username := cfg.Bitbucket.Username
	if username == "" {
		fmt.Fprint(env.stderr, cmd.UsageString())
		return fmt.Errorf("%w: username is required (use --username or set BITBUCKET_USERNAME)", openerrors.ErrUsage)
	}

	tracker := metadata.New()
	var (
		iter   *bitbucket.PullRequestIterator
		result *opener.Result
	)
	if path := cfg.Output.MetadataFile; path != "" {
		defer func() {
			summary := metadata.Summary{}
			if iter != nil {
				summary.RepositoriesScanned = iter.RepositoriesScanned()
				summary.RepositoriesMatched = iter.RepositoriesMatched()
			}
			if result != nil {
				summary.PullRequestsOpened = result.Count()
				summary.BrowserFailures = result.BrowserFailures
			}
			md := tracker.GenerateMetadata(version.Version, metadata.RunParams{
				Username:     username,
				APIEndpoint:  cfg.Bitbucket.APIEndpoint,
				Repositories: cfg.Defaults.Repositories,
				Limit:        cfg.Defaults.PullRequestLimit,
				PageOrder:    cfg.PageOrder().String(),
				DryRun:       opts.dryRun,
			}, summary, err)
			if saveErr := metadata.SaveMetadata(md, path); saveErr != nil {
				fmt.Fprintf(env.stderr, "Warning: %v\n", saveErr)
			}
		}()
	}

	password, fromKeyring, store := resolvePassword(cfg, opts, env, username)
	if password == nil {
		pw, promptErr := prompt.Password(fmt.Sprintf("Bitbucket password for %s: ", username), env.stdin, env.stderr)
		if promptErr != nil {
			return promptErr
		}
		password = &pw
	}

	session, err := bitbucket.New(username, *password,
		bitbucket.WithBaseURL(cfg.Bitbucket.APIEndpoint),
		bitbucket.WithTimeout(cfg.Defaults.Timeout),
		bitbucket.WithCallObserver(tracker.ObserveCall),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.stderr, "Connecting to %s as %s...\n", session.BaseURL(), username)
	if err := session.Connect(ctx); err != nil {
		if fromKeyring && giterror.NewInspector().IsAuthError(err) {
			if delErr := store.Delete(username); delErr == nil {
				fmt.Fprintf(env.stderr, "Removed the rejected password for %s from the keyring\n", username)
			}
		}
		return fmt.Errorf("failed to connect: %w", err)
	}

	if opts.remember && !fromKeyring {
		rememberPassword(env, store, username, *password)
	}

	record := output.Discard
	if cfg.Output.RecordFile != "" {
		fileWriter, fErr := output.NewFileWriter(cfg.Output.RecordFile)
		if fErr != nil {
			return fErr
		}
		defer func() {
			if closeErr := fileWriter.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		record = fileWriter
	}

	var b opener.Browser
	if !opts.dryRun {
		b = env.newBrowser(cfg.Browser.Launcher, env.stdout, env.stderr)
	}
	op := opener.New(b,
		opener.WithLimit(cfg.Defaults.PullRequestLimit),
		opener.WithDryRun(opts.dryRun),
		opener.WithRecord(record),
		opener.WithOutput(env.stdout, env.stderr),
	)

	filter := bitbucket.NewRepositoryFilter(cfg.Defaults.Repositories...)
	iter = bitbucket.ListPullRequests(session, filter, bitbucket.WithPageOrder(cfg.PageOrder()))

	result, err = op.OpenAll(ctx, &countingSource{Source: iter, tracker: tracker})
	if result.Count() > 0 {
		fmt.Fprintf(env.stderr, "Opened %d pull request(s) from %d repositories\n",
			result.Count(), iter.RepositoriesMatched())
	}
	return err
}

// resolvePassword returns the keyring password when one is configured and
// stored, plus the store for later updates. A nil password means prompt.
func resolvePassword(cfg *config.Config, opts options, env environment, username string) (*string, bool, credentialStore) {
	if !cfg.Credentials.UseKeyring && !opts.remember {
		return nil, false, nil
	}

	store, err := env.openKeyring()
	if err != nil {
		fmt.Fprintf(env.stderr, "Warning: keyring unavailable: %v\n", err)
		return nil, false, nil
	}
	if !cfg.Credentials.UseKeyring {
		return nil, false, store
	}

	password, ok, err := store.Password(username)
	if err != nil {
		fmt.Fprintf(env.stderr, "Warning: %v\n", err)
		return nil, false, store
	}
	if !ok {
		return nil, false, store
	}
	return &password, true, store
}

func rememberPassword(env environment, store credentialStore, username, password string) {
	if store == nil {
		return
	}
	if err := store.SetPassword(username, password); err != nil {
		fmt.Fprintf(env.stderr, "Warning: %v\n", err)
		return
	}
	fmt.Fprintf(env.stderr, "Stored the password for %s in the keyring\n", username)
}

// countingSource reports every yielded pull request to the tracker.
type countingSource struct {
	opener.Source
	tracker *metadata.Tracker
}

func (s *countingSource) Next(ctx context.Context) bool {
	if !s.Source.Next(ctx) {
		return false
	}
	s.tracker.IncrementPullRequests()
	return true
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return exitOK
	}

	if errors.Is(err, openerrors.ErrUsage) {
		return exitUsage
	}

	if giterror.NewInspector().IsTooManyResults(err) {
		return exitTooManyResults
	}

	// Connection, authentication and network failures, and anything else
	return exitConnection
}
