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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openerrors "github.com/sirseerhq/sirseer-open/internal/errors"
)

const (
	// DefaultBaseURL is the Bitbucket Cloud API host.
	DefaultBaseURL = "https://api.bitbucket.org"

	// APIVersion is embedded in the path of every call except the
	// connectivity check.
	APIVersion = "2.0"
)

// Session holds the credentials for one run and issues authenticated GETs.
// The authorization header and base URL never change after New, so a
// Session is safe to share read-only once connected.
type Session struct {
	username   string
	password   string
	authHeader string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client

	// template is the request that passed the connectivity check.
	// nil until Connect succeeds.
	template *Request
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
	observer  CallObserver
}

// WithBaseURL points the session at another Bitbucket-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *sessionOptions) {
		o.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout bounds every request. Zero, the default, waits indefinitely.
func WithTimeout(timeout time.Duration) Option {
	return func(o *sessionOptions) {
		o.timeout = timeout
	}
}

// WithTransport replaces the underlying RoundTripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *sessionOptions) {
		o.transport = rt
	}
}

// WithCallObserver registers a hook invoked after every API response.
func WithCallObserver(observer CallObserver) Option {
	return func(o *sessionOptions) {
		o.observer = observer
	}
}

// New creates a session for username. It performs no I/O; the credentials
// are only checked by the server during Connect. An empty username is
// accepted, but one containing a colon cannot be expressed in basic
// authentication and is rejected.
func New(username, password string, opts ...Option) (*Session, error) {
	if strings.Contains(username, ":") {
		return nil, fmt.Errorf("username %q must not contain ':': %w", username, openerrors.ErrUsage)
	}

	o := sessionOptions{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(&o)
	}

	return &Session{
		username:   username,
		password:   password,
		authHeader: BasicAuthHeader(username, password),
		baseURL:    o.baseURL,
		timeout:    o.timeout,
		httpClient: &http.Client{
			Transport: newAPITransport(o.transport, o.observer),
		},
	}, nil
}

// BasicAuthHeader returns the Authorization header value for the pair.
func BasicAuthHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// Username returns the account the session authenticates as.
func (s *Session) Username() string {
	return s.username
}

// AuthorizationHeader returns the header value computed at construction.
func (s *Session) AuthorizationHeader() string {
	return s.authHeader
}

// BaseURL returns the API host the session talks to.
func (s *Session) BaseURL() string {
	return s.baseURL
}

// Connected reports whether Connect has succeeded.
func (s *Session) Connected() bool {
	return s.template != nil
}

// String omits the password and the authorization header.
func (s *Session) String() string {
	return fmt.Sprintf("bitbucket.Session{user=%q, base=%q, connected=%t}", s.username, s.baseURL, s.Connected())
}

// GoString keeps %#v from printing the credentials.
func (s *Session) GoString() string {
	return s.String()
}

// Connect issues a single GET to the API root. On success the request is
// kept as the template for every later Send. A non-2xx answer yields a
// *errors.ConnectionError and leaves the session unconnected. There is no retry.
func (s *Session) Connect(ctx context.Context) error {
	req := NewRequest(s.baseURL).WithHeader("Authorization", s.authHeader)
	if err := s.do(ctx, req, nil); err != nil {
		return err
	}
	s.template = &req
	return nil
}

// Send GETs base URL + "/2.0" + relativePath with the template's headers and
// decodes the JSON body into v. It fails with errors.ErrNotConnected, without
// touching the network, when Connect has not succeeded.
func (s *Session) Send(ctx context.Context, relativePath string, v any) error {
	if s.template == nil {
		return fmt.Errorf("GET %s: %w", relativePath, openerrors.ErrNotConnected)
	}
	return s.do(ctx, s.template.WithPath("/"+APIVersion+relativePath), v)
}

func (s *Session) do(ctx context.Context, r Request, v any) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := r.Build(ctx)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", openerrors.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return openerrors.NewConnectionError(resp.StatusCode, resp.Status)
	}

	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", r.URL(), err)
	}
	return nil
}
