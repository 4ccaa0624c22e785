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

// Package errors defines the sentinel and typed errors shared across the
// application. Each of them maps to a specific exit code in the CLI so that
// scripts can tell an authentication failure from an over-broad run.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrConnection matches any *ConnectionError through errors.Is.
	// Maps to exit code 1.
	ErrConnection = errors.New("connection failed")

	// ErrNotConnected indicates a request was attempted before Connect succeeded.
	// Maps to exit code 1.
	ErrNotConnected = errors.New("not connected: call Connect before sending requests")

	// ErrNetworkFailure indicates the request never produced an HTTP response.
	// Maps to exit code 1.
	ErrNetworkFailure = errors.New("network connection failed")

	// ErrTooManyResults matches any *TooManyResultsError through errors.Is.
	// Maps to exit code 2.
	ErrTooManyResults = errors.New("too many pull requests")

	// ErrUsage indicates invalid or missing command-line input.
	// Maps to exit code 3.
	ErrUsage = errors.New("usage error")
)

// UnknownReason is reported for status codes missing from the reason table.
const UnknownReason = "Unexpected response"

// statusReasons is read-only after package initialisation.
var statusReasons = map[int]string{
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusNotFound:            "Not found Page",
	http.StatusNotModified:         "Not Modified",
	http.StatusBadRequest:          "Bad request",
	http.StatusForbidden:           "Forbidden",
	http.StatusInternalServerError: "Internal Server Error",
}

// ReasonFor returns the human readable label for an HTTP status code.
func ReasonFor(code int) string {
	if reason, ok := statusReasons[code]; ok {
		return reason
	}
	return UnknownReason
}

// ConnectionError is returned for any non-2xx response from the API, both
// during the connectivity check and for later data calls.
type ConnectionError struct {
	// StatusCode is the numeric HTTP status.
	StatusCode int
	// Reason is the label from the reason table.
	Reason string
	// Status is the status line reported by the server, e.g. "401 Unauthorized".
	Status string
}

// NewConnectionError builds a ConnectionError with the reason looked up
// from the status code.
func NewConnectionError(code int, status string) *ConnectionError {
	return &ConnectionError{
		StatusCode: code,
		Reason:     ReasonFor(code),
		Status:     status,
	}
}

func (e *ConnectionError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("%s (%d)", e.Reason, e.StatusCode)
	}
	return fmt.Sprintf("%s (%d): %s", e.Reason, e.StatusCode, e.Status)
}

// Is reports whether target is ErrConnection.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// IsAuthError reports whether the server rejected the credentials.
func (e *ConnectionError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFoundError reports whether the requested resource does not exist.
func (e *ConnectionError) IsNotFoundError() bool {
	return e.StatusCode == http.StatusNotFound
}

// TooManyResultsError aborts a run once the pull request limit is reached.
// Pull requests opened before the abort stay open.
type TooManyResultsError struct {
	Limit  int
	Opened int
}

func (e *TooManyResultsError) Error() string {
	return fmt.Sprintf("too many pull requests (limit %d, %d already opened), try to filter by repository",
		e.Limit, e.Opened)
}

// Is reports whether target is ErrTooManyResults.
func (e *TooManyResultsError) Is(target error) bool {
	return target == ErrTooManyResults
}
