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
	"fmt"
	"io"
	"net/http"

	"github.com/sirseerhq/sirseer-open/pkg/version"
)

// maxResponseSize caps how much of a response body is read (10MB).
const maxResponseSize = 10 * 1024 * 1024

// CallObserver is notified after every round trip that produced a response.
type CallObserver func(method, url string, statusCode int)

// limitedReader wraps a ReadCloser with a size limit to prevent excessive memory usage.
type limitedReader struct {
	io.ReadCloser
	limit int64
	read  int64
}

// Read implements io.Reader with size limit enforcement.
func (lr *limitedReader) Read(p []byte) (n int, err error) {
	if lr.read >= lr.limit {
		return 0, fmt.Errorf("response size exceeded limit of %d bytes", lr.limit)
	}

	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = lr.ReadCloser.Read(p)
	lr.read += int64(n)

	return n, err
}

// apiTransport adds the User-Agent header, caps response bodies and reports
// each call. Authentication is not its concern: the Authorization header
// travels on the Request descriptor.
type apiTransport struct {
	base    http.RoundTripper
	limit   int64
	observe CallObserver
}

func newAPITransport(base http.RoundTripper, observe CallObserver) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &apiTransport{
		base:    base,
		limit:   maxResponseSize,
		observe: observe,
	}
}

// RoundTrip implements http.RoundTripper
func (t *apiTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if t.observe != nil {
		t.observe(req.Method, req.URL.String(), resp.StatusCode)
	}

	if resp.Body != nil {
		resp.Body = &limitedReader{
			ReadCloser: resp.Body,
			limit:      t.limit,
		}
	}

	return resp, nil
}
