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
	"fmt"
	"net/http"
)

// Request describes an authenticated GET. It is a value: every modifier
// returns a new Request with its own copy of the header, so a template kept
// by the session is never altered by the calls derived from it.
type Request struct {
	url    string
	header http.Header
}

// NewRequest returns a descriptor for rawURL with no headers.
func NewRequest(rawURL string) Request {
	return Request{url: rawURL, header: http.Header{}}
}

// WithHeader returns a copy of r with key set to value.
func (r Request) WithHeader(key, value string) Request {
	next := Request{url: r.url, header: r.header.Clone()}
	if next.header == nil {
		next.header = http.Header{}
	}
	next.header.Set(key, value)
	return next
}

// WithPath returns a copy of r whose URL has suffix appended and whose
// header carries all of r's headers.
func (r Request) WithPath(suffix string) Request {
	header := r.header.Clone()
	if header == nil {
		header = http.Header{}
	}
	return Request{url: r.url + suffix, header: header}
}

// URL returns the full request URL.
func (r Request) URL() string {
	return r.url
}

// Header returns a copy of the request headers.
func (r Request) Header() http.Header {
	return r.header.Clone()
}

// Build turns the descriptor into an *http.Request bound to ctx.
func (r Request) Build(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", r.url, err)
	}
	for key, values := range r.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	return req, nil
}
