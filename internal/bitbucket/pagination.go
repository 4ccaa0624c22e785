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
	"net/url"
)

// FirstRepositoriesPage lists every repository the user contributes to or
// administers.
const FirstRepositoriesPage = "/repositories?role=contributor&role=admin"

// PageOrder selects which pending page is fetched next.
type PageOrder int

const (
	// PageOrderFIFO follows pages in the order their links were discovered.
	PageOrderFIFO PageOrder = iota
	// PageOrderLIFO follows the most recently discovered link first.
	PageOrderLIFO
)

// ParsePageOrder accepts "fifo" and "lifo"; the empty string means FIFO.
func ParsePageOrder(s string) (PageOrder, error) {
	switch s {
	case "", "fifo":
		return PageOrderFIFO, nil
	case "lifo":
		return PageOrderLIFO, nil
	default:
		return PageOrderFIFO, fmt.Errorf("unknown page order %q (want fifo or lifo)", s)
	}
}

func (o PageOrder) String() string {
	if o == PageOrderLIFO {
		return "lifo"
	}
	return "fifo"
}

// NextPagePath keeps only the query of a "next" link and re-roots it on the
// repositories endpoint, so the host and version prefix always come from the
// session rather than from the server's answer.
func NextPagePath(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid next page link %q: %w", link, err)
	}
	if u.RawQuery == "" {
		return "/repositories", nil
	}
	return "/repositories?" + u.RawQuery, nil
}

// RepositoryIterator walks the paginated repositories listing, yielding full
// names ("owner/repo"). It is forward-only and cannot be restarted; each
// page is fetched at most once, when the previous one is exhausted.
//
//	it := ListRepositories(session)
//	for it.Next(ctx) {
//	    name := it.Value()
//	}
//	if err := it.Err(); err != nil { ... }
type RepositoryIterator struct {
	sender  Sender
	order   PageOrder
	pending []string
	visited map[string]struct{}
	buf     []string
	current string
	pages   int
	err     error
	done    bool
}

// IteratorOption configures a RepositoryIterator.
type IteratorOption func(*RepositoryIterator)

// WithPageOrder selects FIFO (default) or LIFO traversal of pending pages.
func WithPageOrder(order PageOrder) IteratorOption {
	return func(it *RepositoryIterator) {
		it.order = order
	}
}

// ListRepositories returns an iterator starting at FirstRepositoriesPage.
func ListRepositories(sender Sender, opts ...IteratorOption) *RepositoryIterator {
	it := &RepositoryIterator{
		sender:  sender,
		pending: []string{FirstRepositoriesPage},
		visited: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Next advances to the next repository, fetching a page when the current
// one is used up. It returns false at the end of the listing or on error.
func (it *RepositoryIterator) Next(ctx context.Context) bool {
	if it.done {
		return false
	}
	for len(it.buf) == 0 {
		path, ok := it.pop()
		if !ok {
			it.done = true
			return false
		}
		if err := it.fetch(ctx, path); err != nil {
			it.err = err
			it.done = true
			return false
		}
	}
	it.current, it.buf = it.buf[0], it.buf[1:]
	return true
}

// Value returns the repository full name produced by the last Next.
func (it *RepositoryIterator) Value() string {
	return it.current
}

// Err returns the error that stopped the iteration, if any.
func (it *RepositoryIterator) Err() error {
	return it.err
}

// Pages returns how many pages have been fetched so far.
func (it *RepositoryIterator) Pages() int {
	return it.pages
}

func (it *RepositoryIterator) pop() (string, bool) {
	for len(it.pending) > 0 {
		var path string
		if it.order == PageOrderLIFO {
			last := len(it.pending) - 1
			path, it.pending = it.pending[last], it.pending[:last]
		} else {
			path, it.pending = it.pending[0], it.pending[1:]
		}
		if _, seen := it.visited[path]; seen {
			continue
		}
		it.visited[path] = struct{}{}
		return path, true
	}
	return "", false
}

func (it *RepositoryIterator) fetch(ctx context.Context, path string) error {
	var page RepositoryPage
	if err := it.sender.Send(ctx, path, &page); err != nil {
		return err
	}
	it.pages++

	for _, repo := range page.Values {
		it.buf = append(it.buf, repo.FullName)
	}

	if page.Next != "" {
		next, err := NextPagePath(page.Next)
		if err != nil {
			return err
		}
		it.pending = append(it.pending, next)
	}
	return nil
}
