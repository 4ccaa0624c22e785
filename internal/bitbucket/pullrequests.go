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
	"sort"
	"strings"
)

// RepositoryFilter is a set of repository short names. The empty filter
// matches every repository.
type RepositoryFilter map[string]struct{}

// NewRepositoryFilter builds a filter from names, ignoring empty entries.
func NewRepositoryFilter(names ...string) RepositoryFilter {
	f := make(RepositoryFilter, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			f[name] = struct{}{}
		}
	}
	return f
}

// Matches reports whether fullName's short name is in the filter. Matching
// is exact and case-sensitive.
func (f RepositoryFilter) Matches(fullName string) bool {
	if len(f) == 0 {
		return true
	}
	_, ok := f[ShortName(fullName)]
	return ok
}

// Names returns the filter entries in sorted order.
func (f RepositoryFilter) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ShortName returns the last path segment of a full repository name.
func ShortName(fullName string) string {
	if i := strings.LastIndex(fullName, "/"); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}

// PullRequestsPath is the endpoint listing a repository's open pull requests.
func PullRequestsPath(fullName string) string {
	return "/repositories/" + fullName + "/pullrequests"
}

// PullRequestIterator yields the pull requests of every repository accepted
// by the filter, in repository discovery order and, within a repository, in
// the order the server returned them. Only the first page of each
// repository's pull requests is read.
type PullRequestIterator struct {
	sender  Sender
	repos   *RepositoryIterator
	filter  RepositoryFilter
	buf     []PullRequestRef
	current PullRequestRef
	scanned int
	matched int
	err     error
	done    bool
}

// ListPullRequests layers pull request retrieval on top of ListRepositories.
func ListPullRequests(sender Sender, filter RepositoryFilter, opts ...IteratorOption) *PullRequestIterator {
	return &PullRequestIterator{
		sender: sender,
		repos:  ListRepositories(sender, opts...),
		filter: filter,
	}
}

// Next advances to the next pull request. It returns false when every
// repository has been visited or on error.
func (it *PullRequestIterator) Next(ctx context.Context) bool {
	if it.done {
		return false
	}
	for len(it.buf) == 0 {
		if !it.repos.Next(ctx) {
			it.err = it.repos.Err()
			it.done = true
			return false
		}
		repo := it.repos.Value()
		it.scanned++
		if !it.filter.Matches(repo) {
			continue
		}
		it.matched++
		if err := it.fetch(ctx, repo); err != nil {
			it.err = err
			it.done = true
			return false
		}
	}
	it.current, it.buf = it.buf[0], it.buf[1:]
	return true
}

// Value returns the pull request produced by the last Next.
func (it *PullRequestIterator) Value() PullRequestRef {
	return it.current
}

// Err returns the error that stopped the iteration, if any.
func (it *PullRequestIterator) Err() error {
	return it.err
}

// RepositoriesScanned counts repositories seen, filtered or not.
func (it *PullRequestIterator) RepositoriesScanned() int {
	return it.scanned
}

// RepositoriesMatched counts repositories whose pull requests were fetched.
func (it *PullRequestIterator) RepositoriesMatched() int {
	return it.matched
}

func (it *PullRequestIterator) fetch(ctx context.Context, repo string) error {
	var page PullRequestPage
	if err := it.sender.Send(ctx, PullRequestsPath(repo), &page); err != nil {
		return err
	}
	for _, pr := range page.Values {
		it.buf = append(it.buf, PullRequestRef{
			Repository: repo,
			ID:         pr.ID,
			Title:      pr.Title,
			URL:        pr.Links.HTML.Href,
		})
	}
	return nil
}
