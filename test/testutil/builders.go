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

package testutil

import (
	"fmt"
	"strings"
)

// PullRequestBuilder provides a fluent interface for building pull request
// payloads shaped like the Bitbucket 2.0 API.
type PullRequestBuilder struct {
	id         int
	repository string
	title      string
	state      string
	author     string
}

// NewPullRequestBuilder creates a new builder with default values
func NewPullRequestBuilder(repository string, id int) *PullRequestBuilder {
	return &PullRequestBuilder{
		id:         id,
		repository: repository,
		title:      fmt.Sprintf("Pull request #%d", id),
		state:      "OPEN",
		author:     "test-user",
	}
}

// WithTitle sets the pull request title
func (b *PullRequestBuilder) WithTitle(title string) *PullRequestBuilder {
	b.title = title
	return b
}

// WithAuthor sets the author display name
func (b *PullRequestBuilder) WithAuthor(author string) *PullRequestBuilder {
	b.author = author
	return b
}

// Build creates the pull request payload
func (b *PullRequestBuilder) Build() map[string]any {
	return map[string]any{
		"id":    b.id,
		"title": b.title,
		"state": b.state,
		"author": map[string]any{
			"display_name": b.author,
		},
		"links": map[string]any{
			"html": map[string]any{"href": PullRequestURL(b.repository, b.id)},
		},
	}
}

// PullRequestURL is the browser link the fixtures give pull request id of repository.
func PullRequestURL(repository string, id int) string {
	return fmt.Sprintf("https://bitbucket.org/%s/pull-requests/%d", repository, id)
}

// GenerateRepositoryPage builds a repositories page. An empty next marks the
// last page.
func GenerateRepositoryPage(fullNames []string, next string) map[string]any {
	values := make([]any, 0, len(fullNames))
	for _, name := range fullNames {
		short := name[strings.LastIndex(name, "/")+1:]
		values = append(values, map[string]any{
			"full_name": name,
			"name":      short,
			"slug":      short,
			"links": map[string]any{
				"html": map[string]any{"href": "https://bitbucket.org/" + name},
			},
		})
	}
	page := map[string]any{
		"pagelen": 10,
		"values":  values,
	}
	if next != "" {
		page["next"] = next
	}
	return page
}

// GeneratePullRequestPage builds the pull request page of repository with
// one entry per id, in the given order.
func GeneratePullRequestPage(repository string, ids ...int) map[string]any {
	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, NewPullRequestBuilder(repository, id).Build())
	}
	return map[string]any{
		"pagelen": 10,
		"size":    len(ids),
		"values":  values,
	}
}
