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

// Link is a single hypermedia link as returned in a "links" object.
type Link struct {
	Href string `json:"href"`
}

// Links holds the links the API attaches to repositories and pull requests.
// Only the browser-facing one is consumed.
type Links struct {
	HTML Link `json:"html"`
}

// Repository is an entry of the /repositories listing.
type Repository struct {
	FullName string `json:"full_name"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Links    Links  `json:"links"`
}

// RepositoryPage is one page of the /repositories listing. Next is empty on
// the last page.
type RepositoryPage struct {
	Values  []Repository `json:"values"`
	Next    string       `json:"next,omitempty"`
	Page    int          `json:"page,omitempty"`
	PageLen int          `json:"pagelen,omitempty"`
	Size    int          `json:"size,omitempty"`
}

// Account identifies the author of a pull request.
type Account struct {
	DisplayName string `json:"display_name"`
	Nickname    string `json:"nickname,omitempty"`
}

// PullRequest is an entry of /repositories/{full_name}/pullrequests.
type PullRequest struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	State  string  `json:"state"`
	Author Account `json:"author"`
	Links  Links   `json:"links"`
}

// PullRequestPage is the first (and only consumed) page of a repository's
// pull requests.
type PullRequestPage struct {
	Values  []PullRequest `json:"values"`
	Next    string        `json:"next,omitempty"`
	PageLen int           `json:"pagelen,omitempty"`
	Size    int           `json:"size,omitempty"`
}

// PullRequestRef is what the enumerator yields: enough to open the pull
// request and to say where it came from.
type PullRequestRef struct {
	Repository string `json:"repository"`
	ID         int    `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
}
