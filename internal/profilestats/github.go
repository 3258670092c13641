package profilestats

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GitHubFetcher reads a user's profile and up to 100 repositories.
type GitHubFetcher struct {
	client  *http.Client
	baseURL string
	token   string
}

func NewGitHubFetcher(client *http.Client, baseURL, token string) *GitHubFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &GitHubFetcher{
		client:  client,
		baseURL: strings.TrimRight(orDefault(baseURL, DefaultGitHubBaseURL), "/"),
		token:   token,
	}
}

type githubUser struct {
	Login       string    `json:"login"`
	PublicRepos *int      `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	PublicGists int       `json:"public_gists"`
	CreatedAt   time.Time `json:"created_at"`
}

type githubRepo struct {
	StargazersCount int `json:"stargazers_count"`
}

func (f *GitHubFetcher) Fetch(ctx context.Context, handle string) ([]StatisticEntry, error) {
	if handle == "" {
		return nil, fmt.Errorf("github: %w: empty handle", ErrMalformedPayload)
	}

	var header http.Header
	if f.token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + f.token}}
	}

	userURL := fmt.Sprintf("%s/users/%s", f.baseURL, url.PathEscape(handle))
	var user githubUser
	if err := getJSON(ctx, f.client, userURL, header, &user); err != nil {
		return nil, fmt.Errorf("github user: %w", err)
	}
	if user.Login == "" || user.PublicRepos == nil || user.CreatedAt.IsZero() {
		return nil, fmt.Errorf("github user: %w", ErrMalformedPayload)
	}

	reposURL := fmt.Sprintf("%s/users/%s/repos?per_page=100", f.baseURL, url.PathEscape(handle))
	var repos []githubRepo
	if err := getJSON(ctx, f.client, reposURL, header, &repos); err != nil {
		return nil, fmt.Errorf("github repos: %w", err)
	}

	stars := 0
	for _, r := range repos {
		stars += r.StargazersCount
	}

	var repoCount any = "N/A"
	if *user.PublicRepos > 0 {
		repoCount = *user.PublicRepos
	}

	return []StatisticEntry{
		{Label: "Repositories", Value: repoCount},
		{Label: "Stars Earned", Value: stars},
		{Label: "Followers", Value: user.Followers},
		{Label: "Following", Value: user.Following},
		{Label: "Public Gists", Value: user.PublicGists},
		{Label: "Created At", Value: user.CreatedAt.Year()},
	}, nil
}
