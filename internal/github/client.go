package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	apiBase   = "https://api.github.com"
	rawBase   = "https://raw.githubusercontent.com"
	userAgent = "GitGud-Backend/1.0"

	readmeSnippetLen = 2000
)

// ErrUserNotFound means the GitHub username does not exist.
var ErrUserNotFound = errors.New("github user not found")

// ErrRateLimited means GitHub rejected the request with a rate-limit status.
var ErrRateLimited = errors.New("github API rate limit exceeded")

// Client talks to the GitHub REST API. A token is optional; unauthenticated
// requests work with much lower rate limits.
type Client struct {
	token      string
	apiBase    string
	rawBase    string
	httpClient *http.Client
}

// NewClient creates a GitHub client. token may be empty.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		apiBase: apiBase,
		rawBase: rawBase,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithBaseURLs creates a client against explicit API and raw-content
// endpoints. Used by tests to point at a local server.
func NewClientWithBaseURLs(token, apiBase, rawBase string) *Client {
	c := NewClient(token)
	c.apiBase = apiBase
	c.rawBase = rawBase
	return c
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.apiBase+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach GitHub API: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrUserNotFound
	case http.StatusForbidden:
		return ErrRateLimited
	case http.StatusUnauthorized:
		return fmt.Errorf("github API authentication failed, check GITHUB_TOKEN")
	default:
		return fmt.Errorf("github API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode GitHub response: %w", err)
	}
	return nil
}

// GetUserProfile fetches a user's public profile.
func (c *Client) GetUserProfile(ctx context.Context, username string) (*Profile, error) {
	var p Profile
	if err := c.fetchJSON(ctx, "/users/"+username, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetUserRepos fetches up to 100 of the user's repositories, most recently
// updated first.
func (c *Client) GetUserRepos(ctx context.Context, username string) ([]Repo, error) {
	var repos []Repo
	endpoint := fmt.Sprintf("/users/%s/repos?per_page=100&sort=updated&direction=desc", username)
	if err := c.fetchJSON(ctx, endpoint, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// GetRepoReadme fetches the first readmeSnippetLen characters of a repo's
// README from raw.githubusercontent.com, trying the common filename casings.
// Returns nil if no README is found; a README is optional.
func (c *Client) GetRepoReadme(ctx context.Context, owner, repo, branch string) *string {
	for _, filename := range []string{"README.md", "readme.md", "Readme.md"} {
		url := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawBase, owner, repo, branch, filename)
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			continue
		}
		req.Header.Set("Accept", "text/plain")
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, readmeSnippetLen))
		resp.Body.Close()
		if err != nil {
			continue
		}
		snippet := string(body)
		return &snippet
	}
	return nil
}

// GetSignals fetches profile and repositories in parallel and assembles the
// normalized signal summary: top maxRepos repositories by stars, with README
// snippets when includeReadme is set.
func (c *Client) GetSignals(ctx context.Context, username string, maxRepos int, includeReadme bool) (*Signals, error) {
	var (
		profile *Profile
		repos   []Repo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = c.GetUserProfile(gctx, username)
		return err
	})
	g.Go(func() error {
		var err error
		repos, err = c.GetUserRepos(gctx, username)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(repos, func(i, j int) bool {
		return repos[i].Stars > repos[j].Stars
	})
	if len(repos) > maxRepos {
		repos = repos[:maxRepos]
	}

	top := make([]RepoSummary, 0, len(repos))
	for _, r := range repos {
		summary := RepoSummary{
			Name:        r.Name,
			Language:    r.Language,
			Stars:       r.Stars,
			Forks:       r.Forks,
			UpdatedAt:   r.UpdatedAt,
			Description: r.Description,
		}
		if includeReadme {
			owner, _, _ := strings.Cut(r.FullName, "/")
			summary.ReadmeSnippet = c.GetRepoReadme(ctx, owner, r.Name, r.DefaultBranch)
		}
		top = append(top, summary)
	}

	return &Signals{
		Profile: SignalProfile{
			PublicRepos: profile.PublicRepos,
			Followers:   profile.Followers,
			CreatedAt:   profile.CreatedAt,
			Bio:         profile.Bio,
			Location:    profile.Location,
			Company:     profile.Company,
		},
		TopRepos: top,
	}, nil
}
