package github

import (
	"context"
	"fmt"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"github.com/hashicorp/go-retryablehttp"
	circuit "github.com/rubyist/circuitbreaker"
	"golang.org/x/oauth2"

	"github.com/extindex/extindex/internal/core/domain"
	"github.com/extindex/extindex/internal/core/ports/driven"
)

const (
	// requestTimeout bounds every API request; expiry classifies as a
	// transient error for the scheduler's retry policy.
	requestTimeout = 30 * time.Second

	// transportRetries is the on-the-wire retry budget below the task
	// level retries the dispatcher owns.
	transportRetries = 2

	listPageSize = 100
)

// Ensure Client implements the port.
var _ driven.RemoteClient = (*Client)(nil)

// Client adapts go-github to the RemoteClient port. Authentication
// prefers a per-owner access token from the credential store and falls
// back to the system-wide service token.
type Client struct {
	tokens      driven.TokenProvider
	systemToken string
	limiter     *limiter
	breaker     *circuit.Breaker

	mu    sync.Mutex
	cache map[string]*gh.Client // keyed by access token
}

// NewClient creates a GitHub API client.
func NewClient(tokens driven.TokenProvider, systemToken string) *Client {
	return &Client{
		tokens:      tokens,
		systemToken: systemToken,
		limiter:     newLimiter(),
		breaker:     newBreaker(),
		cache:       make(map[string]*gh.Client),
	}
}

// clientFor returns a go-github client authenticated for the owner,
// building and caching one per distinct token.
func (c *Client) clientFor(ctx context.Context, owner string) (*gh.Client, error) {
	token := c.systemToken
	if c.tokens != nil {
		t, err := c.tokens.Token(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("resolve token for %s: %w", owner, err)
		}
		if t != "" {
			token = t
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.cache[token]; ok {
		return cached, nil
	}

	retry := retryablehttp.NewClient()
	retry.RetryMax = transportRetries
	retry.Logger = nil

	httpClient := retry.StandardClient()
	if token != "" {
		// Route the oauth2 transport over the retrying client.
		base := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(base, ts)
	}
	httpClient.Timeout = requestTimeout

	client := gh.NewClient(httpClient)
	c.cache[token] = client
	return client, nil
}

// do wraps one API call with rate limiting, the circuit breaker and
// error classification.
func (c *Client) do(ctx context.Context, op string, fn func() (*gh.Response, error)) error {
	if err := c.limiter.wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit wait: %w", op, err)
	}

	err := call(c.breaker, func() error {
		resp, callErr := fn()
		if resp != nil && resp.Response != nil {
			c.limiter.observe(resp.Response)
		}
		return classify(callErr, op)
	})
	return err
}

// GetRepository fetches repository metadata.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*driven.RemoteRepo, error) {
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return nil, err
	}

	var repo *gh.Repository
	err = c.do(ctx, "get repository", func() (*gh.Response, error) {
		var resp *gh.Response
		repo, resp, err = client.Repositories.Get(ctx, owner, name)
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	remote := &driven.RemoteRepo{
		Owner:         repo.GetOwner().GetLogin(),
		Name:          repo.GetName(),
		Description:   repo.GetDescription(),
		DefaultBranch: repo.GetDefaultBranch(),
		Stargazers:    repo.GetStargazersCount(),
		Forks:         repo.GetForksCount(),
		OpenIssues:    repo.GetOpenIssuesCount(),
		PushedAt:      repo.GetPushedAt().Time,
	}
	if repo.GetFork() && repo.GetParent() != nil {
		remote.Parent = &domain.RepoKey{
			Owner: repo.GetParent().GetOwner().GetLogin(),
			Name:  repo.GetParent().GetName(),
		}
	}
	return remote, nil
}

// ListContents lists the entries at path ("" for the repository root).
func (c *Client) ListContents(ctx context.Context, owner, name, path string) ([]driven.RemoteEntry, error) {
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return nil, err
	}

	var dir []*gh.RepositoryContent
	err = c.do(ctx, "list contents", func() (*gh.Response, error) {
		var (
			file *gh.RepositoryContent
			resp *gh.Response
		)
		file, dir, resp, err = client.Repositories.GetContents(ctx, owner, name, path, nil)
		if err == nil && file != nil {
			dir = []*gh.RepositoryContent{file}
		}
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]driven.RemoteEntry, 0, len(dir))
	for _, item := range dir {
		var kind driven.EntryType
		switch item.GetType() {
		case "file":
			kind = driven.EntryFile
		case "dir":
			kind = driven.EntryDir
		default:
			// Symlinks and submodules carry no indexable content.
			continue
		}
		entries = append(entries, driven.RemoteEntry{
			Path: item.GetPath(),
			Type: kind,
			SHA:  item.GetSHA(),
		})
	}
	return entries, nil
}

// FileContent fetches and decodes one file.
func (c *Client) FileContent(ctx context.Context, owner, name, path string) ([]byte, error) {
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return nil, err
	}

	var file *gh.RepositoryContent
	err = c.do(ctx, "get file content", func() (*gh.Response, error) {
		var resp *gh.Response
		file, _, resp, err = client.Repositories.GetContents(ctx, owner, name, path, nil)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("get file content: %s is a directory", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode content of %s: %w", path, err)
	}
	return []byte(content), nil
}

// ListCommits returns commits of the default branch, newest first.
func (c *Client) ListCommits(ctx context.Context, owner, name string) ([]driven.RemoteCommit, error) {
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return nil, err
	}

	var commits []*gh.RepositoryCommit
	err = c.do(ctx, "list commits", func() (*gh.Response, error) {
		var resp *gh.Response
		commits, resp, err = client.Repositories.ListCommits(ctx, owner, name, &gh.CommitsListOptions{
			ListOptions: gh.ListOptions{PerPage: listPageSize},
		})
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	out := make([]driven.RemoteCommit, 0, len(commits))
	for _, commit := range commits {
		out = append(out, driven.RemoteCommit{SHA: commit.GetSHA()})
	}
	return out, nil
}

// ListReleases returns the published releases of a repository.
func (c *Client) ListReleases(ctx context.Context, owner, name string) ([]driven.RemoteRelease, error) {
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return nil, err
	}

	var all []driven.RemoteRelease
	opts := &gh.ListOptions{PerPage: listPageSize}
	for {
		var (
			releases []*gh.RepositoryRelease
			next     int
		)
		err = c.do(ctx, "list releases", func() (*gh.Response, error) {
			var resp *gh.Response
			releases, resp, err = client.Repositories.ListReleases(ctx, owner, name, opts)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, rel := range releases {
			all = append(all, driven.RemoteRelease{
				TagName:     rel.GetTagName(),
				Body:        rel.GetBody(),
				PublishedAt: rel.GetPublishedAt().Time,
				ZipballURL:  rel.GetZipballURL(),
			})
		}
		if next == 0 {
			break
		}
		opts.Page = next
	}
	return all, nil
}

// CreateWebhook registers a webhook on the repository.
func (c *Client) CreateWebhook(ctx context.Context, owner, name string, cfg driven.WebhookConfig) (int64, error) {
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return 0, err
	}

	var hook *gh.Hook
	err = c.do(ctx, "create webhook", func() (*gh.Response, error) {
		var resp *gh.Response
		hook, resp, err = client.Repositories.CreateHook(ctx, owner, name, &gh.Hook{
			Active: gh.Ptr(true),
			Events: cfg.Events,
			Config: &gh.HookConfig{
				URL:         gh.Ptr(cfg.URL),
				ContentType: gh.Ptr("json"),
				Secret:      gh.Ptr(cfg.Secret),
			},
		})
		return resp, err
	})
	if err != nil {
		return 0, err
	}
	return hook.GetID(), nil
}
