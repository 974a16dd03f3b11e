// Package gateway provides gateways to the external APIs (GitHub, Jira),
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/roadmap-health/internal/domain"
)

// ErrMissingToken is returned before any network call when no GitHub token is set.
// Callers show it as a configuration prompt, not as a fetch failure.
var ErrMissingToken = errors.New("github token is not set")

const (
	// ownedRepoCap bounds the fallback listing of the caller's own repositories.
	ownedRepoCap = 10
	// commitLookbackDays is the history window requested per repository.
	commitLookbackDays = 30
	// requestTimeout bounds every outbound call so a hung fetch cannot block a cycle forever.
	requestTimeout = 30 * time.Second
)

// Fetcher defines the behavior of a gateway for fetching activity from GitHub.
type Fetcher interface {
	// FetchActivity resolves repositories (org name wins over the explicit list; with
	// neither, the caller's own repositories capped at ownedRepoCap) and returns one
	// fetch cycle's records. Per-repo commit listing is best-effort; every other
	// failure aborts the whole fetch with no partial results.
	FetchActivity(ctx context.Context, org string, repos []string) (*domain.ActivitySet, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
	now           func() time.Time
}

// openPRSearchQuery pages through all open PRs of one repository via the search API,
// so arbitrarily long result sets are handled by cursor pagination.
type openPRSearchQuery struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool
			EndCursor   githubv4.String
		}
		Edges []struct {
			Node struct {
				Typename    string `graphql:"__typename"`
				PullRequest struct {
					Number    int
					Title     string
					URL       githubv4.URI `graphql:"url"`
					CreatedAt githubv4.DateTime
					Author    struct {
						Login string
					}
				} `graphql:"... on PullRequest"`
			}
		}
	} `graphql:"search(query: $query, type: ISSUE, first: 100, after: $cursor)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger *log.Logger) (Fetcher, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Timeout: requestTimeout,
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
		now:           time.Now,
	}, nil
}

func (g *GitHubGateway) FetchActivity(ctx context.Context, org string, repos []string) (*domain.ActivitySet, error) {
	now := g.now()

	resolved, err := g.resolveRepos(ctx, org, repos)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repositories: %w", err)
	}

	set := &domain.ActivitySet{}
	for _, repo := range resolved {
		set.Repos = append(set.Repos, domain.RepoSummary{
			Name:       repo.GetFullName(),
			Stars:      repo.GetStargazersCount(),
			Forks:      repo.GetForksCount(),
			OpenIssues: repo.GetOpenIssuesCount(),
		})
	}

	// Fetch per-repo activity concurrently. Record order across repos is not
	// meaningful; the blocker list is the only sorted surface downstream.
	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	for _, repo := range resolved {
		repoName := repo.GetFullName()
		eg.Go(func() error {
			prs, err := g.fetchOpenPRs(egCtx, repoName, now)
			if err != nil {
				return err
			}
			issues, err := g.fetchOpenIssues(egCtx, repoName, now)
			if err != nil {
				return err
			}
			commits := g.fetchRecentCommits(egCtx, repoName, now)

			mu.Lock()
			set.PullRequests = append(set.PullRequests, prs...)
			set.Issues = append(set.Issues, issues...)
			set.Commits = append(set.Commits, commits...)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.logger.Printf("Fetched %d PRs, %d issues, %d commits across %d repos",
		len(set.PullRequests), len(set.Issues), len(set.Commits), len(resolved))
	return set, nil
}

// resolveRepos picks the repository set for this cycle: org listing first, then the
// explicit owner/repo list, then the caller's own repositories capped at ownedRepoCap.
func (g *GitHubGateway) resolveRepos(ctx context.Context, org string, repos []string) ([]*github.Repository, error) {
	if org != "" {
		g.logger.Printf("Resolving repositories for organization %s...", org)
		opts := &github.RepositoryListByOrgOptions{ListOptions: github.ListOptions{PerPage: 100}}
		var resolved []*github.Repository
		for {
			list, resp, err := g.restClient.Repositories.ListByOrg(ctx, org, opts)
			if err != nil {
				return nil, fmt.Errorf("failed to list repositories for org %s: %w", org, err)
			}
			resolved = append(resolved, list...)
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		return resolved, nil
	}

	if len(repos) > 0 {
		resolved := make([]*github.Repository, 0, len(repos))
		for _, full := range repos {
			owner, name, ok := splitRepoName(full)
			if !ok {
				return nil, fmt.Errorf("invalid repository %q: expected owner/repo", full)
			}
			repo, _, err := g.restClient.Repositories.Get(ctx, owner, name)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve repository %s: %w", full, err)
			}
			resolved = append(resolved, repo)
		}
		return resolved, nil
	}

	g.logger.Printf("No org or repo list given, falling back to own repositories (max %d)...", ownedRepoCap)
	opts := &github.RepositoryListByAuthenticatedUserOptions{ListOptions: github.ListOptions{PerPage: ownedRepoCap}}
	list, _, err := g.restClient.Repositories.ListByAuthenticatedUser(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list own repositories: %w", err)
	}
	if len(list) > ownedRepoCap {
		list = list[:ownedRepoCap]
	}
	return list, nil
}

func (g *GitHubGateway) fetchOpenPRs(ctx context.Context, repoName string, now time.Time) ([]domain.PullRequest, error) {
	query := fmt.Sprintf("repo:%s is:pr is:open", repoName)
	variables := map[string]interface{}{"query": githubv4.String(query), "cursor": (*githubv4.String)(nil)}

	var prs []domain.PullRequest
	for {
		var q openPRSearchQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to search open PRs for %s: %w", repoName, err)
		}
		for _, edge := range q.Search.Edges {
			if edge.Node.Typename != "PullRequest" {
				continue
			}
			pr := edge.Node.PullRequest
			url := ""
			if pr.URL.URL != nil {
				url = pr.URL.String()
			}
			prs = append(prs, domain.PullRequest{
				Repo:      repoName,
				Number:    pr.Number,
				Title:     pr.Title,
				Author:    pr.Author.Login,
				CreatedAt: pr.CreatedAt.Time,
				DaysOpen:  daysOpen(now, pr.CreatedAt.Time),
				URL:       url,
			})
		}
		if !q.Search.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Search.PageInfo.EndCursor)
		g.logger.Printf("  Fetching next page of open PRs for %s...", repoName)
	}
	return prs, nil
}

func (g *GitHubGateway) fetchOpenIssues(ctx context.Context, repoName string, now time.Time) ([]domain.Issue, error) {
	owner, name, ok := splitRepoName(repoName)
	if !ok {
		return nil, fmt.Errorf("invalid repository %q: expected owner/repo", repoName)
	}

	opts := &github.IssueListByRepoOptions{State: "open", ListOptions: github.ListOptions{PerPage: 100}}
	var issues []domain.Issue
	for {
		list, resp, err := g.restClient.Issues.ListByRepo(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues for %s: %w", repoName, err)
		}
		for _, issue := range list {
			// The issues endpoint conflates PRs and issues; skip the PRs.
			if issue.IsPullRequest() {
				continue
			}
			assignee := domain.UnassignedSentinel
			if issue.GetAssignee() != nil {
				assignee = issue.GetAssignee().GetLogin()
			}
			labels := make([]string, 0, len(issue.Labels))
			for _, label := range issue.Labels {
				labels = append(labels, label.GetName())
			}
			issues = append(issues, domain.Issue{
				Repo:      repoName,
				Number:    issue.GetNumber(),
				Title:     issue.GetTitle(),
				Author:    issue.GetUser().GetLogin(),
				Assignee:  assignee,
				CreatedAt: issue.GetCreatedAt().Time,
				DaysOpen:  daysOpen(now, issue.GetCreatedAt().Time),
				Labels:    labels,
				URL:       issue.GetHTMLURL(),
				Status:    issue.GetState(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return issues, nil
}

// fetchRecentCommits is best-effort: a failing history API on one repository must not
// abort the whole fetch, so errors are logged and whatever was collected is returned.
func (g *GitHubGateway) fetchRecentCommits(ctx context.Context, repoName string, now time.Time) []domain.Commit {
	owner, name, ok := splitRepoName(repoName)
	if !ok {
		g.logger.Printf("Skipping commit history for invalid repository name %q", repoName)
		return nil
	}

	opts := &github.CommitsListOptions{
		Since:       now.AddDate(0, 0, -commitLookbackDays),
		ListOptions: github.ListOptions{PerPage: 100},
	}
	var commits []domain.Commit
	for {
		list, resp, err := g.restClient.Repositories.ListCommits(ctx, owner, name, opts)
		if err != nil {
			g.logger.Printf("Skipping commit history for %s: %v", repoName, err)
			return commits
		}
		for _, rc := range list {
			sha := rc.GetSHA()
			if len(sha) > 7 {
				sha = sha[:7]
			}
			commits = append(commits, domain.Commit{
				Repo:    repoName,
				SHA:     sha,
				Author:  rc.GetCommit().GetAuthor().GetName(),
				Date:    rc.GetCommit().GetAuthor().GetDate().Time,
				Message: firstLine(rc.GetCommit().GetMessage()),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return commits
}

func daysOpen(now, created time.Time) int {
	days := int(now.Sub(created).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days
}

func splitRepoName(full string) (owner, name string, ok bool) {
	owner, name, found := strings.Cut(full, "/")
	if !found || owner == "" || name == "" {
		return "", "", false
	}
	return owner, name, true
}

func firstLine(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return line
}
