package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/naka-gawa/roadmap-health/internal/domain"
)

// trackerMaxResults caps a single search; the tracker path never paginates.
const trackerMaxResults = 100

// TrackerFetcher defines the behavior of the optional issue-tracker gateway. Its data
// path is independent of the GitHub metrics and never feeds the calculators.
type TrackerFetcher interface {
	FetchProjectIssues(ctx context.Context, projectKey string) ([]domain.TrackerIssue, error)
}

// JiraGateway fetches issues from a Jira project using basic auth (email + API token).
type JiraGateway struct {
	baseURL    string
	email      string
	apiToken   string
	httpClient *http.Client
	logger     *log.Logger
}

type jiraSearchResponse struct {
	Issues []jiraIssue `json:"issues"`
}

type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  struct {
			Name string `json:"name"`
		} `json:"status"`
		Assignee *struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
		Priority *struct {
			Name string `json:"name"`
		} `json:"priority"`
		Created string `json:"created"`
		// Default story points field on Jira Cloud.
		StoryPoints *float64 `json:"customfield_10016"`
	} `json:"fields"`
}

// NewJiraGateway creates a gateway for one Jira site.
func NewJiraGateway(baseURL, email, apiToken string, logger *log.Logger) *JiraGateway {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL != "" && !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://" + baseURL
	}
	return &JiraGateway{
		baseURL:    baseURL,
		email:      email,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// FetchProjectIssues runs one project search and flattens the result. Fail-fast: any
// transport or decode error surfaces as a single error with no partial data.
func (j *JiraGateway) FetchProjectIssues(ctx context.Context, projectKey string) ([]domain.TrackerIssue, error) {
	params := url.Values{
		"jql":        {fmt.Sprintf("project = %s", projectKey)},
		"maxResults": {fmt.Sprintf("%d", trackerMaxResults)},
	}
	searchURL := fmt.Sprintf("%s/rest/api/3/search?%s", j.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build jira search request: %w", err)
	}
	req.SetBasicAuth(j.email, j.apiToken)

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search jira project %s: %w", projectKey, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jira search for project %s returned status %d", projectKey, resp.StatusCode)
	}

	var decoded jiraSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode jira search response: %w", err)
	}

	issues := make([]domain.TrackerIssue, 0, len(decoded.Issues))
	for _, issue := range decoded.Issues {
		assignee := domain.UnassignedSentinel
		if issue.Fields.Assignee != nil {
			assignee = issue.Fields.Assignee.DisplayName
		}
		priority := ""
		if issue.Fields.Priority != nil {
			priority = issue.Fields.Priority.Name
		}
		issues = append(issues, domain.TrackerIssue{
			Key:         issue.Key,
			Summary:     issue.Fields.Summary,
			Status:      issue.Fields.Status.Name,
			Assignee:    assignee,
			Priority:    priority,
			Created:     issue.Fields.Created,
			StoryPoints: issue.Fields.StoryPoints,
		})
	}
	j.logger.Printf("Fetched %d tracker issues for project %s", len(issues), projectKey)
	return issues, nil
}
