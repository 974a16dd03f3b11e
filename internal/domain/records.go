// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// UnassignedSentinel is the assignee value used when an issue has no assignee.
// Blocker identification compares against this literal.
const UnassignedSentinel = "Unassigned"

// PullRequest is a flat record for one open pull request.
type PullRequest struct {
	Repo      string    `json:"repo"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	DaysOpen  int       `json:"days_open"`
	URL       string    `json:"url"`
}

// Issue is a flat record for one open issue.
type Issue struct {
	Repo      string    `json:"repo"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Assignee  string    `json:"assignee"`
	CreatedAt time.Time `json:"created_at"`
	DaysOpen  int       `json:"days_open"`
	Labels    []string  `json:"labels"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
}

// Commit is a flat record for one commit: short SHA and the first message line only.
type Commit struct {
	Repo    string    `json:"repo"`
	SHA     string    `json:"sha"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// RepoSummary holds the headline counters for one repository.
type RepoSummary struct {
	Name       string `json:"name"`
	Stars      int    `json:"stars"`
	Forks      int    `json:"forks"`
	OpenIssues int    `json:"open_issues"`
}

// TrackerIssue is one issue from the external tracker (Jira). The tracker path is
// independent of the GitHub metrics and never feeds the calculators.
type TrackerIssue struct {
	Key         string   `json:"key"`
	Summary     string   `json:"summary"`
	Status      string   `json:"status"`
	Assignee    string   `json:"assignee"`
	Priority    string   `json:"priority"`
	Created     string   `json:"created"`
	StoryPoints *float64 `json:"story_points"`
}

// ActivitySet is one fetch cycle's worth of raw GitHub records.
type ActivitySet struct {
	PullRequests []PullRequest `json:"prs"`
	Issues       []Issue       `json:"issues"`
	Commits      []Commit      `json:"commits"`
	Repos        []RepoSummary `json:"repos"`
}

// Report is the fully derived output of one fetch cycle.
type Report struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	PullRequests []PullRequest   `json:"prs"`
	Issues       []Issue         `json:"issues"`
	Commits      []Commit        `json:"commits"`
	Repos        []RepoSummary   `json:"repos"`
	Progress     ProgressSummary `json:"progress"`
	Blockers     []Blocker       `json:"blockers"`
	Velocity     VelocitySummary `json:"velocity"`
	Tracker      []TrackerIssue  `json:"tracker,omitempty"`
	TrackerError string          `json:"tracker_error,omitempty"`
}
