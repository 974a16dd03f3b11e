package usecase

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/roadmap-health/internal/domain"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchActivity(ctx context.Context, org string, repos []string) (*domain.ActivitySet, error) {
	args := m.Called(ctx, org, repos)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ActivitySet), args.Error(1)
}

// mockTracker is a mock implementation of the gateway.TrackerFetcher interface.
type mockTracker struct {
	mock.Mock
}

func (m *mockTracker) FetchProjectIssues(ctx context.Context, projectKey string) ([]domain.TrackerIssue, error) {
	args := m.Called(ctx, projectKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrackerIssue), args.Error(1)
}

func testAggregator(fetcher *mockFetcher, tracker *mockTracker) *Aggregator {
	agg := NewAggregator(fetcher, nil, log.New(io.Discard, "", 0))
	// Assign through the concrete type so a nil mock stays a nil interface.
	if tracker != nil {
		agg.tracker = tracker
	}
	agg.now = func() time.Time { return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC) }
	return agg
}

func TestAggregator_BuildReport(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	set := &domain.ActivitySet{
		PullRequests: []domain.PullRequest{
			{Repo: "a/b", Number: 1, Title: "fresh", DaysOpen: 1},
			{Repo: "a/b", Number: 2, Title: "stale", DaysOpen: 10},
		},
		Issues: []domain.Issue{
			{Repo: "a/b", Number: 7, Assignee: domain.UnassignedSentinel, DaysOpen: 9, Status: "open"},
			{Repo: "a/b", Number: 8, Assignee: "alice", DaysOpen: 1, Status: "In Progress"},
		},
		Commits: []domain.Commit{
			{Repo: "a/b", SHA: "abc1234", Date: now.AddDate(0, 0, -1)},
			{Repo: "a/b", SHA: "def5678", Date: now.AddDate(0, 0, -20)},
		},
		Repos: []domain.RepoSummary{{Name: "a/b", Stars: 5}},
	}

	fetcher := new(mockFetcher)
	fetcher.On("FetchActivity", mock.Anything, "", []string{"a/b"}).Return(set, nil)

	agg := testAggregator(fetcher, nil)
	report, err := agg.BuildReport(context.Background(), Options{
		Repos:              []string{"a/b"},
		PRThresholdDays:    3,
		IssueThresholdDays: 7,
	})

	require.NoError(t, err)
	require.NotNil(t, report)

	// Raw records pass through untouched.
	assert.Len(t, report.PullRequests, 2)
	assert.Len(t, report.Issues, 2)
	assert.Len(t, report.Commits, 2)
	assert.Equal(t, set.Repos, report.Repos)

	// The 10-day PR is a high blocker, the 9-day unassigned issue a medium one.
	require.Len(t, report.Blockers, 2)
	assert.Equal(t, domain.SeverityHigh, report.Blockers[0].Severity)
	assert.Equal(t, 10, report.Blockers[0].Days)
	assert.Equal(t, domain.SeverityMedium, report.Blockers[1].Severity)

	assert.Equal(t, 2, report.Progress.Total)
	assert.Equal(t, 1, report.Progress.InProgress)
	assert.Equal(t, 0.0, report.Progress.Percentage)

	// Default window applies when Options leaves it zero.
	assert.Equal(t, 1, report.Velocity.CommitsInWindow)
	assert.Equal(t, 2, report.Velocity.TotalCommits)

	assert.Empty(t, report.TrackerError)
	fetcher.AssertExpectations(t)
}

func TestAggregator_BuildReport_FetchFailure(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("FetchActivity", mock.Anything, "acme", mock.Anything).Return(nil, errors.New("github api error"))

	agg := testAggregator(fetcher, nil)
	report, err := agg.BuildReport(context.Background(), Options{Org: "acme"})

	// Fail-fast: no partial report reaches the caller.
	require.Error(t, err)
	assert.Nil(t, report)
	fetcher.AssertExpectations(t)
}

func TestAggregator_BuildReport_TrackerFailureIsScoped(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("FetchActivity", mock.Anything, "", mock.Anything).Return(&domain.ActivitySet{}, nil)

	tracker := new(mockTracker)
	tracker.On("FetchProjectIssues", mock.Anything, "ROAD").Return(nil, errors.New("jira down"))

	agg := testAggregator(fetcher, tracker)
	report, err := agg.BuildReport(context.Background(), Options{Repos: []string{"a/b"}, TrackerProject: "ROAD"})

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Nil(t, report.Tracker)
	assert.Equal(t, "jira down", report.TrackerError)
	fetcher.AssertExpectations(t)
	tracker.AssertExpectations(t)
}

func TestAggregator_BuildReport_TrackerSuccess(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("FetchActivity", mock.Anything, "", mock.Anything).Return(&domain.ActivitySet{}, nil)

	trackerIssues := []domain.TrackerIssue{{Key: "ROAD-1", Summary: "Build", Status: "In Progress"}}
	tracker := new(mockTracker)
	tracker.On("FetchProjectIssues", mock.Anything, "ROAD").Return(trackerIssues, nil)

	agg := testAggregator(fetcher, tracker)
	report, err := agg.BuildReport(context.Background(), Options{Repos: []string{"a/b"}, TrackerProject: "ROAD"})

	require.NoError(t, err)
	assert.Equal(t, trackerIssues, report.Tracker)
	assert.Empty(t, report.TrackerError)
}

func TestAggregator_BuildReport_NoTrackerConfigured(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("FetchActivity", mock.Anything, "", mock.Anything).Return(&domain.ActivitySet{}, nil)

	agg := testAggregator(fetcher, nil)
	report, err := agg.BuildReport(context.Background(), Options{Repos: []string{"a/b"}})

	require.NoError(t, err)
	assert.Nil(t, report.Tracker)
	assert.Empty(t, report.TrackerError)
}
