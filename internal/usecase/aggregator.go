// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/roadmap-health/internal/domain"
	"github.com/naka-gawa/roadmap-health/internal/gateway"
)

// DefaultVelocityWindowDays is the trailing window used when the caller passes none.
const DefaultVelocityWindowDays = 7

// Options selects the repositories and tuning for one fetch cycle.
type Options struct {
	Org                string
	Repos              []string
	PRThresholdDays    int
	IssueThresholdDays int
	VelocityWindowDays int
	TrackerProject     string
}

// Aggregator is the use case for one fetch-and-derive cycle. It holds no state across
// cycles; every report is rebuilt from scratch.
type Aggregator struct {
	fetcher gateway.Fetcher
	tracker gateway.TrackerFetcher
	logger  *log.Logger
	now     func() time.Time
}

// NewAggregator creates a new Aggregator instance. The tracker may be nil when no
// issue tracker is configured.
func NewAggregator(fetcher gateway.Fetcher, tracker gateway.TrackerFetcher, logger *log.Logger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		tracker: tracker,
		logger:  logger,
		now:     time.Now,
	}
}

// BuildReport fetches the GitHub activity and, when configured, the tracker issues
// concurrently, then derives all summaries. A GitHub failure fails the whole report
// with no partial data. A tracker failure is scoped to the tracker path: the report is
// still produced and carries the tracker error message instead of tracker issues.
func (a *Aggregator) BuildReport(ctx context.Context, opts Options) (*domain.Report, error) {
	a.logger.Println("Usecase: starting fetch cycle...")

	window := opts.VelocityWindowDays
	if window <= 0 {
		window = DefaultVelocityWindowDays
	}

	var set *domain.ActivitySet
	var trackerIssues []domain.TrackerIssue
	var trackerErr error

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		set, err = a.fetcher.FetchActivity(egCtx, opts.Org, opts.Repos)
		return err
	})
	if a.tracker != nil && opts.TrackerProject != "" {
		eg.Go(func() error {
			trackerIssues, trackerErr = a.tracker.FetchProjectIssues(egCtx, opts.TrackerProject)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	a.logger.Println("Usecase: fetch complete, deriving metrics...")

	now := a.now()
	report := &domain.Report{
		GeneratedAt:  now,
		PullRequests: set.PullRequests,
		Issues:       set.Issues,
		Commits:      set.Commits,
		Repos:        set.Repos,
		Progress:     domain.CalculateProgress(set.Issues),
		Blockers:     domain.IdentifyBlockers(set.PullRequests, set.Issues, opts.PRThresholdDays, opts.IssueThresholdDays),
		Velocity:     domain.CalculateVelocity(set.Commits, window, now),
		Tracker:      trackerIssues,
	}
	if trackerErr != nil {
		report.Tracker = nil
		report.TrackerError = trackerErr.Error()
		a.logger.Printf("Usecase: tracker fetch failed: %v", trackerErr)
	}

	a.logger.Printf("Usecase: report ready (%d blockers, %.0f%% complete)",
		len(report.Blockers), report.Progress.Percentage)
	return report, nil
}
