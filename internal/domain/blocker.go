package domain

import (
	"fmt"
	"sort"
)

// BlockerType distinguishes which record kind triggered a blocker.
type BlockerType string

const (
	BlockerTypePR    BlockerType = "PR"
	BlockerTypeIssue BlockerType = "Issue"
)

// Severity ranks a blocker. "low" is never emitted by the current rules but remains a
// valid tag so display grouping can show an empty bucket.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Severities lists all severities in display order, including ones no rule produces.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// highSeverityAgeDays is the age above which a PR blocker is high severity. This is a
// fixed cutoff, intentionally independent of the configurable inclusion threshold:
// raising the threshold past 7 makes every PR blocker high, lowering it below 7 allows
// medium PR blockers until the age passes 7.
const highSeverityAgeDays = 7

// Blocker is a derived record flagging a stalled PR or issue.
type Blocker struct {
	Type        BlockerType `json:"type"`
	Severity    Severity    `json:"severity"`
	Title       string      `json:"title"`
	Repo        string      `json:"repo"`
	Days        int         `json:"days"`
	URL         string      `json:"url"`
	Description string      `json:"description"`
}

// IdentifyBlockers scans PRs and issues against the age thresholds and returns the
// matches sorted by age, oldest first. Both comparisons are strict: a record exactly at
// its threshold is not a blocker. The sort is stable, so equal-age blockers keep rule
// order (PR blockers ahead of issue blockers).
func IdentifyBlockers(prs []PullRequest, issues []Issue, prThresholdDays, issueThresholdDays int) []Blocker {
	var blockers []Blocker

	for _, pr := range prs {
		if pr.DaysOpen <= prThresholdDays {
			continue
		}
		severity := SeverityMedium
		if pr.DaysOpen > highSeverityAgeDays {
			severity = SeverityHigh
		}
		blockers = append(blockers, Blocker{
			Type:        BlockerTypePR,
			Severity:    severity,
			Title:       pr.Title,
			Repo:        pr.Repo,
			Days:        pr.DaysOpen,
			URL:         pr.URL,
			Description: fmt.Sprintf("PR #%d open for %d days", pr.Number, pr.DaysOpen),
		})
	}

	for _, issue := range issues {
		if issue.Assignee != UnassignedSentinel || issue.DaysOpen <= issueThresholdDays {
			continue
		}
		blockers = append(blockers, Blocker{
			Type:        BlockerTypeIssue,
			Severity:    SeverityMedium,
			Title:       issue.Title,
			Repo:        issue.Repo,
			Days:        issue.DaysOpen,
			URL:         issue.URL,
			Description: fmt.Sprintf("Issue #%d unassigned for %d days", issue.Number, issue.DaysOpen),
		})
	}

	sort.SliceStable(blockers, func(i, j int) bool {
		return blockers[i].Days > blockers[j].Days
	})
	return blockers
}

// CountBySeverity buckets blockers for display. Every severity is present in the
// result, zero-valued when nothing matched, so rendering never drops a bucket.
func CountBySeverity(blockers []Blocker) map[Severity]int {
	counts := make(map[Severity]int, len(Severities))
	for _, s := range Severities {
		counts[s] = 0
	}
	for _, b := range blockers {
		counts[b.Severity]++
	}
	return counts
}
