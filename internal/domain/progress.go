package domain

import "strings"

// ProgressSummary is the feature-completion rollup derived from a list of issues.
type ProgressSummary struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	InProgress int     `json:"in_progress"`
	Percentage float64 `json:"percentage"`
}

// completedStatuses is the exact (case-insensitive) set of statuses that count as done.
var completedStatuses = map[string]struct{}{
	"done":      {},
	"closed":    {},
	"completed": {},
}

// CalculateProgress reduces a list of issues into completion counts and a percentage.
// Completed requires exact membership in completedStatuses after lowercasing, while
// in-progress is the looser substring match on "progress". Percentage is 0 when the
// list is empty.
func CalculateProgress(issues []Issue) ProgressSummary {
	summary := ProgressSummary{Total: len(issues)}
	for _, issue := range issues {
		status := strings.ToLower(issue.Status)
		if _, ok := completedStatuses[status]; ok {
			summary.Completed++
		}
		if strings.Contains(status, "progress") {
			summary.InProgress++
		}
	}
	if summary.Total > 0 {
		summary.Percentage = float64(summary.Completed) / float64(summary.Total) * 100
	}
	return summary
}
