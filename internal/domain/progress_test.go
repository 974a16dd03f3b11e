package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateProgress(t *testing.T) {
	testCases := []struct {
		name     string
		statuses []string
		expected ProgressSummary
	}{
		{
			name:     "empty list - percentage is 0, not NaN",
			statuses: nil,
			expected: ProgressSummary{},
		},
		{
			name:     "completed matches exact set case-insensitively",
			statuses: []string{"Done", "CLOSED", "completed", "open"},
			expected: ProgressSummary{Total: 4, Completed: 3, Percentage: 75},
		},
		{
			name:     "in progress is a substring match, not exact",
			statuses: []string{"In Progress", "progressing", "To Do"},
			expected: ProgressSummary{Total: 3, InProgress: 2},
		},
		{
			name:     "a status counts toward at most one bucket",
			statuses: []string{"In Progress", "Done"},
			expected: ProgressSummary{Total: 2, Completed: 1, InProgress: 1, Percentage: 50},
		},
		{
			name:     "completed does not use substring matching",
			statuses: []string{"done and dusted"},
			expected: ProgressSummary{Total: 1},
		},
		{
			name:     "all completed",
			statuses: []string{"done", "closed"},
			expected: ProgressSummary{Total: 2, Completed: 2, Percentage: 100},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			issues := make([]Issue, 0, len(tc.statuses))
			for i, status := range tc.statuses {
				issues = append(issues, Issue{Number: i + 1, Status: status})
			}

			summary := CalculateProgress(issues)

			assert.Equal(t, tc.expected, summary)
			assert.GreaterOrEqual(t, summary.Percentage, 0.0)
			assert.LessOrEqual(t, summary.Percentage, 100.0)
		})
	}
}
