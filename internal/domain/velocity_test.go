package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func commitAt(t time.Time) Commit {
	return Commit{Repo: "a/b", SHA: "abc1234", Author: "alice", Date: t, Message: "change"}
}

func TestCalculateVelocity(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	t.Run("window split - 7 inside and 3 outside", func(t *testing.T) {
		var commits []Commit
		for i := 0; i < 7; i++ {
			commits = append(commits, commitAt(now.AddDate(0, 0, -i)))
		}
		for i := 10; i < 13; i++ {
			commits = append(commits, commitAt(now.AddDate(0, 0, -i)))
		}

		summary := CalculateVelocity(commits, 7, now)

		assert.Equal(t, 7, summary.CommitsInWindow)
		assert.Equal(t, 10, summary.TotalCommits)
		assert.Equal(t, 1.0, summary.CommitsPerDay)
		assert.Len(t, summary.CommitsByDay, 7)
		assert.Equal(t, 1.0, summary.MedianPerActiveDay)
	})

	t.Run("exactly at the window boundary is excluded", func(t *testing.T) {
		commits := []Commit{commitAt(now.AddDate(0, 0, -7))}

		summary := CalculateVelocity(commits, 7, now)

		assert.Equal(t, 0, summary.CommitsInWindow)
		assert.Equal(t, 1, summary.TotalCommits)
	})

	t.Run("zero commits in window - empty map, zero rate", func(t *testing.T) {
		summary := CalculateVelocity(nil, 7, now)

		assert.Empty(t, summary.CommitsByDay)
		assert.Equal(t, 0.0, summary.CommitsPerDay)
		assert.Equal(t, 0.0, summary.MedianPerActiveDay)
	})

	t.Run("quiet days are absent from the map, not zero-valued", func(t *testing.T) {
		commits := []Commit{
			commitAt(now),
			commitAt(now),
			commitAt(now.AddDate(0, 0, -2)),
		}

		summary := CalculateVelocity(commits, 7, now)

		assert.Len(t, summary.CommitsByDay, 2)
		assert.Equal(t, 2, summary.CommitsByDay[now.Format(dayKey)])
		assert.NotContains(t, summary.CommitsByDay, now.AddDate(0, 0, -1).Format(dayKey))
		assert.Equal(t, 1.5, summary.MedianPerActiveDay)
	})

	t.Run("zero window guards the divisor", func(t *testing.T) {
		summary := CalculateVelocity([]Commit{commitAt(now)}, 0, now)

		assert.Equal(t, 0.0, summary.CommitsPerDay)
	})

	t.Run("bucketing drops timezone offsets", func(t *testing.T) {
		// Known limitation: the offset is discarded before comparison, so a commit
		// stamped 23:00-05:00 buckets under its local date, not the UTC date.
		local := time.FixedZone("UTC-5", -5*60*60)
		commits := []Commit{commitAt(time.Date(2026, 8, 24, 23, 0, 0, 0, local))}

		summary := CalculateVelocity(commits, 7, now)

		assert.Equal(t, 1, summary.CommitsByDay["2026-08-24"])
	})
}
