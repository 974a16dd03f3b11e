package domain

import (
	"time"

	"github.com/montanaflynn/stats"
)

// VelocitySummary is commit throughput over a trailing window. CommitsByDay only holds
// days that saw at least one commit; quiet days are absent rather than zero-valued.
type VelocitySummary struct {
	CommitsInWindow    int            `json:"commits_in_window"`
	CommitsPerDay      float64        `json:"commits_per_day"`
	CommitsByDay       map[string]int `json:"commits_by_day"`
	TotalCommits       int            `json:"total_commits"`
	MedianPerActiveDay float64        `json:"median_per_active_day"`
}

// dayKey is the bucket key format for CommitsByDay.
const dayKey = "2006-01-02"

// stripZone drops the timezone offset, keeping the wall-clock reading. Known
// limitation: commits authored near a UTC offset boundary can land in the wrong day
// bucket or fall just inside/outside the window.
func stripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// CalculateVelocity filters commits to the trailing window ending at now, buckets them
// by calendar day and computes the per-day rate. TotalCommits counts the whole input
// list regardless of the window (the fetcher already bounds it to a 30-day lookback).
func CalculateVelocity(commits []Commit, windowDays int, now time.Time) VelocitySummary {
	summary := VelocitySummary{
		CommitsByDay: make(map[string]int),
		TotalCommits: len(commits),
	}

	cutoff := stripZone(now).AddDate(0, 0, -windowDays)
	for _, commit := range commits {
		date := stripZone(commit.Date)
		if !date.After(cutoff) {
			continue
		}
		summary.CommitsInWindow++
		summary.CommitsByDay[date.Format(dayKey)]++
	}

	if windowDays > 0 {
		summary.CommitsPerDay = float64(summary.CommitsInWindow) / float64(windowDays)
	}

	if len(summary.CommitsByDay) > 0 {
		perDay := make([]float64, 0, len(summary.CommitsByDay))
		for _, count := range summary.CommitsByDay {
			perDay = append(perDay, float64(count))
		}
		if median, err := stats.Median(perDay); err == nil {
			summary.MedianPerActiveDay = median
		}
	}

	return summary
}
