// Package checkin provides mood check-in value types and the pure
// aggregation behind the emociograma summary.
package checkin

import (
	"time"
)

// Mood is a 1..5 mood score.
type Mood int

// Mood scale bounds.
const (
	MoodMin Mood = 1
	MoodMax Mood = 5
)

// Valid reports whether m is on the scale.
func (m Mood) Valid() bool {
	return m >= MoodMin && m <= MoodMax
}

// Checkin is a single mood entry (value type).
type Checkin struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"orgId"`
	Mood      Mood      `json:"mood"`
	Note      string    `json:"note,omitempty"`
	Anonymous bool      `json:"anonymous"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate returns field errors for a candidate check-in; empty means valid.
func Validate(orgID string, mood Mood, note string) map[string]any {
	errs := make(map[string]any)
	if orgID == "" {
		errs["orgId"] = "orgId is required"
	}
	if !mood.Valid() {
		errs["mood"] = "mood must be between 1 and 5"
	}
	if len(note) > 500 {
		errs["note"] = "note must be at most 500 characters"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Summary aggregates check-ins for one organization over a window.
type Summary struct {
	OrgID   string       `json:"orgId"`
	From    time.Time    `json:"from"`
	To      time.Time    `json:"to"`
	Total   int          `json:"total"`
	Average float64      `json:"average"`
	Counts  map[Mood]int `json:"counts"`
}

// Summarize computes the emociograma for a set of check-ins. Entries outside
// [from, to) are ignored.
func Summarize(orgID string, entries []Checkin, from, to time.Time) Summary {
	s := Summary{
		OrgID:  orgID,
		From:   from,
		To:     to,
		Counts: make(map[Mood]int),
	}
	sum := 0
	for _, e := range entries {
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		s.Counts[e.Mood]++
		s.Total++
		sum += int(e.Mood)
	}
	if s.Total > 0 {
		s.Average = float64(sum) / float64(s.Total)
	}
	return s
}
