package progress

import "time"

// Summary aggregates a newest-first slice of entries. Pointer fields are nil
// when there is nothing to report.
type Summary struct {
	TotalSessions int        `json:"total_sessions"`
	AverageScore  *float64   `json:"average_score"`
	BestScore     *float64   `json:"best_score"`
	LastScore     *float64   `json:"last_score"`
	LastPracticed *time.Time `json:"last_practiced"`
}

// Summarise expects entries ordered newest first, as returned by Recent.
func Summarise(entries []Entry) Summary {
	if len(entries) == 0 {
		return Summary{}
	}

	best := entries[0].Score
	total := 0.0
	for _, entry := range entries {
		total += entry.Score
		if entry.Score > best {
			best = entry.Score
		}
	}
	average := total / float64(len(entries))
	last := entries[0].Score
	practiced := entries[0].CreatedAt

	return Summary{
		TotalSessions: len(entries),
		AverageScore:  &average,
		BestScore:     &best,
		LastScore:     &last,
		LastPracticed: &practiced,
	}
}
