package resumes

import (
	"encoding/json"
	"errors"
	"time"
)

// Source records how the resume text reached the analyzer.
type Source string

const (
	SourcePDF  Source = "pdf"
	SourceText Source = "text"
)

var ErrNotFound = errors.New("not found")

// Resume is an analyzed resume. Rows are immutable once created.
type Resume struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Title     string          `json:"title"`
	Source    Source          `json:"source"`
	Score     int             `json:"score"`
	Analysis  json.RawMessage `json:"analysis"`
	RawText   string          `json:"rawText"`
	JobTarget string          `json:"jobTarget,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Summary is the list view of a Resume.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    Source    `json:"source"`
	Score     int       `json:"score"`
	ScoreBand string    `json:"scoreBand"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats aggregates a user's history.
type Stats struct {
	Count        int
	AverageScore *float64
	LastReview   *time.Time
}

// ScoreBand buckets a 0-100 score.
func ScoreBand(score int) string {
	switch {
	case score >= 80:
		return "strong"
	case score >= 60:
		return "fair"
	default:
		return "weak"
	}
}

func summarize(r Resume) Summary {
	return Summary{
		ID:        r.ID,
		Title:     r.Title,
		Source:    r.Source,
		Score:     r.Score,
		ScoreBand: ScoreBand(r.Score),
		CreatedAt: r.CreatedAt,
	}
}
