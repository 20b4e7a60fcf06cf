package resumes

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new resume.
func (r *PGRepo) Create(ctx context.Context, res Resume) error {
	const query = `
INSERT INTO resumes (
    id,
    user_id,
    title,
    source,
    score,
    analysis,
    raw_text,
    job_target,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var jobTarget sql.NullString
	if res.JobTarget != "" {
		jobTarget = sql.NullString{String: res.JobTarget, Valid: true}
	}
	_, err := r.DB.ExecContext(
		ctx,
		query,
		res.ID,
		res.UserID,
		res.Title,
		string(res.Source),
		res.Score,
		[]byte(res.Analysis),
		res.RawText,
		jobTarget,
		res.CreatedAt,
	)
	return err
}

// GetByID returns a resume owned by userID.
func (r *PGRepo) GetByID(ctx context.Context, userID, id string) (Resume, error) {
	const query = `
SELECT id, user_id, title, source, score, analysis, raw_text, job_target, created_at
FROM resumes
WHERE id = $1 AND user_id = $2`

	var (
		res       Resume
		source    string
		analysis  []byte
		jobTarget sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, id, userID).Scan(
		&res.ID,
		&res.UserID,
		&res.Title,
		&source,
		&res.Score,
		&analysis,
		&res.RawText,
		&jobTarget,
		&res.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	res.Source = Source(source)
	res.Analysis = analysis
	if jobTarget.Valid {
		res.JobTarget = jobTarget.String
	}
	return res, nil
}

// ListByUser returns summaries newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Summary, error) {
	const query = `
SELECT id, title, source, score, created_at
FROM resumes
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var (
			s      Summary
			source string
		)
		if err := rows.Scan(&s.ID, &s.Title, &source, &s.Score, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Source = Source(source)
		s.ScoreBand = ScoreBand(s.Score)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Stats returns count, average score and latest review time.
func (r *PGRepo) Stats(ctx context.Context, userID string) (Stats, error) {
	const query = `
SELECT COUNT(*), AVG(score)::float8, MAX(created_at)
FROM resumes
WHERE user_id = $1`

	var (
		stats Stats
		avg   sql.NullFloat64
		last  sql.NullTime
	)
	if err := r.DB.QueryRowContext(ctx, query, userID).Scan(&stats.Count, &avg, &last); err != nil {
		return Stats{}, err
	}
	if avg.Valid {
		stats.AverageScore = &avg.Float64
	}
	if last.Valid {
		stats.LastReview = &last.Time
	}
	return stats, nil
}

var _ Repo = (*PGRepo)(nil)
