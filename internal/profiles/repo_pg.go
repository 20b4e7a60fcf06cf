package profiles

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Upsert(ctx context.Context, p Profile) error {
	const query = `
INSERT INTO profiles (user_id, email, full_name, job_title, email_notifications, weekly_reports, ai_tips, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
ON CONFLICT (user_id) DO UPDATE SET
  email = COALESCE(EXCLUDED.email, profiles.email),
  full_name = EXCLUDED.full_name,
  job_title = EXCLUDED.job_title,
  email_notifications = EXCLUDED.email_notifications,
  weekly_reports = EXCLUDED.weekly_reports,
  ai_tips = EXCLUDED.ai_tips,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		p.UserID,
		nullableString(p.Email),
		nullableString(p.FullName),
		nullableString(p.JobTitle),
		p.Notifications.EmailNotifications,
		p.Notifications.WeeklyReports,
		p.Notifications.AITips,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (Profile, error) {
	const query = `
SELECT user_id, email, full_name, job_title, email_notifications, weekly_reports, ai_tips, created_at, updated_at
FROM profiles
WHERE user_id = $1
LIMIT 1`
	var (
		p        Profile
		email    sql.NullString
		fullName sql.NullString
		jobTitle sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&email,
		&fullName,
		&jobTitle,
		&p.Notifications.EmailNotifications,
		&p.Notifications.WeeklyReports,
		&p.Notifications.AITips,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	p.Email = email.String
	p.FullName = fullName.String
	p.JobTitle = jobTitle.String
	return p, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
