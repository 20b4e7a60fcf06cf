package resumes

import "context"

// Repo defines persistence operations for resumes.
type Repo interface {
	Create(ctx context.Context, r Resume) error
	GetByID(ctx context.Context, userID, id string) (Resume, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Summary, error)
	Stats(ctx context.Context, userID string) (Stats, error)
}
