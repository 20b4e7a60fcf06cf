package profiles

import "context"

type Repo interface {
	Upsert(ctx context.Context, p Profile) error
	GetByID(ctx context.Context, userID string) (Profile, error)
}
