package resumes

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Resume // userID -> resumes
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]Resume)}
}

func (r *MemoryRepo) Create(ctx context.Context, res Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[res.UserID] = append(r.data[res.UserID], res)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, id string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, res := range r.data[userID] {
		if res.ID == id {
			return res, nil
		}
	}
	return Resume{}, ErrNotFound
}

// ListByUser returns summaries newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sorted := r.sorted(userID)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(sorted) {
		return []Summary{}, nil
	}
	end := len(sorted)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]Summary, 0, end-offset)
	for _, res := range sorted[offset:end] {
		out = append(out, summarize(res))
	}
	return out, nil
}

func (r *MemoryRepo) Stats(ctx context.Context, userID string) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	sorted := r.sorted(userID)
	if len(sorted) == 0 {
		return Stats{}, nil
	}
	total := 0
	for _, res := range sorted {
		total += res.Score
	}
	avg := float64(total) / float64(len(sorted))
	last := sorted[0].CreatedAt
	return Stats{Count: len(sorted), AverageScore: &avg, LastReview: &last}, nil
}

func (r *MemoryRepo) sorted(userID string) []Resume {
	r.mu.RLock()
	list := make([]Resume, len(r.data[userID]))
	copy(list, r.data[userID])
	r.mu.RUnlock()
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

var _ Repo = (*MemoryRepo)(nil)
