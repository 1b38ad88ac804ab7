package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tutorials_api/internal/domain/tutorial"
)

// MemoryURL selects the in-process repository instead of PostgreSQL.
const MemoryURL = "memory://"

// MemoryTutorialRepository keeps tutorials in process memory. Title filtering is a
// plain substring match; LIKE wildcards in the filter are taken literally.
type MemoryTutorialRepository struct {
	mu     sync.RWMutex
	nextID uint
	rows   map[uint]tutorial.Tutorial
	now    func() time.Time
}

func NewMemoryTutorialRepository() *MemoryTutorialRepository {
	return &MemoryTutorialRepository{
		rows: make(map[uint]tutorial.Tutorial),
		now:  time.Now,
	}
}

func (r *MemoryTutorialRepository) Create(_ context.Context, t *tutorial.Tutorial) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := r.now()
	t.ID = r.nextID
	t.CreatedAt = now
	t.UpdatedAt = now
	r.rows[t.ID] = clone(*t)
	return nil
}

func (r *MemoryTutorialRepository) GetByID(_ context.Context, id uint) (*tutorial.Tutorial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, tutorial.ErrNotFound
	}
	t := clone(row)
	return &t, nil
}

func (r *MemoryTutorialRepository) List(_ context.Context, filter tutorial.Filter) ([]*tutorial.Tutorial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*tutorial.Tutorial, 0, len(r.rows))
	for _, row := range r.rows {
		if matches(row, filter) {
			t := clone(row)
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryTutorialRepository) Count(_ context.Context, filter tutorial.Filter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, row := range r.rows {
		if matches(row, filter) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryTutorialRepository) Update(_ context.Context, id uint, patch tutorial.Patch) (int64, error) {
	if patch.IsEmpty() {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return 0, nil
	}
	if patch.Title != nil {
		row.Title = *patch.Title
	}
	if patch.Description != nil {
		d := *patch.Description
		row.Description = &d
	}
	if patch.Published != nil {
		row.Published = *patch.Published
	}
	row.UpdatedAt = r.now()
	r.rows[id] = row
	return 1, nil
}

func (r *MemoryTutorialRepository) Delete(_ context.Context, id uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return 0, nil
	}
	delete(r.rows, id)
	return 1, nil
}

// DeleteAll keeps nextID, matching a DELETE that leaves the id sequence untouched.
func (r *MemoryTutorialRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.rows))
	r.rows = make(map[uint]tutorial.Tutorial)
	return n, nil
}

func matches(t tutorial.Tutorial, f tutorial.Filter) bool {
	if f.PublishedOnly && !t.Published {
		return false
	}
	return f.TitleContains == "" || strings.Contains(t.Title, f.TitleContains)
}

func clone(t tutorial.Tutorial) tutorial.Tutorial {
	if t.Description != nil {
		d := *t.Description
		t.Description = &d
	}
	return t
}
