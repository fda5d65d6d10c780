package diaries

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Junhyukkkk/anondocs-server/internal/common"
	"github.com/Junhyukkkk/anondocs-server/internal/server/models"
)

// InMemoryRepository is a map-backed Repository used in tests and local
// development without a database. The mutex plays the role the storage
// engine's atomic commit plays in Postgres: the version check and the write
// happen under one critical section.
type InMemoryRepository struct {
	mu      sync.Mutex
	nextID  int64
	diaries map[int64]*models.Diary
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1, diaries: make(map[int64]*models.Diary)}
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (*models.Diary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.diaries[id]
	if !ok || d.Deleted {
		return nil, common.ErrorNotFound
	}
	out := *d
	return &out, nil
}

func (r *InMemoryRepository) Create(ctx context.Context, diary *models.Diary) (*models.Diary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *diary
	stored.ID = r.nextID
	stored.Version = 1
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.nextID++
	r.diaries[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) SaveContent(ctx context.Context, id int64, content string, expectedVersion int64) (*models.Diary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.diaries[id]
	if !ok || d.Deleted {
		return nil, common.ErrorNotFound
	}
	if expectedVersion != AnyVersion && d.Version != expectedVersion {
		return nil, &common.VersionConflictError{CurrentVersion: d.Version}
	}

	d.Content = content
	d.Version++
	d.UpdatedAt = time.Now()

	out := *d
	return &out, nil
}

func (r *InMemoryRepository) MarkDeleted(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.diaries[id]
	if !ok || d.Deleted {
		return common.ErrorNotFound
	}
	d.Deleted = true
	return nil
}

func (r *InMemoryRepository) SelectByOwner(ctx context.Context, userID int64, limit, offset int) ([]*models.Diary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.Diary
	for _, d := range r.diaries {
		if d.UserID == userID && !d.Deleted {
			out := *d
			result = append(result, &out)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, limit, offset), nil
}

func (r *InMemoryRepository) SelectFeed(ctx context.Context, limit, offset int) ([]*models.Diary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.Diary
	for _, d := range r.diaries {
		if d.Visibility == models.VisibilityAnonymous && !d.Deleted && d.PublishedAt != nil {
			out := *d
			result = append(result, &out)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PublishedAt.After(*result[j].PublishedAt) })
	return page(result, limit, offset), nil
}

func page(in []*models.Diary, limit, offset int) []*models.Diary {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
