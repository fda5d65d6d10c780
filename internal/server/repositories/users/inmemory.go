package users

import (
	"context"
	"sync"
	"time"

	"github.com/Junhyukkkk/anondocs-server/internal/common"
	"github.com/Junhyukkkk/anondocs-server/internal/server/models"
)

// InMemoryRepository is a map-backed Repository used in tests and local
// development without a database.
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*models.User
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1, users: make(map[int64]*models.User)}
}

func (r *InMemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, common.ErrorAlreadyExists
		}
	}

	stored := *user
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.nextID++
	r.users[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}
