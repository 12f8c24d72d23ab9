package users

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/server/models"
)

// MemoryRepository keeps users in process memory. It enforces the same
// uniqueness rules as the database schemas and hands out copies, so callers
// never share state with the store.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[string]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*models.User)}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		switch {
		case u.Username == user.Username:
			return nil, common.ErrorAlreadyExists
		case u.UserID == user.UserID:
			return nil, common.ErrorAlreadyExists
		case user.Email != "" && u.Email == user.Email:
			return nil, common.ErrorAlreadyExists
		}
	}

	r.nextID++
	user.ID = strconv.FormatInt(r.nextID, 10)
	stored := *user
	r.byID[user.ID] = &stored

	return user, nil
}

func (r *MemoryRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, common.ErrorNotFound
	}
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	found := *u
	return &found, nil
}

func (r *MemoryRepository) RecordLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.LastLogin = &at
	u.UpdatedAt = at
	return nil
}

func (r *MemoryRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}
