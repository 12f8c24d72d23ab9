package refreshtokens

import (
	"context"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/server/models"
)

// MemoryRepository keeps refresh token records in process memory, keyed by
// token string.
type MemoryRepository struct {
	mu      sync.Mutex
	nextID  int64
	byToken map[string]models.RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byToken: make(map[string]models.RefreshToken)}
}

func (r *MemoryRepository) Create(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[token.Token]; ok {
		return common.ErrorAlreadyExists
	}
	r.nextID++
	token.ID = strconv.FormatInt(r.nextID, 10)
	r.byToken[token.Token] = *token
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rt, nil
}

func (r *MemoryRepository) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byToken, token)
	return nil
}

func (r *MemoryRepository) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for token, rt := range r.byToken {
		if rt.UserID == userID {
			delete(r.byToken, token)
			n++
		}
	}
	return n, nil
}

// Count reports how many records are stored.
func (r *MemoryRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byToken)
}
