package memory

import (
	"context"
	"sync"
	"time"

	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/economy"
)

type StateStore struct {
	mu            sync.Mutex
	war           *models.WarState
	verifications map[string]*models.Verification
}

func NewStateStore() *StateStore {
	return &StateStore{verifications: make(map[string]*models.Verification)}
}

func (s *StateStore) WarState(_ context.Context) (*models.WarState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.war == nil {
		return nil, economy.ErrNotFound
	}
	cp := *s.war
	return &cp, nil
}

func (s *StateStore) SetWarEnd(_ context.Context, endsAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.war = &models.WarState{Key: models.WarStateKey, WarEndsAt: endsAt}
	return nil
}

func (s *StateStore) CreateVerification(_ context.Context, v *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	cp := *v
	s.verifications[v.Code] = &cp
	return nil
}

func (s *StateStore) ClaimVerification(_ context.Context, code string) (*models.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.verifications[code]
	if !ok {
		return nil, economy.ErrNotFound
	}
	delete(s.verifications, code)
	cp := *v
	return &cp, nil
}

func (s *StateStore) PruneVerifications(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pruned int64
	for code, v := range s.verifications {
		if v.CreatedAt.Before(olderThan) {
			delete(s.verifications, code)
			pruned++
		}
	}
	return pruned, nil
}
