package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/economy"
)

type ClanStore struct {
	mu     sync.Mutex
	nextID int64
	clans  map[int64]*models.Clan
}

func NewClanStore() *ClanStore {
	return &ClanStore{nextID: 1, clans: make(map[int64]*models.Clan)}
}

func copyClan(c *models.Clan) *models.Clan {
	cp := *c
	cp.Applicants = append([]string(nil), c.Applicants...)
	cp.PendingInvites = append([]string(nil), c.PendingInvites...)
	return &cp
}

func (s *ClanStore) Create(_ context.Context, clan *models.Clan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lower := strings.ToLower(clan.Name)
	for _, existing := range s.clans {
		if existing.NameLower == lower || existing.Code == clan.Code {
			return economy.ErrConflict
		}
	}
	clan.ID = s.nextID
	s.nextID++
	clan.NameLower = lower
	if clan.CreatedAt.IsZero() {
		clan.CreatedAt = time.Now()
	}
	s.clans[clan.ID] = copyClan(clan)
	return nil
}

func (s *ClanStore) GetByID(_ context.Context, id int64) (*models.Clan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clan, ok := s.clans[id]
	if !ok {
		return nil, economy.ErrNotFound
	}
	return copyClan(clan), nil
}

func (s *ClanStore) GetByCode(_ context.Context, code string) (*models.Clan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code = strings.ToUpper(code)
	for _, clan := range s.clans {
		if clan.Code == code {
			return copyClan(clan), nil
		}
	}
	return nil, economy.ErrNotFound
}

func (s *ClanStore) GetByName(_ context.Context, name string) (*models.Clan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lower := strings.ToLower(name)
	for _, clan := range s.clans {
		if clan.NameLower == lower {
			return copyClan(clan), nil
		}
	}
	return nil, economy.ErrNotFound
}

func (s *ClanStore) Update(_ context.Context, clan *models.Clan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clans[clan.ID]; !ok {
		return economy.ErrNotFound
	}
	clan.NameLower = strings.ToLower(clan.Name)
	s.clans[clan.ID] = copyClan(clan)
	return nil
}

func (s *ClanStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clans, id)
	return nil
}

func (s *ClanStore) All(_ context.Context) ([]*models.Clan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Clan
	for _, clan := range s.clans {
		out = append(out, copyClan(clan))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *ClanStore) DebitVault(_ context.Context, id int64, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clan, ok := s.clans[id]
	if !ok || clan.VaultBalance < amount {
		return economy.ErrInsufficientFunds
	}
	clan.VaultBalance -= amount
	return nil
}

func (s *ClanStore) CreditVault(_ context.Context, id int64, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clan, ok := s.clans[id]
	if !ok {
		return economy.ErrNotFound
	}
	clan.VaultBalance += amount
	return nil
}

func (s *ClanStore) AddWarPoints(_ context.Context, id int64, points int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clan, ok := s.clans[id]
	if !ok {
		return economy.ErrNotFound
	}
	clan.WarPoints += points
	return nil
}

func (s *ClanStore) SetLevel(_ context.Context, id int64, fromLevel, toLevel int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clan, ok := s.clans[id]
	if !ok || clan.Level != fromLevel {
		return economy.ErrConflict
	}
	clan.Level = toLevel
	return nil
}

func (s *ClanStore) TopByWarPoints(_ context.Context, limit int) ([]*models.Clan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Clan
	for _, clan := range s.clans {
		if clan.WarPoints > 0 {
			out = append(out, copyClan(clan))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WarPoints > out[j].WarPoints })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ClanStore) ResetWarPoints(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, clan := range s.clans {
		clan.WarPoints = 0
	}
	return nil
}
