// Package memory provides in-memory repository implementations with the same
// guard semantics as the SQL layer. They back unit tests, including the
// concurrency properties: every conditional update runs under one lock, so a
// losing racer observes the same typed failures the database would report.
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

type AccountStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	items    map[string]map[string]int64
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*models.Account),
		items:    make(map[string]map[string]int64),
	}
}

func copyAccount(a *models.Account) *models.Account {
	cp := *a
	cp.ActiveBuffs = append([]models.Buff(nil), a.ActiveBuffs...)
	cp.TraitSlots = append([]models.TraitSlot(nil), a.TraitSlots...)
	cp.PowerGrid.Slots = append([]string(nil), a.PowerGrid.Slots...)
	if a.SmeltJob != nil {
		job := *a.SmeltJob
		cp.SmeltJob = &job
	}
	cp.Inventory = nil
	return &cp
}

func (s *AccountStore) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; ok {
		return economy.ErrConflict
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	account.NameLower = strings.ToLower(account.Name())
	s.accounts[account.ID] = copyAccount(account)
	return nil
}

func (s *AccountStore) GetByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, economy.ErrNotFound
	}
	return copyAccount(account), nil
}

func (s *AccountStore) GetByName(_ context.Context, name string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lower := strings.ToLower(name)
	for _, account := range s.accounts {
		if account.NameLower == lower {
			return copyAccount(account), nil
		}
	}
	return nil, economy.ErrNotFound
}

func (s *AccountStore) GetByDiscordID(_ context.Context, discordID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.DiscordID != "" && account.DiscordID == discordID {
			return copyAccount(account), nil
		}
	}
	return nil, economy.ErrNotFound
}

func (s *AccountStore) Update(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; !ok {
		return economy.ErrNotFound
	}
	account.NameLower = strings.ToLower(account.Name())
	s.accounts[account.ID] = copyAccount(account)
	return nil
}

func (s *AccountStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, id)
	delete(s.items, id)
	return nil
}

func (s *AccountStore) DebitBalance(_ context.Context, id string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok || account.Balance < amount {
		return economy.ErrInsufficientFunds
	}
	account.Balance -= amount
	return nil
}

func (s *AccountStore) CreditBalance(_ context.Context, id string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return economy.ErrNotFound
	}
	account.Balance += amount
	return nil
}

func (s *AccountStore) GetBalance(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return 0, economy.ErrNotFound
	}
	return account.Balance, nil
}

func (s *AccountStore) ItemQuantity(_ context.Context, accountID, itemID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[accountID][itemID], nil
}

func (s *AccountStore) Items(_ context.Context, accountID string) ([]*models.AccountItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.AccountItem
	for itemID, qty := range s.items[accountID] {
		if qty > 0 {
			out = append(out, &models.AccountItem{AccountID: accountID, ItemID: itemID, Quantity: qty})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (s *AccountStore) CreditItem(_ context.Context, accountID, itemID string, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items[accountID] == nil {
		s.items[accountID] = make(map[string]int64)
	}
	s.items[accountID][itemID] += quantity
	return nil
}

func (s *AccountStore) DebitItem(_ context.Context, accountID, itemID string, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items[accountID][itemID] < quantity {
		return economy.ErrInsufficientItems
	}
	s.items[accountID][itemID] -= quantity
	return nil
}

func (s *AccountStore) SetCooldown(_ context.Context, id string, action models.ActionKind, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return economy.ErrNotFound
	}
	stamp := at
	switch action {
	case models.ActionWork:
		account.LastWork = &stamp
	case models.ActionGather:
		account.LastGather = &stamp
	case models.ActionDaily:
		account.LastDaily = &stamp
	case models.ActionHourly:
		account.LastHourly = &stamp
	case models.ActionSlots:
		account.LastSlots = &stamp
	}
	return nil
}

func (s *AccountStore) SetStreak(_ context.Context, id string, action models.ActionKind, streak int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return economy.ErrNotFound
	}
	switch action {
	case models.ActionDaily:
		account.DailyStreak = streak
	case models.ActionHourly:
		account.HourlyStreak = streak
	}
	return nil
}

func (s *AccountStore) SetBuffs(_ context.Context, id string, buffs []models.Buff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return economy.ErrNotFound
	}
	account.ActiveBuffs = append([]models.Buff(nil), buffs...)
	return nil
}

func (s *AccountStore) SetZeal(_ context.Context, id string, zeal models.Zeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return economy.ErrNotFound
	}
	account.Zeal = zeal
	return nil
}

func (s *AccountStore) SetTraitSlots(_ context.Context, id string, slots []models.TraitSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return economy.ErrNotFound
	}
	account.TraitSlots = append([]models.TraitSlot(nil), slots...)
	return nil
}

func (s *AccountStore) SetPowerGrid(_ context.Context, id string, grid models.PowerGrid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return economy.ErrNotFound
	}
	grid.Slots = append([]string(nil), grid.Slots...)
	account.PowerGrid = grid
	return nil
}

func (s *AccountStore) SetSmeltJob(_ context.Context, id string, job *models.SmeltJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return economy.ErrNotFound
	}
	if job == nil {
		account.SmeltJob = nil
	} else {
		cp := *job
		account.SmeltJob = &cp
	}
	return nil
}

func (s *AccountStore) SetClan(_ context.Context, id string, clanID int64, cooldownUntil *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return economy.ErrNotFound
	}
	account.ClanID = clanID
	account.ClanJoinCooldownUntil = cooldownUntil
	return nil
}

func (s *AccountStore) ByClan(_ context.Context, clanID int64) ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Account
	for _, account := range s.accounts {
		if account.ClanID == clanID {
			out = append(out, copyAccount(account))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Balance > out[j].Balance })
	return out, nil
}

func (s *AccountStore) TopByBalance(_ context.Context, limit int) ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Account
	for _, account := range s.accounts {
		out = append(out, copyAccount(account))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Balance > out[j].Balance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *AccountStore) SmeltingDue(_ context.Context, before time.Time) ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Account
	for _, account := range s.accounts {
		if account.SmeltJob != nil && !account.SmeltJob.FinishesAt.After(before) {
			out = append(out, copyAccount(account))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *AccountStore) WithGrids(_ context.Context) ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Account
	for _, account := range s.accounts {
		for _, slot := range account.PowerGrid.Slots {
			if slot != "" {
				out = append(out, copyAccount(account))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *AccountStore) AllIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
