// Package clan owns the clan state machine: creation, membership
// transitions, the vault and leveling ladder, and war-point accrual.
package clan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/database/repositories"
	"github.com/junovette/driftbit/driftbit/economy"
	"github.com/junovette/driftbit/driftbit/economy/reward"
	"github.com/junovette/driftbit/driftbit/game"
)

type Manager struct {
	clans    repositories.ClanRepository
	accounts repositories.AccountRepository
	state    repositories.StateRepository
	rewards  *reward.Engine
}

func NewManager(clans repositories.ClanRepository, accounts repositories.AccountRepository, state repositories.StateRepository, rewards *reward.Engine) *Manager {
	return &Manager{clans: clans, accounts: accounts, state: state, rewards: rewards}
}

// Create founds a clan with the caller as sole member and owner.
func (m *Manager) Create(ctx context.Context, founder *models.Account, name string) (*models.Clan, error) {
	name = strings.TrimSpace(name)
	if len(name) < config.ClanNameMinLen || len(name) > config.ClanNameMaxLen {
		return nil, fmt.Errorf("clan name must be %d-%d characters", config.ClanNameMinLen, config.ClanNameMaxLen)
	}
	if founder.ClanID != 0 {
		return nil, fmt.Errorf("you are already in a clan")
	}
	if _, err := m.clans.GetByName(ctx, name); err == nil {
		return nil, fmt.Errorf("a clan named %q already exists", name)
	}

	clan := &models.Clan{
		Code:        m.rewards.Token(config.ClanCodeLength),
		Name:        name,
		OwnerID:     founder.ID,
		Level:       1,
		Recruitment: models.RecruitmentOpen,
		CreatedAt:   time.Now(),
	}
	if err := m.clans.Create(ctx, clan); err != nil {
		return nil, fmt.Errorf("failed to create clan: %w", err)
	}
	if err := m.accounts.SetClan(ctx, founder.ID, clan.ID, nil); err != nil {
		// Roll the clan back rather than leave an ownerless shell.
		if delErr := m.clans.Delete(ctx, clan.ID); delErr != nil {
			slog.Error("Clan rollback failed",
				slog.String("type", "db"),
				slog.Int64("clan_id", clan.ID),
				slog.Any("error", delErr))
		}
		return nil, err
	}
	founder.ClanID = clan.ID
	return clan, nil
}

// Resolve finds a clan by its code first, then its name.
func (m *Manager) Resolve(ctx context.Context, ref string) (*models.Clan, error) {
	if clan, err := m.clans.GetByCode(ctx, ref); err == nil {
		return clan, nil
	}
	return m.clans.GetByName(ctx, ref)
}

// JoinResult says which transition a join request took.
type JoinResult string

const (
	Joined  JoinResult = "joined"
	Applied JoinResult = "applied"
)

// Join moves an account toward membership: straight in for open clans or a
// pending invite, otherwise onto the applicant list.
func (m *Manager) Join(ctx context.Context, account *models.Account, ref string) (JoinResult, *models.Clan, error) {
	if account.ClanID != 0 {
		return "", nil, fmt.Errorf("you are already in a clan")
	}
	if until := account.ClanJoinCooldownUntil; until != nil && time.Now().Before(*until) {
		return "", nil, fmt.Errorf("you must wait %s before joining another clan",
			time.Until(*until).Round(time.Second))
	}

	clan, err := m.Resolve(ctx, ref)
	if err != nil {
		return "", nil, fmt.Errorf("no clan matches %q", ref)
	}

	if clan.Recruitment == models.RecruitmentOpen || clan.HasInvite(account.ID) {
		if err := m.admit(ctx, clan, account); err != nil {
			return "", nil, err
		}
		return Joined, clan, nil
	}

	if clan.HasApplicant(account.ID) {
		return "", nil, fmt.Errorf("you have already applied to %s", clan.Name)
	}
	clan.Applicants = append(clan.Applicants, account.ID)
	if err := m.clans.Update(ctx, clan); err != nil {
		return "", nil, err
	}
	return Applied, clan, nil
}

func (m *Manager) admit(ctx context.Context, clan *models.Clan, account *models.Account) error {
	members, err := m.accounts.ByClan(ctx, clan.ID)
	if err != nil {
		return err
	}
	if len(members) >= config.ClanMemberLimit {
		return fmt.Errorf("%s is full (%d members)", clan.Name, config.ClanMemberLimit)
	}

	if err := m.accounts.SetClan(ctx, account.ID, clan.ID, nil); err != nil {
		return err
	}
	account.ClanID = clan.ID

	// Clear any pending application/invite bookkeeping.
	changed := removeID(&clan.Applicants, account.ID)
	changed = removeID(&clan.PendingInvites, account.ID) || changed
	if changed {
		if err := m.clans.Update(ctx, clan); err != nil {
			return err
		}
	}
	return nil
}

// Invite records a pending invite for a closed clan. Owner only.
func (m *Manager) Invite(ctx context.Context, owner *models.Account, targetName string) (*models.Clan, error) {
	clan, err := m.ownedClan(ctx, owner)
	if err != nil {
		return nil, err
	}
	target, err := m.accounts.GetByName(ctx, targetName)
	if err != nil {
		return nil, fmt.Errorf("no account named %q", targetName)
	}
	if target.ClanID != 0 {
		return nil, fmt.Errorf("%s is already in a clan", target.Name())
	}
	if clan.HasInvite(target.ID) {
		return nil, fmt.Errorf("%s is already invited", target.Name())
	}
	clan.PendingInvites = append(clan.PendingInvites, target.ID)
	if err := m.clans.Update(ctx, clan); err != nil {
		return nil, err
	}
	return clan, nil
}

// Accept admits a pending applicant. Owner only.
func (m *Manager) Accept(ctx context.Context, owner *models.Account, applicantName string) (*models.Account, error) {
	clan, err := m.ownedClan(ctx, owner)
	if err != nil {
		return nil, err
	}
	applicant, err := m.accounts.GetByName(ctx, applicantName)
	if err != nil {
		return nil, fmt.Errorf("no account named %q", applicantName)
	}
	if !clan.HasApplicant(applicant.ID) {
		return nil, fmt.Errorf("%s has not applied", applicant.Name())
	}
	if applicant.ClanID != 0 {
		// Applied, then joined elsewhere; drop the stale application.
		removeID(&clan.Applicants, applicant.ID)
		if err := m.clans.Update(ctx, clan); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s has since joined another clan", applicant.Name())
	}
	if err := m.admit(ctx, clan, applicant); err != nil {
		return nil, err
	}
	return applicant, nil
}

// Leave clears the member's clan reference and starts the re-join cooldown.
// The owner cannot leave; they disband instead.
func (m *Manager) Leave(ctx context.Context, account *models.Account) (*models.Clan, error) {
	if account.ClanID == 0 {
		return nil, fmt.Errorf("you are not in a clan")
	}
	clan, err := m.clans.GetByID(ctx, account.ClanID)
	if err != nil {
		return nil, err
	}
	if clan.OwnerID == account.ID {
		return nil, fmt.Errorf("the owner cannot leave; disband the clan instead")
	}
	return clan, m.evict(ctx, account.ID)
}

// Kick removes a member. Owner only; the owner cannot kick themselves.
func (m *Manager) Kick(ctx context.Context, owner *models.Account, memberName string) (*models.Account, error) {
	clan, err := m.ownedClan(ctx, owner)
	if err != nil {
		return nil, err
	}
	member, err := m.accounts.GetByName(ctx, memberName)
	if err != nil {
		return nil, fmt.Errorf("no account named %q", memberName)
	}
	if member.ClanID != clan.ID {
		return nil, fmt.Errorf("%s is not in your clan", member.Name())
	}
	if member.ID == owner.ID {
		return nil, fmt.Errorf("you cannot kick yourself")
	}
	return member, m.evict(ctx, member.ID)
}

func (m *Manager) evict(ctx context.Context, accountID string) error {
	until := time.Now().Add(config.ClanJoinCooldown)
	return m.accounts.SetClan(ctx, accountID, 0, &until)
}

// Disband deletes the clan and clears every member's reference. Owner only.
func (m *Manager) Disband(ctx context.Context, owner *models.Account) (*models.Clan, error) {
	clan, err := m.ownedClan(ctx, owner)
	if err != nil {
		return nil, err
	}
	members, err := m.accounts.ByClan(ctx, clan.ID)
	if err != nil {
		return nil, err
	}
	for _, member := range members {
		if err := m.accounts.SetClan(ctx, member.ID, 0, nil); err != nil {
			slog.Error("Failed to clear clan reference",
				slog.String("type", "db"),
				slog.String("account", member.ID),
				slog.Int64("clan_id", clan.ID),
				slog.Any("error", err))
		}
	}
	if err := m.clans.Delete(ctx, clan.ID); err != nil {
		return nil, err
	}
	return clan, nil
}

// SetRecruitment toggles open/closed recruiting. Owner only.
func (m *Manager) SetRecruitment(ctx context.Context, owner *models.Account, mode models.Recruitment) (*models.Clan, error) {
	if mode != models.RecruitmentOpen && mode != models.RecruitmentClosed {
		return nil, fmt.Errorf("recruitment mode must be open or closed")
	}
	clan, err := m.ownedClan(ctx, owner)
	if err != nil {
		return nil, err
	}
	clan.Recruitment = mode
	if err := m.clans.Update(ctx, clan); err != nil {
		return nil, err
	}
	return clan, nil
}

// Donate moves bits from a member's balance into the vault. The debit is
// guarded; the vault credit follows only on success.
func (m *Manager) Donate(ctx context.Context, account *models.Account, amount int64) (*models.Clan, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("donation must be positive")
	}
	if account.ClanID == 0 {
		return nil, fmt.Errorf("you are not in a clan")
	}
	clan, err := m.clans.GetByID(ctx, account.ClanID)
	if err != nil {
		return nil, err
	}

	if err := m.accounts.DebitBalance(ctx, account.ID, amount); err != nil {
		return nil, err
	}
	if err := m.clans.CreditVault(ctx, clan.ID, amount); err != nil {
		if refundErr := m.accounts.CreditBalance(ctx, account.ID, amount); refundErr != nil {
			slog.Error("Donation refund failed",
				slog.String("type", "db"),
				slog.String("account", account.ID),
				slog.Int64("amount", amount),
				slog.Any("error", refundErr))
		}
		return nil, err
	}
	clan.VaultBalance += amount
	return clan, nil
}

// Upgrade spends the vault up the cost ladder. The vault debit is guarded
// and the level bump is a compare-and-swap from the observed level, so two
// simultaneous upgrades cannot both apply.
func (m *Manager) Upgrade(ctx context.Context, owner *models.Account) (*models.Clan, error) {
	clan, err := m.ownedClan(ctx, owner)
	if err != nil {
		return nil, err
	}
	next, ok := game.ClanLevelAt(clan.Level + 1)
	if !ok {
		return nil, fmt.Errorf("%s is already max level", clan.Name)
	}
	if clan.VaultBalance < next.Cost {
		return nil, fmt.Errorf("the vault needs %d %s (has %d)", next.Cost, config.CurrencyName, clan.VaultBalance)
	}

	if err := m.clans.DebitVault(ctx, clan.ID, next.Cost); err != nil {
		return nil, err
	}
	if err := m.clans.SetLevel(ctx, clan.ID, clan.Level, next.Level); err != nil {
		if errors.Is(err, economy.ErrConflict) {
			// Another upgrade landed first; give the cost back.
			if refundErr := m.clans.CreditVault(ctx, clan.ID, next.Cost); refundErr != nil {
				slog.Error("Upgrade refund failed",
					slog.String("type", "db"),
					slog.Int64("clan_id", clan.ID),
					slog.Any("error", refundErr))
			}
		}
		return nil, err
	}
	clan.VaultBalance -= next.Cost
	clan.Level = next.Level
	return clan, nil
}

// RecordWarAction credits one war point to the actor's clan if a war is
// running. Best-effort: a failure never blocks the triggering action.
func (m *Manager) RecordWarAction(ctx context.Context, account *models.Account) {
	if account.ClanID == 0 {
		return
	}
	state, err := m.state.WarState(ctx)
	if err != nil || !state.Active(time.Now()) {
		return
	}
	if err := m.clans.AddWarPoints(ctx, account.ClanID, config.ClanWarPointsPerAct); err != nil {
		slog.Error("War point credit failed",
			slog.String("type", "db"),
			slog.Int64("clan_id", account.ClanID),
			slog.Any("error", err))
	}
}

func (m *Manager) ownedClan(ctx context.Context, owner *models.Account) (*models.Clan, error) {
	if owner.ClanID == 0 {
		return nil, fmt.Errorf("you are not in a clan")
	}
	clan, err := m.clans.GetByID(ctx, owner.ClanID)
	if err != nil {
		return nil, err
	}
	if clan.OwnerID != owner.ID {
		return nil, fmt.Errorf("only the clan owner can do that")
	}
	return clan, nil
}

func removeID(ids *[]string, id string) bool {
	for i, v := range *ids {
		if v == id {
			*ids = append((*ids)[:i], (*ids)[i+1:]...)
			return true
		}
	}
	return false
}
