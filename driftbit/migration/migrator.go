// Package migration imports the legacy MongoDB deployment into Postgres.
// It runs once per environment: clans first so accounts can reference the
// new serial ids, then accounts with their inventories, then open market
// listings and the war clock. The import is restartable; every insert is
// idempotent via ON CONFLICT.
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/junovette/driftbit/driftbit/database/models"
)

const defaultBatchSize = 500

type Migrator struct {
	pg        *bun.DB
	legacy    *mongo.Database
	batchSize int

	stats map[string]*TableStats

	// clanIDs maps legacy ObjectID hex to the new serial clan id; memberOf
	// maps account ids that appeared on a roster to the same. Both are
	// filled by the clan step and read by the account step.
	clanIDs  map[string]int64
	memberOf map[string]int64
}

func New(pg *bun.DB, client *mongo.Client, dbName string) *Migrator {
	return &Migrator{
		pg:        pg,
		legacy:    client.Database(dbName),
		batchSize: defaultBatchSize,
		stats:     make(map[string]*TableStats),
		clanIDs:   make(map[string]int64),
		memberOf:  make(map[string]int64),
	}
}

// SetBatchSize overrides the insert batch size, useful behind poolers.
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// MigrateAll runs every step in dependency order and logs a summary.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	start := time.Now()
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"clans", m.MigrateClans},
		{"accounts", m.MigrateAccounts},
		{"market_listings", m.MigrateListings},
		{"war_state", m.MigrateWarState},
	}

	for _, step := range steps {
		slog.Info("Starting migration step", slog.String("step", step.name))
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("migration failed at step %s: %w", step.name, err)
		}
		slog.Info("Completed migration step", slog.String("step", step.name))
	}

	for table, s := range m.stats {
		slog.Info("Migration table summary",
			slog.String("table", table),
			slog.Int("read", s.Read),
			slog.Int("migrated", s.Migrated),
			slog.Int("skipped", s.Skipped))
	}
	slog.Info("Migration completed", slog.Duration("took", time.Since(start)))
	return nil
}

func (m *Migrator) table(name string) *TableStats {
	s, ok := m.stats[name]
	if !ok {
		s = &TableStats{}
		m.stats[name] = s
	}
	return s
}

// MigrateClans inserts clans one at a time so the RETURNING id can seed the
// ObjectID map before accounts are converted.
func (m *Migrator) MigrateClans(ctx context.Context) error {
	stats := m.table("clans")
	now := time.Now()

	cur, err := m.legacy.Collection("clans").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query legacy clans: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc MongoClan
		if err := cur.Decode(&doc); err != nil {
			stats.Skipped++
			continue
		}
		stats.Read++

		clan := convertClan(doc, now)
		if clan.Name == "" || clan.Code == "" {
			stats.Skipped++
			continue
		}

		if _, err := m.pg.NewInsert().
			Model(clan).
			On("CONFLICT (code) DO UPDATE").
			Set("vault_balance = EXCLUDED.vault_balance").
			Set("war_points = EXCLUDED.war_points").
			Set("level = EXCLUDED.level").
			Returning("id").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert clan %s: %w", clan.Code, err)
		}

		m.clanIDs[doc.ID.Hex()] = clan.ID
		for _, member := range doc.Members {
			m.memberOf[strings.ToLower(member)] = clan.ID
		}
		stats.Migrated++
	}
	return cur.Err()
}

// MigrateAccounts streams the legacy players collection, converting and
// healing each account, and flushes in batches.
func (m *Migrator) MigrateAccounts(ctx context.Context) error {
	stats := m.table("accounts")
	itemStats := m.table("account_items")
	now := time.Now()

	cur, err := m.legacy.Collection("players").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query legacy players: %w", err)
	}
	defer cur.Close(ctx)

	var accounts []*models.Account
	var items []*models.AccountItem

	flush := func() error {
		if len(accounts) > 0 {
			if _, err := m.pg.NewInsert().
				Model(&accounts).
				On("CONFLICT (id) DO NOTHING").
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert account batch: %w", err)
			}
			stats.Migrated += len(accounts)
			accounts = accounts[:0]
		}
		if len(items) > 0 {
			if _, err := m.pg.NewInsert().
				Model(&items).
				On("CONFLICT (account_id, item_id) DO UPDATE").
				Set("quantity = EXCLUDED.quantity").
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert inventory batch: %w", err)
			}
			itemStats.Migrated += len(items)
			items = items[:0]
		}
		return nil
	}

	for cur.Next(ctx) {
		var doc MongoAccount
		if err := cur.Decode(&doc); err != nil {
			stats.Skipped++
			continue
		}
		stats.Read++
		if doc.ID == "" {
			stats.Skipped++
			continue
		}

		account, inventory := convertAccount(doc, m.clanIDs, m.memberOf, now)
		accounts = append(accounts, account)
		for itemID, qty := range inventory {
			items = append(items, &models.AccountItem{
				AccountID: account.ID,
				ItemID:    itemID,
				Quantity:  qty,
			})
			itemStats.Read++
		}

		if len(accounts) >= m.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	return flush()
}

// MigrateListings carries open market listings across. Listings pointing at
// removed items are dropped; the seller already has the escrowed stock gone,
// matching how the old bot handled delisted content.
func (m *Migrator) MigrateListings(ctx context.Context) error {
	stats := m.table("market_listings")
	now := time.Now()

	cur, err := m.legacy.Collection("market_listings").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query legacy listings: %w", err)
	}
	defer cur.Close(ctx)

	var batch []*models.MarketListing
	for cur.Next(ctx) {
		var doc MongoListing
		if err := cur.Decode(&doc); err != nil {
			stats.Skipped++
			continue
		}
		stats.Read++

		listing := convertListing(doc, now)
		if listing.ListingID <= 0 || listing.Quantity <= 0 || listing.UnitPrice <= 0 {
			stats.Skipped++
			continue
		}
		batch = append(batch, listing)

		if len(batch) >= m.batchSize {
			if err := m.insertListings(ctx, batch, stats); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return m.insertListings(ctx, batch, stats)
	}
	return nil
}

func (m *Migrator) insertListings(ctx context.Context, batch []*models.MarketListing, stats *TableStats) error {
	if _, err := m.pg.NewInsert().
		Model(&batch).
		On("CONFLICT (listing_id) DO NOTHING").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert listing batch: %w", err)
	}
	stats.Migrated += len(batch)
	return nil
}

// MigrateWarState copies the clan-war clock if a war was running.
func (m *Migrator) MigrateWarState(ctx context.Context) error {
	stats := m.table("war_state")

	var doc MongoWarState
	err := m.legacy.Collection("server_state").
		FindOne(ctx, bson.D{{Key: "stateKey", Value: models.WarStateKey}}).
		Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query legacy war state: %w", err)
	}
	stats.Read++

	if !doc.WarEndTime.After(time.Now()) {
		stats.Skipped++
		return nil
	}

	state := &models.WarState{Key: models.WarStateKey, WarEndsAt: doc.WarEndTime}
	if _, err := m.pg.NewInsert().
		Model(state).
		On("CONFLICT (key) DO UPDATE").
		Set("war_ends_at = EXCLUDED.war_ends_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert war state: %w", err)
	}
	stats.Migrated++
	return nil
}
