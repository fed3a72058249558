package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urbanloom/loyalty-backend/internal/config"
	"github.com/urbanloom/loyalty-backend/internal/db"
	"github.com/urbanloom/loyalty-backend/internal/model"
)

// Seeds a few customer ledgers for local development. Each entry is replayed
// through the same ledger-plus-profile shape the API writes, so the seeded
// balances obey the sum invariants.
type seedEntry struct {
	Amount      int64
	Description string
}

type seedCustomer struct {
	UID     string
	Entries []seedEntry
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() (err error) {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := gdb.AutoMigrate(&model.LoyaltyTransaction{}, &model.LoyaltyProfile{}, &model.Redemption{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("sql db: %w", err)
	}

	customers := buildSeedCustomers()

	canSeed, err := shouldSeed(ctx, sqlDB)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("ledger rows already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, c := range customers {
		if err = insertLedger(ctx, tx, c); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	log.Printf("seeded ledgers for %d customers", len(customers))
	return nil
}

func buildSeedCustomers() []seedCustomer {
	return []seedCustomer{
		{UID: "demo-silver", Entries: []seedEntry{
			{Amount: 600, Description: "order #1001 completed"},
			{Amount: 400, Description: "order #1017 completed"},
		}},
		{UID: "demo-gold", Entries: []seedEntry{
			{Amount: 4200, Description: "order #0902 completed"},
			{Amount: 1800, Description: "festive double points"},
			{Amount: -500, Description: "points redemption"},
		}},
		{UID: "demo-platinum", Entries: []seedEntry{
			{Amount: 15000, Description: "order history import"},
			{Amount: 8000, Description: "order #0777 completed"},
			{Amount: -2000, Description: "points redemption"},
		}},
	}
}

func insertLedger(ctx context.Context, tx *sql.Tx, c seedCustomer) error {
	var balance, lifetime int64
	now := time.Now()
	for i, e := range c.Entries {
		createdAt := now.Add(time.Duration(i-len(c.Entries)) * time.Hour)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO loyalty_transactions (id, customer_uid, amount, description, created_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), c.UID, e.Amount, e.Description, createdAt,
		); err != nil {
			return fmt.Errorf("insert transaction for %q: %w", c.UID, err)
		}
		balance += e.Amount
		if e.Amount > 0 {
			lifetime += e.Amount
		}
	}
	if balance < 0 {
		return fmt.Errorf("seed entries for %q drive balance negative", c.UID)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO loyalty_profiles (customer_uid, points_balance, lifetime_points, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.UID, balance, lifetime, now, now,
	); err != nil {
		return fmt.Errorf("insert profile for %q: %w", c.UID, err)
	}
	return nil
}

func shouldSeed(ctx context.Context, db *sql.DB) (bool, error) {
	var cnt int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loyalty_transactions`).Scan(&cnt); err != nil {
		return false, fmt.Errorf("count transactions: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	force := os.Getenv("FORCE_SEED")
	return strings.EqualFold(force, "true"), nil
}
