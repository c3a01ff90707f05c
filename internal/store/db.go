// Package store is the durable, transactional home of villages,
// buildings, troops, queues, armies and reports — the single source of
// truth every engine reads and writes through (§2).
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/frontier-realms/world-server/internal/config"
)

// Open connects to Postgres via lib/pq and applies the connection-pool
// limits from configuration.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// migrations are applied in order, each in its own transaction and
// tracked by name in schema_migrations so re-running Migrate is a no-op.
var migrations = []struct {
	name string
	sql  string
}{
	{"0001_users", schemaUsers},
	{"0002_villages", schemaVillages},
	{"0003_buildings", schemaBuildings},
	{"0004_troop_definitions", schemaTroopDefinitions},
	{"0005_troops", schemaTroops},
	{"0006_troop_queue_entries", schemaTroopQueueEntries},
	{"0007_armies", schemaArmies},
	{"0008_reports", schemaReports},
}

// Migrate applies every pending migration, creating the schema; the
// troop catalog rows are inserted separately by SeedCatalog.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		if err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name = $1)`, m.name,
		).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", m.name, err)
		}
		if applied {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.name, err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (name) VALUES ($1)`, m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.name, err)
		}
	}
	return nil
}

const schemaUsers = `
CREATE TABLE users (
	id UUID PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	premium_currency_balance BIGINT NOT NULL DEFAULT 0,
	hero_slots INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const schemaVillages = `
CREATE TABLE villages (
	id UUID PRIMARY KEY,
	owner_id UUID NOT NULL REFERENCES users(id),
	name TEXT NOT NULL,
	x INT NOT NULL,
	y INT NOT NULL,
	is_capital BOOLEAN NOT NULL DEFAULT false,
	wood BIGINT NOT NULL DEFAULT 0,
	clay BIGINT NOT NULL DEFAULT 0,
	iron BIGINT NOT NULL DEFAULT 0,
	crop BIGINT NOT NULL DEFAULT 0,
	warehouse_capacity BIGINT NOT NULL DEFAULT 800,
	granary_capacity BIGINT NOT NULL DEFAULT 800,
	population INT NOT NULL DEFAULT 2,
	culture_points INT NOT NULL DEFAULT 0,
	loyalty INT NOT NULL DEFAULT 100,
	resources_updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (x, y)
)`

const schemaBuildings = `
CREATE TABLE buildings (
	id UUID PRIMARY KEY,
	village_id UUID NOT NULL REFERENCES villages(id),
	type TEXT NOT NULL,
	slot INT NOT NULL,
	level INT NOT NULL DEFAULT 0,
	is_upgrading BOOLEAN NOT NULL DEFAULT false,
	upgrade_ends_at TIMESTAMPTZ,
	UNIQUE (village_id, slot)
)`

const schemaTroopDefinitions = `
CREATE TABLE troop_definitions (
	type TEXT PRIMARY KEY,
	tribe TEXT NOT NULL,
	attack INT NOT NULL,
	defense_vs_infantry INT NOT NULL,
	defense_vs_cavalry INT NOT NULL,
	speed_fields_per_hour DOUBLE PRECISION NOT NULL,
	carry_capacity BIGINT NOT NULL,
	crop_upkeep INT NOT NULL,
	train_seconds INT NOT NULL,
	cost_wood BIGINT NOT NULL,
	cost_clay BIGINT NOT NULL,
	cost_iron BIGINT NOT NULL,
	cost_crop BIGINT NOT NULL,
	required_building TEXT NOT NULL,
	required_building_level INT NOT NULL,
	loyalty_reduction INT NOT NULL DEFAULT 0,
	is_cavalry BOOLEAN NOT NULL DEFAULT false,
	is_chief BOOLEAN NOT NULL DEFAULT false,
	is_settler BOOLEAN NOT NULL DEFAULT false,
	is_scout BOOLEAN NOT NULL DEFAULT false,
	load_order SERIAL
)`

const schemaTroops = `
CREATE TABLE troops (
	village_id UUID NOT NULL REFERENCES villages(id),
	type TEXT NOT NULL REFERENCES troop_definitions(type),
	count BIGINT NOT NULL DEFAULT 0,
	in_village BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (village_id, type)
)`

const schemaTroopQueueEntries = `
CREATE TABLE troop_queue_entries (
	id UUID PRIMARY KEY,
	village_id UUID NOT NULL REFERENCES villages(id),
	type TEXT NOT NULL REFERENCES troop_definitions(type),
	count_remaining BIGINT NOT NULL,
	per_unit_seconds INT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	ends_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX idx_troop_queue_ends_at ON troop_queue_entries(ends_at)`

const schemaArmies = `
CREATE TABLE armies (
	id UUID PRIMARY KEY,
	owner_id UUID NOT NULL REFERENCES users(id),
	from_village_id UUID NOT NULL REFERENCES villages(id),
	to_x INT NOT NULL,
	to_y INT NOT NULL,
	to_village_id UUID REFERENCES villages(id),
	mission TEXT NOT NULL,
	troops JSONB NOT NULL,
	carried_wood BIGINT NOT NULL DEFAULT 0,
	carried_clay BIGINT NOT NULL DEFAULT 0,
	carried_iron BIGINT NOT NULL DEFAULT 0,
	carried_crop BIGINT NOT NULL DEFAULT 0,
	departed_at TIMESTAMPTZ NOT NULL,
	arrives_at TIMESTAMPTZ NOT NULL,
	returns_at TIMESTAMPTZ,
	is_returning BOOLEAN NOT NULL DEFAULT false,
	is_stationed BOOLEAN NOT NULL DEFAULT false
);
CREATE INDEX idx_armies_arrives_at ON armies(arrives_at) WHERE NOT is_stationed`

const schemaReports = `
CREATE TABLE battle_reports (
	id UUID PRIMARY KEY,
	attacker_id UUID NOT NULL,
	defender_id UUID NOT NULL,
	village_id UUID NOT NULL REFERENCES villages(id),
	mission TEXT NOT NULL,
	attacker_composition JSONB NOT NULL,
	defender_composition JSONB NOT NULL,
	attacker_losses JSONB NOT NULL,
	defender_losses JSONB NOT NULL,
	stolen_wood BIGINT NOT NULL DEFAULT 0,
	stolen_clay BIGINT NOT NULL DEFAULT 0,
	stolen_iron BIGINT NOT NULL DEFAULT 0,
	stolen_crop BIGINT NOT NULL DEFAULT 0,
	winner TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	read_by_attacker BOOLEAN NOT NULL DEFAULT false,
	read_by_defender BOOLEAN NOT NULL DEFAULT false
);
CREATE TABLE scout_reports (
	id UUID PRIMARY KEY,
	attacker_id UUID NOT NULL,
	defender_id UUID NOT NULL,
	village_id UUID NOT NULL REFERENCES villages(id),
	success BOOLEAN NOT NULL,
	attacker_losses JSONB NOT NULL,
	defender_losses JSONB NOT NULL,
	target_resources JSONB,
	target_garrison JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	read_by_attacker BOOLEAN NOT NULL DEFAULT false,
	read_by_defender BOOLEAN NOT NULL DEFAULT false
)`
