package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/model"
)

// BuildingStore is the durable home of a village's building slots.
type BuildingStore struct {
	db *sql.DB
}

func NewBuildingStore(db *sql.DB) *BuildingStore {
	return &BuildingStore{db: db}
}

const buildingColumns = `id, village_id, type, slot, level, is_upgrading, upgrade_ends_at`

func scanBuilding(row interface{ Scan(...any) error }) (*model.Building, error) {
	var b model.Building
	err := row.Scan(&b.ID, &b.VillageID, &b.Type, &b.Slot, &b.Level, &b.IsUpgrading, &b.UpgradeEndsAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByVillage returns every building slot for a village, ordered by slot.
func (s *BuildingStore) ListByVillage(ctx context.Context, villageID string) ([]*model.Building, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+buildingColumns+` FROM buildings WHERE village_id = $1 ORDER BY slot`, villageID)
	if err != nil {
		return nil, kind.Internalf(err, "list buildings for village %s", villageID)
	}
	defer rows.Close()

	var out []*model.Building
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, kind.Internalf(err, "scan building row")
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBySlot fetches the building occupying slot in a village, if any.
func (s *BuildingStore) GetBySlot(ctx context.Context, villageID string, slot int) (*model.Building, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+buildingColumns+` FROM buildings WHERE village_id = $1 AND slot = $2`, villageID, slot)
	b, err := scanBuilding(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, kind.Internalf(err, "get building at slot %d", slot)
	}
	return b, nil
}

// GetBySlotForUpdate fetches and locks the building occupying slot, inside tx.
func (s *BuildingStore) GetBySlotForUpdate(ctx context.Context, tx *sql.Tx, villageID string, slot int) (*model.Building, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+buildingColumns+` FROM buildings WHERE village_id = $1 AND slot = $2 FOR UPDATE`, villageID, slot)
	b, err := scanBuilding(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, kind.Internalf(err, "get building at slot %d for update", slot)
	}
	return b, nil
}

// GetByIDForUpdate fetches and locks a building by id, inside tx.
func (s *BuildingStore) GetByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.Building, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+buildingColumns+` FROM buildings WHERE id = $1 FOR UPDATE`, id)
	b, err := scanBuilding(row)
	if err == sql.ErrNoRows {
		return nil, kind.NotFoundf("building %s not found", id)
	}
	if err != nil {
		return nil, kind.Internalf(err, "get building %s for update", id)
	}
	return b, nil
}

// ListDueUpgrades returns every building whose upgrade_ends_at has
// elapsed, across all villages — the build-queue engine's drain scan
// (§4.3). Locked FOR UPDATE SKIP LOCKED so concurrent tick workers never
// contend on the same row.
func (s *BuildingStore) ListDueUpgrades(ctx context.Context, tx *sql.Tx) ([]*model.Building, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+buildingColumns+` FROM buildings
		WHERE is_upgrading AND upgrade_ends_at <= now()
		ORDER BY upgrade_ends_at
		FOR UPDATE SKIP LOCKED
	`)
	if err != nil {
		return nil, kind.Internalf(err, "list due building upgrades")
	}
	defer rows.Close()

	var out []*model.Building
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, kind.Internalf(err, "scan due building row")
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Create inserts a new building row with the level and upgrade state b
// carries (settlement seeding, for example, inserts level-1 fields).
// Building a level 0 slot for the first time still goes through StartUpgrade.
func (s *BuildingStore) Create(ctx context.Context, tx *sql.Tx, b *model.Building) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO buildings (id, village_id, type, slot, level, is_upgrading, upgrade_ends_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, b.ID, b.VillageID, b.Type, b.Slot, b.Level, b.IsUpgrading, b.UpgradeEndsAt)
	if isUniqueViolation(err) {
		return kind.Conflictf("slot %d is already occupied", b.Slot)
	}
	if err != nil {
		return kind.Internalf(err, "create building")
	}
	return nil
}

// StartUpgrade marks a building as mid-upgrade with the given completion
// time. Fails if it is already upgrading, guarding against double-queued
// upgrades on the same slot (§4.3 invariant).
func (s *BuildingStore) StartUpgrade(ctx context.Context, tx *sql.Tx, id string, endsAt sql.NullTime) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE buildings SET is_upgrading = true, upgrade_ends_at = $1
		WHERE id = $2 AND NOT is_upgrading
	`, endsAt, id)
	if err != nil {
		return kind.Internalf(err, "start upgrade for building %s", id)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return kind.Internalf(err, "start upgrade rows affected")
	}
	if rows == 0 {
		return kind.Conflictf("building %s already has an upgrade in progress", id)
	}
	return nil
}

// CompleteUpgrade increments level and clears the in-progress flag. The
// WHERE clause is idempotent: a tick worker racing to complete the same
// row twice (after a crash/restart) affects zero rows the second time.
func (s *BuildingStore) CompleteUpgrade(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE buildings SET level = level + 1, is_upgrading = false, upgrade_ends_at = NULL
		WHERE id = $1 AND is_upgrading
	`, id)
	if err != nil {
		return kind.Internalf(err, "complete upgrade for building %s", id)
	}
	return nil
}

// CancelUpgrade clears the in-progress flag without changing level
// (demolish-while-queued and similar corrective paths).
func (s *BuildingStore) CancelUpgrade(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE buildings SET is_upgrading = false, upgrade_ends_at = NULL WHERE id = $1
	`, id)
	if err != nil {
		return kind.Internalf(err, "cancel upgrade for building %s", id)
	}
	return nil
}

// SetLevel writes level directly — used by demolish, which drops level
// without going through the upgrade timer.
func (s *BuildingStore) SetLevel(ctx context.Context, tx *sql.Tx, id string, level int) error {
	_, err := tx.ExecContext(ctx, `UPDATE buildings SET level = $1 WHERE id = $2`, level, id)
	if err != nil {
		return kind.Internalf(err, "set level for building %s", id)
	}
	return nil
}
