package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/model"
)

// VillageStore is the durable home of village rows.
type VillageStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewVillageStore(db *sql.DB, logger *zap.Logger) *VillageStore {
	return &VillageStore{db: db, logger: logger}
}

const villageColumns = `id, owner_id, name, x, y, is_capital, wood, clay, iron, crop,
	warehouse_capacity, granary_capacity, population, culture_points, loyalty,
	resources_updated_at, created_at`

func scanVillage(row interface{ Scan(...any) error }) (*model.Village, error) {
	var v model.Village
	err := row.Scan(
		&v.ID, &v.OwnerID, &v.Name, &v.X, &v.Y, &v.IsCapital,
		&v.Resources.Wood, &v.Resources.Clay, &v.Resources.Iron, &v.Resources.Crop,
		&v.StorageCaps.WarehouseCapacity, &v.StorageCaps.GranaryCapacity,
		&v.Population, &v.CulturePoints, &v.Loyalty,
		&v.ResourcesUpdatedAt, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByID fetches a village by id, without a row lock.
func (s *VillageStore) GetByID(ctx context.Context, id string) (*model.Village, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+villageColumns+` FROM villages WHERE id = $1`, id)
	v, err := scanVillage(row)
	if err == sql.ErrNoRows {
		return nil, kind.NotFoundf("village %s not found", id)
	}
	if err != nil {
		return nil, kind.Internalf(err, "get village %s", id)
	}
	return v, nil
}

// GetByIDForUpdate fetches a village and takes its row lock within tx —
// the precondition for any mutating operation (§5).
func (s *VillageStore) GetByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.Village, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+villageColumns+` FROM villages WHERE id = $1 FOR UPDATE`, id)
	v, err := scanVillage(row)
	if err == sql.ErrNoRows {
		return nil, kind.NotFoundf("village %s not found", id)
	}
	if err != nil {
		return nil, kind.Internalf(err, "get village %s for update", id)
	}
	return v, nil
}

// GetByCoordinate looks up the village occupying (x, y), if any.
func (s *VillageStore) GetByCoordinate(ctx context.Context, x, y int) (*model.Village, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+villageColumns+` FROM villages WHERE x = $1 AND y = $2`, x, y)
	v, err := scanVillage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, kind.Internalf(err, "get village at (%d,%d)", x, y)
	}
	return v, nil
}

// ListByOwner returns every village owned by ownerID.
func (s *VillageStore) ListByOwner(ctx context.Context, ownerID string) ([]*model.Village, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+villageColumns+` FROM villages WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, kind.Internalf(err, "list villages for owner %s", ownerID)
	}
	defer rows.Close()
	return scanVillages(rows)
}

// ListAll returns every village, for the resource sweep that iterates
// the whole world.
func (s *VillageStore) ListAll(ctx context.Context) ([]*model.Village, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+villageColumns+` FROM villages ORDER BY id`)
	if err != nil {
		return nil, kind.Internalf(err, "list all villages")
	}
	defer rows.Close()
	return scanVillages(rows)
}

// ListInRange returns every village whose coordinate falls within a
// square of the given radius centered on (x, y) — the backing query for
// GET /map (§6).
func (s *VillageStore) ListInRange(ctx context.Context, x, y, radius int) ([]*model.Village, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+villageColumns+` FROM villages
		WHERE x BETWEEN $1 AND $2 AND y BETWEEN $3 AND $4
		ORDER BY x, y
	`, x-radius, x+radius, y-radius, y+radius)
	if err != nil {
		return nil, kind.Internalf(err, "list villages in range of (%d,%d)", x, y)
	}
	defer rows.Close()
	return scanVillages(rows)
}

func scanVillages(rows *sql.Rows) ([]*model.Village, error) {
	var out []*model.Village
	for rows.Next() {
		v, err := scanVillage(rows)
		if err != nil {
			return nil, kind.Internalf(err, "scan village row")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Create inserts a new village with starter resources and storage caps.
// Coordinate collisions surface as Conflict via the unique (x, y) index.
func (s *VillageStore) Create(ctx context.Context, tx *sql.Tx, v *model.Village) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO villages (id, owner_id, name, x, y, is_capital, wood, clay, iron, crop,
			warehouse_capacity, granary_capacity, population, culture_points, loyalty,
			resources_updated_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, v.ID, v.OwnerID, v.Name, v.X, v.Y, v.IsCapital,
		v.Resources.Wood, v.Resources.Clay, v.Resources.Iron, v.Resources.Crop,
		v.StorageCaps.WarehouseCapacity, v.StorageCaps.GranaryCapacity,
		v.Population, v.CulturePoints, v.Loyalty, v.ResourcesUpdatedAt, v.CreatedAt)
	if isUniqueViolation(err) {
		return kind.Conflictf("a village already occupies (%d, %d)", v.X, v.Y)
	}
	if err != nil {
		return kind.Internalf(err, "create village")
	}
	return nil
}

// WriteResources persists the refreshed resource snapshot, the write half
// of the resource engine's refresh contract (§4.2). Must run inside the
// same transaction that holds the village's row lock.
func (s *VillageStore) WriteResources(ctx context.Context, tx *sql.Tx, villageID string, r model.Resources, updatedAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE villages SET wood = $1, clay = $2, iron = $3, crop = $4, resources_updated_at = $5
		WHERE id = $6
	`, r.Wood, r.Clay, r.Iron, r.Crop, updatedAt, villageID)
	if err != nil {
		return kind.Internalf(err, "write resources for village %s", villageID)
	}
	return nil
}

// Deduct atomically subtracts cost from the village's resources,
// succeeding only if every counter is sufficient (§4.2). Must run inside
// a transaction holding the village row lock so the WHERE clause sees a
// consistent snapshot.
func (s *VillageStore) Deduct(ctx context.Context, tx *sql.Tx, villageID string, cost model.Resources) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE villages SET wood = wood - $1, clay = clay - $2, iron = iron - $3, crop = crop - $4
		WHERE id = $5 AND wood >= $1 AND clay >= $2 AND iron >= $3 AND crop >= $4
	`, cost.Wood, cost.Clay, cost.Iron, cost.Crop, villageID)
	if err != nil {
		return kind.Internalf(err, "deduct resources for village %s", villageID)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return kind.Internalf(err, "deduct resources rows affected")
	}
	if rows == 0 {
		return kind.BadRequestf("insufficient resources in village %s", villageID)
	}
	return nil
}

// Credit adds delta to the village's resources, clamping each counter to
// its storage cap (§4.2's LEAST(...) clamp).
func (s *VillageStore) Credit(ctx context.Context, tx *sql.Tx, villageID string, delta model.Resources) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE villages SET
			wood = LEAST(wood + $1, warehouse_capacity),
			clay = LEAST(clay + $2, warehouse_capacity),
			iron = LEAST(iron + $3, warehouse_capacity),
			crop = LEAST(crop + $4, granary_capacity)
		WHERE id = $5
	`, delta.Wood, delta.Clay, delta.Iron, delta.Crop, villageID)
	if err != nil {
		return kind.Internalf(err, "credit resources for village %s", villageID)
	}
	return nil
}

// WriteStorageCaps persists newly recomputed storage capacities
// (build-queue engine's recompute_storage, §4.3).
func (s *VillageStore) WriteStorageCaps(ctx context.Context, tx *sql.Tx, villageID string, caps model.StorageCaps) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE villages SET warehouse_capacity = $1, granary_capacity = $2 WHERE id = $3
	`, caps.WarehouseCapacity, caps.GranaryCapacity, villageID)
	if err != nil {
		return kind.Internalf(err, "write storage caps for village %s", villageID)
	}
	return nil
}

// WriteLoyalty persists a new loyalty value (conquest combat, §4.5.4).
func (s *VillageStore) WriteLoyalty(ctx context.Context, tx *sql.Tx, villageID string, loyalty int) error {
	_, err := tx.ExecContext(ctx, `UPDATE villages SET loyalty = $1 WHERE id = $2`, loyalty, villageID)
	if err != nil {
		return kind.Internalf(err, "write loyalty for village %s", villageID)
	}
	return nil
}

// TransferOwnership flips a village's owner on conquest completion,
// forcing is_capital false and loyalty to 25 (§4.5.4, invariant in §3).
func (s *VillageStore) TransferOwnership(ctx context.Context, tx *sql.Tx, villageID, newOwnerID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE villages SET owner_id = $1, is_capital = false, loyalty = 25 WHERE id = $2
	`, newOwnerID, villageID)
	if err != nil {
		return kind.Internalf(err, "transfer ownership of village %s", villageID)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if pe, ok := asPQError(err); ok {
		return pe.Code == "23505"
	}
	return false
}
