package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/model"
)

// ArmyStore is the durable home of in-flight, returning and stationed
// armies.
type ArmyStore struct {
	db *sql.DB
}

func NewArmyStore(db *sql.DB) *ArmyStore {
	return &ArmyStore{db: db}
}

const armyColumns = `id, owner_id, from_village_id, to_x, to_y, to_village_id, mission,
	troops, carried_wood, carried_clay, carried_iron, carried_crop,
	departed_at, arrives_at, returns_at, is_returning, is_stationed`

func scanArmy(row interface{ Scan(...any) error }) (*model.Army, error) {
	var a model.Army
	var troops troopCountsColumn
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.FromVillageID, &a.ToX, &a.ToY, &a.ToVillageID, &a.Mission,
		&troops, &a.CarriedResources.Wood, &a.CarriedResources.Clay, &a.CarriedResources.Iron, &a.CarriedResources.Crop,
		&a.DepartedAt, &a.ArrivesAt, &a.ReturnsAt, &a.IsReturning, &a.IsStationed,
	)
	if err != nil {
		return nil, err
	}
	a.Troops = model.TroopCounts(troops)
	return &a, nil
}

// GetByID fetches an army without a row lock.
func (s *ArmyStore) GetByID(ctx context.Context, id string) (*model.Army, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+armyColumns+` FROM armies WHERE id = $1`, id)
	a, err := scanArmy(row)
	if err == sql.ErrNoRows {
		return nil, kind.NotFoundf("army %s not found", id)
	}
	if err != nil {
		return nil, kind.Internalf(err, "get army %s", id)
	}
	return a, nil
}

// GetByIDForUpdate fetches and locks an army, inside tx.
func (s *ArmyStore) GetByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.Army, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+armyColumns+` FROM armies WHERE id = $1 FOR UPDATE`, id)
	a, err := scanArmy(row)
	if err == sql.ErrNoRows {
		return nil, kind.NotFoundf("army %s not found", id)
	}
	if err != nil {
		return nil, kind.Internalf(err, "get army %s for update", id)
	}
	return a, nil
}

// ListByOwner returns every army belonging to ownerID, in-flight or
// stationed.
func (s *ArmyStore) ListByOwner(ctx context.Context, ownerID string) ([]*model.Army, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+armyColumns+` FROM armies WHERE owner_id = $1 ORDER BY arrives_at`, ownerID)
	if err != nil {
		return nil, kind.Internalf(err, "list armies for owner %s", ownerID)
	}
	defer rows.Close()
	return scanArmies(rows)
}

// ListStationedAt returns armies currently stationed (supporting) in a
// village — the defender's reinforcement pool during combat resolution.
func (s *ArmyStore) ListStationedAt(ctx context.Context, tx *sql.Tx, villageID string) ([]*model.Army, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+armyColumns+` FROM armies WHERE to_village_id = $1 AND is_stationed ORDER BY id FOR UPDATE`, villageID)
	if err != nil {
		return nil, kind.Internalf(err, "list stationed armies at %s", villageID)
	}
	defer rows.Close()
	return scanArmies(rows)
}

// ListStationedAtVillage is ListStationedAt without a row lock, for the
// read-only "armies stationed here" query endpoint.
func (s *ArmyStore) ListStationedAtVillage(ctx context.Context, villageID string) ([]*model.Army, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+armyColumns+` FROM armies WHERE to_village_id = $1 AND is_stationed ORDER BY id`, villageID)
	if err != nil {
		return nil, kind.Internalf(err, "list stationed armies at %s", villageID)
	}
	defer rows.Close()
	return scanArmies(rows)
}

// ListDueForUpdate returns and locks every non-stationed army whose
// arrives_at has elapsed — the movement engine's arrival scan (§4.5). The
// partial index on arrives_at makes this scan cheap even with many
// stationed armies parked permanently.
func (s *ArmyStore) ListDueForUpdate(ctx context.Context, tx *sql.Tx) ([]*model.Army, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+armyColumns+` FROM armies
		WHERE NOT is_stationed AND arrives_at <= now()
		ORDER BY arrives_at
		FOR UPDATE SKIP LOCKED
	`)
	if err != nil {
		return nil, kind.Internalf(err, "list due armies")
	}
	defer rows.Close()
	return scanArmies(rows)
}

func scanArmies(rows *sql.Rows) ([]*model.Army, error) {
	var out []*model.Army
	for rows.Next() {
		a, err := scanArmy(rows)
		if err != nil {
			return nil, kind.Internalf(err, "scan army row")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create inserts a newly-dispatched army.
func (s *ArmyStore) Create(ctx context.Context, tx *sql.Tx, a *model.Army) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO armies (id, owner_id, from_village_id, to_x, to_y, to_village_id, mission,
			troops, carried_wood, carried_clay, carried_iron, carried_crop,
			departed_at, arrives_at, returns_at, is_returning, is_stationed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, a.ID, a.OwnerID, a.FromVillageID, a.ToX, a.ToY, a.ToVillageID, a.Mission,
		troopCountsColumn(a.Troops), a.CarriedResources.Wood, a.CarriedResources.Clay, a.CarriedResources.Iron, a.CarriedResources.Crop,
		a.DepartedAt, a.ArrivesAt, a.ReturnsAt, a.IsReturning, a.IsStationed)
	if err != nil {
		return kind.Internalf(err, "create army")
	}
	return nil
}

// TurnToReturn flips a resolved outbound army into its return leg: the
// same row is reused, now carrying survivors and loot home, with
// is_stationed cleared so a recalled army is picked up by the arrival
// scan instead of being stranded (§4.5, §4.5.5).
func (s *ArmyStore) TurnToReturn(ctx context.Context, tx *sql.Tx, id string, survivors model.TroopCounts, carried model.Resources, arrivesAt time.Time, returnsAt *time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE armies SET
			troops = $1, carried_wood = $2, carried_clay = $3, carried_iron = $4, carried_crop = $5,
			is_returning = true, is_stationed = false, arrives_at = $6, returns_at = $7
		WHERE id = $8
	`, troopCountsColumn(survivors), carried.Wood, carried.Clay, carried.Iron, carried.Crop, arrivesAt, returnsAt, id)
	if err != nil {
		return kind.Internalf(err, "turn army %s to return", id)
	}
	return nil
}

// Station marks an army as parked in a village in support, no longer
// subject to arrival processing.
func (s *ArmyStore) Station(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `UPDATE armies SET is_stationed = true, is_returning = false WHERE id = $1`, id)
	if err != nil {
		return kind.Internalf(err, "station army %s", id)
	}
	return nil
}

// Delete removes an army row once it has fully returned home or was
// wiped out entirely.
func (s *ArmyStore) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM armies WHERE id = $1`, id)
	if err != nil {
		return kind.Internalf(err, "delete army %s", id)
	}
	return nil
}

// UpdateTroops overwrites an army's troop composition in place, used
// after applying combat losses to a stationed/support army that remains
// parked rather than returning.
func (s *ArmyStore) UpdateTroops(ctx context.Context, tx *sql.Tx, id string, troops model.TroopCounts) error {
	_, err := tx.ExecContext(ctx, `UPDATE armies SET troops = $1 WHERE id = $2`, troopCountsColumn(troops), id)
	if err != nil {
		return kind.Internalf(err, "update troops for army %s", id)
	}
	return nil
}
