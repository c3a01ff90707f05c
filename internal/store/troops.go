package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/model"
)

// TroopStore is the durable home of garrisons and training queues.
type TroopStore struct {
	db *sql.DB
}

func NewTroopStore(db *sql.DB) *TroopStore {
	return &TroopStore{db: db}
}

// ListByVillage returns every garrison row for a village, including zero
// counts left over from units long since lost — callers filter as needed.
func (s *TroopStore) ListByVillage(ctx context.Context, villageID string) ([]model.Troop, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT village_id, type, count, in_village FROM troops WHERE village_id = $1`, villageID)
	if err != nil {
		return nil, kind.Internalf(err, "list troops for village %s", villageID)
	}
	defer rows.Close()

	var out []model.Troop
	for rows.Next() {
		var t model.Troop
		if err := rows.Scan(&t.VillageID, &t.Type, &t.Count, &t.InVillage); err != nil {
			return nil, kind.Internalf(err, "scan troop row")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListByVillageForUpdate is ListByVillage but locks every row, used before
// dispatching an army so the garrison can't change underfoot.
func (s *TroopStore) ListByVillageForUpdate(ctx context.Context, tx *sql.Tx, villageID string) ([]model.Troop, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT village_id, type, count, in_village FROM troops WHERE village_id = $1 ORDER BY type FOR UPDATE`, villageID)
	if err != nil {
		return nil, kind.Internalf(err, "list troops for update for village %s", villageID)
	}
	defer rows.Close()

	var out []model.Troop
	for rows.Next() {
		var t model.Troop
		if err := rows.Scan(&t.VillageID, &t.Type, &t.Count, &t.InVillage); err != nil {
			return nil, kind.Internalf(err, "scan troop row")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AddToGarrison upserts count and in_village by delta (positive on
// training completion or army return, negative on dispatch or losses).
func (s *TroopStore) AddToGarrison(ctx context.Context, tx *sql.Tx, villageID, troopType string, countDelta, inVillageDelta int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO troops (village_id, type, count, in_village)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (village_id, type) DO UPDATE SET
			count = troops.count + $3,
			in_village = troops.in_village + $4
	`, villageID, troopType, countDelta, inVillageDelta)
	if err != nil {
		return kind.Internalf(err, "update garrison %s/%s", villageID, troopType)
	}
	return nil
}

// DeductInVillage atomically subtracts n from a troop row's in_village
// count, the precondition for dispatching an army, succeeding only if
// enough units are actually home.
func (s *TroopStore) DeductInVillage(ctx context.Context, tx *sql.Tx, villageID, troopType string, n int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE troops SET in_village = in_village - $1
		WHERE village_id = $2 AND type = $3 AND in_village >= $1
	`, n, villageID, troopType)
	if err != nil {
		return kind.Internalf(err, "deduct in-village troops %s/%s", villageID, troopType)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return kind.Internalf(err, "deduct in-village rows affected")
	}
	if rows == 0 {
		return kind.BadRequestf("not enough %s in village to dispatch", troopType)
	}
	return nil
}

// RemoveLosses subtracts n from both count and in_village, applied to
// troops that died in their home village's defense (as opposed to troops
// that were away and die as part of an army).
func (s *TroopStore) RemoveLosses(ctx context.Context, tx *sql.Tx, villageID, troopType string, n int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE troops SET count = GREATEST(count - $1, 0), in_village = GREATEST(in_village - $1, 0)
		WHERE village_id = $2 AND type = $3
	`, n, villageID, troopType)
	if err != nil {
		return kind.Internalf(err, "remove losses %s/%s", villageID, troopType)
	}
	return nil
}

// RemoveAwayLosses subtracts n from count only, applied to troops that
// were away on a dispatched army and died in combat away from home —
// in_village was already decremented at dispatch time, so only the
// total owned count needs to shrink to match (§3, §8 invariant 5).
func (s *TroopStore) RemoveAwayLosses(ctx context.Context, tx *sql.Tx, villageID, troopType string, n int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE troops SET count = GREATEST(count - $1, 0)
		WHERE village_id = $2 AND type = $3
	`, n, villageID, troopType)
	if err != nil {
		return kind.Internalf(err, "remove away losses %s/%s", villageID, troopType)
	}
	return nil
}

// --- Training queue ---

const queueColumns = `id, village_id, type, count_remaining, per_unit_seconds, started_at, ends_at`

func scanQueueEntry(row interface{ Scan(...any) error }) (*model.TroopQueueEntry, error) {
	var e model.TroopQueueEntry
	err := row.Scan(&e.ID, &e.VillageID, &e.Type, &e.CountRemaining, &e.PerUnitSeconds, &e.StartedAt, &e.EndsAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListQueueByVillage returns a village's pending training batches ordered
// by completion time (FIFO).
func (s *TroopStore) ListQueueByVillage(ctx context.Context, villageID string) ([]*model.TroopQueueEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+queueColumns+` FROM troop_queue_entries WHERE village_id = $1 ORDER BY ends_at`, villageID)
	if err != nil {
		return nil, kind.Internalf(err, "list training queue for village %s", villageID)
	}
	defer rows.Close()

	var out []*model.TroopQueueEntry
	for rows.Next() {
		e, err := scanQueueEntry(rows)
		if err != nil {
			return nil, kind.Internalf(err, "scan queue entry row")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LastEndsAt returns the completion time of a village's latest queued
// batch for troopType, used to chain new orders after it (§4.4's
// sequential-per-type training rule). ok is false if no batch is queued.
func (s *TroopStore) LastEndsAt(ctx context.Context, tx *sql.Tx, villageID, troopType string) (endsAt sql.NullTime, ok bool, err error) {
	row := tx.QueryRowContext(ctx, `
		SELECT ends_at FROM troop_queue_entries
		WHERE village_id = $1 AND type = $2
		ORDER BY ends_at DESC LIMIT 1
	`, villageID, troopType)
	var t sql.NullTime
	scanErr := row.Scan(&t)
	if scanErr == sql.ErrNoRows {
		return sql.NullTime{}, false, nil
	}
	if scanErr != nil {
		return sql.NullTime{}, false, kind.Internalf(scanErr, "last queue entry for %s/%s", villageID, troopType)
	}
	return t, true, nil
}

// Enqueue inserts a new training batch.
func (s *TroopStore) Enqueue(ctx context.Context, tx *sql.Tx, e *model.TroopQueueEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO troop_queue_entries (id, village_id, type, count_remaining, per_unit_seconds, started_at, ends_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, e.ID, e.VillageID, e.Type, e.CountRemaining, e.PerUnitSeconds, e.StartedAt, e.EndsAt)
	if err != nil {
		return kind.Internalf(err, "enqueue training batch")
	}
	return nil
}

// ListDueForUpdate returns and locks every queue entry whose ends_at has
// elapsed, for the train-queue engine's drain scan (§4.4).
func (s *TroopStore) ListDueForUpdate(ctx context.Context, tx *sql.Tx) ([]*model.TroopQueueEntry, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+queueColumns+` FROM troop_queue_entries
		WHERE ends_at <= now()
		ORDER BY ends_at
		FOR UPDATE SKIP LOCKED
	`)
	if err != nil {
		return nil, kind.Internalf(err, "list due training batches")
	}
	defer rows.Close()

	var out []*model.TroopQueueEntry
	for rows.Next() {
		e, err := scanQueueEntry(rows)
		if err != nil {
			return nil, kind.Internalf(err, "scan due queue entry row")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AdvanceQueueEntry updates a partially-drained batch's remaining count,
// started_at and recomputed ends_at (§4.4's drain_due partial-completion
// branch).
func (s *TroopStore) AdvanceQueueEntry(ctx context.Context, tx *sql.Tx, id string, countRemaining int64, startedAt, endsAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE troop_queue_entries SET count_remaining = $1, started_at = $2, ends_at = $3 WHERE id = $4
	`, countRemaining, startedAt, endsAt, id)
	if err != nil {
		return kind.Internalf(err, "advance queue entry %s", id)
	}
	return nil
}

// DeleteQueueEntry removes a completed or cancelled batch.
func (s *TroopStore) DeleteQueueEntry(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM troop_queue_entries WHERE id = $1`, id)
	if err != nil {
		return kind.Internalf(err, "delete queue entry %s", id)
	}
	return nil
}

// GetQueueEntryForUpdate fetches and locks a single batch by id, the
// precondition for cancel_training.
func (s *TroopStore) GetQueueEntryForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.TroopQueueEntry, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM troop_queue_entries WHERE id = $1 FOR UPDATE`, id)
	e, err := scanQueueEntry(row)
	if err == sql.ErrNoRows {
		return nil, kind.NotFoundf("training batch %s not found", id)
	}
	if err != nil {
		return nil, kind.Internalf(err, "get queue entry %s for update", id)
	}
	return e, nil
}
