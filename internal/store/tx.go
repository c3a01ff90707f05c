package store

import (
	"context"
	"database/sql"
	"sort"
)

// WithTx runs fn inside a transaction, committing on success and rolling
// back on any error or panic — the "no partial state is ever committed"
// guarantee from §5.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// LockOrder sorts village ids lexically so multi-village events (attacker
// + defender + stationed supporters) always take row locks in the same
// deterministic order, preventing deadlocks (§5). UUIDs have no numeric
// order, so byte order stands in for "lowest id first".
func LockOrder(ids []string) []string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return sorted
}

// LockVillageForUpdate takes the row lock a mutating operation on a
// single village needs, inside tx.
func LockVillageForUpdate(ctx context.Context, tx *sql.Tx, villageID string) error {
	_, err := tx.ExecContext(ctx, `SELECT id FROM villages WHERE id = $1 FOR UPDATE`, villageID)
	return err
}

// LockVillagesForUpdate locks every distinct village id in ids, in
// deterministic order, inside tx.
func LockVillagesForUpdate(ctx context.Context, tx *sql.Tx, ids []string) error {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	for _, id := range LockOrder(unique) {
		if err := LockVillageForUpdate(ctx, tx, id); err != nil {
			return err
		}
	}
	return nil
}
