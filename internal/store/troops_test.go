package store_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontier-realms/world-server/internal/store"
)

// TestTroopStore_RemoveAwayLosses_TouchesCountOnly guards §3/§8 invariant
// 5: troops that die while away on a dispatched army already had
// in_village decremented at dispatch time, so only count should shrink
// to match — unlike RemoveLosses, which also decrements in_village for
// troops that die defending at home.
func TestTroopStore_RemoveAwayLosses_TouchesCountOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE troops SET count = GREATEST\\(count - \\$1, 0\\)\\s+WHERE village_id = \\$2 AND type = \\$3").
		WithArgs(int64(8), "village-1", "legionnaire").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	troops := store.NewTroopStore(db)
	tx, err := db.Begin()
	require.NoError(t, err)

	err = troops.RemoveAwayLosses(context.Background(), tx, "village-1", "legionnaire", 8)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}
