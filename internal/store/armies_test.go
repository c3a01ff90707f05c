package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontier-realms/world-server/internal/model"
	"github.com/frontier-realms/world-server/internal/store"
)

// TestArmyStore_TurnToReturn_ClearsStationed guards the recall/return
// invariant from §8.4: an army flipped into its return leg must never be
// left with is_stationed still true, or it becomes invisible to
// ListDueForUpdate's "NOT is_stationed" scan and never comes home.
func TestArmyStore_TurnToReturn_ClearsStationed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE armies SET(.|\n)*is_returning = true, is_stationed = false(.|\n)*WHERE id = \\$8").
		WithArgs(sqlmock.AnyArg(), int64(0), int64(0), int64(0), int64(0), sqlmock.AnyArg(), nil, "army-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	armies := store.NewArmyStore(db)
	tx, err := db.Begin()
	require.NoError(t, err)

	survivors := model.TroopCounts{"legionnaire": 5}
	err = armies.TurnToReturn(context.Background(), tx, "army-1", survivors, model.Resources{}, time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}
