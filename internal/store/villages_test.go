package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/store"
)

func TestVillageStore_GetByID_Found(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "name", "x", "y", "is_capital", "wood", "clay", "iron", "crop",
		"warehouse_capacity", "granary_capacity", "population", "culture_points", "loyalty",
		"resources_updated_at", "created_at",
	}).AddRow("village-1", "owner-1", "Capital", 0, 0, true, 750, 750, 750, 750,
		800, 800, 2, 0, 100, now, now)

	mock.ExpectQuery("SELECT (.+) FROM villages WHERE id = \\$1").
		WithArgs("village-1").
		WillReturnRows(rows)

	villages := store.NewVillageStore(db, nil)
	v, err := villages.GetByID(context.Background(), "village-1")
	require.NoError(t, err)
	assert.Equal(t, "village-1", v.ID)
	assert.Equal(t, "owner-1", v.OwnerID)
	assert.True(t, v.IsCapital)
	assert.Equal(t, int64(800), v.StorageCaps.WarehouseCapacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVillageStore_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM villages WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(nil))

	villages := store.NewVillageStore(db, nil)
	_, err = villages.GetByID(context.Background(), "missing")
	require.Error(t, err)
	kindErr, ok := kind.As(err)
	require.True(t, ok)
	assert.Equal(t, kind.NotFound, kindErr.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}
