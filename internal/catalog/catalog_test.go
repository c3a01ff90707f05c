package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/frontier-realms/world-server/internal/catalog"
	"github.com/frontier-realms/world-server/internal/model"
)

func TestBuildCost_ScalesByCurve(t *testing.T) {
	level1 := catalog.BuildCost(model.Woodcutter, 1)
	level2 := catalog.BuildCost(model.Woodcutter, 2)

	assert.Equal(t, int64(40), level1.Resources.Wood)
	assert.Greater(t, level2.Resources.Wood, level1.Resources.Wood)
}

func TestBuildCost_UnknownTypeReturnsZero(t *testing.T) {
	cost := catalog.BuildCost(model.BuildingType("nonexistent"), 1)
	assert.Equal(t, model.Resources{}, cost.Resources)
	assert.Equal(t, int64(0), cost.TimeSeconds)
}

func TestProductionPerHour_ZeroAtLevelZero(t *testing.T) {
	assert.Equal(t, int64(0), catalog.ProductionPerHour(0))
}

func TestProductionPerHour_IncreasesWithLevel(t *testing.T) {
	assert.Greater(t, catalog.ProductionPerHour(5), catalog.ProductionPerHour(1))
}

func TestStorageCapacity_LevelZeroIsFixedBase(t *testing.T) {
	assert.Equal(t, int64(800), catalog.StorageCapacity(0))
	assert.Equal(t, int64(800), catalog.StorageCapacity(-1))
}

func TestStorageCapacity_CurveTakesOverFromLevelOne(t *testing.T) {
	level1 := catalog.StorageCapacity(1)
	level2 := catalog.StorageCapacity(2)

	assert.Greater(t, level2, level1)
}

func TestCatalog_SortByCanonicalOrder(t *testing.T) {
	cat := catalog.New([]model.TroopDefinition{
		{Type: "legionnaire"},
		{Type: "praetorian"},
		{Type: "imperian"},
	})

	counts := model.TroopCounts{"imperian": 1, "legionnaire": 1, "praetorian": 1}
	ordered := cat.SortByCanonicalOrder(counts)

	assert.Equal(t, []string{"legionnaire", "praetorian", "imperian"}, ordered)
}

func TestCatalog_SlowestSpeed(t *testing.T) {
	cat := catalog.New([]model.TroopDefinition{
		{Type: "legionnaire", SpeedFieldsPerHour: 6},
		{Type: "equites_caesaris", SpeedFieldsPerHour: 14},
	})

	speed := cat.SlowestSpeed(model.TroopCounts{"legionnaire": 10, "equites_caesaris": 5})
	assert.Equal(t, 6.0, speed)
}

func TestCatalog_SlowestSpeed_IgnoresZeroCounts(t *testing.T) {
	cat := catalog.New([]model.TroopDefinition{
		{Type: "legionnaire", SpeedFieldsPerHour: 6},
		{Type: "equites_caesaris", SpeedFieldsPerHour: 14},
	})

	speed := cat.SlowestSpeed(model.TroopCounts{"legionnaire": 0, "equites_caesaris": 5})
	assert.Equal(t, 14.0, speed)
}
