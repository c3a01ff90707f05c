package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/frontier-realms/world-server/internal/model"
)

func TestResources_AddAndSub(t *testing.T) {
	a := model.Resources{Wood: 10, Clay: 20, Iron: 30, Crop: 40}
	b := model.Resources{Wood: 1, Clay: 2, Iron: 3, Crop: 4}

	assert.Equal(t, model.Resources{Wood: 11, Clay: 22, Iron: 33, Crop: 44}, a.Add(b))
	assert.Equal(t, model.Resources{Wood: 9, Clay: 18, Iron: 27, Crop: 36}, a.Sub(b))
}

func TestResources_GreaterOrEqual(t *testing.T) {
	a := model.Resources{Wood: 10, Clay: 10, Iron: 10, Crop: 10}
	assert.True(t, a.GreaterOrEqual(model.Resources{Wood: 10, Clay: 5, Iron: 5, Crop: 5}))
	assert.False(t, a.GreaterOrEqual(model.Resources{Wood: 11}))
}

func TestResources_Total(t *testing.T) {
	a := model.Resources{Wood: 1, Clay: 2, Iron: 3, Crop: 4}
	assert.Equal(t, int64(10), a.Total())
}

func TestResources_Scale_TruncatesTowardZero(t *testing.T) {
	a := model.Resources{Wood: 10, Clay: 10, Iron: 10, Crop: 10}
	scaled := a.Scale(0.25)
	assert.Equal(t, model.Resources{Wood: 2, Clay: 2, Iron: 2, Crop: 2}, scaled)
}

func TestStorageCaps_ClampCeilsAboveCapacity(t *testing.T) {
	caps := model.StorageCaps{WarehouseCapacity: 800, GranaryCapacity: 800}
	over := model.Resources{Wood: 1000, Clay: 1000, Iron: 1000, Crop: 1000}

	clamped := caps.Clamp(over)

	assert.Equal(t, model.Resources{Wood: 800, Clay: 800, Iron: 800, Crop: 800}, clamped)
}

func TestStorageCaps_ClampFloorsBelowZero(t *testing.T) {
	caps := model.StorageCaps{WarehouseCapacity: 800, GranaryCapacity: 800}
	negative := model.Resources{Wood: -5, Clay: 10, Iron: 10, Crop: -1}

	clamped := caps.Clamp(negative)

	assert.Equal(t, int64(0), clamped.Wood)
	assert.Equal(t, int64(0), clamped.Crop)
	assert.Equal(t, int64(10), clamped.Clay)
}
