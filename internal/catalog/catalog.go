// Package catalog holds the immutable reference data the rest of the
// engines consume: building cost/time/production curves (pure formulas,
// computed rather than stored, since they never vary between worlds) and
// troop definitions (loaded once from the catalog table and never
// mutated at runtime).
package catalog

import (
	"math"

	"github.com/frontier-realms/world-server/internal/model"
)

// Cost is one level's construction price: four resources plus a build
// time in seconds.
type Cost struct {
	Resources    model.Resources
	TimeSeconds int64
}

// baseCost holds level-1 costs and base build time per building type.
// Values are the teacher corpus's convention of round, readable bases;
// every later level scales them by the 1.28 curve in BuildCost.
var baseCost = map[model.BuildingType]Cost{
	model.Woodcutter:  {model.Resources{Wood: 40, Clay: 100, Iron: 50, Crop: 60}, 26},
	model.ClayPit:     {model.Resources{Wood: 80, Clay: 40, Iron: 80, Crop: 50}, 29},
	model.IronMine:    {model.Resources{Wood: 100, Clay: 80, Iron: 30, Crop: 60}, 34},
	model.CropField:   {model.Resources{Wood: 70, Clay: 90, Iron: 70, Crop: 20}, 28},
	model.MainBuilding: {model.Resources{Wood: 70, Clay: 40, Iron: 60, Crop: 20}, 32},
	model.Warehouse:   {model.Resources{Wood: 130, Clay: 160, Iron: 90, Crop: 40}, 50},
	model.Granary:     {model.Resources{Wood: 80, Clay: 100, Iron: 70, Crop: 20}, 40},
	model.Barracks:    {model.Resources{Wood: 210, Clay: 140, Iron: 260, Crop: 120}, 100},
	model.Stable:      {model.Resources{Wood: 260, Clay: 140, Iron: 220, Crop: 100}, 140},
	model.Workshop:    {model.Resources{Wood: 460, Clay: 510, Iron: 600, Crop: 320}, 280},
	model.Academy:     {model.Resources{Wood: 220, Clay: 160, Iron: 90, Crop: 40}, 180},
	model.Smithy:      {model.Resources{Wood: 180, Clay: 250, Iron: 500, Crop: 160}, 200},
	model.Marketplace: {model.Resources{Wood: 80, Clay: 70, Iron: 120, Crop: 70}, 110},
	model.Embassy:     {model.Resources{Wood: 180, Clay: 130, Iron: 150, Crop: 80}, 90},
	model.Cranny:      {model.Resources{Wood: 40, Clay: 50, Iron: 30, Crop: 10}, 17},
	model.TownHall:    {model.Resources{Wood: 130, Clay: 120, Iron: 190, Crop: 80}, 130},
	model.Residence:   {model.Resources{Wood: 580, Clay: 460, Iron: 350, Crop: 180}, 200},
	model.Palace:      {model.Resources{Wood: 550, Clay: 800, Iron: 750, Crop: 300}, 300},
	model.Treasury:    {model.Resources{Wood: 2880, Clay: 2740, Iron: 2580, Crop: 900}, 300},
	model.TradeOffice: {model.Resources{Wood: 1600, Clay: 1800, Iron: 2100, Crop: 1200}, 260},
	model.GreatBarracks: {model.Resources{Wood: 630, Clay: 420, Iron: 780, Crop: 360}, 220},
	model.GreatStable: {model.Resources{Wood: 780, Clay: 420, Iron: 660, Crop: 300}, 260},
	model.CityWall:    {model.Resources{Wood: 70, Clay: 90, Iron: 170, Crop: 70}, 120},
	model.EarthWall:   {model.Resources{Wood: 120, Clay: 200, Iron: 0, Crop: 80}, 100},
	model.Palisade:    {model.Resources{Wood: 160, Clay: 100, Iron: 80, Crop: 60}, 110},
	model.StonemasonsLodge: {model.Resources{Wood: 155, Clay: 130, Iron: 125, Crop: 70}, 160},
	model.Brewery:     {model.Resources{Wood: 1250, Clay: 1110, Iron: 1660, Crop: 890}, 240},
	model.Wall:        {model.Resources{Wood: 100, Clay: 130, Iron: 200, Crop: 80}, 120},
}

// CostCurve is the per-level cost multiplier (§4.1).
const CostCurve = 1.28

// BuildCost returns cost(type, level): base scaled by 1.28^(level-1),
// truncated component-wise to integers.
func BuildCost(t model.BuildingType, level int) Cost {
	base, ok := baseCost[t]
	if !ok {
		return Cost{}
	}
	if level < 1 {
		level = 1
	}
	factor := math.Pow(CostCurve, float64(level-1))
	return Cost{
		Resources: model.Resources{
			Wood: int64(float64(base.Resources.Wood) * factor),
			Clay: int64(float64(base.Resources.Clay) * factor),
			Iron: int64(float64(base.Resources.Iron) * factor),
			Crop: int64(float64(base.Resources.Crop) * factor),
		},
		TimeSeconds: int64(float64(base.TimeSeconds) * factor),
	}
}

// baseProductionPerHour is the level-1 output of each resource field,
// per §4.1's production_per_hour formula's base term.
const baseProductionPerHour = 3.0

// ProductionPerHour returns production_per_hour(field, level):
// 3 · 1.63^(level-1) · 1.0034^((level-1)²), truncated. Zero at level 0.
func ProductionPerHour(level int) int64 {
	if level <= 0 {
		return 0
	}
	n := float64(level - 1)
	value := baseProductionPerHour * math.Pow(1.63, n) * math.Pow(1.0034, n*n)
	return int64(value)
}

// StorageBase and StorageCurve implement storage_capacity(Warehouse|
// Granary, level) = 400 · 1.2^level; level 0 is the 800 base.
const (
	StorageBase  = 400.0
	StorageCurve = 1.2
)

// StorageCapacity returns the capacity a single Warehouse or Granary
// building contributes at the given level. Level 0 is the fixed 800 base
// every village starts with; the 400·1.2^level curve takes over from
// level 1 onward.
func StorageCapacity(level int) int64 {
	if level <= 0 {
		return 800
	}
	return int64(StorageBase * math.Pow(StorageCurve, float64(level)))
}

// MaxLevel mirrors model.MaxLevel for callers that only import catalog.
const MaxLevel = model.MaxLevel
