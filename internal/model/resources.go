package model

// Resources is the four fungible counters every village accrues and
// spends. Field order here is also the canonical order catalog costs are
// expressed in.
type Resources struct {
	Wood int64 `json:"wood"`
	Clay int64 `json:"clay"`
	Iron int64 `json:"iron"`
	Crop int64 `json:"crop"`
}

// Add returns the component-wise sum.
func (r Resources) Add(o Resources) Resources {
	return Resources{r.Wood + o.Wood, r.Clay + o.Clay, r.Iron + o.Iron, r.Crop + o.Crop}
}

// Sub returns the component-wise difference.
func (r Resources) Sub(o Resources) Resources {
	return Resources{r.Wood - o.Wood, r.Clay - o.Clay, r.Iron - o.Iron, r.Crop - o.Crop}
}

// GreaterOrEqual reports whether every component of r is >= the matching
// component of o.
func (r Resources) GreaterOrEqual(o Resources) bool {
	return r.Wood >= o.Wood && r.Clay >= o.Clay && r.Iron >= o.Iron && r.Crop >= o.Crop
}

// Total sums all four counters; used for stolen-resource capacity checks.
func (r Resources) Total() int64 {
	return r.Wood + r.Clay + r.Iron + r.Crop
}

// Scale multiplies every component by f, truncating toward zero.
func (r Resources) Scale(f float64) Resources {
	return Resources{
		Wood: int64(float64(r.Wood) * f),
		Clay: int64(float64(r.Clay) * f),
		Iron: int64(float64(r.Iron) * f),
		Crop: int64(float64(r.Crop) * f),
	}
}

// StorageCaps holds the two capacity ceilings resources clamp to:
// Warehouse governs wood/clay/iron, Granary governs crop.
type StorageCaps struct {
	WarehouseCapacity int64 `json:"warehouse_capacity"`
	GranaryCapacity   int64 `json:"granary_capacity"`
}

// Clamp caps each resource counter to the relevant storage capacity.
func (c StorageCaps) Clamp(r Resources) Resources {
	clamped := r
	if clamped.Wood > c.WarehouseCapacity {
		clamped.Wood = c.WarehouseCapacity
	}
	if clamped.Clay > c.WarehouseCapacity {
		clamped.Clay = c.WarehouseCapacity
	}
	if clamped.Iron > c.WarehouseCapacity {
		clamped.Iron = c.WarehouseCapacity
	}
	if clamped.Crop > c.GranaryCapacity {
		clamped.Crop = c.GranaryCapacity
	}
	if clamped.Wood < 0 {
		clamped.Wood = 0
	}
	if clamped.Clay < 0 {
		clamped.Clay = 0
	}
	if clamped.Iron < 0 {
		clamped.Iron = 0
	}
	if clamped.Crop < 0 {
		clamped.Crop = 0
	}
	return clamped
}
