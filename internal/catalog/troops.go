package catalog

import "github.com/frontier-realms/world-server/internal/model"

// Catalog is the immutable, in-memory snapshot of troop_definitions,
// loaded once at boot. It is never mutated afterward, so reads need no
// lock — only writers before the server starts serving do.
type Catalog struct {
	defs  []model.TroopDefinition
	byType map[string]*model.TroopDefinition
}

// New builds a Catalog from troop definitions in their load order (i.e.
// insertion order, the load_order column of troop_definitions). That order becomes
// the canonical total order combat sums iterate in (§4.6, §9).
func New(defs []model.TroopDefinition) *Catalog {
	c := &Catalog{
		defs:   make([]model.TroopDefinition, len(defs)),
		byType: make(map[string]*model.TroopDefinition, len(defs)),
	}
	for i, d := range defs {
		d.Order = i
		c.defs[i] = d
		c.byType[d.Type] = &c.defs[i]
	}
	return c
}

// TroopDefinition returns the catalog entry for a troop type, or nil if
// unknown.
func (c *Catalog) TroopDefinition(troopType string) *model.TroopDefinition {
	return c.byType[troopType]
}

// OrderedTypes returns every known troop type in canonical order.
func (c *Catalog) OrderedTypes() []string {
	types := make([]string, len(c.defs))
	for i, d := range c.defs {
		types[i] = d.Type
	}
	return types
}

// SortByCanonicalOrder returns troop types from counts sorted by catalog
// order, the deterministic iteration order §4.6 and §9 require.
func (c *Catalog) SortByCanonicalOrder(counts model.TroopCounts) []string {
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	order := make(map[string]int, len(c.defs))
	for i, d := range c.defs {
		order[d.Type] = i
	}
	// Insertion sort: the troop-type universe is small (tens of
	// entries), so this stays both simple and fast enough.
	for i := 1; i < len(types); i++ {
		j := i
		for j > 0 && order[types[j-1]] > order[types[j]] {
			types[j-1], types[j] = types[j], types[j-1]
			j--
		}
	}
	return types
}

// SlowestSpeed returns the minimum speed_fields_per_hour among troop
// types present with a positive count in counts (§4.5.1: "slowest unit
// governs"). Returns 0 if counts is empty or references unknown types.
func (c *Catalog) SlowestSpeed(counts model.TroopCounts) float64 {
	var slowest float64
	first := true
	for troopType, n := range counts {
		if n <= 0 {
			continue
		}
		def := c.TroopDefinition(troopType)
		if def == nil {
			continue
		}
		if first || def.SpeedFieldsPerHour < slowest {
			slowest = def.SpeedFieldsPerHour
			first = false
		}
	}
	return slowest
}
