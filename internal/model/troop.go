package model

import "time"

// TroopDefinition is immutable catalog data for one troop type, loaded
// once at boot from the troop_definitions table.
type TroopDefinition struct {
	Type                string    `json:"type"`
	Tribe               string    `json:"tribe"`
	Attack              int       `json:"attack"`
	DefenseVsInfantry   int       `json:"defense_vs_infantry"`
	DefenseVsCavalry    int       `json:"defense_vs_cavalry"`
	SpeedFieldsPerHour  float64   `json:"speed_fields_per_hour"`
	CarryCapacity       int64     `json:"carry_capacity"`
	CropUpkeep          int       `json:"crop_upkeep"`
	TrainSeconds        int       `json:"train_seconds"`
	Costs               Resources `json:"costs"`
	RequiredBuilding     BuildingType `json:"required_building"`
	RequiredBuildingLevel int     `json:"required_building_level"`
	LoyaltyReduction     int      `json:"loyalty_reduction"`
	IsCavalry            bool     `json:"is_cavalry"`
	IsChief              bool     `json:"is_chief"`
	IsSettler            bool     `json:"is_settler"`
	IsScout              bool     `json:"is_scout"`
	// Order is the troop type's position in catalog load order — the
	// canonical total order combat sums iterate in, so results are
	// reproducible across implementations (§4.6/§9).
	Order int `json:"-"`
}

// Troop is the per-(village,type) garrison row. count - in_village is the
// number currently away on a mission.
type Troop struct {
	VillageID string `json:"village_id"`
	Type      string `json:"type"`
	Count     int64  `json:"count"`
	InVillage int64  `json:"in_village"`
}

// Away reports how many units of this type are currently dispatched.
func (t Troop) Away() int64 { return t.Count - t.InVillage }

// TroopQueueEntry is one batch of units being trained for a village,
// ordered by EndsAt (FIFO per village via StartedAt chaining).
type TroopQueueEntry struct {
	ID             string    `json:"id"`
	VillageID      string    `json:"village_id"`
	Type           string    `json:"type"`
	CountRemaining int64     `json:"count_remaining"`
	PerUnitSeconds int       `json:"per_unit_seconds"`
	StartedAt      time.Time `json:"started_at"`
	EndsAt         time.Time `json:"ends_at"`
}
