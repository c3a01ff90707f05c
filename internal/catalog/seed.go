package catalog

import "github.com/frontier-realms/world-server/internal/model"

// DefaultTroopDefinitions is the starter roster seeded into a freshly
// migrated, empty database: one infantry, one cavalry, a chief, a
// settler and a scout, enough to exercise every mission kind in §4.5
// without requiring an external data load before the server is playable.
func DefaultTroopDefinitions() []model.TroopDefinition {
	return []model.TroopDefinition{
		{
			Type: "legionnaire", Tribe: "roman",
			Attack: 40, DefenseVsInfantry: 35, DefenseVsCavalry: 50,
			SpeedFieldsPerHour: 6, CarryCapacity: 50, CropUpkeep: 1, TrainSeconds: 1600,
			Costs:                 model.Resources{Wood: 120, Clay: 100, Iron: 150, Crop: 30},
			RequiredBuilding:      model.Barracks, RequiredBuildingLevel: 1,
		},
		{
			Type: "equites_legati", Tribe: "roman",
			Attack: 0, DefenseVsInfantry: 20, DefenseVsCavalry: 10,
			SpeedFieldsPerHour: 16, CarryCapacity: 0, CropUpkeep: 2, TrainSeconds: 2400,
			Costs:                 model.Resources{Wood: 140, Clay: 160, Iron: 20, Crop: 40},
			RequiredBuilding:      model.Stable, RequiredBuildingLevel: 1,
			IsCavalry: true, IsScout: true,
		},
		{
			Type: "equites_imperatoris", Tribe: "roman",
			Attack: 120, DefenseVsInfantry: 65, DefenseVsCavalry: 50,
			SpeedFieldsPerHour: 14, CarryCapacity: 100, CropUpkeep: 3, TrainSeconds: 4600,
			Costs:                 model.Resources{Wood: 550, Clay: 440, Iron: 320, Crop: 100},
			RequiredBuilding:      model.Stable, RequiredBuildingLevel: 5,
			IsCavalry: true,
		},
		{
			Type: "senator", Tribe: "roman",
			Attack: 50, DefenseVsInfantry: 40, DefenseVsCavalry: 30,
			SpeedFieldsPerHour: 4, CarryCapacity: 0, CropUpkeep: 4, TrainSeconds: 71000,
			Costs:                 model.Resources{Wood: 30750, Clay: 27200, Iron: 45000, Crop: 37500},
			RequiredBuilding:      model.Palace, RequiredBuildingLevel: 1,
			LoyaltyReduction: 20, IsChief: true,
		},
		{
			Type: "settler", Tribe: "roman",
			Attack: 0, DefenseVsInfantry: 30, DefenseVsCavalry: 20,
			SpeedFieldsPerHour: 5, CarryCapacity: 3000, CropUpkeep: 1, TrainSeconds: 13000,
			Costs:                 model.Resources{Wood: 4600, Clay: 4200, Iron: 5800, Crop: 4400},
			RequiredBuilding:      model.Residence, RequiredBuildingLevel: 10,
			IsSettler: true,
		},
	}
}
