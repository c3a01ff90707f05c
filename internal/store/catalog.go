package store

import (
	"context"
	"database/sql"

	"github.com/frontier-realms/world-server/internal/catalog"
	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/model"
)

// LoadCatalog reads every troop_definitions row, in load_order, and
// builds the in-memory catalog engines consult for the rest of the
// process's life (§6: catalog bootstrap at boot).
func LoadCatalog(ctx context.Context, db *sql.DB) (*catalog.Catalog, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT type, tribe, attack, defense_vs_infantry, defense_vs_cavalry,
			speed_fields_per_hour, carry_capacity, crop_upkeep, train_seconds,
			cost_wood, cost_clay, cost_iron, cost_crop,
			required_building, required_building_level, loyalty_reduction,
			is_cavalry, is_chief, is_settler, is_scout
		FROM troop_definitions
		ORDER BY load_order
	`)
	if err != nil {
		return nil, kind.Internalf(err, "load troop definitions")
	}
	defer rows.Close()

	var defs []model.TroopDefinition
	for rows.Next() {
		var d model.TroopDefinition
		if err := rows.Scan(
			&d.Type, &d.Tribe, &d.Attack, &d.DefenseVsInfantry, &d.DefenseVsCavalry,
			&d.SpeedFieldsPerHour, &d.CarryCapacity, &d.CropUpkeep, &d.TrainSeconds,
			&d.Costs.Wood, &d.Costs.Clay, &d.Costs.Iron, &d.Costs.Crop,
			&d.RequiredBuilding, &d.RequiredBuildingLevel, &d.LoyaltyReduction,
			&d.IsCavalry, &d.IsChief, &d.IsSettler, &d.IsScout,
		); err != nil {
			return nil, kind.Internalf(err, "scan troop definition row")
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, kind.Internalf(err, "iterate troop definitions")
	}
	return catalog.New(defs), nil
}

// SeedCatalog inserts the default troop roster if troop_definitions is
// empty, so a freshly migrated database boots with a playable world
// instead of requiring an out-of-band data load.
func SeedCatalog(ctx context.Context, db *sql.DB, defs []model.TroopDefinition) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM troop_definitions`).Scan(&count); err != nil {
		return kind.Internalf(err, "count troop definitions")
	}
	if count > 0 {
		return nil
	}
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		for _, d := range defs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO troop_definitions (type, tribe, attack, defense_vs_infantry, defense_vs_cavalry,
					speed_fields_per_hour, carry_capacity, crop_upkeep, train_seconds,
					cost_wood, cost_clay, cost_iron, cost_crop,
					required_building, required_building_level, loyalty_reduction,
					is_cavalry, is_chief, is_settler, is_scout)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
			`, d.Type, d.Tribe, d.Attack, d.DefenseVsInfantry, d.DefenseVsCavalry,
				d.SpeedFieldsPerHour, d.CarryCapacity, d.CropUpkeep, d.TrainSeconds,
				d.Costs.Wood, d.Costs.Clay, d.Costs.Iron, d.Costs.Crop,
				d.RequiredBuilding, d.RequiredBuildingLevel, d.LoyaltyReduction,
				d.IsCavalry, d.IsChief, d.IsSettler, d.IsScout)
			if err != nil {
				return kind.Internalf(err, "seed troop definition %s", d.Type)
			}
		}
		return nil
	})
}
