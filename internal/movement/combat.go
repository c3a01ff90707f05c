package movement

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/frontier-realms/world-server/internal/combat"
	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/model"
	"github.com/frontier-realms/world-server/internal/store"
)

// processHostile resolves Raid, Attack and Conquer arrivals (§4.5.3,
// §4.5.4): merge village garrison with stationed reinforcements into one
// composite defense, run the battle formula, distribute losses back
// proportionally, apply mission-specific aftermath, and file a report.
func (e *Engine) processHostile(ctx context.Context, tx *sql.Tx, a *model.Army) error {
	target, err := e.resolveTarget(ctx, tx, a)
	if err != nil {
		return err
	}
	if target == nil {
		return e.turnOrDeleteArmy(ctx, tx, a, a.Troops, model.Resources{})
	}

	if a.Mission == model.MissionConquer && (target.OwnerID == a.OwnerID || target.IsCapital) {
		return e.turnOrDeleteArmy(ctx, tx, a, a.Troops, model.Resources{})
	}

	if err := store.LockVillagesForUpdate(ctx, tx, []string{target.ID, a.FromVillageID}); err != nil {
		return err
	}
	garrison, err := e.troops.ListByVillageForUpdate(ctx, tx, target.ID)
	if err != nil {
		return err
	}
	stationed, err := e.armies.ListStationedAt(ctx, tx, target.ID)
	if err != nil {
		return err
	}

	villageShare := make(model.TroopCounts, len(garrison))
	composite := make(model.TroopCounts, len(garrison))
	for _, t := range garrison {
		if t.InVillage <= 0 {
			continue
		}
		villageShare[t.Type] = t.InVillage
		composite[t.Type] += t.InVillage
	}
	for _, army := range stationed {
		for troopType, n := range army.Troops {
			composite[troopType] += n
		}
	}

	result := combat.Resolve(e.catalog, a.Troops, composite, a.Mission)

	if err := e.distributeDefenderLosses(ctx, tx, target.ID, villageShare, stationed, composite, result.DefenderLosses); err != nil {
		return err
	}
	if err := e.removeHomeLosses(ctx, tx, a.FromVillageID, result.AttackerLosses); err != nil {
		return err
	}

	survivors := combat.Survivors(a.Troops, result.AttackerLosses)

	var stolen model.Resources
	if result.Winner == combat.WinnerAttacker && a.Mission != model.MissionConquer {
		refreshedTarget, err := e.resources.Refresh(ctx, tx, target)
		if err != nil {
			return err
		}
		stolen = e.computeLoot(survivors, refreshedTarget.Resources, a.Mission)
		if stolen.Total() > 0 {
			if err := e.villages.Deduct(ctx, tx, target.ID, stolen); err != nil {
				return err
			}
		}
	}

	if a.Mission == model.MissionConquer && result.Winner == combat.WinnerAttacker {
		if err := e.applyConquest(ctx, tx, target, survivors, a.OwnerID); err != nil {
			return err
		}
	}

	report := &model.BattleReport{
		ID:                  uuid.NewString(),
		AttackerID:          a.OwnerID,
		DefenderID:          target.OwnerID,
		VillageID:           target.ID,
		Mission:             a.Mission,
		AttackerComposition: a.Troops.Clone(),
		DefenderComposition: composite,
		AttackerLosses:      result.AttackerLosses,
		DefenderLosses:      result.DefenderLosses,
		Stolen:              stolen,
		Winner:              string(result.Winner),
		CreatedAt:           time.Now(),
	}
	if err := e.reports.CreateBattleReport(ctx, tx, report); err != nil {
		return err
	}

	return e.turnOrDeleteArmy(ctx, tx, a, survivors, stolen)
}

// resolveTarget looks up the hostile mission's destination village, by
// its recorded id if set, else by the coordinate it was dispatched to
// (§4.5.3 step 1, handling villages founded after dispatch).
func (e *Engine) resolveTarget(ctx context.Context, tx *sql.Tx, a *model.Army) (*model.Village, error) {
	if a.ToVillageID != nil {
		v, err := e.villages.GetByID(ctx, *a.ToVillageID)
		if k, ok := kind.As(err); ok && k.Kind == kind.NotFound {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return e.villages.GetByCoordinate(ctx, a.ToX, a.ToY)
}

// distributeDefenderLosses implements §4.5.3 step 5: the village's share
// of each type's aggregate loss is ceil(loss·V/D) capped at V; the
// remainder spreads across stationed armies proportionally, each also
// ceil-rounded and capped, removing any army reduced to zero.
func (e *Engine) distributeDefenderLosses(ctx context.Context, tx *sql.Tx, villageID string, villageShare model.TroopCounts, stationed []*model.Army, composite, losses model.TroopCounts) error {
	for troopType, lossTotal := range losses {
		if lossTotal <= 0 {
			continue
		}
		d := composite[troopType]
		if d <= 0 {
			continue
		}
		v := villageShare[troopType]
		villageLoss := int64(math.Ceil(float64(lossTotal) * float64(v) / float64(d)))
		if villageLoss > v {
			villageLoss = v
		}
		if villageLoss > 0 {
			if err := e.troops.RemoveLosses(ctx, tx, villageID, troopType, villageLoss); err != nil {
				return err
			}
		}

		remaining := lossTotal - villageLoss
		if remaining <= 0 {
			continue
		}
		for _, army := range stationed {
			stationedCount := army.Troops[troopType]
			if stationedCount <= 0 {
				continue
			}
			armyLoss := int64(math.Ceil(float64(remaining) * float64(stationedCount) / float64(d)))
			if armyLoss > stationedCount {
				armyLoss = stationedCount
			}
			if armyLoss <= 0 {
				continue
			}
			newCount := stationedCount - armyLoss
			if newCount <= 0 {
				delete(army.Troops, troopType)
			} else {
				army.Troops[troopType] = newCount
			}
		}
	}
	for _, army := range stationed {
		if army.Troops.Total() <= 0 {
			if err := e.armies.Delete(ctx, tx, army.ID); err != nil {
				return err
			}
		} else {
			if err := e.armies.UpdateTroops(ctx, tx, army.ID, army.Troops); err != nil {
				return err
			}
		}
	}
	return nil
}

// removeHomeLosses decrements an army's home village troop rows by the
// units that died while away on the mission. Dispatch only ever touches
// in_village (the units are still "owned", just away, §4.5.1), so combat
// losses among them must shrink count directly rather than going through
// RemoveLosses, which also touches in_village for troops that died
// defending at home (§3, §8 invariant 5).
func (e *Engine) removeHomeLosses(ctx context.Context, tx *sql.Tx, villageID string, losses model.TroopCounts) error {
	for troopType, n := range losses {
		if n <= 0 {
			continue
		}
		if err := e.troops.RemoveAwayLosses(ctx, tx, villageID, troopType, n); err != nil {
			return err
		}
	}
	return nil
}

// computeLoot implements §4.5.3 step 6: raid takes up to 50% of the
// village's resources, attack/conquer up to 100%, scaled down to the
// surviving attackers' combined carry capacity when it would overflow.
func (e *Engine) computeLoot(survivors model.TroopCounts, villageResources model.Resources, mission model.Mission) model.Resources {
	var capacity int64
	for troopType, n := range survivors {
		if n <= 0 {
			continue
		}
		def := e.catalog.TroopDefinition(troopType)
		if def == nil {
			continue
		}
		capacity += def.CarryCapacity * n
	}
	if capacity <= 0 {
		return model.Resources{}
	}

	fraction := 1.0
	if mission == model.MissionRaid {
		fraction = 0.5
	}
	available := villageResources.Scale(fraction)
	totalAvailable := available.Total()
	if totalAvailable <= capacity {
		return available
	}
	return available.Scale(float64(capacity) / float64(totalAvailable))
}

// applyConquest implements §4.5.4: surviving chiefs reduce loyalty by
// their aggregate loyalty_reduction; at zero, ownership transfers.
func (e *Engine) applyConquest(ctx context.Context, tx *sql.Tx, target *model.Village, survivors model.TroopCounts, newOwnerID string) error {
	var reduction int
	for troopType, n := range survivors {
		if n <= 0 {
			continue
		}
		def := e.catalog.TroopDefinition(troopType)
		if def == nil || !def.IsChief {
			continue
		}
		reduction += def.LoyaltyReduction * int(n)
	}
	if reduction <= 0 {
		return nil
	}
	newLoyalty := target.Loyalty - reduction
	if newLoyalty < 0 {
		newLoyalty = 0
	}
	if err := e.villages.WriteLoyalty(ctx, tx, target.ID, newLoyalty); err != nil {
		return err
	}
	if newLoyalty == 0 {
		return e.villages.TransferOwnership(ctx, tx, target.ID, newOwnerID)
	}
	return nil
}

// processSupport implements §4.5.5's arrival half: station the army at
// its target, or send it home if the target vanished before arrival.
func (e *Engine) processSupport(ctx context.Context, tx *sql.Tx, a *model.Army) error {
	target, err := e.resolveTarget(ctx, tx, a)
	if err != nil {
		return err
	}
	if target == nil {
		return e.turnOrDeleteArmy(ctx, tx, a, a.Troops, model.Resources{})
	}
	return e.armies.Station(ctx, tx, a.ID)
}

// processScout implements §4.5.6: scouting power ratio decides success
// and losses; survivors always return home, carrying garrison/resource
// intelligence only on success.
func (e *Engine) processScout(ctx context.Context, tx *sql.Tx, a *model.Army) error {
	target, err := e.resolveTarget(ctx, tx, a)
	if err != nil {
		return err
	}
	if target == nil {
		return e.turnOrDeleteArmy(ctx, tx, a, a.Troops, model.Resources{})
	}

	if err := store.LockVillagesForUpdate(ctx, tx, []string{target.ID, a.FromVillageID}); err != nil {
		return err
	}
	garrison, err := e.troops.ListByVillageForUpdate(ctx, tx, target.ID)
	if err != nil {
		return err
	}
	defenderComposite := make(model.TroopCounts, len(garrison))
	for _, t := range garrison {
		if t.InVillage > 0 {
			defenderComposite[t.Type] = t.InVillage
		}
	}

	result := combat.ResolveScout(e.catalog, a.Troops, defenderComposite)

	for troopType, loss := range result.DefenderLosses {
		if loss > 0 {
			if err := e.troops.RemoveLosses(ctx, tx, target.ID, troopType, loss); err != nil {
				return err
			}
		}
	}
	if err := e.removeHomeLosses(ctx, tx, a.FromVillageID, result.AttackerLosses); err != nil {
		return err
	}

	survivors := combat.Survivors(a.Troops, result.AttackerLosses)

	report := &model.ScoutReport{
		ID:             uuid.NewString(),
		AttackerID:     a.OwnerID,
		DefenderID:     target.OwnerID,
		VillageID:      target.ID,
		Success:        result.Success,
		AttackerLosses: result.AttackerLosses,
		DefenderLosses: result.DefenderLosses,
		CreatedAt:      time.Now(),
	}
	if result.Success {
		refreshedTarget, err := e.resources.Refresh(ctx, tx, target)
		if err != nil {
			return err
		}
		res := refreshedTarget.Resources
		report.TargetResources = &res
		report.TargetGarrison = defenderComposite
	}
	if err := e.reports.CreateScoutReport(ctx, tx, report); err != nil {
		return err
	}

	return e.turnOrDeleteArmy(ctx, tx, a, survivors, model.Resources{})
}

// processSettle implements the wired Settle mission (§4.5, SPEC_FULL
// expansion): a surviving settler founds a new village at the army's
// destination if it remains unclaimed, otherwise the army returns home.
func (e *Engine) processSettle(ctx context.Context, tx *sql.Tx, a *model.Army) error {
	existing, err := e.villages.GetByCoordinate(ctx, a.ToX, a.ToY)
	if err != nil {
		return err
	}
	if existing != nil || a.Troops.Total() <= 0 {
		return e.turnOrDeleteArmy(ctx, tx, a, a.Troops, a.CarriedResources)
	}

	now := time.Now()
	newVillage := &model.Village{
		ID:        uuid.NewString(),
		OwnerID:   a.OwnerID,
		Name:      "New Settlement",
		X:         a.ToX,
		Y:         a.ToY,
		IsCapital: false,
		Resources: model.Resources{Wood: 750, Clay: 750, Iron: 750, Crop: 750},
		StorageCaps: model.StorageCaps{
			WarehouseCapacity: 800,
			GranaryCapacity:   800,
		},
		Population:         2,
		CulturePoints:      0,
		Loyalty:            100,
		ResourcesUpdatedAt: now,
		CreatedAt:          now,
	}
	if err := e.villages.Create(ctx, tx, newVillage); err != nil {
		return err
	}
	if err := e.seedNewVillageFields(ctx, tx, newVillage.ID); err != nil {
		return err
	}
	if err := e.seedStorageBuildings(ctx, tx, newVillage.ID); err != nil {
		return err
	}

	// Settler units are consumed; non-settler escorts (if any) return home.
	nonSettlers := make(model.TroopCounts, len(a.Troops))
	for troopType, n := range a.Troops {
		if def := e.catalog.TroopDefinition(troopType); def == nil || !def.IsSettler {
			nonSettlers[troopType] = n
		}
	}
	return e.turnOrDeleteArmy(ctx, tx, a, nonSettlers, model.Resources{})
}

// seedNewVillageFields gives a freshly settled village a level-1 field in
// every one of its eighteen field slots, rotating through the four field
// kinds, so it produces resources immediately rather than starting barren.
func (e *Engine) seedNewVillageFields(ctx context.Context, tx *sql.Tx, villageID string) error {
	i := 0
	for slot := model.FirstFieldSlot; slot <= model.LastFieldSlot; slot++ {
		fieldType := model.ResourceFields[i%len(model.ResourceFields)]
		i++
		b := &model.Building{
			VillageID: villageID,
			Type:      fieldType,
			Slot:      slot,
			Level:     1,
		}
		if err := e.buildings.Create(ctx, tx, b); err != nil {
			return err
		}
	}
	return nil
}

// seedStorageBuildings gives a freshly settled village its single
// Warehouse and Granary, at level 0, occupying the first two building
// slots. This edition fixes exactly one of each per village so
// recompute_storage's per-building sum always has something to sum:
// without these rows a later upgrade elsewhere would recompute the
// village's storage caps down to zero.
func (e *Engine) seedStorageBuildings(ctx context.Context, tx *sql.Tx, villageID string) error {
	warehouse := &model.Building{VillageID: villageID, Type: model.Warehouse, Slot: model.FirstBuildingSlot, Level: 0}
	if err := e.buildings.Create(ctx, tx, warehouse); err != nil {
		return err
	}
	granary := &model.Building{VillageID: villageID, Type: model.Granary, Slot: model.FirstBuildingSlot + 1, Level: 0}
	if err := e.buildings.Create(ctx, tx, granary); err != nil {
		return err
	}
	return nil
}
