// Package movement implements the movement & combat engine: dispatch,
// travel-time computation, arrival processing by mission, stationed
// reinforcement merging, loyalty/ownership transfer, and return journeys
// (§4.5).
package movement

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/catalog"
	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/model"
	"github.com/frontier-realms/world-server/internal/resource"
	"github.com/frontier-realms/world-server/internal/store"
)

// Engine drives army dispatch, arrival and combat resolution.
type Engine struct {
	db        *sql.DB
	villages  *store.VillageStore
	buildings *store.BuildingStore
	troops    *store.TroopStore
	armies    *store.ArmyStore
	reports   *store.ReportStore
	resources *resource.Engine
	catalog   *catalog.Catalog
	logger    *zap.Logger
}

func NewEngine(db *sql.DB, villages *store.VillageStore, buildings *store.BuildingStore, troops *store.TroopStore, armies *store.ArmyStore, reports *store.ReportStore, resources *resource.Engine, cat *catalog.Catalog, logger *zap.Logger) *Engine {
	return &Engine{db: db, villages: villages, buildings: buildings, troops: troops, armies: armies, reports: reports, resources: resources, catalog: cat, logger: logger}
}

const minTravelDuration = 60 * time.Second

// travelDuration implements §4.5.1's d/v formula: Euclidean distance over
// the slowest dispatched unit's speed, floored at 60 seconds.
func travelDuration(fromX, fromY, toX, toY int, speed float64) time.Duration {
	dx := float64(toX - fromX)
	dy := float64(toY - fromY)
	d := math.Sqrt(dx*dx + dy*dy)
	if speed <= 0 {
		speed = 1
	}
	hours := d / speed
	seconds := hours * 3600
	dur := time.Duration(seconds * float64(time.Second))
	if dur < minTravelDuration {
		return minTravelDuration
	}
	return dur
}

// SendArmy dispatches troops from fromVillage toward (toX, toY) under
// mission, validating ownership, garrison sufficiency and mission-
// specific constraints (§4.5.1).
func (e *Engine) SendArmy(ctx context.Context, ownerID, fromVillageID string, toX, toY int, mission model.Mission, counts model.TroopCounts) (*model.Army, error) {
	total := counts.Total()
	if total <= 0 {
		return nil, kind.ValidationErrorf("at least one troop must be dispatched")
	}

	var result model.Army
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		from, err := e.villages.GetByIDForUpdate(ctx, tx, fromVillageID)
		if err != nil {
			return err
		}
		if from.OwnerID != ownerID {
			return kind.Forbiddenf("village %s is not owned by this principal", fromVillageID)
		}

		target, err := e.villages.GetByCoordinate(ctx, toX, toY)
		if err != nil {
			return err
		}

		switch mission {
		case model.MissionConquer:
			if !anyChief(e.catalog, counts) {
				return kind.ValidationErrorf("conquer requires at least one chief unit")
			}
			if target != nil && (target.OwnerID == ownerID || target.IsCapital) {
				return kind.BadRequestf("conquer cannot target an own or capital village")
			}
		case model.MissionSupport:
			if target == nil {
				return kind.BadRequestf("support requires an existing target village")
			}
		case model.MissionRaid, model.MissionAttack, model.MissionScout:
			if target != nil && target.OwnerID == ownerID {
				return kind.BadRequestf("hostile missions may not target a village the sender owns")
			}
		case model.MissionSettle:
			if !anySettler(e.catalog, counts) {
				return kind.ValidationErrorf("settle requires at least one settler unit")
			}
			if target != nil {
				return kind.BadRequestf("settle requires an unclaimed coordinate")
			}
		}

		garrison, err := e.troops.ListByVillageForUpdate(ctx, tx, fromVillageID)
		if err != nil {
			return err
		}
		inVillage := make(map[string]int64, len(garrison))
		for _, t := range garrison {
			inVillage[t.Type] = t.InVillage
		}
		for troopType, n := range counts {
			if n <= 0 {
				continue
			}
			if inVillage[troopType] < n {
				return kind.BadRequestf("not enough %s in village to dispatch", troopType)
			}
		}
		for troopType, n := range counts {
			if n <= 0 {
				continue
			}
			if err := e.troops.DeductInVillage(ctx, tx, fromVillageID, troopType, n); err != nil {
				return err
			}
		}

		speed := e.catalog.SlowestSpeed(counts)
		dur := travelDuration(from.X, from.Y, toX, toY, speed)
		now := time.Now()
		arrivesAt := now.Add(dur)

		army := &model.Army{
			ID:            uuid.NewString(),
			OwnerID:       ownerID,
			FromVillageID: fromVillageID,
			ToX:           toX,
			ToY:           toY,
			Mission:       mission,
			Troops:        counts.Clone(),
			DepartedAt:    now,
			ArrivesAt:     arrivesAt,
			IsStationed:   false,
			IsReturning:   false,
		}
		if target != nil {
			army.ToVillageID = &target.ID
		}
		if mission != model.MissionSettle {
			returnsAt := arrivesAt.Add(dur)
			army.ReturnsAt = &returnsAt
		}

		if err := e.armies.Create(ctx, tx, army); err != nil {
			return err
		}
		result = *army
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Bootstrap founds a brand-new capital village for ownerID at (x, y),
// the one path to village creation that doesn't run through a Settle
// mission arrival: a freshly registered principal has no army yet to
// send. Seeded identically to a Settle mission's new village (§4.5
// expansion) so both paths keep exactly one Warehouse and one Granary.
func (e *Engine) Bootstrap(ctx context.Context, ownerID, name string, x, y int) (*model.Village, error) {
	var result model.Village
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		existing, err := e.villages.GetByCoordinate(ctx, x, y)
		if err != nil {
			return err
		}
		if existing != nil {
			return kind.Conflictf("a village already occupies (%d, %d)", x, y)
		}

		now := time.Now()
		v := &model.Village{
			ID:        uuid.NewString(),
			OwnerID:   ownerID,
			Name:      name,
			X:         x,
			Y:         y,
			IsCapital: true,
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
		if err := e.villages.Create(ctx, tx, v); err != nil {
			return err
		}
		if err := e.seedNewVillageFields(ctx, tx, v.ID); err != nil {
			return err
		}
		if err := e.seedStorageBuildings(ctx, tx, v.ID); err != nil {
			return err
		}
		result = *v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func anyChief(cat *catalog.Catalog, counts model.TroopCounts) bool {
	for t, n := range counts {
		if n <= 0 {
			continue
		}
		if def := cat.TroopDefinition(t); def != nil && def.IsChief {
			return true
		}
	}
	return false
}

func anySettler(cat *catalog.Catalog, counts model.TroopCounts) bool {
	for t, n := range counts {
		if n <= 0 {
			continue
		}
		if def := cat.TroopDefinition(t); def != nil && def.IsSettler {
			return true
		}
	}
	return false
}

// Recall flips a stationed support army back into its return leg, travel
// time recomputed from its current position to home at its own surviving
// units' speed (§4.5.5).
func (e *Engine) Recall(ctx context.Context, armyID, ownerID string) error {
	return store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		a, err := e.armies.GetByIDForUpdate(ctx, tx, armyID)
		if err != nil {
			return err
		}
		if a.OwnerID != ownerID {
			return kind.Forbiddenf("army %s is not owned by this principal", armyID)
		}
		if !a.IsStationed {
			return kind.BadRequestf("army %s is not stationed", armyID)
		}
		from, err := e.villages.GetByID(ctx, a.FromVillageID)
		if err != nil {
			return err
		}
		speed := e.catalog.SlowestSpeed(a.Troops)
		dur := travelDuration(a.ToX, a.ToY, from.X, from.Y, speed)
		arrivesAt := time.Now().Add(dur)
		return e.armies.TurnToReturn(ctx, tx, armyID, a.Troops, model.Resources{}, arrivesAt, nil)
	})
}

// DrainDueArrivals processes every army whose arrives_at has elapsed —
// the scheduler's five-second movement tick (§4.5.2, §4.7).
func (e *Engine) DrainDueArrivals(ctx context.Context) (int, error) {
	processed := 0
	for {
		more, err := e.drainOneArrival(ctx)
		if err != nil {
			return processed, err
		}
		if !more {
			return processed, nil
		}
		processed++
	}
}

func (e *Engine) drainOneArrival(ctx context.Context) (bool, error) {
	found := false
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		due, err := e.armies.ListDueForUpdate(ctx, tx)
		if err != nil {
			return err
		}
		if len(due) == 0 {
			return nil
		}
		a := due[0]
		found = true
		return e.processArrival(ctx, tx, a)
	})
	if err != nil {
		e.logger.Error("movement drain failed", zap.Error(err))
		return false, err
	}
	return found, nil
}

func (e *Engine) processArrival(ctx context.Context, tx *sql.Tx, a *model.Army) error {
	if a.IsReturning {
		return e.processReturn(ctx, tx, a)
	}
	switch a.Mission {
	case model.MissionRaid, model.MissionAttack, model.MissionConquer:
		return e.processHostile(ctx, tx, a)
	case model.MissionSupport:
		return e.processSupport(ctx, tx, a)
	case model.MissionScout:
		return e.processScout(ctx, tx, a)
	case model.MissionSettle:
		return e.processSettle(ctx, tx, a)
	default:
		return kind.Internalf(nil, "unknown mission %q for army %s", a.Mission, a.ID)
	}
}

// processReturn re-increments in_village for surviving troops at home and
// credits carried loot, then deletes the army row (§4.5.2).
func (e *Engine) processReturn(ctx context.Context, tx *sql.Tx, a *model.Army) error {
	if err := store.LockVillageForUpdate(ctx, tx, a.FromVillageID); err != nil {
		return err
	}
	for troopType, n := range a.Troops {
		if n <= 0 {
			continue
		}
		if err := e.troops.AddToGarrison(ctx, tx, a.FromVillageID, troopType, 0, n); err != nil {
			return err
		}
	}
	if a.CarriedResources.Total() > 0 {
		if err := e.resources.Credit(ctx, tx, a.FromVillageID, a.CarriedResources); err != nil {
			return err
		}
	}
	return e.armies.Delete(ctx, tx, a.ID)
}

// turnOrDeleteArmy converts an army of any mission to its return leg if
// it has surviving troops, otherwise deletes it. The return duration is
// recomputed from the slowest surviving unit.
func (e *Engine) turnOrDeleteArmy(ctx context.Context, tx *sql.Tx, a *model.Army, survivors model.TroopCounts, carried model.Resources) error {
	if survivors.Total() <= 0 {
		return e.armies.Delete(ctx, tx, a.ID)
	}
	speed := e.catalog.SlowestSpeed(survivors)
	from, err := e.villages.GetByID(ctx, a.FromVillageID)
	if err != nil {
		return err
	}
	dur := travelDuration(a.ToX, a.ToY, from.X, from.Y, speed)
	arrivesAt := time.Now().Add(dur)
	return e.armies.TurnToReturn(ctx, tx, a.ID, survivors, carried, arrivesAt, nil)
}
