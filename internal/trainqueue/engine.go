// Package trainqueue implements the train-queue engine: enqueuing troop
// training batches, cancelling them, and draining completed units into
// garrisons (§4.4).
package trainqueue

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/catalog"
	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/model"
	"github.com/frontier-realms/world-server/internal/resource"
	"github.com/frontier-realms/world-server/internal/store"
)

// Engine drives troop training timers.
type Engine struct {
	db        *sql.DB
	villages  *store.VillageStore
	buildings *store.BuildingStore
	troops    *store.TroopStore
	resources *resource.Engine
	catalog   *catalog.Catalog
	logger    *zap.Logger
}

func NewEngine(db *sql.DB, villages *store.VillageStore, buildings *store.BuildingStore, troops *store.TroopStore, resources *resource.Engine, cat *catalog.Catalog, logger *zap.Logger) *Engine {
	return &Engine{db: db, villages: villages, buildings: buildings, troops: troops, resources: resources, catalog: cat, logger: logger}
}

// Train enqueues count units of troopType for villageID, refreshing and
// deducting resources for the full batch up front, and chaining the new
// batch's start time after the latest already-queued batch of the same
// type finishes (§4.4: batches of the same type train sequentially, but
// different types train in parallel queues).
func (e *Engine) Train(ctx context.Context, villageID, troopType string, count int64, ownerID string) (*model.TroopQueueEntry, error) {
	if count <= 0 {
		return nil, kind.ValidationErrorf("count must be positive")
	}
	def := e.catalog.TroopDefinition(troopType)
	if def == nil {
		return nil, kind.ValidationErrorf("unknown troop type %q", troopType)
	}

	var result model.TroopQueueEntry
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		v, err := e.villages.GetByIDForUpdate(ctx, tx, villageID)
		if err != nil {
			return err
		}
		if v.OwnerID != ownerID {
			return kind.Forbiddenf("village %s is not owned by this principal", villageID)
		}

		b, err := requiredBuildingLevel(ctx, e.buildings, villageID, def)
		if err != nil {
			return err
		}
		if b < def.RequiredBuildingLevel {
			return kind.BadRequestf("%s requires %s level %d", troopType, def.RequiredBuilding, def.RequiredBuildingLevel)
		}

		totalCost := model.Resources{
			Wood: def.Costs.Wood * count,
			Clay: def.Costs.Clay * count,
			Iron: def.Costs.Iron * count,
			Crop: def.Costs.Crop * count,
		}
		if _, err := e.resources.Deduct(ctx, tx, v, totalCost); err != nil {
			return err
		}

		startedAt := time.Now()
		if last, ok, err := e.troops.LastEndsAt(ctx, tx, villageID, troopType); err != nil {
			return err
		} else if ok && last.Valid && last.Time.After(startedAt) {
			startedAt = last.Time
		}
		endsAt := startedAt.Add(time.Duration(def.TrainSeconds) * time.Second * time.Duration(count))

		entry := &model.TroopQueueEntry{
			VillageID:      villageID,
			Type:           troopType,
			CountRemaining: count,
			PerUnitSeconds: def.TrainSeconds,
			StartedAt:      startedAt,
			EndsAt:         endsAt,
		}
		if err := e.troops.Enqueue(ctx, tx, entry); err != nil {
			return err
		}
		result = *entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// requiredBuildingLevel looks up a village's level for def's required
// building by type, not slot, since a village may place its
// Barracks/Stable/Residence in any slot.
func requiredBuildingLevel(ctx context.Context, buildings *store.BuildingStore, villageID string, def *model.TroopDefinition) (int, error) {
	all, err := buildings.ListByVillage(ctx, villageID)
	if err != nil {
		return 0, err
	}
	for _, b := range all {
		if b.Type == def.RequiredBuilding {
			return b.Level, nil
		}
	}
	return 0, nil
}

// Cancel removes a queued batch, refunding resources proportional to the
// units that have not yet completed (§4.4).
func (e *Engine) Cancel(ctx context.Context, entryID, ownerID string) error {
	return store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		entry, err := e.troops.GetQueueEntryForUpdate(ctx, tx, entryID)
		if err != nil {
			return err
		}
		v, err := e.villages.GetByIDForUpdate(ctx, tx, entry.VillageID)
		if err != nil {
			return err
		}
		if v.OwnerID != ownerID {
			return kind.Forbiddenf("training batch %s is not owned by this principal", entryID)
		}

		def := e.catalog.TroopDefinition(entry.Type)
		if def != nil && entry.CountRemaining > 0 {
			refund := model.Resources{
				Wood: def.Costs.Wood * entry.CountRemaining,
				Clay: def.Costs.Clay * entry.CountRemaining,
				Iron: def.Costs.Iron * entry.CountRemaining,
				Crop: def.Costs.Crop * entry.CountRemaining,
			}
			if err := e.resources.Credit(ctx, tx, entry.VillageID, refund); err != nil {
				return err
			}
		}
		return e.troops.DeleteQueueEntry(ctx, tx, entryID)
	})
}

// DrainDue credits every troop batch whose timer has elapsed into its
// village's garrison — the scheduler's ten-second training tick (§4.4,
// §6).
func (e *Engine) DrainDue(ctx context.Context) (int, error) {
	completed := 0
	for {
		more, err := e.drainOne(ctx)
		if err != nil {
			return completed, err
		}
		if !more {
			return completed, nil
		}
		completed++
	}
}

// drainOne applies §4.4's drain_due formula to a single due entry:
// unitsDue = min(count_remaining, floor((now - started_at) / per_unit)).
// Since entries are only selected once ends_at <= now, unitsDue always
// equals count_remaining in practice, but the partial-completion branch
// is kept faithful to the spec's general algorithm.
func (e *Engine) drainOne(ctx context.Context) (bool, error) {
	found := false
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		due, err := e.troops.ListDueForUpdate(ctx, tx)
		if err != nil {
			return err
		}
		if len(due) == 0 {
			return nil
		}
		entry := due[0]
		found = true

		elapsed := time.Since(entry.StartedAt)
		unitsDue := int64(elapsed / (time.Duration(entry.PerUnitSeconds) * time.Second))
		if unitsDue > entry.CountRemaining {
			unitsDue = entry.CountRemaining
		}
		if unitsDue <= 0 {
			return nil
		}

		if err := e.troops.AddToGarrison(ctx, tx, entry.VillageID, entry.Type, unitsDue, unitsDue); err != nil {
			return err
		}
		if unitsDue >= entry.CountRemaining {
			return e.troops.DeleteQueueEntry(ctx, tx, entry.ID)
		}
		newStartedAt := entry.StartedAt.Add(time.Duration(unitsDue*int64(entry.PerUnitSeconds)) * time.Second)
		newRemaining := entry.CountRemaining - unitsDue
		newEndsAt := newStartedAt.Add(time.Duration(newRemaining*int64(entry.PerUnitSeconds)) * time.Second)
		return e.troops.AdvanceQueueEntry(ctx, tx, entry.ID, newRemaining, newStartedAt, newEndsAt)
	})
	if err != nil {
		e.logger.Error("train queue drain failed", zap.Error(err))
		return false, err
	}
	return found, nil
}
