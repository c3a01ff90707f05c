// Package resource implements the resource engine: production-rate
// calculation, time-based accrual, storage clamping, and the deduct/credit
// primitives every other engine builds transactions on top of (§4.2).
package resource

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/catalog"
	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/model"
	"github.com/frontier-realms/world-server/internal/store"
)

// Engine computes and persists resource accrual for villages.
type Engine struct {
	db        *sql.DB
	villages  *store.VillageStore
	buildings *store.BuildingStore
	logger    *zap.Logger
}

func NewEngine(db *sql.DB, villages *store.VillageStore, buildings *store.BuildingStore, logger *zap.Logger) *Engine {
	return &Engine{db: db, villages: villages, buildings: buildings, logger: logger}
}

// ProductionRates returns the village's hourly production for each of the
// four resources, summing every resource-field building's contribution at
// its current level (§4.2).
func (e *Engine) ProductionRates(ctx context.Context, villageID string) (model.Resources, error) {
	fields, err := e.buildings.ListByVillage(ctx, villageID)
	if err != nil {
		return model.Resources{}, err
	}
	var rates model.Resources
	for _, b := range fields {
		if !model.IsResourceField(b.Type) {
			continue
		}
		perHour := catalog.ProductionPerHour(b.Level)
		switch b.Type {
		case model.Woodcutter:
			rates.Wood += perHour
		case model.ClayPit:
			rates.Clay += perHour
		case model.IronMine:
			rates.Iron += perHour
		case model.CropField:
			rates.Crop += perHour
		}
	}
	return rates, nil
}

// RecomputeStorage sums every Warehouse/Granary building's contribution at
// its current level into the village's storage caps and persists them
// (§4.3's recompute_storage, invoked whenever a Warehouse or Granary
// upgrade completes).
func (e *Engine) RecomputeStorage(ctx context.Context, tx *sql.Tx, villageID string) (model.StorageCaps, error) {
	fields, err := e.buildings.ListByVillage(ctx, villageID)
	if err != nil {
		return model.StorageCaps{}, err
	}
	var caps model.StorageCaps
	for _, b := range fields {
		switch b.Type {
		case model.Warehouse:
			caps.WarehouseCapacity += catalog.StorageCapacity(b.Level)
		case model.Granary:
			caps.GranaryCapacity += catalog.StorageCapacity(b.Level)
		}
	}
	if err := e.villages.WriteStorageCaps(ctx, tx, villageID, caps); err != nil {
		return model.StorageCaps{}, err
	}
	return caps, nil
}

// Refresh advances a village's resource counters from ResourcesUpdatedAt
// to now, at its current production rates, clamps to storage caps, and
// persists the result. Must run inside a transaction already holding the
// village's row lock (§4.2, §5: "every read of resources for a mutating
// operation must first refresh").
func (e *Engine) Refresh(ctx context.Context, tx *sql.Tx, v *model.Village) (model.Village, error) {
	rates, err := e.ProductionRates(ctx, v.ID)
	if err != nil {
		return model.Village{}, err
	}

	now := time.Now()
	elapsed := now.Sub(v.ResourcesUpdatedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	hours := elapsed.Hours()

	accrued := model.Resources{
		Wood: int64(float64(rates.Wood) * hours),
		Clay: int64(float64(rates.Clay) * hours),
		Iron: int64(float64(rates.Iron) * hours),
		Crop: int64(float64(rates.Crop) * hours),
	}

	updated := *v
	updated.Resources = v.StorageCaps.Clamp(v.Resources.Add(accrued))
	updated.ResourcesUpdatedAt = now

	if err := e.villages.WriteResources(ctx, tx, v.ID, updated.Resources, now); err != nil {
		return model.Village{}, err
	}
	return updated, nil
}

// RefreshByID loads, locks, refreshes and returns a village in one
// self-contained transaction — the shape read-only endpoints and the
// periodic sweep both use.
func (e *Engine) RefreshByID(ctx context.Context, villageID string) (*model.Village, error) {
	var result model.Village
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		v, err := e.villages.GetByIDForUpdate(ctx, tx, villageID)
		if err != nil {
			return err
		}
		refreshed, err := e.Refresh(ctx, tx, v)
		if err != nil {
			return err
		}
		result = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Deduct refreshes the village, then atomically subtracts cost. Returns
// kind.BadRequest if refreshed resources are insufficient. This is the
// entry point build-queue and train-queue use to spend resources (§4.2).
func (e *Engine) Deduct(ctx context.Context, tx *sql.Tx, v *model.Village, cost model.Resources) (model.Village, error) {
	refreshed, err := e.Refresh(ctx, tx, v)
	if err != nil {
		return model.Village{}, err
	}
	if !refreshed.Resources.GreaterOrEqual(cost) {
		return model.Village{}, kind.BadRequestf("village %s lacks resources for this cost", v.ID)
	}
	if err := e.villages.Deduct(ctx, tx, v.ID, cost); err != nil {
		return model.Village{}, err
	}
	refreshed.Resources = refreshed.Resources.Sub(cost)
	return refreshed, nil
}

// Credit adds delta to the village's resources, clamped to its storage
// caps — raid loot arriving home, or a returning army's carried goods.
func (e *Engine) Credit(ctx context.Context, tx *sql.Tx, villageID string, delta model.Resources) error {
	return e.villages.Credit(ctx, tx, villageID, delta)
}

// SweepAll refreshes every village in the world — the periodic tick the
// scheduler runs every five minutes so idle villages don't silently
// accumulate unbounded drift between mutating operations (§4.2, §6).
func (e *Engine) SweepAll(ctx context.Context) (int, error) {
	villages, err := e.villages.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, v := range villages {
		if _, err := e.RefreshByID(ctx, v.ID); err != nil {
			e.logger.Error("resource sweep failed for village",
				zap.String("village_id", v.ID), zap.Error(err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}
