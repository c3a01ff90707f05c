// Package buildqueue implements the build-queue engine: starting,
// completing and cancelling building upgrades, and demolition (§4.3).
package buildqueue

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

// Engine drives building construction and upgrade timers.
type Engine struct {
	db        *sql.DB
	villages  *store.VillageStore
	buildings *store.BuildingStore
	resources *resource.Engine
	logger    *zap.Logger
}

func NewEngine(db *sql.DB, villages *store.VillageStore, buildings *store.BuildingStore, resources *resource.Engine, logger *zap.Logger) *Engine {
	return &Engine{db: db, villages: villages, buildings: buildings, resources: resources, logger: logger}
}

// Upgrade starts (or begins, for an unbuilt slot) a building's upgrade:
// refreshes and deducts the village's resources for the next level's
// cost, then marks the slot upgrading with its completion time. Fails if
// the slot is already upgrading, the level is at MaxLevel, or the slot
// doesn't accept the requested type (§4.3 invariants).
func (e *Engine) Upgrade(ctx context.Context, villageID string, slot int, buildingType model.BuildingType, ownerID string) (*model.Building, error) {
	var result model.Building
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		v, err := e.villages.GetByIDForUpdate(ctx, tx, villageID)
		if err != nil {
			return err
		}
		if v.OwnerID != ownerID {
			return kind.Forbiddenf("village %s is not owned by this principal", villageID)
		}

		if model.SlotAcceptsFields(slot) && !model.IsResourceField(buildingType) {
			return kind.ValidationErrorf("slot %d only accepts resource fields", slot)
		}
		if !model.SlotAcceptsFields(slot) && model.IsResourceField(buildingType) {
			return kind.ValidationErrorf("slot %d does not accept resource fields", slot)
		}

		b, err := e.buildings.GetBySlotForUpdate(ctx, tx, villageID, slot)
		if err != nil {
			return err
		}
		if b == nil {
			b = &model.Building{VillageID: villageID, Type: buildingType, Slot: slot, Level: 0}
			if err := e.buildings.Create(ctx, tx, b); err != nil {
				return err
			}
		}
		if b.Type != buildingType {
			return kind.ValidationErrorf("slot %d is already occupied by %s", slot, b.Type)
		}
		if b.IsUpgrading {
			return kind.Conflictf("slot %d already has an upgrade in progress", slot)
		}
		if b.Level >= model.MaxLevel {
			return kind.BadRequestf("%s is already at its maximum level", buildingType)
		}

		cost := catalog.BuildCost(buildingType, b.Level+1)
		if _, err := e.resources.Deduct(ctx, tx, v, cost.Resources); err != nil {
			return err
		}

		endsAt := time.Now().Add(time.Duration(cost.TimeSeconds) * time.Second)
		if err := e.buildings.StartUpgrade(ctx, tx, b.ID, sql.NullTime{Time: endsAt, Valid: true}); err != nil {
			return err
		}
		b.IsUpgrading = true
		b.UpgradeEndsAt = &endsAt
		result = *b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Demolish removes a building entirely (level drops to 0), with no
// resource refund and no timer, cancelling any in-progress upgrade on the
// slot first. MainBuilding may never be demolished above level 0 (§4.3).
func (e *Engine) Demolish(ctx context.Context, villageID string, slot int, ownerID string) (*model.Building, error) {
	var result model.Building
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		v, err := e.villages.GetByIDForUpdate(ctx, tx, villageID)
		if err != nil {
			return err
		}
		if v.OwnerID != ownerID {
			return kind.Forbiddenf("village %s is not owned by this principal", villageID)
		}

		b, err := e.buildings.GetBySlotForUpdate(ctx, tx, villageID, slot)
		if err != nil {
			return err
		}
		if b == nil || b.Level == 0 {
			return kind.BadRequestf("slot %d has nothing to demolish", slot)
		}
		if b.Type == model.MainBuilding {
			return kind.BadRequestf("the main building cannot be demolished")
		}

		if b.IsUpgrading {
			if err := e.buildings.CancelUpgrade(ctx, tx, b.ID); err != nil {
				return err
			}
			b.IsUpgrading = false
			b.UpgradeEndsAt = nil
		}
		if err := e.buildings.SetLevel(ctx, tx, b.ID, 0); err != nil {
			return err
		}
		b.Level = 0

		if b.Type == model.Warehouse || b.Type == model.Granary {
			if _, err := e.resources.RecomputeStorage(ctx, tx, villageID); err != nil {
				return err
			}
		}
		result = *b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DrainDue completes every building upgrade whose timer has elapsed,
// across the whole world — the scheduler's ten-second build tick (§4.3,
// §6). Each completion runs in its own transaction, so a failed
// completion rolls back only itself. The drain stops at the first failure
// and returns its error; since the earliest due upgrade is always taken
// first, a completion that keeps failing holds back the ones due after it.
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

func (e *Engine) drainOne(ctx context.Context) (bool, error) {
	found := false
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		due, err := e.buildings.ListDueUpgrades(ctx, tx)
		if err != nil {
			return err
		}
		if len(due) == 0 {
			return nil
		}
		b := due[0]
		found = true

		if err := e.buildings.CompleteUpgrade(ctx, tx, b.ID); err != nil {
			return err
		}
		if b.Type == model.Warehouse || b.Type == model.Granary {
			if _, err := e.resources.RecomputeStorage(ctx, tx, b.VillageID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		e.logger.Error("build queue drain failed", zap.Error(err))
		return false, err
	}
	return found, nil
}
