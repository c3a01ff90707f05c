package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/buildqueue"
	"github.com/frontier-realms/world-server/internal/delivery/dto"
	"github.com/frontier-realms/world-server/internal/events"
	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/model"
	"github.com/frontier-realms/world-server/internal/store"
)

// BuildingHandler serves building construction, upgrade and demolition.
type BuildingHandler struct {
	BaseHandler
	buildings *store.BuildingStore
	buildqueue *buildqueue.Engine
	publisher  *events.Publisher
}

func NewBuildingHandler(logger *zap.Logger, buildings *store.BuildingStore, bq *buildqueue.Engine, publisher *events.Publisher) *BuildingHandler {
	return &BuildingHandler{BaseHandler: NewBaseHandler(logger), buildings: buildings, buildqueue: bq, publisher: publisher}
}

func slotFromRequest(r *http.Request) (int, error) {
	raw := mux.Vars(r)["slot"]
	slot, err := strconv.Atoi(raw)
	if err != nil {
		return 0, kind.ValidationErrorf("slot must be an integer")
	}
	return slot, nil
}

// Build handles POST /villages/{id}/buildings/{slot}: starting
// construction on an empty slot, the requested type given in the body.
func (h *BuildingHandler) Build(w http.ResponseWriter, r *http.Request) {
	principal, err := h.Principal(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	villageID := mux.Vars(r)["id"]
	slot, err := slotFromRequest(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	var req dto.BuildRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}

	b, err := h.buildqueue.Upgrade(r.Context(), villageID, slot, model.BuildingType(req.Type), principal.UserID)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.publisher.VillageUpdated(r.Context(), villageID)
	h.WriteJSON(w, http.StatusAccepted, b)
}

// Upgrade handles POST /villages/{id}/buildings/{slot}/upgrade:
// upgrading a slot that is already occupied, so the building type comes
// from the existing row rather than the request body.
func (h *BuildingHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	principal, err := h.Principal(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	villageID := mux.Vars(r)["id"]
	slot, err := slotFromRequest(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	existing, err := h.buildings.GetBySlot(r.Context(), villageID, slot)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	if existing == nil {
		h.WriteError(w, kind.BadRequestf("slot %d is empty; build it first", slot))
		return
	}

	b, err := h.buildqueue.Upgrade(r.Context(), villageID, slot, existing.Type, principal.UserID)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.publisher.VillageUpdated(r.Context(), villageID)
	h.WriteJSON(w, http.StatusAccepted, b)
}

// Demolish handles DELETE /villages/{id}/buildings/{slot}.
func (h *BuildingHandler) Demolish(w http.ResponseWriter, r *http.Request) {
	principal, err := h.Principal(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	villageID := mux.Vars(r)["id"]
	slot, err := slotFromRequest(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	b, err := h.buildqueue.Demolish(r.Context(), villageID, slot, principal.UserID)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.publisher.VillageUpdated(r.Context(), villageID)
	h.WriteJSON(w, http.StatusOK, b)
}
