package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/delivery/dto"
	"github.com/frontier-realms/world-server/internal/events"
	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/movement"
	"github.com/frontier-realms/world-server/internal/resource"
	"github.com/frontier-realms/world-server/internal/store"
)

// VillageHandler serves village listing, creation and detail endpoints.
type VillageHandler struct {
	BaseHandler
	villages  *store.VillageStore
	buildings *store.BuildingStore
	troops    *store.TroopStore
	resources *resource.Engine
	movement  *movement.Engine
	publisher *events.Publisher
}

func NewVillageHandler(logger *zap.Logger, villages *store.VillageStore, buildings *store.BuildingStore, troops *store.TroopStore, resources *resource.Engine, movementEngine *movement.Engine, publisher *events.Publisher) *VillageHandler {
	return &VillageHandler{
		BaseHandler: NewBaseHandler(logger),
		villages:    villages, buildings: buildings, troops: troops,
		resources: resources, movement: movementEngine, publisher: publisher,
	}
}

// ListVillages handles GET /villages, the requesting principal's own
// villages only.
func (h *VillageHandler) ListVillages(w http.ResponseWriter, r *http.Request) {
	principal, err := h.Principal(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	owned, err := h.villages.ListByOwner(r.Context(), principal.UserID)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	out := make([]dto.VillageResponse, 0, len(owned))
	for _, v := range owned {
		refreshed, err := h.resources.RefreshByID(r.Context(), v.ID)
		if err != nil {
			h.WriteError(w, err)
			return
		}
		out = append(out, dto.VillageFromModel(refreshed))
	}
	h.WriteJSON(w, http.StatusOK, out)
}

// CreateVillage handles POST /villages — founding a brand-new capital,
// the one village-creation path that doesn't run through a Settle
// mission arrival.
func (h *VillageHandler) CreateVillage(w http.ResponseWriter, r *http.Request) {
	principal, err := h.Principal(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	var req dto.CreateVillageRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}
	if req.Name == "" {
		req.Name = "Capital"
	}

	v, err := h.movement.Bootstrap(r.Context(), principal.UserID, req.Name, req.X, req.Y)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.publisher.VillageUpdated(r.Context(), v.ID)
	h.WriteJSON(w, http.StatusCreated, dto.VillageFromModel(v))
}

// GetVillage handles GET /villages/{id}, returning full detail —
// resources, buildings, garrison and training queue — to its owner only.
func (h *VillageHandler) GetVillage(w http.ResponseWriter, r *http.Request) {
	principal, err := h.Principal(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	id := mux.Vars(r)["id"]

	v, err := h.resources.RefreshByID(r.Context(), id)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	if v.OwnerID != principal.UserID {
		h.WriteError(w, kind.Forbiddenf("village %s is not owned by this principal", id))
		return
	}

	buildings, err := h.buildings.ListByVillage(r.Context(), id)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	troops, err := h.troops.ListByVillage(r.Context(), id)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	queue, err := h.troops.ListQueueByVillage(r.Context(), id)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	resp := dto.VillageFromModel(v)
	resp.Buildings = buildings
	resp.Troops = troops
	resp.TrainingQueue = queue
	h.WriteJSON(w, http.StatusOK, resp)
}

// GetMap handles GET /map?x&y&range≤15.
func (h *VillageHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, err := strconv.Atoi(q.Get("x"))
	if err != nil {
		h.WriteError(w, kind.ValidationErrorf("x must be an integer"))
		return
	}
	y, err := strconv.Atoi(q.Get("y"))
	if err != nil {
		h.WriteError(w, kind.ValidationErrorf("y must be an integer"))
		return
	}
	rng := 15
	if raw := q.Get("range"); raw != "" {
		rng, err = strconv.Atoi(raw)
		if err != nil {
			h.WriteError(w, kind.ValidationErrorf("range must be an integer"))
			return
		}
	}
	if rng < 0 || rng > 15 {
		h.WriteError(w, kind.ValidationErrorf("range must be between 0 and 15"))
		return
	}

	villages, err := h.villages.ListInRange(r.Context(), x, y, rng)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	out := make([]dto.MapVillage, 0, len(villages))
	for _, v := range villages {
		out = append(out, dto.MapVillage{ID: v.ID, OwnerID: v.OwnerID, Name: v.Name, X: v.X, Y: v.Y, IsCapital: v.IsCapital})
	}
	h.WriteJSON(w, http.StatusOK, out)
}
