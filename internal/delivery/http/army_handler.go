package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/delivery/dto"
	"github.com/frontier-realms/world-server/internal/events"
	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/model"
	"github.com/frontier-realms/world-server/internal/movement"
	"github.com/frontier-realms/world-server/internal/store"
)

// ArmyHandler serves army dispatch, listing and recall.
type ArmyHandler struct {
	BaseHandler
	armies    *store.ArmyStore
	villages  *store.VillageStore
	movement  *movement.Engine
	publisher *events.Publisher
}

func NewArmyHandler(logger *zap.Logger, armies *store.ArmyStore, villages *store.VillageStore, movementEngine *movement.Engine, publisher *events.Publisher) *ArmyHandler {
	return &ArmyHandler{BaseHandler: NewBaseHandler(logger), armies: armies, villages: villages, movement: movementEngine, publisher: publisher}
}

var validMissions = map[string]model.Mission{
	string(model.MissionRaid):    model.MissionRaid,
	string(model.MissionAttack):  model.MissionAttack,
	string(model.MissionConquer): model.MissionConquer,
	string(model.MissionSupport): model.MissionSupport,
	string(model.MissionScout):   model.MissionScout,
	string(model.MissionSettle):  model.MissionSettle,
}

// Dispatch handles POST /villages/{id}/armies.
func (h *ArmyHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	principal, err := h.Principal(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	villageID := mux.Vars(r)["id"]

	var req dto.DispatchArmyRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}
	mission, ok := validMissions[req.Mission]
	if !ok {
		h.WriteError(w, kind.ValidationErrorf("unknown mission %q", req.Mission))
		return
	}

	a, err := h.movement.SendArmy(r.Context(), principal.UserID, villageID, req.ToX, req.ToY, mission, req.Troops)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.publisher.VillageUpdated(r.Context(), villageID)
	h.WriteJSON(w, http.StatusAccepted, dto.ArmyFromModel(a))
}

// ListOutgoing handles GET /villages/{id}/armies/outgoing: this
// village's armies still traveling toward their destination.
func (h *ArmyHandler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	h.listFromVillage(w, r, func(a *model.Army) bool {
		return !a.IsStationed && !a.IsReturning
	})
}

// ListIncoming handles GET /villages/{id}/armies/incoming: this
// village's armies now returning home.
func (h *ArmyHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	h.listFromVillage(w, r, func(a *model.Army) bool {
		return a.IsReturning
	})
}

func (h *ArmyHandler) listFromVillage(w http.ResponseWriter, r *http.Request, include func(*model.Army) bool) {
	principal, err := h.Principal(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	villageID := mux.Vars(r)["id"]

	all, err := h.armies.ListByOwner(r.Context(), principal.UserID)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	out := make([]dto.ArmyResponse, 0)
	for _, a := range all {
		if a.FromVillageID == villageID && include(a) {
			out = append(out, dto.ArmyFromModel(a))
		}
	}
	h.WriteJSON(w, http.StatusOK, out)
}

// ListStationed handles GET /villages/{id}/armies/stationed: any army
// (the village owner's own, or an ally's) currently parked there in
// support. Restricted to the village's owner, since a supporter roster
// reveals a defense composition.
func (h *ArmyHandler) ListStationed(w http.ResponseWriter, r *http.Request) {
	principal, err := h.Principal(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	villageID := mux.Vars(r)["id"]

	village, err := h.villages.GetByID(r.Context(), villageID)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	if village.OwnerID != principal.UserID {
		h.WriteError(w, kind.Forbiddenf("village %s is not owned by this principal", villageID))
		return
	}

	stationed, err := h.armies.ListStationedAtVillage(r.Context(), villageID)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	out := make([]dto.ArmyResponse, 0, len(stationed))
	for _, a := range stationed {
		out = append(out, dto.ArmyFromModel(a))
	}
	h.WriteJSON(w, http.StatusOK, out)
}

// Recall handles POST /armies/{id}/recall.
func (h *ArmyHandler) Recall(w http.ResponseWriter, r *http.Request) {
	principal, err := h.Principal(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	armyID := mux.Vars(r)["id"]

	if err := h.movement.Recall(r.Context(), armyID, principal.UserID); err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "recalled"})
}
