package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/delivery/dto"
	"github.com/frontier-realms/world-server/internal/events"
	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/trainqueue"
)

// TroopHandler serves the training-queue endpoint.
type TroopHandler struct {
	BaseHandler
	trainqueue *trainqueue.Engine
	publisher  *events.Publisher
}

func NewTroopHandler(logger *zap.Logger, tq *trainqueue.Engine, publisher *events.Publisher) *TroopHandler {
	return &TroopHandler{BaseHandler: NewBaseHandler(logger), trainqueue: tq, publisher: publisher}
}

// Train handles POST /villages/{id}/troops/train.
func (h *TroopHandler) Train(w http.ResponseWriter, r *http.Request) {
	principal, err := h.Principal(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	villageID := mux.Vars(r)["id"]

	var req dto.TrainRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}
	if req.Type == "" {
		h.WriteError(w, kind.ValidationErrorf("type is required"))
		return
	}

	entry, err := h.trainqueue.Train(r.Context(), villageID, req.Type, req.Count, principal.UserID)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.publisher.VillageUpdated(r.Context(), villageID)
	h.WriteJSON(w, http.StatusAccepted, entry)
}
