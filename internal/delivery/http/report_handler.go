package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/store"
)

// ReportHandler serves battle and scout report listing and read-marking.
type ReportHandler struct {
	BaseHandler
	reports *store.ReportStore
}

func NewReportHandler(logger *zap.Logger, reports *store.ReportStore) *ReportHandler {
	return &ReportHandler{BaseHandler: NewBaseHandler(logger), reports: reports}
}

// ListReports handles GET /reports.
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	principal, err := h.Principal(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	reports, err := h.reports.ListBattleReportsForUser(r.Context(), principal.UserID)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, reports)
}

// MarkReportRead handles POST /reports/{id}/read.
func (h *ReportHandler) MarkReportRead(w http.ResponseWriter, r *http.Request) {
	principal, err := h.Principal(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	id := mux.Vars(r)["id"]

	if _, err := h.reports.GetBattleReport(r.Context(), id, principal.UserID); err != nil {
		h.WriteError(w, err)
		return
	}
	if err := h.reports.MarkBattleReportRead(r.Context(), id, principal.UserID); err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// ListScoutReports handles GET /scout-reports.
func (h *ReportHandler) ListScoutReports(w http.ResponseWriter, r *http.Request) {
	principal, err := h.Principal(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	reports, err := h.reports.ListScoutReportsForUser(r.Context(), principal.UserID)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, reports)
}
