package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/auth"
	"github.com/frontier-realms/world-server/internal/delivery/dto"
	"github.com/frontier-realms/world-server/internal/kind"
)

// BaseHandler provides the response helpers every resource handler
// embeds, generalizing the teacher's BaseHandler to a typed engine error
// instead of a bare string message.
type BaseHandler struct {
	logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// WriteJSON writes a 2xx JSON response.
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("encode json response", zap.Error(err))
	}
}

// WriteError maps err to its HTTP status and an {error:{message, code}}
// envelope (§7). Internal errors are logged with their cause; every
// other kind is assumed safe to surface verbatim since engines only ever
// produce client-actionable messages for them.
func (h *BaseHandler) WriteError(w http.ResponseWriter, err error) {
	k, ok := kind.As(err)
	if !ok {
		h.logger.Error("unclassified handler error", zap.Error(err))
		h.WriteJSON(w, http.StatusInternalServerError, dto.ErrorEnvelope{
			Error: dto.ErrorPayload{Message: "internal server error", Code: "internal"},
		})
		return
	}
	if k.Kind == kind.Internal {
		h.logger.Error("internal handler error", zap.Error(err))
		h.WriteJSON(w, http.StatusInternalServerError, dto.ErrorEnvelope{
			Error: dto.ErrorPayload{Message: "internal server error", Code: "internal"},
		})
		return
	}
	h.WriteJSON(w, kind.HTTPStatus(k.Kind), dto.ErrorEnvelope{
		Error: dto.ErrorPayload{Message: k.Message, Code: kindCode(k.Kind)},
	})
}

// ParseJSON decodes the request body into dest, wrapping decode failures
// as a ValidationError (§7: malformed request bodies are client errors).
func (h *BaseHandler) ParseJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return kind.ValidationErrorf("malformed request body: %v", err)
	}
	return nil
}

// Principal fetches the verified principal the auth middleware attached
// to the request context.
func (h *BaseHandler) Principal(r *http.Request) (auth.Principal, error) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.Principal{}, kind.Unauthorizedf("no principal in request context")
	}
	return p, nil
}

func kindCode(k kind.Kind) string {
	switch k {
	case kind.Unauthorized:
		return "unauthorized"
	case kind.Forbidden:
		return "forbidden"
	case kind.NotFound:
		return "not_found"
	case kind.BadRequest:
		return "bad_request"
	case kind.Conflict:
		return "conflict"
	case kind.ValidationError:
		return "validation_error"
	default:
		return "internal"
	}
}
