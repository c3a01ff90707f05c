package http

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/frontier-realms/world-server/internal/auth"
	"github.com/frontier-realms/world-server/internal/delivery/dto"
	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/model"
	"github.com/frontier-realms/world-server/internal/store"
)

// AuthHandler stands in for the external identity provider §1/§6
// describe: a local register/login pair that issues the same bearer
// tokens the auth middleware verifies.
type AuthHandler struct {
	BaseHandler
	users    *store.UserStore
	verifier *auth.Verifier
}

func NewAuthHandler(logger *zap.Logger, users *store.UserStore, verifier *auth.Verifier) *AuthHandler {
	return &AuthHandler{BaseHandler: NewBaseHandler(logger), users: users, verifier: verifier}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		h.WriteError(w, kind.ValidationErrorf("username and password are required"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.WriteError(w, kind.Internalf(err, "hash password"))
		return
	}

	u := &model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		HeroSlots:    1,
		CreatedAt:    time.Now(),
	}
	if err := h.users.Create(r.Context(), u); err != nil {
		h.WriteError(w, err)
		return
	}

	token, err := h.verifier.IssueToken(u.ID)
	if err != nil {
		h.WriteError(w, kind.Internalf(err, "issue token"))
		return
	}
	h.WriteJSON(w, http.StatusCreated, dto.TokenResponse{Token: token, UserID: u.ID})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}

	u, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		h.WriteError(w, kind.Unauthorizedf("invalid username or password"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		h.WriteError(w, kind.Unauthorizedf("invalid username or password"))
		return
	}

	token, err := h.verifier.IssueToken(u.ID)
	if err != nil {
		h.WriteError(w, kind.Internalf(err, "issue token"))
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.TokenResponse{Token: token, UserID: u.ID})
}
