package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/dto"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/response"
	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
)

const maxJSONBody = 1 << 20

type AuthService interface {
	SignUp(ctx context.Context, email, password, displayName string) (*identity.Session, error)
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignInFederated(ctx context.Context, idToken string) (*identity.Session, error)
	SignOut(ctx context.Context, token string) error
}

type AuthHandler struct {
	auth AuthService
	errorWriter
}

func NewAuthHandler(auth AuthService, metrics ErrorMetrics, log *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, errorWriter: errorWriter{metrics: metrics, logger: log.Named("AuthHandler")}}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}
	session, err := h.auth.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, dto.ToSessionResponse(session))
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}
	session, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.ToSessionResponse(session))
}

func (h *AuthHandler) SignInFederated(w http.ResponseWriter, r *http.Request) {
	var req dto.FederatedSignInRequest
	if err := decodeJSON(w, r, &req); err != nil || req.IDToken == "" {
		h.badRequest(w, r, "id_token is required")
		return
	}
	session, err := h.auth.SignInFederated(r.Context(), req.IDToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.ToSessionResponse(session))
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), middleware.TokenFromContext(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the identity resolved by the auth middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.write(w, r, http.StatusUnauthorized, response.CodeUnauthenticated, "authentication required", nil)
		return
	}
	response.JSON(w, http.StatusOK, dto.ToIdentityResponse(id))
}
