package handler

import (
	"errors"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/response"
	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

// ErrorMetrics counts API errors by route and code.
type ErrorMetrics interface {
	APIError(route, errorType string)
}

type errorWriter struct {
	metrics ErrorMetrics
	logger  *logger.Logger
}

func (e errorWriter) write(w http.ResponseWriter, r *http.Request, status int, code, message string, fields map[string]string) {
	if e.metrics != nil {
		e.metrics.APIError(middleware.RoutePattern(r), code)
	}
	response.Error(w, status, code, message, fields)
}

func (e errorWriter) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	e.write(w, r, http.StatusBadRequest, response.CodeValidation, message, nil)
}

// fail maps a usecase error to its HTTP status. Storage details are logged,
// never returned.
func (e errorWriter) fail(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		e.write(w, r, http.StatusBadRequest, response.CodeValidation, "validation failed", validation.Fields)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, identity.ErrProfileNotFound):
		e.write(w, r, http.StatusNotFound, response.CodeNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrForbidden):
		e.write(w, r, http.StatusForbidden, response.CodeForbidden, err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidTransition):
		e.write(w, r, http.StatusConflict, response.CodeInvalidTransition, err.Error(), nil)
	case errors.Is(err, domain.ErrStorage):
		e.logger.Error("Storage failure", zap.String("route", middleware.RoutePattern(r)), zap.Error(err))
		e.write(w, r, http.StatusBadGateway, response.CodeStorage, "storage backend unavailable, try again later", nil)
	case errors.Is(err, identity.ErrInvalidInput):
		e.write(w, r, http.StatusBadRequest, response.CodeValidation, err.Error(), nil)
	case errors.Is(err, identity.ErrInvalidCredentials):
		e.write(w, r, http.StatusUnauthorized, response.CodeInvalidCredential, err.Error(), nil)
	case errors.Is(err, identity.ErrInvalidToken), errors.Is(err, identity.ErrTokenRevoked):
		e.write(w, r, http.StatusUnauthorized, response.CodeUnauthenticated, "invalid or expired token", nil)
	case errors.Is(err, identity.ErrEmailTaken):
		e.write(w, r, http.StatusConflict, response.CodeConflict, err.Error(), nil)
	case errors.Is(err, identity.ErrFederatedDisabled):
		e.write(w, r, http.StatusNotImplemented, response.CodeNotImplemented, err.Error(), nil)
	default:
		e.logger.Error("Unhandled error", zap.String("route", middleware.RoutePattern(r)), zap.Error(err))
		e.write(w, r, http.StatusInternalServerError, response.CodeInternal, "internal error", nil)
	}
}
