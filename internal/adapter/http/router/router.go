package router

import (
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/response"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Auth          *handler.AuthHandler
	Listings      *handler.ListingHandler
	Authenticator middleware.Authenticator
	Metrics       middleware.HTTPMetrics
	RateLimiter   *middleware.RateLimiter
	// UploadTimeout bounds listing creation, image uploads included. Zero means no bound.
	UploadTimeout time.Duration
	Logger        *logger.Logger
}

// New builds the public HTTP API.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(d.Logger.Named("HTTP")))
	r.Use(chimw.Recoverer)
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	requireAuth := middleware.JWTAuth(d.Authenticator, d.Logger.Named("Auth"))

	r.Route("/api/v1", func(r chi.Router) {
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Middleware)
		}

		r.Post("/auth/signup", d.Auth.SignUp)
		r.Post("/auth/signin", d.Auth.SignIn)
		r.Post("/auth/federated", d.Auth.SignInFederated)
		r.Get("/meta", d.Listings.Meta)
		r.Get("/listings", d.Listings.ListApproved)
		r.Get("/listings/{id}", d.Listings.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/auth/signout", d.Auth.SignOut)
			r.Get("/me", d.Auth.Me)
			r.Get("/me/listings", d.Listings.ListMine)
			r.With(timeout(d.UploadTimeout)).Post("/listings", d.Listings.Create)
			r.Patch("/listings/{id}", d.Listings.Update)
			r.Delete("/listings/{id}", d.Listings.Delete)
			r.Post("/listings/{id}/sold", d.Listings.MarkSold)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/listings/pending", d.Listings.ListPending)
				r.Post("/listings/{id}/approve", d.Listings.Approve)
				r.Post("/listings/{id}/reject", d.Listings.Reject)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, response.CodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, response.CodeNotFound, "method not allowed", nil)
	})
	return r
}

func timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return chimw.Timeout(d)
}
