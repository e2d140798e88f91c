package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/acarlson90/polls/internal/api/handler"
	"github.com/acarlson90/polls/internal/api/middleware"
	"github.com/acarlson90/polls/internal/api/response"
	"github.com/acarlson90/polls/internal/metrics"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Logger         *zap.Logger
	Metrics        *metrics.Registry
	DBPinger       handler.DBPinger
	Version        string
	OpenAPISpec    []byte
	RequestTimeout time.Duration

	Authenticator *middleware.Authenticator
	Policy        middleware.AccessDecider
	EntryPoint    middleware.EntryPoint

	Polls  handler.PollService
	Votes  handler.VoteCaster
	SignIn handler.SignInService

	// Now is the request clock. Defaults to time.Now.
	Now func() time.Time
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	if deps.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(deps.RequestTimeout))
	}
	if deps.Authenticator != nil {
		r.Use(deps.Authenticator.Middleware)
	}
	if deps.Policy != nil {
		r.Use(middleware.Authorize(deps.Policy, deps.EntryPoint))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", middleware.GetRequestID(r.Context()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Err(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", middleware.GetRequestID(r.Context()))
	})

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec, logger)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	if deps.SignIn != nil {
		authHandler := handler.NewAuthHandler(deps.SignIn, deps.Now, logger)
		r.Post("/api/auth/signin", authHandler.SignIn)
	}

	if deps.Polls != nil && deps.Votes != nil {
		pollHandler := handler.NewPollHandler(deps.Polls, deps.Votes, deps.Now, logger)
		r.Route("/api/polls", func(r chi.Router) {
			r.Get("/", pollHandler.List)
			r.Post("/", pollHandler.Create)
			r.Get("/{pollId}", pollHandler.Get)
			r.Post("/{pollId}/votes", pollHandler.CastVote)
		})

		userHandler := handler.NewUserHandler(deps.Polls, deps.Now, logger)
		r.Route("/api/users/{username}", func(r chi.Router) {
			r.Get("/", userHandler.Profile)
			r.Get("/polls", userHandler.Polls)
			r.Get("/votes", userHandler.Votes)
		})
		r.Get("/api/user/me", userHandler.Me)
	}

	return r
}
