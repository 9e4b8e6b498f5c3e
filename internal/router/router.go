package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	database "github.com/FACorreiaa/skill-registry/app/db"
	appLogger "github.com/FACorreiaa/skill-registry/app/logger"
	appMiddleware "github.com/FACorreiaa/skill-registry/app/middleware"
	"github.com/FACorreiaa/skill-registry/internal/api"
	"github.com/FACorreiaa/skill-registry/internal/api/auth"
	"github.com/FACorreiaa/skill-registry/internal/api/skills"
	"github.com/FACorreiaa/skill-registry/internal/api/tags"
	"github.com/FACorreiaa/skill-registry/internal/api/user"
)

const healthPingTimeout = 2 * time.Second

// Config contains dependencies needed for the router setup.
type Config struct {
	AuthHandler   auth.Handler
	UserHandler   user.Handler
	SkillsHandler skills.Handler
	TagsHandler   tags.Handler

	Verifier auth.TokenVerifier
	DB       database.Pinger
	Logger   *slog.Logger

	AllowedOrigins  []string
	RequestTimeout  time.Duration
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// SetupRouter builds the full HTTP surface, server-wide middleware included.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5, "application/json"))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	r.Get("/health", health(cfg.DB))

	authenticate := auth.Authenticate(cfg.Verifier, cfg.Logger)
	optional := auth.OptionalAuthenticate(cfg.Verifier, cfg.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RateLimit(cfg.LoginRateLimit, cfg.LoginRateWindow, auth.TooManyRequests))
				r.Post("/register", cfg.AuthHandler.Register)
				r.Post("/login", cfg.AuthHandler.Login)
			})
			r.With(authenticate).Get("/me", cfg.AuthHandler.Me)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", cfg.UserHandler.ListUsers)
			r.Get("/{id}", cfg.UserHandler.GetUser)
			r.With(optional).Get("/{id}/skills", cfg.SkillsHandler.ListUserSkills)
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Put("/{id}", cfg.UserHandler.UpdateUser)
				r.Delete("/{id}", cfg.UserHandler.DeleteUser)
			})
		})

		r.Route("/skills", func(r chi.Router) {
			r.Get("/", cfg.SkillsHandler.ListSkills)
			r.With(optional).Get("/{id}", cfg.SkillsHandler.GetSkill)
			r.Post("/{id}/download", cfg.SkillsHandler.DownloadSkill)
			r.Post("/{id}/clone", cfg.SkillsHandler.CloneSkill)
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/", cfg.SkillsHandler.CreateSkill)
				r.Put("/{id}", cfg.SkillsHandler.UpdateSkill)
				r.Delete("/{id}", cfg.SkillsHandler.DeleteSkill)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", cfg.TagsHandler.GetTags)
			r.Get("/{slug}", cfg.TagsHandler.GetTag)
		})
	})

	return r
}

// health reports "ok" when the store answers a ping and "degraded" with 503 otherwise.
func health(db database.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := api.HealthResponse{Status: "ok", Timestamp: time.Now().UTC().Format(time.RFC3339)}
		status := http.StatusOK

		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if db == nil || db.Ping(ctx) != nil {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		api.WriteJSONResponse(w, r, status, resp)
	}
}
