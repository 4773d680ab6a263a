package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/planbana/go-api/internal/application/auth"
	"github.com/planbana/go-api/internal/application/user"
	"github.com/planbana/go-api/internal/application/verification"
	"github.com/planbana/go-api/internal/config"
	"github.com/planbana/go-api/internal/domain"
	"github.com/planbana/go-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/planbana/go-api/internal/infrastructure/jwt"
	"github.com/planbana/go-api/internal/infrastructure/smtp"
	"github.com/planbana/go-api/internal/infrastructure/sns"
	"github.com/planbana/go-api/internal/transport/http/handler"
	appmiddleware "github.com/planbana/go-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	ResetRepo   *dynamo.ResetTokenRepo
	Verifier    verification.Service
	Mailer      smtp.Mailer
	SMSSender   sns.SMSSender
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:  deps.UserRepo,
		Verifier:  deps.Verifier,
		JWT:       deps.JWTProvider,
		SMS:       deps.SMSSender,
		Mailer:    deps.Mailer,
		ResetRepo: deps.ResetRepo,
	})
	userSvc := user.NewService(deps.UserRepo)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, cfg)
	userH := handler.NewUserHandler(userSvc)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.With(sensitiveRL.Limit).Post("/otp/request", authH.RequestOTP)
			r.With(sensitiveRL.Limit).Post("/otp/verify", authH.VerifyOTP)
			r.With(sensitiveRL.Limit).Post("/register-minimal", authH.Register)
			r.With(sensitiveRL.Limit).Post("/login", authH.Login)
			r.With(sensitiveRL.Limit).Post("/login-verify-otp", authH.LoginVerifyOTP)
			r.Post("/refresh", authH.Refresh)
			r.Post("/logout", authH.Logout)
			r.With(sensitiveRL.Limit).Post("/request-password-reset", authH.RequestPasswordReset)
			r.With(sensitiveRL.Limit).Post("/reset-password", authH.ResetPassword)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/users/me", userH.Me)
			r.Put("/users/me", userH.UpdateMe)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
			})
		})
	})

	return r
}
