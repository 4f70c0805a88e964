package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aoinoikaz/TruthCapture/internal/guard"
	"github.com/aoinoikaz/TruthCapture/internal/service"
	"github.com/aoinoikaz/TruthCapture/pkg/health"
	"github.com/aoinoikaz/TruthCapture/pkg/middleware"
)

// RateLimitConfig bounds how fast a single IP may hit the credential and
// action-code endpoints.
type RateLimitConfig struct {
	RPS   int
	Burst int
}

// NewRouter creates a chi router with all identity service routes registered.
func NewRouter(
	authService *service.AuthService,
	gateService *service.GateService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
	rateLimit RateLimitConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("identity"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(authService, logger)
	actionHandler := NewActionHandler(authService, logger)
	gateHandler := NewGateHandler(gateService, logger)

	r.Route("/api/v1/auth", func(r chi.Router) {
		// Public endpoints. Rate limited per IP so credentials and action
		// codes cannot be brute forced.
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(middleware.RateLimit(rateLimit.RPS, rateLimit.Burst, logger))

			r.Post("/signup", authHandler.SignUp)
			r.Post("/signin", authHandler.SignIn)
			r.Post("/signout", authHandler.SignOut)
			r.Post("/forgot-password", authHandler.ForgotPassword)

			// Action code endpoints, reached from emailed links
			r.Post("/action/verify-email", actionHandler.VerifyEmail)
			r.Post("/action/verify-reset", actionHandler.VerifyResetCode)
			r.Post("/action/reset-password", actionHandler.ResetPassword)
		})

		// Session restore requires a verified account; unverified accounts
		// are signed out client-side and never hold a live session.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authService.ValidateToken))
			r.Use(guard.RequireVerified(logger))

			r.Get("/session", authHandler.GetSession)
		})
	})

	// Authenticated account endpoints. These accept unverified accounts so
	// a fresh signup can finish profile setup and request its verification
	// email before signing out.
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(authService.ValidateToken))

		r.Get("/me", authHandler.GetMe)
		r.Put("/me", authHandler.UpdateMe)
		r.Post("/me/send-verification", authHandler.SendVerification)
	})

	// Deployment access gate
	r.Route("/api/v1/gate", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RateLimit(rateLimit.RPS, rateLimit.Burst, logger))

		r.Post("/unlock", gateHandler.Unlock)
		r.Get("/session", gateHandler.Session)
	})

	return r
}
