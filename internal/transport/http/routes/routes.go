package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/KatanaSword/chit-chat/internal/infra/config"
	"github.com/KatanaSword/chit-chat/internal/transport/http/handlers"
	"github.com/KatanaSword/chit-chat/internal/transport/http/middleware"
	"github.com/KatanaSword/chit-chat/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Registration  *usecase.RegistrationService
	Verification  *usecase.VerificationService
	PasswordReset *usecase.PasswordResetService
	Profile       *usecase.ProfileService
	Chats         *usecase.ChatService
}

// DatabaseChecker exposes readiness behaviour for the backing store.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Database    DatabaseChecker
	Metrics     *middleware.HTTPMetrics
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Config != nil {
		r.Use(middleware.CORS(deps.Config.CORS))
	}
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthHandler := handlers.NewHealthHandler(deps.Database)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var limits config.RateLimitSettings
	if deps.Config != nil {
		limits = deps.Config.RateLimit
	}

	api := r.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.Registration, deps.Services.Verification)
		authHandler.RegisterRoutes(api.Group("/auth"),
			rateLimit(deps, "auth_register_ip", limits.RegisterMaxAttempts),
			rateLimit(deps, "auth_login_ip", limits.LoginMaxAttempts),
			rateLimit(deps, "auth_refresh_ip", limits.RefreshMaxAttempts))

		verificationHandler := handlers.NewVerificationHandler(deps.Services.Auth, deps.Services.Verification)
		verificationHandler.RegisterRoutes(api.Group("/verification"))

		passwordHandler := handlers.NewPasswordHandler(deps.Services.Auth, deps.Services.PasswordReset)
		passwordHandler.RegisterRoutes(api.Group("/password"),
			rateLimit(deps, "password_reset_ip", limits.PasswordResetMaxAttempts))

		userHandler := handlers.NewUserHandler(deps.Services.Auth, deps.Services.Profile)
		userHandler.RegisterRoutes(api.Group("/users"))

		chatHandler := handlers.NewChatHandler(deps.Services.Auth, deps.Services.Chats)
		chatHandler.RegisterRoutes(api.Group("/chats"))
	}

	return r
}

func rateLimit(deps Dependencies, name string, limit int) gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	return deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	})
}
