package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/KatanaSword/chit-chat/internal/core/port"
	"github.com/KatanaSword/chit-chat/internal/infra/config"
	kafkainfra "github.com/KatanaSword/chit-chat/internal/infra/kafka"
	"github.com/KatanaSword/chit-chat/internal/infra/logger"
	mongoinfra "github.com/KatanaSword/chit-chat/internal/infra/mongo"
	"github.com/KatanaSword/chit-chat/internal/infra/security"
	"github.com/KatanaSword/chit-chat/internal/repository/mongodb"
	redisrepo "github.com/KatanaSword/chit-chat/internal/repository/redis"
	"github.com/KatanaSword/chit-chat/internal/transport/http/middleware"
	"github.com/KatanaSword/chit-chat/internal/transport/http/routes"
	"github.com/KatanaSword/chit-chat/internal/usecase"
)

// Application wires configuration, infrastructure, services, and the HTTP
// engine together.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	mongo    *mongoinfra.Client
	redis    *goredis.Client
	producer *kafkainfra.Producer
}

// New builds the application graph from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	mongoClient, err := mongoinfra.NewClient(ctx, cfg.Mongo, log)
	if err != nil {
		return nil, fmt.Errorf("init mongo: %w", err)
	}
	if err := mongoClient.EnsureIndexes(ctx); err != nil {
		_ = mongoClient.Close(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr(),
		DB:       cfg.Redis.DB,
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, rate limiting degrades open", zap.Error(err))
	}

	var (
		eventPublisher port.EventPublisher
		producer       *kafkainfra.Producer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	signer, err := security.NewTokenSigner(cfg.JWT)
	if err != nil {
		_ = mongoClient.Close(context.Background())
		return nil, fmt.Errorf("init token signer: %w", err)
	}
	secrets := security.NewSecretGenerator(cfg.Secrets)
	validator := security.DefaultPasswordValidator()

	bcryptCost := cfg.Password.BcryptCost
	if bcryptCost <= 0 {
		bcryptCost = security.DefaultBcryptCost
	}

	db := mongoClient.Database()
	users := mongodb.NewUserRepository(db)
	chats := mongodb.NewChatRepository(db)
	messages := mongodb.NewMessageRepository(db)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient, redisrepo.SlidingWindowConfig{
		KeyPrefix: "chitchat:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	metrics, err := middleware.NewHTTPMetrics(nil, "")
	if err != nil {
		_ = mongoClient.Close(context.Background())
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	// One lock set across every service mutating identity records, so a
	// password reset and a concurrent refresh cannot interleave.
	identityLocks := usecase.NewIdentityLocks()

	authService := usecase.NewAuthService(users, signer, identityLocks)
	registrationService := usecase.NewRegistrationService(users, validator, eventPublisher, bcryptCost)
	verificationService := usecase.NewVerificationService(users, secrets, eventPublisher, identityLocks, log)
	passwordResetService := usecase.NewPasswordResetService(users, secrets, validator, eventPublisher, identityLocks, log, bcryptCost)
	profileService := usecase.NewProfileService(users)
	chatService := usecase.NewChatService(chats, messages, users, eventPublisher)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Database:    mongoClient,
		Metrics:     metrics,
		Services: routes.ServiceSet{
			Auth:          authService,
			Registration:  registrationService,
			Verification:  verificationService,
			PasswordReset: passwordResetService,
			Profile:       profileService,
			Chats:         chatService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		mongo:    mongoClient,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.mongo != nil {
			_ = a.mongo.Close(context.Background())
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting chit-chat API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
