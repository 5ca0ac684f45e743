package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig aggregates every tunable the service reads at startup. The
// structs are threaded explicitly into constructors; nothing reads the
// environment after Load returns.
type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Mongo     MongoSettings     `mapstructure:"mongo"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	Secrets   SecretSettings    `mapstructure:"secrets"`
	Password  PasswordSettings  `mapstructure:"password"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	CORS      CORSSettings      `mapstructure:"cors"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MongoSettings configures the MongoDB connection.
type MongoSettings struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// RedisSettings configures the Redis connection backing rate limiting.
type RedisSettings struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// Addr returns the host:port pair for the Redis client.
func (s RedisSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// KafkaSettings configures the event producer. An empty broker list makes
// the service fall back to the stub publisher.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

// JWTSettings holds the symmetric signing secrets and lifetimes, one secret
// per token kind.
type JWTSettings struct {
	Issuer          string        `mapstructure:"issuer"`
	AccessSecret    string        `mapstructure:"access_secret"`
	RefreshSecret   string        `mapstructure:"refresh_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// SecretSettings holds lifetimes for single-use verification artifacts.
type SecretSettings struct {
	VerificationTokenTTL time.Duration `mapstructure:"verification_token_ttl"`
	OTPTTL               time.Duration `mapstructure:"otp_ttl"`
}

// PasswordSettings configures credential hashing.
type PasswordSettings struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// RateLimitSettings configures sliding-window limits per endpoint group.
type RateLimitSettings struct {
	WindowDuration           time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts         int           `mapstructure:"login_max_attempts"`
	RegisterMaxAttempts      int           `mapstructure:"register_max_attempts"`
	RefreshMaxAttempts       int           `mapstructure:"refresh_max_attempts"`
	PasswordResetMaxAttempts int           `mapstructure:"password_reset_max_attempts"`
}

// CORSSettings configures cross-origin access for browser clients. A "*"
// entry in the origin list admits every origin without credentials.
type CORSSettings struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

// ErrMissingSigningSecret indicates a JWT secret was not provided. This is
// the one startup failure treated as fatal.
var ErrMissingSigningSecret = errors.New("config: jwt signing secret is required")

// Load reads configuration from the environment with defaults applied.
func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CHITCHAT")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"mongo.uri",
		"mongo.database",
		"mongo.connect_timeout",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"kafka.brokers",
		"kafka.topic_prefix",
		"jwt.issuer",
		"jwt.access_secret",
		"jwt.refresh_secret",
		"jwt.access_token_ttl",
		"jwt.refresh_token_ttl",
		"secrets.verification_token_ttl",
		"secrets.otp_ttl",
		"password.bcrypt_cost",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"rate_limit.register_max_attempts",
		"rate_limit.refresh_max_attempts",
		"rate_limit.password_reset_max_attempts",
		"cors.allowed_origins",
		"cors.allow_credentials",
		"cors.max_age",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the invariants the rest of the service assumes.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.JWT.AccessSecret) == "" {
		return fmt.Errorf("%w: access", ErrMissingSigningSecret)
	}
	if strings.TrimSpace(c.JWT.RefreshSecret) == "" {
		return fmt.Errorf("%w: refresh", ErrMissingSigningSecret)
	}
	if c.JWT.RefreshTokenTTL <= c.JWT.AccessTokenTTL {
		return fmt.Errorf("config: refresh token ttl %s must exceed access token ttl %s",
			c.JWT.RefreshTokenTTL, c.JWT.AccessTokenTTL)
	}
	if c.Secrets.OTPTTL > c.Secrets.VerificationTokenTTL {
		return fmt.Errorf("config: otp ttl %s must not exceed verification token ttl %s",
			c.Secrets.OTPTTL, c.Secrets.VerificationTokenTTL)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "chit-chat")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 3500)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "chitchat")
	v.SetDefault("mongo.connect_timeout", "10s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "chitchat")

	v.SetDefault("jwt.issuer", "chit-chat")
	v.SetDefault("jwt.access_token_ttl", "1h")
	v.SetDefault("jwt.refresh_token_ttl", "240h")

	v.SetDefault("secrets.verification_token_ttl", "20m")
	v.SetDefault("secrets.otp_ttl", "10m")

	v.SetDefault("password.bcrypt_cost", 10)

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 5)
	v.SetDefault("rate_limit.register_max_attempts", 3)
	v.SetDefault("rate_limit.refresh_max_attempts", 10)
	v.SetDefault("rate_limit.password_reset_max_attempts", 3)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", "12h")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}
