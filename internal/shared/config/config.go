package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Gateway providers.
const (
	ProviderChapa  = "chapa"
	ProviderStripe = "stripe"
)

// Messaging drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverNATS   = "nats"
	DriverKafka  = "kafka"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	HTTPClient   HTTPClientConfig   `mapstructure:"http_client"`
	Gateway      GatewayConfig      `mapstructure:"gateway"`
	Payment      PaymentConfig      `mapstructure:"payment"`
	Messaging    MessagingConfig    `mapstructure:"messaging"`
	Notification NotificationConfig `mapstructure:"notification"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Reconcile    ReconcileConfig    `mapstructure:"reconcile"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Log          LogConfig          `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	IdempotencyTTL  time.Duration `mapstructure:"idempotency_ttl"`
	RateLimit       int           `mapstructure:"rate_limit"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Database, c.SSLMode,
	)
	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}
	return dsn
}

// RedisConfig holds Redis configuration. An empty address disables Redis.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis address is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Address != ""
}

// HTTPClientConfig holds outbound HTTP client pool settings.
type HTTPClientConfig struct {
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	ResponseTimeout     time.Duration `mapstructure:"response_timeout"`
	KeepAlive           time.Duration `mapstructure:"keep_alive"`
}

// GatewayConfig holds payment gateway configuration.
type GatewayConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Currency string        `mapstructure:"currency"`
	Chapa    ChapaConfig   `mapstructure:"chapa"`
	Stripe   StripeConfig  `mapstructure:"stripe"`
	Breaker  BreakerConfig `mapstructure:"breaker"`
}

// ChapaConfig holds Chapa credentials and URLs.
type ChapaConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	SecretKey   string `mapstructure:"secret_key"`
	CallbackURL string `mapstructure:"callback_url"`
	ReturnURL   string `mapstructure:"return_url"`
}

// StripeConfig holds Stripe Checkout configuration.
type StripeConfig struct {
	SecretKey  string `mapstructure:"secret_key"`
	SuccessURL string `mapstructure:"success_url"`
	CancelURL  string `mapstructure:"cancel_url"`
}

// BreakerConfig holds gateway circuit breaker settings.
type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	HalfOpenMax uint32        `mapstructure:"half_open_max"`
}

// PaymentConfig holds payment lifecycle settings.
type PaymentConfig struct {
	CheckoutTitle string        `mapstructure:"checkout_title"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
}

// MessagingConfig selects and configures the message queue.
type MessagingConfig struct {
	Driver            string      `mapstructure:"driver"`
	NotificationTopic string      `mapstructure:"notification_topic"`
	StateTopic        string      `mapstructure:"state_topic"`
	MemoryBuffer      int         `mapstructure:"memory_buffer"`
	NATS              NATSConfig  `mapstructure:"nats"`
	Kafka             KafkaConfig `mapstructure:"kafka"`
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL        string `mapstructure:"url"`
	QueueGroup string `mapstructure:"queue_group"`
}

// KafkaConfig holds Kafka connection settings.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
}

// NotificationConfig holds notification worker settings.
type NotificationConfig struct {
	Workers int         `mapstructure:"workers"`
	Email   EmailConfig `mapstructure:"email"`
}

// EmailConfig holds SMTP settings. An empty host logs emails instead of sending them.
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	Issuer            string        `mapstructure:"issuer"`
	AccessTokenExpiry time.Duration `mapstructure:"access_token_expiry"`
}

// ReconcileConfig holds pending payment reconciliation settings.
type ReconcileConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	MinAge    time.Duration `mapstructure:"min_age"`
	BatchSize int           `mapstructure:"batch_size"`
}

// TelemetryConfig holds tracing configuration.
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowOrigins     []string      `mapstructure:"allow_origins"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from an optional .env file, a config file and the
// environment. An empty configFile searches the default locations.
func Load(configFile string) (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/alxtravel")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("ALXTRAVEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applySecretOverrides(&cfg)
	return &cfg, nil
}

// applySecretOverrides reads well-known secret variables without the ALXTRAVEL prefix.
func applySecretOverrides(cfg *Config) {
	if key := os.Getenv("CHAPA_SECRET_KEY"); key != "" {
		cfg.Gateway.Chapa.SecretKey = key
	}
	if key := os.Getenv("STRIPE_SECRET_KEY"); key != "" {
		cfg.Gateway.Stripe.SecretKey = key
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if password := os.Getenv("DATABASE_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("SMTP_PASSWORD"); password != "" {
		cfg.Notification.Email.Password = password
	}
}

// Validate checks settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error

	switch c.Gateway.Provider {
	case ProviderChapa:
		if c.Gateway.Chapa.SecretKey == "" {
			errs = append(errs, errors.New("gateway.chapa.secret_key is required"))
		}
	case ProviderStripe:
		if c.Gateway.Stripe.SecretKey == "" {
			errs = append(errs, errors.New("gateway.stripe.secret_key is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown gateway.provider %q", c.Gateway.Provider))
	}
	if c.Gateway.Timeout <= 0 {
		errs = append(errs, errors.New("gateway.timeout must be positive"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}

	switch c.Messaging.Driver {
	case DriverMemory:
	case DriverRedis:
		if !c.Redis.Enabled() {
			errs = append(errs, errors.New("messaging.driver redis requires redis.address"))
		}
	case DriverNATS:
		if c.Messaging.NATS.URL == "" {
			errs = append(errs, errors.New("messaging.nats.url is required"))
		}
	case DriverKafka:
		if len(c.Messaging.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("messaging.kafka.brokers is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown messaging.driver %q", c.Messaging.Driver))
	}

	return errors.Join(errs...)
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.idempotency_ttl", 24*time.Hour)
	v.SetDefault("server.rate_limit", 30)
	v.SetDefault("server.rate_limit_window", time.Minute)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "alxtravel")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)

	// Redis defaults
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// HTTP client defaults
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 10)
	v.SetDefault("http_client.max_conns_per_host", 50)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.dial_timeout", 10*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 10*time.Second)
	v.SetDefault("http_client.response_timeout", 0)
	v.SetDefault("http_client.keep_alive", 30*time.Second)

	// Gateway defaults
	v.SetDefault("gateway.provider", ProviderChapa)
	v.SetDefault("gateway.timeout", 15*time.Second)
	v.SetDefault("gateway.currency", "ETB")
	v.SetDefault("gateway.chapa.base_url", "https://api.chapa.co/v1")
	v.SetDefault("gateway.chapa.secret_key", "")
	v.SetDefault("gateway.chapa.callback_url", "")
	v.SetDefault("gateway.chapa.return_url", "")
	v.SetDefault("gateway.stripe.secret_key", "")
	v.SetDefault("gateway.stripe.success_url", "")
	v.SetDefault("gateway.stripe.cancel_url", "")
	v.SetDefault("gateway.breaker.max_failures", 5)
	v.SetDefault("gateway.breaker.open_timeout", 30*time.Second)
	v.SetDefault("gateway.breaker.half_open_max", 1)

	// Payment defaults
	v.SetDefault("payment.checkout_title", "Booking Payment")
	v.SetDefault("payment.lock_ttl", 30*time.Second)

	// Messaging defaults
	v.SetDefault("messaging.driver", DriverMemory)
	v.SetDefault("messaging.notification_topic", "payment.notifications")
	v.SetDefault("messaging.state_topic", "payment.state.changed")
	v.SetDefault("messaging.memory_buffer", 1024)
	v.SetDefault("messaging.nats.url", "")
	v.SetDefault("messaging.nats.queue_group", "alxtravel-payments")
	v.SetDefault("messaging.kafka.brokers", []string{})
	v.SetDefault("messaging.kafka.group_id", "alxtravel-payments")

	// Notification defaults
	v.SetDefault("notification.workers", 2)
	v.SetDefault("notification.email.host", "")
	v.SetDefault("notification.email.port", 465)
	v.SetDefault("notification.email.username", "")
	v.SetDefault("notification.email.password", "")
	v.SetDefault("notification.email.from", "")

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "alxtravel")
	v.SetDefault("auth.access_token_expiry", time.Hour)

	// Reconcile defaults
	v.SetDefault("reconcile.enabled", true)
	v.SetDefault("reconcile.interval", 5*time.Minute)
	v.SetDefault("reconcile.min_age", 2*time.Minute)
	v.SetDefault("reconcile.batch_size", 50)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "alxtravel-payments")
	v.SetDefault("telemetry.endpoint", "localhost:4318")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_ratio", 1.0)

	// CORS defaults
	v.SetDefault("cors.allow_origins", []string{"*"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 12*time.Hour)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
