package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Operator   OperatorConfig
	Gateway    GatewayConfig
	Mail       MailConfig
	Kafka      KafkaConfig
	Cloudinary CloudinaryConfig
	Telemetry  TelemetryConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string // mysql | postgres
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	IntentTTL time.Duration
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// OperatorConfig is the single back-office account allowed to log in and receive an
// ADMIN token. Customer tokens are issued by the storefront's identity provider.
type OperatorConfig struct {
	Email        string
	PasswordHash string // bcrypt
	UserID       uint
}

// GatewayConfig configures the card payment gateway. SecretKey doubles as the webhook signing secret.
type GatewayConfig struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	Timeout     time.Duration
}

type MailConfig struct {
	BaseURL      string
	APIKey       string
	From         string
	OperatorAddr string
	Timeout      time.Duration
}

// KafkaConfig with no brokers falls back to log-only shortfall escalation.
type KafkaConfig struct {
	Brokers         []string
	EscalationTopic string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type TelemetryConfig struct {
	ServiceName  string
	OTLPEndpoint string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load returns development defaults overridden by PINVAULT_* environment variables
// and, when PINVAULT_CONFIG points at one, a config file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("PINVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("PINVAULT_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			Env:          v.GetString("server.env"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			DSN:             v.GetString("database.dsn"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Addr:      v.GetString("redis.addr"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			IntentTTL: v.GetDuration("redis.intent_ttl"),
		},
		JWT: JWTConfig{
			AccessSecret: v.GetString("jwt.access_secret"),
			AccessExpiry: v.GetDuration("jwt.access_expiry"),
			Issuer:       v.GetString("jwt.issuer"),
		},
		Operator: OperatorConfig{
			Email:        v.GetString("operator.email"),
			PasswordHash: v.GetString("operator.password_hash"),
			UserID:       v.GetUint("operator.user_id"),
		},
		Gateway: GatewayConfig{
			BaseURL:     v.GetString("gateway.base_url"),
			SecretKey:   v.GetString("gateway.secret_key"),
			CallbackURL: v.GetString("gateway.callback_url"),
			Timeout:     v.GetDuration("gateway.timeout"),
		},
		Mail: MailConfig{
			BaseURL:      v.GetString("mail.base_url"),
			APIKey:       v.GetString("mail.api_key"),
			From:         v.GetString("mail.from"),
			OperatorAddr: v.GetString("mail.operator_addr"),
			Timeout:      v.GetDuration("mail.timeout"),
		},
		Kafka: KafkaConfig{
			Brokers:         splitList(v.GetString("kafka.brokers")),
			EscalationTopic: v.GetString("kafka.escalation_topic"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: v.GetString("cloudinary.cloud_name"),
			APIKey:    v.GetString("cloudinary.api_key"),
			APISecret: v.GetString("cloudinary.api_secret"),
			Folder:    v.GetString("cloudinary.folder"),
		},
		Telemetry: TelemetryConfig{
			ServiceName:  v.GetString("telemetry.service_name"),
			OTLPEndpoint: v.GetString("telemetry.otlp_endpoint"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("ratelimit.rps"),
			Burst: v.GetInt("ratelimit.burst"),
		},
	}
	if cfg.Database.Driver != "mysql" && cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8099")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "pinvault:pinvault@tcp(localhost:3306)/pinvault?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.intent_ttl", time.Hour)

	v.SetDefault("jwt.access_secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", 15*time.Minute)
	v.SetDefault("jwt.issuer", "pinvault")

	v.SetDefault("operator.email", "")
	v.SetDefault("operator.password_hash", "")
	v.SetDefault("operator.user_id", 1)

	v.SetDefault("gateway.base_url", "https://api.paystack.co")
	v.SetDefault("gateway.secret_key", "")
	v.SetDefault("gateway.callback_url", "http://localhost:3000/checkout/complete")
	v.SetDefault("gateway.timeout", 30*time.Second)

	v.SetDefault("mail.base_url", "https://api.resend.com")
	v.SetDefault("mail.api_key", "")
	v.SetDefault("mail.from", "PinVault <cards@pinvault.local>")
	v.SetDefault("mail.operator_addr", "ops@pinvault.local")
	v.SetDefault("mail.timeout", 10*time.Second)

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.escalation_topic", "inventory.shortfall")

	v.SetDefault("cloudinary.cloud_name", "")
	v.SetDefault("cloudinary.api_key", "")
	v.SetDefault("cloudinary.api_secret", "")
	v.SetDefault("cloudinary.folder", "scratch-cards")

	v.SetDefault("telemetry.service_name", "pinvault")
	v.SetDefault("telemetry.otlp_endpoint", "")

	v.SetDefault("ratelimit.rps", 10)
	v.SetDefault("ratelimit.burst", 30)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
