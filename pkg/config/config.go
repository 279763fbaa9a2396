package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "mealora"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Fees         FeeConfig
	Routing      RoutingConfig
	Dispatch     DispatchConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MEALORA_APP_ENV" required:"true"`
	Port         string `envconfig:"MEALORA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MEALORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEALORA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MEALORA_DB_DSN"`
	Driver string `envconfig:"MEALORA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MEALORA_DB_HOST"`
	Port     int    `envconfig:"MEALORA_DB_PORT" default:"5432"`
	User     string `envconfig:"MEALORA_DB_USER"`
	Password string `envconfig:"MEALORA_DB_PASSWORD"`
	Name     string `envconfig:"MEALORA_DB_NAME"`
	SSLMode  string `envconfig:"MEALORA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEALORA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEALORA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEALORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEALORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEALORA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MEALORA_REDIS_ADDR"`
	Password     string        `envconfig:"MEALORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEALORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEALORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEALORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEALORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEALORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEALORA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MEALORA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MEALORA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MEALORA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// FeeConfig carries the per-vehicle delivery fee rate table, in cents.
// Maps are keyed by vehicle capability (car, motor, bicycle).
type FeeConfig struct {
	BaseCents  map[string]int64 `envconfig:"MEALORA_FEE_BASE_CENTS" default:"car:500,motor:400,bicycle:300"`
	PerKmCents map[string]int64 `envconfig:"MEALORA_FEE_PER_KM_CENTS" default:"car:120,motor:90,bicycle:60"`
}

type RoutingConfig struct {
	BaseURL string        `envconfig:"MEALORA_ROUTING_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"MEALORA_ROUTING_TIMEOUT" default:"30s"`
}

type DispatchConfig struct {
	CodeLength      int `envconfig:"MEALORA_DISPATCH_CODE_LENGTH" default:"6"`
	CodeMaxAttempts int `envconfig:"MEALORA_DISPATCH_CODE_MAX_ATTEMPTS" default:"5"`
}

type RateLimitConfig struct {
	ClaimWindow time.Duration `envconfig:"MEALORA_RATE_LIMIT_CLAIM_WINDOW" default:"10s"`
	ClaimLimit  int           `envconfig:"MEALORA_RATE_LIMIT_CLAIM_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MEALORA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MEALORA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		"MEALORA_DB_HOST": db.Host,
		"MEALORA_DB_USER": db.User,
		"MEALORA_DB_NAME": db.Name,
	}
	for _, key := range []string{"MEALORA_DB_HOST", "MEALORA_DB_USER", "MEALORA_DB_NAME"} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either MEALORA_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
