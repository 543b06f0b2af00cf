package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "DEALER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "DEALER_DB_DSN"
	EnvDBHost = "DEALER_DB_HOST"
	EnvDBUser = "DEALER_DB_USER"
	EnvDBName = "DEALER_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Identity     IdentityConfig
	RequestStore RequestStoreConfig
	CORS         CORSConfig
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
	Env          string `envconfig:"DEALER_APP_ENV" required:"true"`
	Port         string `envconfig:"DEALER_APP_PORT" default:"8083"`
	LogLevel     string `envconfig:"DEALER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DEALER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DEALER_DB_DSN"`
	Driver string `envconfig:"DEALER_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"DEALER_DB_HOST"`
	Port     int    `envconfig:"DEALER_DB_PORT" default:"5432"`
	User     string `envconfig:"DEALER_DB_USER"`
	Password string `envconfig:"DEALER_DB_PASSWORD"`
	Name     string `envconfig:"DEALER_DB_NAME"`
	SSLMode  string `envconfig:"DEALER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DEALER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DEALER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DEALER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DEALER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DEALER_REDIS_URL"`
	Address      string        `envconfig:"DEALER_REDIS_ADDR"`
	Password     string        `envconfig:"DEALER_REDIS_PASSWORD"`
	DB           int           `envconfig:"DEALER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DEALER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DEALER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DEALER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DEALER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DEALER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// IdentityConfig points at the external auth service that verifies bearer
// tokens. A verify failure of any kind is treated as unauthenticated.
type IdentityConfig struct {
	BaseURL        string        `envconfig:"DEALER_AUTH_SERVICE_URL" required:"true"`
	Timeout        time.Duration `envconfig:"DEALER_AUTH_VERIFY_TIMEOUT" default:"5s"`
	VerifyCacheTTL time.Duration `envconfig:"DEALER_AUTH_VERIFY_CACHE_TTL" default:"30s"`
}

// RequestStoreConfig points at the user service that owns the pickup-request
// catalog and its status field.
type RequestStoreConfig struct {
	BaseURL string        `envconfig:"DEALER_USER_SERVICE_URL" required:"true"`
	Timeout time.Duration `envconfig:"DEALER_USER_SERVICE_TIMEOUT" default:"5s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"DEALER_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
