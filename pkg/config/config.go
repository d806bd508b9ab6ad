package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable read by the backend.
	EnvPrefix = "KOOR"

	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	OTP           OTPConfig
	AuthRateLimit AuthRateLimitConfig
	SMTP          SMTPConfig
	Media         MediaConfig
	Chat          ChatConfig
	CORS          CORSConfig
	Pagination    PaginationConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"KOOR_APP_ENV" required:"true"`
	Port         string `envconfig:"KOOR_APP_PORT" default:"8000"`
	LogLevel     string `envconfig:"KOOR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KOOR_LOG_WARN_STACK" default:"false"`
	FrontendURL  string `envconfig:"KOOR_FRONTEND_BASE_URL" default:"https://koor.one"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KOOR_DB_DSN"`
	Driver string `envconfig:"KOOR_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"KOOR_DB_HOST"`
	Port     int    `envconfig:"KOOR_DB_PORT" default:"5432"`
	User     string `envconfig:"KOOR_DB_USER"`
	Password string `envconfig:"KOOR_DB_PASSWORD"`
	Name     string `envconfig:"KOOR_DB_NAME"`
	SSLMode  string `envconfig:"KOOR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KOOR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KOOR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KOOR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KOOR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KOOR_REDIS_URL"`
	Address      string        `envconfig:"KOOR_REDIS_ADDR"`
	Password     string        `envconfig:"KOOR_REDIS_PASSWORD"`
	DB           int           `envconfig:"KOOR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KOOR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KOOR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KOOR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KOOR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KOOR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"KOOR_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"KOOR_JWT_ISSUER" default:"koor"`
	AccessTokenTTLMinutes  int    `envconfig:"KOOR_JWT_ACCESS_TTL_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"KOOR_JWT_REFRESH_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.AccessTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KOOR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KOOR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KOOR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KOOR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KOOR_ARGON_KEY_LEN" default:"32"`
}

type OTPConfig struct {
	FreshnessWindow time.Duration `envconfig:"KOOR_OTP_FRESHNESS_WINDOW" default:"5m"`
	RequestWindow   time.Duration `envconfig:"KOOR_OTP_REQUEST_WINDOW" default:"1m"`
	RequestLimit    int           `envconfig:"KOOR_OTP_REQUEST_LIMIT" default:"3"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"KOOR_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentityLimit int           `envconfig:"KOOR_AUTH_RATE_LIMIT_LOGIN_IDENTITY_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"KOOR_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"KOOR_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterLimit      int           `envconfig:"KOOR_AUTH_RATE_LIMIT_REGISTER_LIMIT" default:"20"`
}

type SMTPConfig struct {
	Host     string `envconfig:"KOOR_SMTP_HOST"`
	Port     int    `envconfig:"KOOR_SMTP_PORT" default:"587"`
	User     string `envconfig:"KOOR_SMTP_USER"`
	Password string `envconfig:"KOOR_SMTP_PASSWORD"`
	From     string `envconfig:"KOOR_SMTP_FROM"`
	UseTLS   bool   `envconfig:"KOOR_SMTP_USE_TLS" default:"true"`
	PoolSize int    `envconfig:"KOOR_SMTP_POOL_SIZE" default:"4"`
}

type MediaConfig struct {
	MaxUploadMB   int    `envconfig:"KOOR_MAX_UPLOAD_MB" default:"25"`
	StoragePrefix string `envconfig:"KOOR_MEDIA_STORAGE_PREFIX" default:"/var/lib/koor/media"`
}

type ChatConfig struct {
	SendQueueSize  int           `envconfig:"KOOR_CHAT_SEND_QUEUE_SIZE" default:"64"`
	WriteTimeout   time.Duration `envconfig:"KOOR_CHAT_WRITE_TIMEOUT" default:"10s"`
	PongTimeout    time.Duration `envconfig:"KOOR_CHAT_PONG_TIMEOUT" default:"60s"`
	MaxMessageSize int64         `envconfig:"KOOR_CHAT_MAX_MESSAGE_SIZE" default:"65536"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"KOOR_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type PaginationConfig struct {
	DefaultPageSize int `envconfig:"KOOR_DEFAULT_PAGE_SIZE" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KOOR_AUTO_MIGRATE" default:"false"`
	UseSQLite   bool `envconfig:"KOOR_USE_SQLITE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		"KOOR_DB_HOST": db.Host,
		"KOOR_DB_USER": db.User,
		"KOOR_DB_NAME": db.Name,
	}
	for _, env := range []string{"KOOR_DB_HOST", "KOOR_DB_USER", "KOOR_DB_NAME"} {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either KOOR_DB_DSN or %s are required", strings.Join(missing, ", "))
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
