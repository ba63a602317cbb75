package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Partner      PartnerConfig
	Sync         SyncConfig
	Submit       SubmitConfig
	Reports      ReportsConfig
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
	Env          string `envconfig:"GMJC_APP_ENV" required:"true"`
	Port         string `envconfig:"GMJC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GMJC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GMJC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GMJC_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GMJC_DB_DSN"`
	Driver string `envconfig:"GMJC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GMJC_DB_HOST"`
	LegacyPort     int    `envconfig:"GMJC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GMJC_DB_USER"`
	LegacyPassword string `envconfig:"GMJC_DB_PASSWORD"`
	LegacyName     string `envconfig:"GMJC_DB_NAME"`
	LegacySSLMode  string `envconfig:"GMJC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GMJC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GMJC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GMJC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GMJC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GMJC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GMJC_REDIS_ADDR"`
	Password     string        `envconfig:"GMJC_REDIS_PASSWORD"`
	DB           int           `envconfig:"GMJC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GMJC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GMJC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GMJC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GMJC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GMJC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GMJC_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GMJC_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GMJC_JWT_EXPIRATION_MINUTES" default:"480"`
	SessionTTLMinutes int    `envconfig:"GMJC_SESSION_TTL_MINUTES" default:"720"`
}

// SessionTTL returns the server-side session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GMJC_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GMJC_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GMJC_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GMJC_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GMJC_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GMJC_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GMJC_AUTO_MIGRATE" default:"false"`
}

// PartnerConfig holds credentials and endpoints for the partner system.
type PartnerConfig struct {
	BaseURL    string        `envconfig:"GMJC_PARTNER_BASE_URL" required:"true"`
	AppID      string        `envconfig:"GMJC_PARTNER_APP_ID" required:"true"`
	Secret     string        `envconfig:"GMJC_PARTNER_SECRET" required:"true"`
	FetchPath  string        `envconfig:"GMJC_PARTNER_FETCH_PATH" default:"/admin/api/test/check/data"`
	SubmitPath string        `envconfig:"GMJC_PARTNER_SUBMIT_PATH" default:"/admin/api/test/check/feedback"`
	Timeout    time.Duration `envconfig:"GMJC_PARTNER_TIMEOUT" default:"30s"`
}

// SyncConfig tunes the reconciliation engine and its scheduler.
type SyncConfig struct {
	WindowStart        string        `envconfig:"GMJC_SYNC_WINDOW_START" default:"2025-01-01 00:00:00"`
	FetchLimit         int           `envconfig:"GMJC_SYNC_FETCH_LIMIT" default:"100"`
	Interval           time.Duration `envconfig:"GMJC_SYNC_INTERVAL" default:"10m"`
	AuditRetentionDays int           `envconfig:"GMJC_SYNC_AUDIT_RETENTION_DAYS" default:"90"`
}

// SubmitConfig tunes the submission engine retry policy.
type SubmitConfig struct {
	MaxAttempts int           `envconfig:"GMJC_SUBMIT_MAX_ATTEMPTS" default:"3"`
	BaseDelay   time.Duration `envconfig:"GMJC_SUBMIT_BASE_DELAY" default:"1s"`
}

// ReportsConfig locates the on-disk report artifact store.
type ReportsConfig struct {
	Dir         string `envconfig:"GMJC_REPORTS_DIR" default:"data/reports"`
	MaxUploadMB int    `envconfig:"GMJC_REPORTS_MAX_UPLOAD_MB" default:"20"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
