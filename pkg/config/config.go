package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Email         EmailConfig
	PasswordReset PasswordResetConfig
	Notifications NotificationsConfig
	Checkout      CheckoutConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Notifications.validate(cfg.GCP, cfg.PubSub); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PHARMACY_APP_ENV" required:"true"`
	Port         string `envconfig:"PHARMACY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PHARMACY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PHARMACY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PHARMACY_DB_DSN"`
	Driver string `envconfig:"PHARMACY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PHARMACY_DB_HOST"`
	LegacyPort     int    `envconfig:"PHARMACY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PHARMACY_DB_USER"`
	LegacyPassword string `envconfig:"PHARMACY_DB_PASSWORD"`
	LegacyName     string `envconfig:"PHARMACY_DB_NAME"`
	LegacySSLMode  string `envconfig:"PHARMACY_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"PHARMACY_SQLITE_PATH" default:"pharmacy.db"`

	MaxOpenConns    int           `envconfig:"PHARMACY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PHARMACY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PHARMACY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PHARMACY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PHARMACY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PHARMACY_REDIS_ADDR"`
	Password     string        `envconfig:"PHARMACY_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHARMACY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHARMACY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHARMACY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHARMACY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHARMACY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHARMACY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PHARMACY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PHARMACY_JWT_ISSUER" default:"alameen-pharmacy"`
	ExpirationMinutes      int    `envconfig:"PHARMACY_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"PHARMACY_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PHARMACY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PHARMACY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PHARMACY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PHARMACY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PHARMACY_ARGON_KEY_LEN" default:"32"`
	MinLength        int `envconfig:"PHARMACY_PASSWORD_MIN_LENGTH" default:"8"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PHARMACY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PHARMACY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PHARMACY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PHARMACY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PHARMACY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PHARMACY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ResetWindow        time.Duration `envconfig:"PHARMACY_AUTH_RATE_LIMIT_RESET_WINDOW" default:"15m"`
	ResetEmailLimit    int           `envconfig:"PHARMACY_AUTH_RATE_LIMIT_RESET_EMAIL_LIMIT" default:"3"`
	ResetIPLimit       int           `envconfig:"PHARMACY_AUTH_RATE_LIMIT_RESET_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PHARMACY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PHARMACY_AUTO_MIGRATE" default:"false"`
}

type EmailConfig struct {
	SendgridAPIKey string `envconfig:"PHARMACY_SENDGRID_API_KEY"`
	FromAddress    string `envconfig:"PHARMACY_EMAIL_FROM" default:"noreply@alameenpharmacy.ae"`
	FromName       string `envconfig:"PHARMACY_EMAIL_FROM_NAME" default:"Al Ameen Pharmacy"`
	FrontendURL    string `envconfig:"PHARMACY_FRONTEND_URL" default:"http://localhost:3000"`
}

// Enabled reports whether an ESP key is configured; without one emails are only logged.
func (e EmailConfig) Enabled() bool {
	return strings.TrimSpace(e.SendgridAPIKey) != ""
}

type PasswordResetConfig struct {
	TTL        time.Duration `envconfig:"PHARMACY_PASSWORD_RESET_TTL" default:"1h"`
	TokenBytes int           `envconfig:"PHARMACY_PASSWORD_RESET_TOKEN_BYTES" default:"32"`
}

const (
	NotificationTransportInline = "inline"
	NotificationTransportPubSub = "pubsub"
)

type NotificationsConfig struct {
	Transport   string        `envconfig:"PHARMACY_NOTIFICATIONS_TRANSPORT" default:"inline"`
	SendTimeout time.Duration `envconfig:"PHARMACY_NOTIFICATIONS_SEND_TIMEOUT" default:"10s"`
}

// UsesPubSub reports whether notifications are queued on Pub/Sub instead of sent in-process.
func (n NotificationsConfig) UsesPubSub() bool {
	return strings.EqualFold(strings.TrimSpace(n.Transport), NotificationTransportPubSub)
}

func (n NotificationsConfig) validate(gcp GCPConfig, ps PubSubConfig) error {
	transport := strings.ToLower(strings.TrimSpace(n.Transport))
	switch transport {
	case NotificationTransportInline:
		return nil
	case NotificationTransportPubSub:
		if strings.TrimSpace(gcp.ProjectID) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvGCPProjectID, EnvNotificationsTransport, NotificationTransportPubSub)
		}
		if strings.TrimSpace(ps.NotificationTopic) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvPubSubNotificationTopic, EnvNotificationsTransport, NotificationTransportPubSub)
		}
		return nil
	default:
		return fmt.Errorf("invalid %s %q", EnvNotificationsTransport, n.Transport)
	}
}

type CheckoutConfig struct {
	IdempotencyTTL time.Duration `envconfig:"PHARMACY_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"PHARMACY_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"PHARMACY_PUBSUB_NOTIFICATION_TOPIC" default:"pharmacy-notifications"`
	NotificationSubscription string `envconfig:"PHARMACY_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"pharmacy-notifications-email"`
}

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

// IsSQLite reports whether the local sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || db.IsSQLite() {
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
