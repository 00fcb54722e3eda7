package config

// EnvPrefix is the envconfig prefix shared by every service binary.
const EnvPrefix = "PHARMACY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "PHARMACY_APP_ENV"
	EnvPort     = "PHARMACY_APP_PORT"
	EnvLogLevel = "PHARMACY_LOG_LEVEL"

	EnvDBDSN  = "PHARMACY_DB_DSN"
	EnvDBHost = "PHARMACY_DB_HOST"
	EnvDBUser = "PHARMACY_DB_USER"
	EnvDBName = "PHARMACY_DB_NAME"

	EnvRedisURL = "PHARMACY_REDIS_URL"

	EnvJWTSecret              = "PHARMACY_JWT_SECRET"
	EnvJWTIssuer              = "PHARMACY_JWT_ISSUER"
	EnvJWTExpMins             = "PHARMACY_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "PHARMACY_REFRESH_TOKEN_TTL_MINUTES"

	EnvSendgridAPIKey = "PHARMACY_SENDGRID_API_KEY"
	EnvEmailFrom      = "PHARMACY_EMAIL_FROM"
	EnvFrontendURL    = "PHARMACY_FRONTEND_URL"

	EnvPasswordResetTTL = "PHARMACY_PASSWORD_RESET_TTL"

	EnvNotificationsTransport = "PHARMACY_NOTIFICATIONS_TRANSPORT"

	EnvGCPProjectID            = "PHARMACY_GCP_PROJECT_ID"
	EnvPubSubNotificationTopic = "PHARMACY_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "PHARMACY_PUBSUB_NOTIFICATION_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
