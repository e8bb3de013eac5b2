package config

// EnvPrefix scopes every environment variable the service reads.
const EnvPrefix = "STOCKROOM"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv  = "STOCKROOM_APP_ENV"
	EnvAppPort = "STOCKROOM_APP_PORT"

	EnvDBDSN  = "STOCKROOM_DB_DSN"
	EnvDBHost = "STOCKROOM_DB_HOST"
	EnvDBUser = "STOCKROOM_DB_USER"
	EnvDBName = "STOCKROOM_DB_NAME"

	EnvRedisURL = "STOCKROOM_REDIS_URL"
)

var fallbackDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
