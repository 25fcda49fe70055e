package config

const (
	EnvPrefix = "CAFEHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv            = "CAFEHOP_APP_ENV"
	EnvPort              = "CAFEHOP_APP_PORT"
	EnvDBDSN             = "CAFEHOP_DB_DSN"
	EnvDBDriver          = "CAFEHOP_DB_DRIVER"
	EnvDBHost            = "CAFEHOP_DB_HOST"
	EnvDBUser            = "CAFEHOP_DB_USER"
	EnvDBName            = "CAFEHOP_DB_NAME"
	EnvRedisURL          = "CAFEHOP_REDIS_URL"
	EnvOrderTaxRate      = "CAFEHOP_ORDER_TAX_RATE"
	EnvDiscoveryTimezone = "CAFEHOP_DISCOVERY_TIMEZONE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
