package config

const (
	EnvPrefix = "MULTIMART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MULTIMART_DB_DSN"
	EnvDBHost = "MULTIMART_DB_HOST"
	EnvDBUser = "MULTIMART_DB_USER"
	EnvDBName = "MULTIMART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
