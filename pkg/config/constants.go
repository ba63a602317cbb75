package config

// EnvPrefix is passed to envconfig; variable names are fully qualified in
// struct tags so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "GMJC_DB_DSN"
	EnvDBHost = "GMJC_DB_HOST"
	EnvDBUser = "GMJC_DB_USER"
	EnvDBName = "GMJC_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
