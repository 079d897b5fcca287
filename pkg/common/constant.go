package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyIOTConfigFile string = "IOT_CONFIG_FILE"

	EnvKeyIOTDBType string = "IOT_DB_TYPE"
	EnvKeyIOTDbPath string = "IOT_DB_PATH"
	EnvKeyIOTDbURL  string = "IOT_DB_URL"

	EnvKeyIOTHttpHostPort string = "IOT_HTTP_HOST_PORT"
	EnvKeyIOTGrpcHostPort string = "IOT_GRPC_HOST_PORT"

	EnvKeyIOTLogDir string = "IOT_LOG_DIR"

	EnvKeyIOTCredentialPepper string = "IOT_CREDENTIAL_PEPPER"
	EnvKeyIOTCredentialTTL    string = "IOT_CREDENTIAL_TTL"

	EnvKeyIOTJwtSecret string = "IOT_JWT_SECRET"
	EnvKeyIOTJwtTTL    string = "IOT_JWT_TTL"

	EnvKeyIOTRateLogin          string = "IOT_RATE_LOGIN"
	EnvKeyIOTRateRegister       string = "IOT_RATE_REGISTER"
	EnvKeyIOTRateDeviceRegister string = "IOT_RATE_DEVICE_REGISTER"
	EnvKeyIOTRateTelemetry      string = "IOT_RATE_TELEMETRY"
	EnvKeyIOTRateKeyRotation    string = "IOT_RATE_KEY_ROTATION"

	EnvKeyIOTRedisAddr string = "IOT_REDIS_ADDR"

	EnvKeyIOTSmtpHost     string = "IOT_SMTP_HOST"
	EnvKeyIOTSmtpPort     string = "IOT_SMTP_PORT"
	EnvKeyIOTSmtpUsername string = "IOT_SMTP_USERNAME"
	EnvKeyIOTSmtpPassword string = "IOT_SMTP_PASSWORD"
	EnvKeyIOTSmtpFrom     string = "IOT_SMTP_FROM"

	EnvKeyIOTRecomputeInterval string = "IOT_RECOMPUTE_INTERVAL"
	EnvKeyIOTAlertWorkers      string = "IOT_ALERT_WORKERS"

	LoggerNameIOTCore       string = "iot_core"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameGrpcServer    string = "grpc_server"
	LoggerNameMail          string = "mail"
	LoggerNameDB            string = "db"
	LoggerFieldIOTCategory  string = "category"

	LoggerCategoryIOTCredential string = "credential"
	LoggerCategoryIOTAuth       string = "auth"
	LoggerCategoryIOTIngest     string = "ingest"
	LoggerCategoryIOTStorage    string = "storage"
	LoggerCategoryIOTAlert      string = "alert"
	LoggerCategoryIOTDevice     string = "device"
	LoggerCategoryIOTAccount    string = "account"
	LoggerCategoryIOTLimiter    string = "limiter"
)
