package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

// Config stores runtime configuration for the onboarding API.
type Config struct {
	AppEnv                      string
	ServiceName                 string
	ServiceVersion              string
	HTTPAddr                    string
	PublicBaseURL               string
	DBURL                       string
	DBDisablePreparedBinary     bool
	CacheEnabled                bool
	CacheTTL                    time.Duration
	CORSAllowedOrigins          []string
	ReadTimeout                 time.Duration
	WriteTimeout                time.Duration
	PprofEnabled                bool
	PprofAddr                   string
	SwaggerEnabled              bool
	AnubisBaseURL               string
	AnubisIntrospectURL         string
	AnubisAdminKey              string
	AnubisTimeout               time.Duration
	AnubisPrincipalTTL          time.Duration
	AnubisCircuitEnabled        bool
	AnubisCircuitFailureCount   int
	AnubisCircuitOpenTimeout    time.Duration
	AnubisCircuitHalfOpenMaxReq int
	GeoBaseURL                  string
	GeoTimeout                  time.Duration
	GeoMaxRetries               int
	GeoCacheTTL                 time.Duration
	StorageDir                  string
	UploadMaxFileBytes          int64
	UploadMaxFiles              int
	UploadAllowedContentTypes   []string
	SanctionedCountries         []string
	ScreeningWorkers            int
	BankCheckDelay              time.Duration
	RateLimitPerSecond          float64
	RateLimitBurst              int
	UptraceEnabled              bool
	UptraceDSN                  string
	UptraceLogsEnabled          bool
	UptraceCaptureRequestBody   bool
	UptraceRequestBodyMaxBytes  int
	BetterStackEnabled          bool
	BetterStackEndpoint         string
	BetterStackToken            string
	BetterStackTimeout          time.Duration
	BetterStackMinLevel         logging.Level
	PyroscopeEnabled            bool
	PyroscopeServerAddress      string
	PyroscopeAppName            string
	PyroscopeAuthToken          string
	PyroscopeBasicAuthUser      string
	PyroscopeBasicAuthPassword  string
	PyroscopeUploadRate         time.Duration
	InternalJobToken            string
	QStashEnabled               bool
	QStashBaseURL               string
	QStashToken                 string
	QStashTargetBaseURL         string
	QStashRetries               int
	QStashCircuitEnabled        bool
	QStashCircuitFailureCount   int
	QStashCircuitOpenTimeout    time.Duration
	QStashCircuitHalfOpenMaxReq int
	LogLevel                    logging.Level
}

// UsePostgres reports whether repositories are backed by DB_URL. An empty DB_URL runs the
// API on in-memory repositories.
func (c Config) UsePostgres() bool {
	return strings.TrimSpace(c.DBURL) != ""
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}

	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}

	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}
	uptraceCaptureRequestBody, err := strconv.ParseBool(getEnv("UPTRACE_CAPTURE_REQUEST_BODY", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_CAPTURE_REQUEST_BODY: %w", err)
	}
	uptraceRequestBodyMaxBytes, err := getEnvAsInt("UPTRACE_REQUEST_BODY_MAX_BYTES", 8192)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_REQUEST_BODY_MAX_BYTES: %w", err)
	}
	if uptraceRequestBodyMaxBytes <= 0 {
		return Config{}, fmt.Errorf("UPTRACE_REQUEST_BODY_MAX_BYTES must be > 0")
	}

	betterStackEnabled, err := strconv.ParseBool(getEnv("BETTERSTACK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BETTERSTACK_ENABLED: %w", err)
	}
	betterStackEndpoint := strings.TrimSpace(getEnv("BETTERSTACK_ENDPOINT", ""))
	if betterStackEnabled && betterStackEndpoint == "" {
		return Config{}, fmt.Errorf("BETTERSTACK_ENDPOINT is required when BETTERSTACK_ENABLED=true")
	}
	betterStackTimeout, err := getEnvAsPositiveDuration("BETTERSTACK_TIMEOUT", "3s")
	if err != nil {
		return Config{}, err
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}

	geoTimeout, err := getEnvAsPositiveDuration("GEO_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	geoCacheTTL, err := getEnvAsPositiveDuration("GEO_CACHE_TTL", "24h")
	if err != nil {
		return Config{}, err
	}
	geoMaxRetries, err := getEnvAsInt("GEO_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse GEO_MAX_RETRIES: %w", err)
	}
	if geoMaxRetries < 0 {
		return Config{}, fmt.Errorf("GEO_MAX_RETRIES must be >= 0")
	}

	uploadMaxFileBytes, err := getEnvAsInt("UPLOAD_MAX_FILE_BYTES", 10<<20)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPLOAD_MAX_FILE_BYTES: %w", err)
	}
	if uploadMaxFileBytes <= 0 {
		return Config{}, fmt.Errorf("UPLOAD_MAX_FILE_BYTES must be > 0")
	}
	uploadMaxFiles, err := getEnvAsInt("UPLOAD_MAX_FILES", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPLOAD_MAX_FILES: %w", err)
	}
	if uploadMaxFiles < 1 {
		return Config{}, fmt.Errorf("UPLOAD_MAX_FILES must be >= 1")
	}

	screeningWorkers, err := getEnvAsInt("SCREENING_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCREENING_WORKERS: %w", err)
	}
	if screeningWorkers < 1 {
		return Config{}, fmt.Errorf("SCREENING_WORKERS must be >= 1")
	}
	bankCheckDelay, err := time.ParseDuration(getEnv("BANK_CHECK_DELAY", "2m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BANK_CHECK_DELAY: %w", err)
	}
	if bankCheckDelay < 0 {
		return Config{}, fmt.Errorf("BANK_CHECK_DELAY must be >= 0")
	}

	rateLimitPerSecond, err := strconv.ParseFloat(getEnv("RATE_LIMIT_PER_SECOND", "5"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse RATE_LIMIT_PER_SECOND: %w", err)
	}
	if rateLimitPerSecond < 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_PER_SECOND must be >= 0")
	}
	rateLimitBurst, err := getEnvAsInt("RATE_LIMIT_BURST", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse RATE_LIMIT_BURST: %w", err)
	}
	if rateLimitPerSecond > 0 && rateLimitBurst < 1 {
		return Config{}, fmt.Errorf("RATE_LIMIT_BURST must be >= 1 when rate limiting is enabled")
	}

	qstashEnabled, err := strconv.ParseBool(getEnv("QSTASH_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse QSTASH_ENABLED: %w", err)
	}
	qstashRetries, err := getEnvAsInt("QSTASH_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse QSTASH_RETRIES: %w", err)
	}
	if qstashRetries < 0 {
		return Config{}, fmt.Errorf("QSTASH_RETRIES must be >= 0")
	}
	qstashCircuit, err := loadCircuit("QSTASH")
	if err != nil {
		return Config{}, err
	}
	qstashBaseURL := strings.TrimSpace(getEnv("QSTASH_BASE_URL", "https://qstash.upstash.io"))
	qstashToken := strings.TrimSpace(getEnv("QSTASH_TOKEN", ""))
	qstashTargetBaseURL := strings.TrimSpace(getEnv("QSTASH_TARGET_BASE_URL", ""))
	internalJobToken := strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", ""))
	if qstashEnabled {
		if qstashToken == "" {
			return Config{}, fmt.Errorf("QSTASH_TOKEN is required when QSTASH_ENABLED=true")
		}
		if qstashTargetBaseURL == "" {
			return Config{}, fmt.Errorf("QSTASH_TARGET_BASE_URL is required when QSTASH_ENABLED=true")
		}
		if internalJobToken == "" {
			return Config{}, fmt.Errorf("INTERNAL_JOB_TOKEN is required when QSTASH_ENABLED=true")
		}
	}

	anubisCircuit, err := loadCircuit("ANUBIS")
	if err != nil {
		return Config{}, err
	}
	anubisTimeout, err := getEnvAsPositiveDuration("ANUBIS_TIMEOUT", "3s")
	if err != nil {
		return Config{}, err
	}
	anubisPrincipalTTL, err := getEnvAsPositiveDuration("ANUBIS_PRINCIPAL_TTL", "30s")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                      appEnv,
		ServiceName:                 getEnv("APP_SERVICE_NAME", "armory-onboarding-api"),
		ServiceVersion:              getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                    getEnv("APP_HTTP_ADDR", ":8080"),
		PublicBaseURL:               strings.TrimRight(strings.TrimSpace(getEnv("APP_PUBLIC_BASE_URL", "http://localhost:8080")), "/"),
		DBURL:                       strings.TrimSpace(getEnv("DB_URL", "")),
		CORSAllowedOrigins:          splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PprofEnabled:                pprofEnabled,
		PprofAddr:                   pprofAddr,
		SwaggerEnabled:              swaggerEnabled,
		AnubisBaseURL:               getEnv("ANUBIS_BASE_URL", "http://localhost:8081"),
		AnubisIntrospectURL:         getEnv("ANUBIS_INTROSPECT_PATH", "/v1/auth/introspect"),
		AnubisAdminKey:              getEnv("ANUBIS_ADMIN_KEY", ""),
		AnubisTimeout:               anubisTimeout,
		AnubisPrincipalTTL:          anubisPrincipalTTL,
		AnubisCircuitEnabled:        anubisCircuit.enabled,
		AnubisCircuitFailureCount:   anubisCircuit.failureCount,
		AnubisCircuitOpenTimeout:    anubisCircuit.openTimeout,
		AnubisCircuitHalfOpenMaxReq: anubisCircuit.halfOpenMaxReq,
		GeoBaseURL:                  strings.TrimSpace(getEnv("GEO_API_URL", "")),
		GeoTimeout:                  geoTimeout,
		GeoMaxRetries:               geoMaxRetries,
		GeoCacheTTL:                 geoCacheTTL,
		StorageDir:                  strings.TrimSpace(getEnv("STORAGE_DIR", "./data/uploads")),
		UploadMaxFileBytes:          int64(uploadMaxFileBytes),
		UploadMaxFiles:              uploadMaxFiles,
		UploadAllowedContentTypes:   splitCSV(getEnv("UPLOAD_ALLOWED_CONTENT_TYPES", "application/pdf,image/jpeg,image/png")),
		SanctionedCountries:         splitCSV(getEnv("SANCTIONED_COUNTRIES", "")),
		ScreeningWorkers:            screeningWorkers,
		BankCheckDelay:              bankCheckDelay,
		RateLimitPerSecond:          rateLimitPerSecond,
		RateLimitBurst:              rateLimitBurst,
		UptraceEnabled:              uptraceEnabled,
		UptraceDSN:                  uptraceDSN,
		UptraceLogsEnabled:          uptraceLogsEnabled,
		UptraceCaptureRequestBody:   uptraceCaptureRequestBody,
		UptraceRequestBodyMaxBytes:  uptraceRequestBodyMaxBytes,
		BetterStackEnabled:          betterStackEnabled,
		BetterStackEndpoint:         betterStackEndpoint,
		BetterStackToken:            strings.TrimSpace(getEnv("BETTERSTACK_TOKEN", "")),
		BetterStackTimeout:          betterStackTimeout,
		BetterStackMinLevel:         logging.ParseLevel(getEnv("BETTERSTACK_MIN_LEVEL", "error")),
		PyroscopeEnabled:            pyroscopeEnabled,
		PyroscopeServerAddress:      pyroscopeServerAddress,
		PyroscopeAuthToken:          strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:      strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:  strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:         pyroscopeUploadRate,
		InternalJobToken:            internalJobToken,
		QStashEnabled:               qstashEnabled,
		QStashBaseURL:               qstashBaseURL,
		QStashToken:                 qstashToken,
		QStashTargetBaseURL:         qstashTargetBaseURL,
		QStashRetries:               qstashRetries,
		QStashCircuitEnabled:        qstashCircuit.enabled,
		QStashCircuitFailureCount:   qstashCircuit.failureCount,
		QStashCircuitOpenTimeout:    qstashCircuit.openTimeout,
		QStashCircuitHalfOpenMaxReq: qstashCircuit.halfOpenMaxReq,
		LogLevel:                    logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if cfg.StorageDir == "" {
		return Config{}, fmt.Errorf("STORAGE_DIR cannot be empty")
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	cfg.DBDisablePreparedBinary = dbDisablePreparedBinary

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := getEnvAsPositiveDuration("CACHE_TTL", "60s")
	if err != nil {
		return Config{}, err
	}
	cfg.CacheEnabled = cacheEnabled
	cfg.CacheTTL = cacheTTL

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}
	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout

	return cfg, nil
}

type circuitSettings struct {
	enabled        bool
	failureCount   int
	openTimeout    time.Duration
	halfOpenMaxReq int
}

// loadCircuit reads <PREFIX>_CIRCUIT_* variables.
func loadCircuit(prefix string) (circuitSettings, error) {
	enabled, err := strconv.ParseBool(getEnv(prefix+"_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return circuitSettings{}, fmt.Errorf("parse %s_CIRCUIT_ENABLED: %w", prefix, err)
	}
	failureCount, err := getEnvAsInt(prefix+"_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return circuitSettings{}, fmt.Errorf("parse %s_CIRCUIT_FAILURE_COUNT: %w", prefix, err)
	}
	if failureCount < 1 {
		return circuitSettings{}, fmt.Errorf("%s_CIRCUIT_FAILURE_COUNT must be >= 1", prefix)
	}
	openTimeout, err := getEnvAsPositiveDuration(prefix+"_CIRCUIT_OPEN_TIMEOUT", "15s")
	if err != nil {
		return circuitSettings{}, err
	}
	halfOpenMaxReq, err := getEnvAsInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return circuitSettings{}, fmt.Errorf("parse %s_CIRCUIT_HALF_OPEN_MAX_REQ: %w", prefix, err)
	}
	if halfOpenMaxReq < 1 {
		return circuitSettings{}, fmt.Errorf("%s_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}

	return circuitSettings{
		enabled:        enabled,
		failureCount:   failureCount,
		openTimeout:    openTimeout,
		halfOpenMaxReq: halfOpenMaxReq,
	}, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
