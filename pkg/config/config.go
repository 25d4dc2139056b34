package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Cache          CacheConfig
	JWT            JWTConfig
	Storage        StorageConfig
	Sentry         SentryConfig
	Tracing        TracingConfig
	Routing        RoutingConfig
	LocalStore     LocalStoreConfig
	Classification ClassificationConfig
	Incentives     IncentivesConfig
	RateLimit      RateLimitConfig
	Secrets        SecretsConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	Environment    string
	ServiceName    string
	Version        string
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout time.Duration
	CORSOrigins    string // comma-separated
	MaxUploadMB    int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MaxConns      int
	MinConns      int
	RunMigrations bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// CacheConfig selects the TTL cache backend used by repositories
type CacheConfig struct {
	Backend string // memory or redis
	TTL     time.Duration
}

// JWTConfig holds the shared secret of the identity provider
type JWTConfig struct {
	Secret string
	Issuer string
}

// StorageConfig holds object storage configuration for archived imports
type StorageConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// Enabled reports whether an archive bucket is configured
func (c *StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

// SentryConfig holds error tracking configuration
type SentryConfig struct {
	DSN        string
	SampleRate float64
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRatio  float64
}

// RoutingConfig holds the external geocoding and routing endpoints
type RoutingConfig struct {
	NominatimURL     string
	OSRMURL          string
	GooglePlacesURL  string
	GooglePlacesKey  string
	UserAgent        string
	Timeout          time.Duration
	BreakerFailures  int
	BreakerTimeoutS  int
	BreakerIntervalS int
}

// LocalStoreConfig points at the SQLite file used for highlights
type LocalStoreConfig struct {
	SQLitePath string
}

// ClassificationConfig holds the default customer segmentation thresholds
type ClassificationConfig struct {
	ActiveMonths       int
	InactiveMonths     int
	MinServices12m     int
	MinServices24m     int
	MinRevenue24m      float64
	InactiveListMonths int
}

// IncentivesConfig holds the built-in incentive parameters
type IncentivesConfig struct {
	MonthlyRate     float64
	GrowthLowPct    float64
	GrowthLowBonus  float64
	GrowthHighPct   float64
	GrowthHighBonus float64
	PointsPerOrder  int
}

// RateLimitConfig holds the Redis token bucket limits applied per user
type RateLimitConfig struct {
	Enabled           bool
	WindowSeconds     int
	DefaultLimit      int
	DefaultBurst      int
	AnonymousLimit    int
	AnonymousBurst    int
	RedisPrefix       string
	EndpointOverrides map[string]EndpointRateLimitConfig
}

// EndpointRateLimitConfig overrides the defaults for one endpoint group
type EndpointRateLimitConfig struct {
	AuthenticatedLimit int
	AuthenticatedBurst int
	AnonymousLimit     int
	AnonymousBurst     int
	WindowSeconds      int
}

// SecretsConfig selects the secret store credentials are read from at
// startup. References use the form [mount::]path[@version][#key].
type SecretsConfig struct {
	Provider       string // aws, gcp, vault, file or empty
	CacheTTL       time.Duration
	AWSRegion      string
	AWSEndpoint    string
	GCPProjectID   string
	GCPCredentials string // service account JSON; empty uses the default credentials
	GCPCredsFile   string
	VaultAddress   string
	VaultToken     string
	VaultNamespace string
	VaultMount     string
	FileBasePath   string

	JWTSecretRef        string
	DBPasswordRef       string
	GooglePlacesKeyRef  string
	StorageSecretKeyRef string
}

// Window returns the refill window, one minute when unset
func (c RateLimitConfig) Window() time.Duration {
	if c.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.WindowSeconds) * time.Second
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ServiceName:    serviceName,
			Version:        getEnv("SERVICE_VERSION", "dev"),
			ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 30),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
			CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
			MaxUploadMB:    getEnvAsInt("MAX_UPLOAD_MB", 20),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", "postgres"),
			DBName:        getEnv("DB_NAME", "crm"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			MaxConns:      getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:      getEnvAsInt("DB_MIN_CONNS", 2),
			RunMigrations: getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
			TTL:     getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Issuer: getEnv("JWT_ISSUER", ""),
		},
		Storage: StorageConfig{
			Bucket:    getEnv("STORAGE_BUCKET", ""),
			Region:    getEnv("STORAGE_REGION", "eu-west-1"),
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			Prefix:    getEnv("STORAGE_PREFIX", "imports"),
		},
		Sentry: SentryConfig{
			DSN:        getEnv("SENTRY_DSN", ""),
			SampleRate: getEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvAsBool("TRACING_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio:  getEnvAsFloat("TRACING_SAMPLE_RATIO", 0.1),
		},
		Routing: RoutingConfig{
			NominatimURL:     getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
			OSRMURL:          getEnv("OSRM_URL", "https://router.project-osrm.org"),
			GooglePlacesURL:  getEnv("GOOGLE_PLACES_URL", "https://maps.googleapis.com/maps/api/place"),
			GooglePlacesKey:  getEnv("GOOGLE_PLACES_API_KEY", ""),
			UserAgent:        getEnv("ROUTING_USER_AGENT", "crm-david/1.0"),
			Timeout:          getEnvAsDuration("ROUTING_TIMEOUT", 10*time.Second),
			BreakerFailures:  getEnvAsInt("ROUTING_BREAKER_FAILURES", 5),
			BreakerTimeoutS:  getEnvAsInt("ROUTING_BREAKER_TIMEOUT_SECONDS", 30),
			BreakerIntervalS: getEnvAsInt("ROUTING_BREAKER_INTERVAL_SECONDS", 60),
		},
		LocalStore: LocalStoreConfig{
			SQLitePath: getEnv("LOCAL_STORE_PATH", "crm_notas.db"),
		},
		Classification: ClassificationConfig{
			ActiveMonths:       getEnvAsInt("SEGMENT_ACTIVE_MONTHS", 12),
			InactiveMonths:     getEnvAsInt("SEGMENT_INACTIVE_MONTHS", 24),
			MinServices12m:     getEnvAsInt("SEGMENT_MIN_SERVICES_12M", 2),
			MinServices24m:     getEnvAsInt("SEGMENT_MIN_SERVICES_24M", 3),
			MinRevenue24m:      getEnvAsFloat("SEGMENT_MIN_REVENUE_24M", 5000),
			InactiveListMonths: getEnvAsInt("INACTIVE_LIST_MONTHS", 6),
		},
		Incentives: IncentivesConfig{
			MonthlyRate:     getEnvAsFloat("INCENTIVE_MONTHLY_RATE", 0.005),
			GrowthLowPct:    getEnvAsFloat("INCENTIVE_GROWTH_LOW_PCT", 10),
			GrowthLowBonus:  getEnvAsFloat("INCENTIVE_GROWTH_LOW_BONUS", 100),
			GrowthHighPct:   getEnvAsFloat("INCENTIVE_GROWTH_HIGH_PCT", 20),
			GrowthHighBonus: getEnvAsFloat("INCENTIVE_GROWTH_HIGH_BONUS", 250),
			PointsPerOrder:  getEnvAsInt("INCENTIVE_POINTS_PER_ORDER", 2),
		},
		Secrets: SecretsConfig{
			Provider:       strings.ToLower(getEnv("SECRETS_PROVIDER", "")),
			CacheTTL:       getEnvAsDuration("SECRETS_CACHE_TTL", 5*time.Minute),
			AWSRegion:      getEnv("SECRETS_AWS_REGION", getEnv("STORAGE_REGION", "eu-west-1")),
			AWSEndpoint:    getEnv("SECRETS_AWS_ENDPOINT", ""),
			GCPProjectID:   getEnv("SECRETS_GCP_PROJECT_ID", getEnv("GOOGLE_CLOUD_PROJECT", "")),
			GCPCredentials: getEnv("SECRETS_GCP_CREDENTIALS_JSON", ""),
			GCPCredsFile:   getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			VaultAddress:   getEnv("VAULT_ADDR", ""),
			VaultToken:     getEnv("VAULT_TOKEN", ""),
			VaultNamespace: getEnv("VAULT_NAMESPACE", ""),
			VaultMount:     getEnv("VAULT_MOUNT", "secret"),
			FileBasePath:   getEnv("SECRETS_FILE_PATH", "/var/run/secrets/crm"),

			JWTSecretRef:        getEnv("JWT_SECRET_REF", ""),
			DBPasswordRef:       getEnv("DB_PASSWORD_REF", ""),
			GooglePlacesKeyRef:  getEnv("GOOGLE_PLACES_API_KEY_REF", ""),
			StorageSecretKeyRef: getEnv("STORAGE_SECRET_KEY_REF", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvAsBool("RATE_LIMIT_ENABLED", false),
			WindowSeconds:  getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			DefaultLimit:   getEnvAsInt("RATE_LIMIT_DEFAULT_LIMIT", 120),
			DefaultBurst:   getEnvAsInt("RATE_LIMIT_DEFAULT_BURST", 20),
			AnonymousLimit: getEnvAsInt("RATE_LIMIT_ANONYMOUS_LIMIT", 30),
			AnonymousBurst: getEnvAsInt("RATE_LIMIT_ANONYMOUS_BURST", 5),
			RedisPrefix:    getEnv("RATE_LIMIT_REDIS_PREFIX", "crm:rl"),
			EndpointOverrides: map[string]EndpointRateLimitConfig{
				// Nominatim allows roughly one request per second per client
				"routing": {
					AuthenticatedLimit: getEnvAsInt("RATE_LIMIT_ROUTING_LIMIT", 30),
					AuthenticatedBurst: getEnvAsInt("RATE_LIMIT_ROUTING_BURST", 5),
					WindowSeconds:      60,
				},
				"imports": {
					AuthenticatedLimit: getEnvAsInt("RATE_LIMIT_IMPORTS_LIMIT", 10),
					AuthenticatedBurst: 0,
					WindowSeconds:      3600,
				},
			},
		},
	}

	if cfg.Server.Environment == "production" && cfg.JWT.Secret == "" && cfg.Secrets.JWTSecretRef == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}
	switch cfg.Secrets.Provider {
	case "", "aws", "gcp", "vault", "file":
	default:
		return nil, fmt.Errorf("SECRETS_PROVIDER must be aws, gcp, vault or file, got %q", cfg.Secrets.Provider)
	}
	if cfg.Secrets.Provider == "gcp" && cfg.Secrets.GCPProjectID == "" {
		return nil, fmt.Errorf("SECRETS_GCP_PROJECT_ID is required for the gcp secrets provider")
	}
	if cfg.RateLimit.Enabled && cfg.Cache.Backend != "redis" {
		return nil, fmt.Errorf("RATE_LIMIT_ENABLED requires CACHE_BACKEND=redis")
	}
	if cfg.Cache.Backend != "memory" && cfg.Cache.Backend != "redis" {
		return nil, fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", cfg.Cache.Backend)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the database connection string in URL form, as expected by migrate
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// AllowedOrigins splits the CORS origin list
func (c *ServerConfig) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
