package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	Port           string
	GatewayBackend string
	Mongo          MongoConfig
	Redis          RedisConfig
	RateLimit      RateLimitConfig
	Auth           AuthConfig
	CORS           CORSConfig
	OTel           OTelConfig
	Geocoding      GeocodingConfig
	Wizard         WizardConfig
	Map            MapConfig
	Upload         UploadConfig
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	IssueQueuePrefix string
	IssuesPerDay     int
	UpvotesPerMinute int
}

type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	CookieDomain string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type GeocodingConfig struct {
	APIKey  string
	BaseURL string
}

type WizardConfig struct {
	EnforceSteps []int
	DraftTTL     time.Duration
}

type MapConfig struct {
	CenterLat float64
	CenterLng float64
	Zoom      int
}

type UploadConfig struct {
	MaxBytes int64
}

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Load reads configuration from the environment. In development a .env file is loaded first.
func Load() (Config, error) {
	if getEnv("GO_ENV", "development") == "development" {
		_ = godotenv.Load()
	}

	cfg := Config{
		Env:            getEnv("GO_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		GatewayBackend: getEnv("GATEWAY_BACKEND", BackendMongo),
		Mongo:          loadMongo(),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			IssueQueuePrefix: getEnv("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue_limit"),
			IssuesPerDay:     getEnvInt("ISSUES_PER_DAY", 10),
			UpvotesPerMinute: getEnvInt("UPVOTES_PER_MINUTE", 30),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			TokenTTL:     getEnvDuration("TOKEN_TTL", 72*time.Hour),
			CookieDomain: getEnv("DOMAIN", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "civicportal"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Geocoding: GeocodingConfig{
			APIKey:  getEnv("GOOGLE_MAPS_API_KEY", ""),
			BaseURL: getEnv("GEOCODING_BASE_URL", "https://maps.googleapis.com/maps/api/geocode/json"),
		},
		Wizard: WizardConfig{
			DraftTTL: getEnvDuration("WIZARD_DRAFT_TTL", 24*time.Hour),
		},
		Map: MapConfig{
			CenterLat: getEnvFloat("MAP_CENTER_LAT", 20.5937),
			CenterLng: getEnvFloat("MAP_CENTER_LNG", 78.9629),
			Zoom:      getEnvInt("MAP_ZOOM", 5),
		},
		Upload: UploadConfig{
			MaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", 10<<20)),
		},
	}

	steps, err := parseSteps(getEnv("WIZARD_ENFORCE_STEPS", "1,2,3,4"))
	if err != nil {
		return Config{}, err
	}
	cfg.Wizard.EnforceSteps = steps

	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Upload.MaxBytes <= 0 {
		return Config{}, fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", cfg.Upload.MaxBytes)
	}
	switch cfg.GatewayBackend {
	case BackendMongo:
		if cfg.Mongo.URI == "" {
			return Config{}, fmt.Errorf("MONGODB_URI is required for the mongo gateway backend")
		}
	case BackendMemory:
	default:
		return Config{}, fmt.Errorf("unknown GATEWAY_BACKEND %q", cfg.GatewayBackend)
	}

	return cfg, nil
}

// LoadMongo reads only the MongoDB settings, for tools that do not serve HTTP.
func LoadMongo() (MongoConfig, error) {
	if getEnv("GO_ENV", "development") == "development" {
		_ = godotenv.Load()
	}
	cfg := loadMongo()
	if cfg.URI == "" {
		return MongoConfig{}, fmt.Errorf("MONGODB_URI is required")
	}
	return cfg, nil
}

func loadMongo() MongoConfig {
	return MongoConfig{
		URI:      getEnv("MONGODB_URI", ""),
		Database: getEnv("MONGODB_DATABASE", "civicportal"),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

func (c GeocodingConfig) Enabled() bool {
	return c.APIKey != ""
}

func parseSteps(s string) ([]int, error) {
	var steps []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 4 {
			return nil, fmt.Errorf("WIZARD_ENFORCE_STEPS: invalid step %q", part)
		}
		steps = append(steps, n)
	}
	return steps, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
