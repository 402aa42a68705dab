// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, the vault's delivery instant, storage backends, identity,
// rate limiting, and observability settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Attachment backends.
const (
	BackendDisk   = "disk"
	BackendGridFS = "gridfs"
	BackendNone   = "none"
)

// DefaultDeliveryAt is the delivery instant used when DELIVERY_AT is unset.
var DefaultDeliveryAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "vaultd")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// VaultConfig holds the message vault settings.
type VaultConfig struct {
	DeliveryAt   time.Time     // DELIVERY_AT, RFC 3339
	StoreTimeout time.Duration // STORE_TIMEOUT, per Submit/List call
	MaxTextRunes int           // MAX_TEXT_RUNES
}

// AttachmentConfig selects and tunes the attachment store.
type AttachmentConfig struct {
	Backend      string   // disk|gridfs|none
	Dir          string   // ATTACHMENT_DIR (disk backend)
	BaseURL      string   // ATTACHMENT_BASE_URL, prefix of returned URLs
	MaxBytes     int64    // ATTACHMENT_MAX_BYTES
	AllowedTypes []string // ATTACHMENT_ALLOWED_TYPES, "image/" style prefixes
}

// MongoConfig locates the GridFS bucket.
type MongoConfig struct {
	URI      string
	Database string
	Bucket   string
}

// AuthConfig selects the identity provider.
type AuthConfig struct {
	Mode      string // header|jwt
	JWTSecret string
	JWTIssuer string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBPath      string // SQLite path
	Vault       VaultConfig
	Attachments AttachmentConfig
	Mongo       MongoConfig

	// Identity
	Auth AuthConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	port := getenv("PORT", "8080")
	deliveryAt, err := gettime("DELIVERY_AT", DefaultDeliveryAt)
	if err != nil {
		return Config{}, fmt.Errorf("DELIVERY_AT must be an RFC 3339 timestamp: %w", err)
	}
	cfg := Config{
		// Server
		Port:              port,
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DBPath: getenv("DB_PATH", "vault.db"),
		Vault: VaultConfig{
			DeliveryAt:   deliveryAt,
			StoreTimeout: getdur("STORE_TIMEOUT", 10*time.Second),
			MaxTextRunes: getint("MAX_TEXT_RUNES", 4000),
		},
		Attachments: AttachmentConfig{
			Backend:      strings.ToLower(getenv("ATTACHMENT_BACKEND", BackendDisk)),
			Dir:          getenv("ATTACHMENT_DIR", "data/attachments"),
			BaseURL:      strings.TrimRight(getenv("ATTACHMENT_BASE_URL", "http://localhost:"+strings.TrimSpace(port)+"/attachments"), "/"),
			MaxBytes:     getint64("ATTACHMENT_MAX_BYTES", 10<<20),
			AllowedTypes: splitCSV(getenv("ATTACHMENT_ALLOWED_TYPES", "image/,video/")),
		},
		Mongo: MongoConfig{
			URI:      getenv("MONGO_URI", ""),
			Database: getenv("MONGO_DB", "vault"),
			Bucket:   getenv("MONGO_BUCKET", "attachments"),
		},

		// Identity
		Auth: AuthConfig{
			Mode:      strings.ToLower(getenv("AUTH_MODE", "header")),
			JWTSecret: getenv("AUTH_JWT_SECRET", ""),
			JWTIssuer: getenv("AUTH_JWT_ISSUER", ""),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "vaultd"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Vault.StoreTimeout <= 0 {
		return cfg, errors.New("STORE_TIMEOUT must be > 0")
	}
	if cfg.Vault.MaxTextRunes < 1 {
		return cfg, errors.New("MAX_TEXT_RUNES must be >= 1")
	}
	switch cfg.Attachments.Backend {
	case BackendDisk:
		if strings.TrimSpace(cfg.Attachments.Dir) == "" {
			return cfg, errors.New("ATTACHMENT_DIR must not be empty for the disk backend")
		}
	case BackendGridFS:
		if strings.TrimSpace(cfg.Mongo.URI) == "" {
			return cfg, errors.New("MONGO_URI is required for the gridfs backend")
		}
	case BackendNone:
	default:
		return cfg, errors.New("ATTACHMENT_BACKEND must be one of: disk, gridfs, none")
	}
	if cfg.Attachments.MaxBytes <= 0 {
		return cfg, errors.New("ATTACHMENT_MAX_BYTES must be > 0")
	}
	switch cfg.Auth.Mode {
	case "header":
	case "jwt":
		if cfg.Auth.JWTSecret == "" {
			return cfg, errors.New("AUTH_JWT_SECRET is required when AUTH_MODE=jwt")
		}
	default:
		return cfg, errors.New("AUTH_MODE must be one of: header, jwt")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// gettime parses an RFC 3339 timestamp and returns it in UTC. Unlike the
// other helpers it does not fall back to def on a parse error.
func gettime(k string, def time.Time) (time.Time, error) {
	v, ok := os.LookupEnv(k)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
