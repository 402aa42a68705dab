package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Clear all env that might affect defaults. t.Setenv isolates per test.
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// Storage
	t.Setenv("DB_PATH", "db.sqlite")
	t.Setenv("DELIVERY_AT", "2027-06-01T12:00:00+02:00")
	t.Setenv("STORE_TIMEOUT", "3s")
	t.Setenv("MAX_TEXT_RUNES", "280")
	t.Setenv("ATTACHMENT_BACKEND", "GridFS")
	t.Setenv("ATTACHMENT_BASE_URL", "https://cdn.example.com/att/")
	t.Setenv("ATTACHMENT_MAX_BYTES", "2048")
	t.Setenv("ATTACHMENT_ALLOWED_TYPES", "image/png, video/")
	t.Setenv("MONGO_URI", "mongodb://mongo:27017")
	t.Setenv("MONGO_DB", "vaultdb")

	// Identity
	t.Setenv("AUTH_MODE", "JWT")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("AUTH_JWT_ISSUER", "vault")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging / Docs
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}

	// Storage
	if cfg.DBPath != "db.sqlite" {
		t.Fatalf("db path unexpected: %q", cfg.DBPath)
	}
	wantAt := time.Date(2027, 6, 1, 10, 0, 0, 0, time.UTC)
	if !cfg.Vault.DeliveryAt.Equal(wantAt) || cfg.Vault.DeliveryAt.Location() != time.UTC ||
		cfg.Vault.StoreTimeout != 3*time.Second || cfg.Vault.MaxTextRunes != 280 {
		t.Fatalf("vault unexpected: %+v", cfg.Vault)
	}
	a := cfg.Attachments
	if a.Backend != BackendGridFS || a.BaseURL != "https://cdn.example.com/att" || a.MaxBytes != 2048 ||
		!reflect.DeepEqual(a.AllowedTypes, []string{"image/png", "video/"}) {
		t.Fatalf("attachments unexpected: %+v", a)
	}
	if cfg.Mongo.URI != "mongodb://mongo:27017" || cfg.Mongo.Database != "vaultdb" || cfg.Mongo.Bucket != "attachments" {
		t.Fatalf("mongo unexpected: %+v", cfg.Mongo)
	}

	// Identity
	if cfg.Auth.Mode != "jwt" || cfg.Auth.JWTSecret != "s3cret" || cfg.Auth.JWTIssuer != "vault" {
		t.Fatalf("auth unexpected: %+v", cfg.Auth)
	}

	// Rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	t.Run("invalid LOG_LEVEL", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "verbose")
		if _, err := Load(); err == nil {
			t.Fatalf("expected LOG_LEVEL validation error")
		}
	})
	t.Run("empty PORT via spaces", func(t *testing.T) {
		t.Setenv("PORT", "   ")
		if _, err := Load(); err == nil || !containsErr(err, "PORT must not be empty") {
			t.Fatalf("expected port validation error, got: %v", err)
		}
	})
	t.Run("non-positive timeouts", func(t *testing.T) {
		t.Setenv("READ_TIMEOUT", "0s")
		if _, err := Load(); err == nil || !containsErr(err, "timeouts must be positive") {
			t.Fatalf("expected timeouts validation error, got: %v", err)
		}
	})
	t.Run("max header bytes <= 0", func(t *testing.T) {
		t.Setenv("MAX_HEADER_BYTES", "0")
		if _, err := Load(); err == nil || !containsErr(err, "MAX_HEADER_BYTES") {
			t.Fatalf("expected MAX_HEADER_BYTES validation error, got: %v", err)
		}
	})
	t.Run("empty DB_PATH", func(t *testing.T) {
		t.Setenv("DB_PATH", "   ")
		if _, err := Load(); err == nil || !containsErr(err, "DB_PATH must not be empty") {
			t.Fatalf("expected DB_PATH validation error, got: %v", err)
		}
	})
	t.Run("malformed DELIVERY_AT", func(t *testing.T) {
		for _, v := range []string{"2027-01-01", "tomorrow", "2027-01-01 00:00:00"} {
			t.Setenv("DELIVERY_AT", v)
			if _, err := Load(); err == nil || !containsErr(err, "DELIVERY_AT") {
				t.Fatalf("DELIVERY_AT=%q: expected validation error, got: %v", v, err)
			}
		}
	})
	t.Run("store timeout non-positive", func(t *testing.T) {
		t.Setenv("STORE_TIMEOUT", "0s")
		if _, err := Load(); err == nil || !containsErr(err, "STORE_TIMEOUT") {
			t.Fatalf("expected STORE_TIMEOUT validation error, got: %v", err)
		}
	})
	t.Run("max text runes < 1", func(t *testing.T) {
		t.Setenv("MAX_TEXT_RUNES", "0")
		if _, err := Load(); err == nil || !containsErr(err, "MAX_TEXT_RUNES") {
			t.Fatalf("expected MAX_TEXT_RUNES validation error, got: %v", err)
		}
	})
	t.Run("unknown attachment backend", func(t *testing.T) {
		t.Setenv("ATTACHMENT_BACKEND", "s3")
		if _, err := Load(); err == nil || !containsErr(err, "ATTACHMENT_BACKEND") {
			t.Fatalf("expected ATTACHMENT_BACKEND validation error, got: %v", err)
		}
	})
	t.Run("empty attachment dir", func(t *testing.T) {
		t.Setenv("ATTACHMENT_DIR", " ")
		if _, err := Load(); err == nil || !containsErr(err, "ATTACHMENT_DIR") {
			t.Fatalf("expected ATTACHMENT_DIR validation error, got: %v", err)
		}
	})
	t.Run("gridfs without mongo uri", func(t *testing.T) {
		t.Setenv("ATTACHMENT_BACKEND", "gridfs")
		if _, err := Load(); err == nil || !containsErr(err, "MONGO_URI") {
			t.Fatalf("expected MONGO_URI validation error, got: %v", err)
		}
	})
	t.Run("attachment max bytes non-positive", func(t *testing.T) {
		t.Setenv("ATTACHMENT_MAX_BYTES", "0")
		if _, err := Load(); err == nil || !containsErr(err, "ATTACHMENT_MAX_BYTES") {
			t.Fatalf("expected ATTACHMENT_MAX_BYTES validation error, got: %v", err)
		}
	})
	t.Run("jwt without secret", func(t *testing.T) {
		t.Setenv("AUTH_MODE", "jwt")
		if _, err := Load(); err == nil || !containsErr(err, "AUTH_JWT_SECRET") {
			t.Fatalf("expected AUTH_JWT_SECRET validation error, got: %v", err)
		}
	})
	t.Run("unknown auth mode", func(t *testing.T) {
		t.Setenv("AUTH_MODE", "oauth")
		if _, err := Load(); err == nil || !containsErr(err, "AUTH_MODE") {
			t.Fatalf("expected AUTH_MODE validation error, got: %v", err)
		}
	})
	t.Run("rate rps negative", func(t *testing.T) {
		t.Setenv("RATE_RPS", "-1")
		if _, err := Load(); err == nil || !containsErr(err, "RATE_RPS") {
			t.Fatalf("expected RATE_RPS validation error, got: %v", err)
		}
	})
	t.Run("rate burst < 1", func(t *testing.T) {
		t.Setenv("RATE_BURST", "0")
		if _, err := Load(); err == nil || !containsErr(err, "RATE_BURST") {
			t.Fatalf("expected RATE_BURST validation error, got: %v", err)
		}
	})
	t.Run("hsts max age negative", func(t *testing.T) {
		t.Setenv("HSTS_MAX_AGE", "-1s")
		if _, err := Load(); err == nil || !containsErr(err, "HSTS_MAX_AGE") {
			t.Fatalf("expected HSTS_MAX_AGE validation error, got: %v", err)
		}
	})
	t.Run("otel sample ratio out of range", func(t *testing.T) {
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", "1.5")
		if _, err := Load(); err == nil || !containsErr(err, "OTEL_TRACES_SAMPLER_ARG") {
			t.Fatalf("expected OTEL_TRACES_SAMPLER_ARG validation error, got: %v", err)
		}
	})

	// Note: API_BASE_PATH validation is effectively unreachable due to normalizeBasePath
	// always ensuring a leading '/' and returning "/" for empty input.
}

// --- helpers ---

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}

	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}

	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}

	t.Setenv("I64_VALID", "10485760")
	if getint64("I64_VALID", 0) != 10<<20 {
		t.Fatalf("getint64 parse failed")
	}
	t.Setenv("I64_BAD", "10MB")
	if getint64("I64_BAD", 3) != 3 {
		t.Fatalf("getint64 default on bad parse failed")
	}
}

func TestHelpers_gettime(t *testing.T) {
	def := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Setenv("T_VALID", " 2026-01-01T01:00:00+01:00 ")
	got, err := gettime("T_VALID", def)
	if err != nil || !got.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) || got.Location() != time.UTC {
		t.Fatalf("gettime parse failed: %v %v", got, err)
	}
	t.Setenv("T_DATE_ONLY", "2026-01-01")
	if _, err := gettime("T_DATE_ONLY", def); err == nil {
		t.Fatalf("gettime should reject non RFC 3339 input")
	}
	t.Setenv("T_EMPTY", "")
	if got, err := gettime("T_EMPTY", def); err != nil || !got.Equal(def) {
		t.Fatalf("gettime default on empty failed: %v %v", got, err)
	}
	if got, err := gettime("T_UNSET_"+t.Name(), def); err != nil || !got.Equal(def) {
		t.Fatalf("gettime default on unset failed: %v %v", got, err)
	}
}

func TestHelpers_getbool(t *testing.T) {
	trueVals := []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"}
	for i, v := range trueVals {
		k := "B_T_" + config_strconv(i)
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	falseVals := []string{"0", "false", "FALSE", " no ", "N", "off", "Off"}
	for i, v := range falseVals {
		k := "B_F_" + config_strconv(i)
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	// default on unset/empty
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	in := " a, ,b ,  c  ,"
	want := []string{"a", "b", "c"}
	if got := splitCSV(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("splitCSV mismatch: got %#v want %#v", got, want)
	}

	// normalizeBasePath
	if normalizeBasePath("") != "/" {
		t.Fatalf("normalizeBasePath empty -> '/' failed")
	}
	if normalizeBasePath("v1") != "/v1" {
		t.Fatalf("normalizeBasePath missing leading slash failed")
	}
	if normalizeBasePath("/v1/") != "/v1" {
		t.Fatalf("normalizeBasePath trailing slash trim failed")
	}
	if normalizeBasePath(" / ") != "/" {
		t.Fatalf("normalizeBasePath whitespace failed")
	}
}

// small helper (avoid fmt just for ints)
func config_strconv(i int) string { return string('a' + rune(i)) }

// Ensure tests don't inherit PORT from the environment.
func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Exit(m.Run())
}

// containsErr reports whether err's message contains the given substring.
func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	// Intentionally leave vault, attachment and auth keys unset

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("API_BASE_PATH default expected '/api/v1', got %q", cfg.APIBasePath)
	}
	if !cfg.Vault.DeliveryAt.Equal(DefaultDeliveryAt) || cfg.Vault.StoreTimeout != 10*time.Second || cfg.Vault.MaxTextRunes != 4000 {
		t.Fatalf("vault defaults unexpected: %+v", cfg.Vault)
	}
	a := cfg.Attachments
	if a.Backend != BackendDisk || a.BaseURL != "http://localhost:9090/attachments" || a.MaxBytes != 10<<20 ||
		!reflect.DeepEqual(a.AllowedTypes, []string{"image/", "video/"}) {
		t.Fatalf("attachment defaults unexpected: %+v", a)
	}
	if cfg.Auth.Mode != "header" || cfg.OTEL.ServiceName != "vaultd" {
		t.Fatalf("auth/otel defaults unexpected: %+v %+v", cfg.Auth, cfg.OTEL)
	}
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	// No special env needed; defaults are valid.
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on valid defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.APIBasePath == "" {
		t.Fatalf("unexpected empty config from MustLoad")
	}
}
