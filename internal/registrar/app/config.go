package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	SessionSecret string // Required: HMAC secret for session and success tokens

	RegisterCommand  string        // Required unless Testing: command template for account creation ({username}/{password} placeholders)
	Testing          bool          // Optional: skip the external command and log instead (default: false)
	ProvisionTimeout time.Duration // Optional: external command deadline (default: 30s)

	DatabaseFile string        // Optional: path to SQLite database file (default: ./registrar.db)
	SessionTTL   time.Duration // Optional: admin session lifetime (default: 24h)
	BaseURL      string        // Optional: external origin for invite links (default: http://localhost:<port>)
	SiteName     string        // Optional: name shown on every page (default: Synapse Registrar)
	SecureCookie bool          // Optional: mark session cookies Secure (default: true outside dev)

	PasswordMinLength      int  // Optional: minimum registration password length (default: 8)
	PasswordRequireDigit   bool // Optional: require a digit (default: true)
	PasswordRequireSpecial bool // Optional: require a special character (default: true)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		SessionSecret: os.Getenv("REGISTRAR_SESSION_SECRET"),

		RegisterCommand:  os.Getenv("REGISTRAR_REGISTER_CMD"),
		Testing:          getEnvBoolOrDefault("REGISTRAR_TESTING", false),
		ProvisionTimeout: getEnvDurationOrDefault("REGISTRAR_PROVISION_TIMEOUT", 30*time.Second),

		DatabaseFile: getEnvOrDefault("REGISTRAR_DATABASE_FILE", "registrar.db"),
		SessionTTL:   getEnvDurationOrDefault("REGISTRAR_SESSION_TTL", 24*time.Hour),
		BaseURL:      os.Getenv("REGISTRAR_BASE_URL"),
		SiteName:     getEnvOrDefault("REGISTRAR_SITE_NAME", "Synapse Registrar"),

		PasswordMinLength:      getEnvIntOrDefault("REGISTRAR_PASSWORD_MIN_LENGTH", 8),
		PasswordRequireDigit:   getEnvBoolOrDefault("REGISTRAR_PASSWORD_REQUIRE_DIGIT", true),
		PasswordRequireSpecial: getEnvBoolOrDefault("REGISTRAR_PASSWORD_REQUIRE_SPECIAL", true),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	// Plain HTTP is the norm on a dev loopback, TLS everywhere else.
	cfg.SecureCookie = getEnvBoolOrDefault("REGISTRAR_SECURE_COOKIE", cfg.Env != "dev")

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + strconv.Itoa(cfg.Port)
	}

	return cfg
}

// Validate reports the configuration problems that make the server unable to
// start. The CLI verbs that never issue sessions or provision accounts skip it.
func (cfg Config) Validate() error {
	if cfg.SessionSecret == "" {
		return errors.New("REGISTRAR_SESSION_SECRET is required")
	}
	if cfg.RegisterCommand == "" && !cfg.Testing {
		return errors.New("REGISTRAR_REGISTER_CMD is required unless REGISTRAR_TESTING is set")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
