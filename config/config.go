package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	Env            string
	LogLevel       string
	TrustedProxies []string
	AllowedOrigins []string

	// REST backend that owns all partner data.
	BackendURL     string
	BackendTimeout time.Duration

	GeoLookupURL string
	GeoTimeout   time.Duration

	TelegramBotToken string
	TelegramDevMode  bool // accept an empty initData as the dev user
	DevTelegramID    int64
	InitDataMaxAge   time.Duration
	WebAppURL        string

	SessionSecret    string
	SessionCookie    string
	CookieSecure     bool
	SessionInitWait  time.Duration
	SessionIdleTTL   time.Duration
	SessionSweepSpec string

	TokenStore string // memory, redis, postgres
	RedisURL   string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	DepositWalletAddress  string
	DepositNetwork        string
	PurchaseRedirectDelay time.Duration
	PageSize              int

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES", nil),
		AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),

		BackendURL:     strings.TrimSuffix(getEnv("BACKEND_API_URL", ""), "/"),
		BackendTimeout: getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second),

		GeoLookupURL: getEnv("GEO_LOOKUP_URL", "https://ipapi.co"),
		GeoTimeout:   getEnvAsDuration("GEO_TIMEOUT", 3*time.Second),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramDevMode:  getEnvAsBool("TELEGRAM_DEV_MODE", false),
		DevTelegramID:    getEnvAsInt64("TELEGRAM_DEV_USER_ID", 0),
		InitDataMaxAge:   getEnvAsDuration("INIT_DATA_MAX_AGE", 24*time.Hour),
		WebAppURL:        strings.TrimSuffix(getEnv("WEBAPP_URL", "http://localhost:8080"), "/"),

		SessionSecret:    getEnv("SESSION_SECRET", ""),
		SessionCookie:    getEnv("SESSION_COOKIE", "partner_session"),
		CookieSecure:     getEnvAsBool("COOKIE_SECURE", true),
		SessionInitWait:  getEnvAsDuration("SESSION_INIT_WAIT", 2*time.Second),
		SessionIdleTTL:   getEnvAsDuration("SESSION_IDLE_TTL", 12*time.Hour),
		SessionSweepSpec: getEnv("SESSION_SWEEP_SPEC", "@every 10m"),

		TokenStore: strings.ToLower(getEnv("TOKEN_STORE", "memory")),
		RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "postgres"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DepositWalletAddress:  getEnv("DEPOSIT_WALLET_ADDRESS", ""),
		DepositNetwork:        getEnv("DEPOSIT_NETWORK", "USDT (TRC-20)"),
		PurchaseRedirectDelay: getEnvAsDuration("PURCHASE_REDIRECT_DELAY", 0),
		PageSize:              getEnvAsInt("PAGE_SIZE", 20),

		LoginRateLimit:  getEnvAsInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getEnvAsDuration("LOGIN_RATE_WINDOW", time.Minute),
	}

	if cfg.SessionSecret == "" && cfg.Env != "release" {
		cfg.SessionSecret = "dev-session-secret"
	}
	return cfg
}

func (c *Config) IsRelease() bool { return c.Env == "release" }

// PostgresDSN builds the pgx connection string for the postgres token store.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func (c *Config) Validate() error {
	var errs []error
	if c.BackendURL == "" {
		errs = append(errs, errors.New("BACKEND_API_URL is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required in release mode"))
	}
	if c.TelegramBotToken == "" && !c.TelegramDevMode {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required unless TELEGRAM_DEV_MODE is set"))
	}
	switch c.TokenStore {
	case "memory", "redis", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown TOKEN_STORE %q", c.TokenStore))
	}
	if c.PageSize <= 0 {
		errs = append(errs, errors.New("PAGE_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	strVal := getEnv(key, "")
	if val, err := strconv.ParseBool(strVal); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	strVal := getEnv(key, "")
	if val, err := strconv.Atoi(strVal); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	strVal := getEnv(key, "")
	if val, err := strconv.ParseInt(strVal, 10, 64); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strVal := getEnv(key, "")
	if val, err := time.ParseDuration(strVal); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	val := getEnv(key, "")
	if val == "" {
		return defaultValue
	}
	parts := strings.Split(val, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}
