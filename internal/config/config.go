package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string
	AutoMigrate bool
	StaticDir   string
	CORSOrigins []string
	ChatRateRPS float64
	ChatBurst   int

	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is honoured.
	TrustedProxies []string

	JWTSecret     string
	JWTTTL        time.Duration
	AdminUsername string
	AdminPassword string

	LLMProvider    string
	OpenAIAPIKey   string
	OpenAIModel    string
	GeminiAPIKey   string
	GeminiModel    string
	LLMTimeout     time.Duration
	LLMMaxTokens   int
	LLMTemperature float32

	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string
	AdminWhatsAppNumber  string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	AdminEmail        string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration
	CacheCapacity int

	ClinicName       string
	ClinicTimezone   string
	SlotHorizonDays  int
	SlotStartHour    int
	SlotEndHour      int
	SlotLimit        int
	SlotDisplayLimit int
	DigestSchedule   string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		AutoMigrate: getEnvAsBool("AUTO_MIGRATE", true),
		StaticDir:   getEnv("STATIC_DIR", "./static"),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),
		ChatRateRPS: getEnvAsFloat64("CHAT_RATE_LIMIT", 1),
		ChatBurst:   getEnvAsInt("CHAT_RATE_BURST", 5),

		TrustedProxies: getEnvAsList("TRUSTED_PROXIES", nil),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTTTL:        getEnvAsDuration("JWT_TTL", time.Hour),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		LLMProvider:    strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "auto"))),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		LLMMaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 500),
		LLMTemperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.7),

		TwilioAccountSID:     getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppNumber: getEnv("TWILIO_WHATSAPP_NUMBER", ""),
		AdminWhatsAppNumber:  getEnv("ADMIN_WHATSAPP_NUMBER", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Vet Clinic Assistant"),
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		CacheCapacity: getEnvAsInt("CACHE_CAPACITY", 1000),

		ClinicName:       getEnv("CLINIC_NAME", "Dr. Venky Pet Clinic"),
		ClinicTimezone:   getEnv("CLINIC_TIMEZONE", "UTC"),
		SlotHorizonDays:  getEnvAsInt("SLOT_HORIZON_DAYS", 7),
		SlotStartHour:    getEnvAsInt("SLOT_START_HOUR", 9),
		SlotEndHour:      getEnvAsInt("SLOT_END_HOUR", 18),
		SlotLimit:        getEnvAsInt("SLOT_LIMIT", 10),
		SlotDisplayLimit: getEnvAsInt("SLOT_DISPLAY_LIMIT", 5),
		DigestSchedule:   getEnv("DIGEST_SCHEDULE", ""),
	}
}

// Validate reports settings that cannot produce a working service.
func (c *Config) Validate() error {
	if c.SlotStartHour < 0 || c.SlotStartHour > 23 {
		return fmt.Errorf("SLOT_START_HOUR must be between 0 and 23 (got %d)", c.SlotStartHour)
	}
	if c.SlotEndHour < 1 || c.SlotEndHour > 24 {
		return fmt.Errorf("SLOT_END_HOUR must be between 1 and 24 (got %d)", c.SlotEndHour)
	}
	if c.SlotEndHour <= c.SlotStartHour {
		return fmt.Errorf("SLOT_END_HOUR (%d) must be after SLOT_START_HOUR (%d)", c.SlotEndHour, c.SlotStartHour)
	}
	if c.SlotHorizonDays <= 0 {
		return fmt.Errorf("SLOT_HORIZON_DAYS must be positive (got %d)", c.SlotHorizonDays)
	}
	if c.SlotLimit <= 0 {
		return fmt.Errorf("SLOT_LIMIT must be positive (got %d)", c.SlotLimit)
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("CACHE_CAPACITY must be positive (got %d)", c.CacheCapacity)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive (got %s)", c.CacheTTL)
	}
	switch c.LLMProvider {
	case "auto", "openai", "gemini":
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of auto, openai, gemini (got %q)", c.LLMProvider)
	}
	if _, err := time.LoadLocation(c.ClinicTimezone); err != nil {
		return fmt.Errorf("CLINIC_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the clinic's time zone, UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
