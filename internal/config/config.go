package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	// Submission rate limiting
	LeadCooldown      time.Duration
	RateLimitBackend  string
	RedisAddr         string
	RedisPassword     string
	RedisTLS          bool
	CooldownTable     string
	RequestRatePerSec float64
	RequestBurst      int

	// Email notification sink
	EmailProvider  string
	SendGridAPIKey string
	AdminEmail     string
	FromEmail      string
	FromName       string

	// Lead store sink
	LeadStoreBackend      string
	SheetWebAppURL        string
	SheetsSpreadsheetID   string
	SheetsRange           string
	SheetsCredentialsFile string
	SinkTimeout           time.Duration

	// Analytics
	GAMeasurementID string
	GAAPISecret     string

	// AWS (SES provider)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		LeadCooldown:      getEnvAsDuration("LEAD_COOLDOWN", 60*time.Second),
		RateLimitBackend:  strings.ToLower(strings.TrimSpace(getEnv("RATE_LIMIT_BACKEND", "memory"))),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisTLS:          getEnvAsBool("REDIS_TLS", false),
		CooldownTable:     getEnv("DYNAMODB_COOLDOWN_TABLE", "lead_cooldowns"),
		RequestRatePerSec: getEnvAsFloat("REQUEST_RATE_PER_SEC", 2),
		RequestBurst:      getEnvAsInt("REQUEST_BURST", 10),

		EmailProvider:  strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		AdminEmail:     getEnv("LEAD_ADMIN_EMAIL", getEnv("ADMIN_EMAIL", "admin@whatamatters.com")),
		FromEmail:      getEnv("LEAD_FROM_EMAIL", getEnv("RESEND_FROM_EMAIL", "leads@whatamatters.com")),
		FromName:       getEnv("LEAD_FROM_NAME", "Whatamatters Leads"),

		LeadStoreBackend:      strings.ToLower(strings.TrimSpace(getEnv("LEAD_STORE_BACKEND", "webhook"))),
		SheetWebAppURL:        strings.TrimSpace(getEnv("SHEET_WEBAPP_URL", getEnv("NEXT_PUBLIC_SHEET_WEBAPP_URL", ""))),
		SheetsSpreadsheetID:   getEnv("GOOGLE_SHEETS_SPREADSHEET_ID", ""),
		SheetsRange:           getEnv("GOOGLE_SHEETS_RANGE", "Leads!A1"),
		SheetsCredentialsFile: getEnv("GOOGLE_SHEETS_CREDENTIALS_FILE", ""),
		SinkTimeout:           getEnvAsDuration("SINK_TIMEOUT", 10*time.Second),

		GAMeasurementID: getEnv("GA_MEASUREMENT_ID", getEnv("NEXT_PUBLIC_GA_MEASUREMENT_ID", "")),
		GAAPISecret:     getEnv("GA_API_SECRET", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
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
