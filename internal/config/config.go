// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Mail     MailConfig
	Security SecurityConfig
	Redis    RedisConfig
	Gallery  GalleryConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port string
}

// MailConfig holds the SMTP transport credentials and addressing.
// Credentials are read once at process start; when they are absent the
// form endpoints refuse submissions instead of attempting a send.
type MailConfig struct {
	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
	FromAddress string
	AdminEmail  string
	SendTimeout time.Duration
}

// Configured reports whether the mail transport can be used at all.
func (m *MailConfig) Configured() bool {
	return m.SMTPHost != "" && m.SMTPUser != "" && m.SMTPPass != "" && m.AdminEmail != ""
}

// Addr returns the host:port SMTP dial address.
func (m *MailConfig) Addr() string {
	return m.SMTPHost + ":" + m.SMTPPort
}

// SecurityConfig holds the anti-spam policy constants. All of these are
// policy choices rather than correctness requirements, so they are tunable.
type SecurityConfig struct {
	// MinFillTime is the minimum plausible time between form render and
	// submission. Faster submissions are treated as automated.
	MinFillTime time.Duration
	// RateLimit / RateWindow bound submissions per client IP.
	RateLimit  int
	RateWindow time.Duration
	// MaxURLs caps the number of links in the combined free-text content
	// before the content heuristic flags the submission.
	MaxURLs int
	// SpamKeywords are scanned case-insensitively in free-text content.
	SpamKeywords []string
	// TokenSecret signs the form tokens embedding the render timestamp.
	// Empty disables token issuance; client timestamps still apply.
	TokenSecret string
	TokenTTL    time.Duration
}

// RedisConfig holds the optional Redis connection used for distributed
// rate limiting. When Addr is empty the in-memory limiter is used.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// GalleryConfig holds S3/MinIO connection settings for the photo gallery.
type GalleryConfig struct {
	Endpoint           string
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	Bucket             string
	UseSSL             bool
	PresignedURLExpiry time.Duration
}

// Enabled reports whether the gallery storage backend is configured.
func (g *GalleryConfig) Enabled() bool {
	return g.Bucket != "" && g.AccessKeyID != "" && g.SecretAccessKey != ""
}

// CORSConfig holds the allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Mail: MailConfig{
			SMTPHost:    getEnv("SMTP_HOST", ""),
			SMTPPort:    getEnv("SMTP_PORT", "587"),
			SMTPUser:    getEnv("SMTP_USER", ""),
			SMTPPass:    getEnv("SMTP_PASS", ""),
			FromAddress: getEnv("MAIL_FROM", "noreply@hscsonoma.org"),
			AdminEmail:  getEnv("MAIL_ADMIN", ""),
			SendTimeout: getDurationEnv("MAIL_SEND_TIMEOUT_SECONDS", 10*time.Second, time.Second),
		},
		Security: SecurityConfig{
			MinFillTime:  getDurationEnv("FORM_MIN_FILL_MS", 1500*time.Millisecond, time.Millisecond),
			RateLimit:    getIntEnv("FORM_RATE_LIMIT", 5),
			RateWindow:   getDurationEnv("FORM_RATE_WINDOW_MINUTES", 10*time.Minute, time.Minute),
			MaxURLs:      getIntEnv("FORM_MAX_URLS", 3),
			SpamKeywords: getListEnv("FORM_SPAM_KEYWORDS", defaultSpamKeywords),
			TokenSecret:  getEnv("FORM_TOKEN_SECRET", ""),
			TokenTTL:     getDurationEnv("FORM_TOKEN_TTL_MINUTES", 30*time.Minute, time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Gallery: GalleryConfig{
			Endpoint:           getEnv("GALLERY_S3_ENDPOINT", ""),
			Region:             getEnv("GALLERY_S3_REGION", "us-west-1"),
			AccessKeyID:        getEnv("GALLERY_S3_ACCESS_KEY", ""),
			SecretAccessKey:    getEnv("GALLERY_S3_SECRET_KEY", ""),
			Bucket:             getEnv("GALLERY_S3_BUCKET", ""),
			UseSSL:             getBoolEnv("GALLERY_S3_USE_SSL", true),
			PresignedURLExpiry: getDurationEnv("GALLERY_URL_EXPIRY_MINUTES", 15*time.Minute, time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{
				"https://hscsonoma.org",
				"https://www.hscsonoma.org",
				"http://localhost:3000",
			}),
		},
	}
}

// defaultSpamKeywords is a deliberately small indicator set; the content
// heuristic is a soft signal, not a filter.
var defaultSpamKeywords = []string{
	"viagra",
	"casino",
	"crypto investment",
	"seo services",
	"buy followers",
	"work from home",
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv returns an integer from an environment variable or default
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getBoolEnv returns a boolean from an environment variable or default
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultValue
}

// getDurationEnv returns a duration read as a count of the given unit from
// an environment variable, or the default
func getDurationEnv(key string, defaultValue time.Duration, unit time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * unit
		}
	}
	return defaultValue
}

// getListEnv returns a comma-separated list from an environment variable or default
func getListEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
