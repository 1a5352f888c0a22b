// Package config loads runtime settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SweepPolicyExpire = "expire"
	SweepPolicyRefund = "refund"
)

type Config struct {
	Port     string
	LogLevel string

	DatabaseURL        string
	ClerkSecretKey     string
	ClerkWebhookSecret string

	// AllowUnsignedWebhooks accepts Clerk webhooks without a secret.
	// Local development only.
	AllowUnsignedWebhooks bool

	OracleBaseURL string
	OracleAPIKey  string
	OracleTimeout time.Duration

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	CDNBaseURL        string

	FCMCredentialsJSON string // base64, takes precedence over the file
	FCMCredentialsFile string

	SweepInterval    time.Duration
	SweepPolicy      string
	ReminderInterval time.Duration

	WelcomeZcoins int

	MetricsUser string
	MetricsPass string

	RateLimitRPS   float64
	RateLimitBurst int

	ProofDeepLinkBase string
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults and
// validating required settings.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var errs []error

	duration := func(key string, def time.Duration) time.Duration {
		raw := get(key, "")
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, raw))
			return def
		}
		return d
	}
	integer := func(key string, def int) int {
		raw := get(key, "")
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid integer %q", key, raw))
			return def
		}
		return n
	}
	boolean := func(key string) bool {
		raw := get(key, "")
		if raw == "" {
			return false
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid boolean %q", key, raw))
		}
		return b
	}
	float := func(key string, def float64) float64 {
		raw := get(key, "")
		if raw == "" {
			return def
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid number %q", key, raw))
			return def
		}
		return f
	}

	c := &Config{
		Port:     get("PORT", "3333"),
		LogLevel: get("LOG_LEVEL", "info"),

		DatabaseURL:        get("DATABASE_URL", ""),
		ClerkSecretKey:     get("CLERK_SECRET_KEY", ""),
		ClerkWebhookSecret: get("CLERK_WEBHOOK_SECRET", ""),

		AllowUnsignedWebhooks: boolean("ALLOW_UNSIGNED_WEBHOOKS"),

		OracleBaseURL: strings.TrimRight(get("ORACLE_BASE_URL", ""), "/"),
		OracleAPIKey:  get("ORACLE_API_KEY", ""),
		OracleTimeout: duration("ORACLE_TIMEOUT", 90*time.Second),

		S3Bucket:          get("S3_BUCKET", ""),
		S3Region:          get("S3_REGION", "auto"),
		S3Endpoint:        get("S3_ENDPOINT", ""),
		S3AccessKeyID:     get("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: get("S3_SECRET_ACCESS_KEY", ""),
		CDNBaseURL:        strings.TrimRight(get("CDN_BASE_URL", ""), "/"),

		FCMCredentialsJSON: get("FCM_SERVICE_ACCOUNT_JSON", ""),
		FCMCredentialsFile: get("FCM_CREDENTIALS_FILE", "./serviceAccountKey.json"),

		SweepInterval:    duration("SWEEP_INTERVAL", 5*time.Minute),
		SweepPolicy:      strings.ToLower(get("SWEEP_POLICY", SweepPolicyExpire)),
		ReminderInterval: duration("REMINDER_INTERVAL", time.Minute),

		WelcomeZcoins: integer("WELCOME_ZCOINS", 10),

		MetricsUser: get("METRICS_USER", ""),
		MetricsPass: get("METRICS_PASS", ""),

		RateLimitRPS:   float("RATE_LIMIT_RPS", 5),
		RateLimitBurst: integer("RATE_LIMIT_BURST", 30),

		ProofDeepLinkBase: get("PROOF_DEEP_LINK_BASE", "zcoins://challenges/proof"),
	}

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.ClerkSecretKey == "" {
		errs = append(errs, errors.New("CLERK_SECRET_KEY is not set"))
	}
	if c.SweepPolicy != SweepPolicyExpire && c.SweepPolicy != SweepPolicyRefund {
		errs = append(errs, fmt.Errorf("SWEEP_POLICY: unknown policy %q", c.SweepPolicy))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// StorageEnabled reports whether proof uploads have a bucket to go to.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// OracleEnabled reports whether a remote oracle endpoint is configured.
func (c *Config) OracleEnabled() bool {
	return c.OracleBaseURL != ""
}
