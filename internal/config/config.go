package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Bubble    BubbleConfig    `json:"bubble"`
	SMS       SMSConfig       `json:"sms"`
	Email     EmailConfig     `json:"email"`
	AWS       AWSConfig       `json:"aws"`
	Analytics AnalyticsConfig `json:"analytics"`
	Tutorial  TutorialConfig  `json:"tutorial"`
	Variant   VariantConfig   `json:"variant"`
	Security  SecurityConfig  `json:"security"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Logging   LoggingConfig   `json:"logging"`
	App       AppConfig       `json:"app"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	AllowedOrigins  []string      `json:"allowed_origins"`
	PublicURL       string        `json:"public_url"`
}

// DatabaseConfig represents database configuration. An empty host keeps
// everything in memory.
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
}

// BubbleConfig points at the Bubble app's workflow API
type BubbleConfig struct {
	BaseURL string        `json:"base_url"`
	APIKey  string        `json:"api_key"`
	Timeout time.Duration `json:"timeout"`
}

// SMSConfig selects and configures the text message provider
type SMSConfig struct {
	Provider string       `json:"provider"` // twilio, sns or log
	Twilio   TwilioConfig `json:"twilio"`
	SenderID string       `json:"sender_id"`
}

type TwilioConfig struct {
	AccountSID string        `json:"account_sid"`
	AuthToken  string        `json:"auth_token"`
	From       string        `json:"from"`
	BaseURL    string        `json:"base_url"`
	Timeout    time.Duration `json:"timeout"`
}

// EmailConfig selects the invite email provider
type EmailConfig struct {
	Provider string `json:"provider"` // ses or log
	From     string `json:"from"`
}

// AWSConfig is shared by SNS and SES
type AWSConfig struct {
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

type AnalyticsConfig struct {
	QueueSize      int           `json:"queue_size"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	RollupSchedule string        `json:"rollup_schedule"`
	RollupWindow   time.Duration `json:"rollup_window"`
	// ArchiveBucket enables the daily S3 export when set
	ArchiveBucket   string `json:"archive_bucket"`
	ArchivePrefix   string `json:"archive_prefix"`
	ArchiveSchedule string `json:"archive_schedule"`
	ArchiveFormat   string `json:"archive_format"`
}

type TutorialConfig struct {
	SessionTTL    time.Duration `json:"session_ttl"`
	SweepInterval time.Duration `json:"sweep_interval"`
	VideoURL      string        `json:"video_url"`
}

type VariantConfig struct {
	Routes []string `json:"routes"`
}

// SecurityConfig
type SecurityConfig struct {
	CookieSecret string        `json:"cookie_secret"`
	CookieMaxAge time.Duration `json:"cookie_max_age"`
	SecureCookie bool          `json:"secure_cookie"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute"`
	Burst             int `json:"burst"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// AppConfig holds the store links sent to new users
type AppConfig struct {
	IOSURL           string `json:"ios_url"`
	AndroidURL       string `json:"android_url"`
	MaxParallelSends int    `json:"max_parallel_sends"`
}

// LoadConfig loads configuration from defaults, an optional .env file, the
// JSON file at configPath and finally environment variables.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// Load from file if exists
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Port:           5432,
			DBName:         "ops_web",
			SSLMode:        "disable",
			MaxConnections: 20,
			MaxIdleConns:   5,
			MaxLifetime:    time.Hour,
		},
		Bubble: BubbleConfig{
			Timeout: 15 * time.Second,
		},
		SMS: SMSConfig{
			Provider: "log",
			Twilio:   TwilioConfig{Timeout: 10 * time.Second},
			SenderID: "OPS",
		},
		Email: EmailConfig{
			Provider: "log",
			From:     "OPS <hello@opsapp.co>",
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Analytics: AnalyticsConfig{
			QueueSize:       1024,
			WriteTimeout:    5 * time.Second,
			RollupSchedule:  "@every 5m",
			RollupWindow:    30 * 24 * time.Hour,
			ArchivePrefix:   "analytics",
			ArchiveSchedule: "CRON_TZ=UTC 15 0 * * *",
			ArchiveFormat:   "xlsx",
		},
		Tutorial: TutorialConfig{
			SessionTTL:    30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Variant: VariantConfig{
			Routes: []string{"/", "/tutorial", "/signup"},
		},
		Security: SecurityConfig{
			CookieMaxAge: 365 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			Burst:             10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		App: AppConfig{
			MaxParallelSends: 4,
		},
	}
}

// Validate checks settings that cannot be defaulted
func (c *Config) Validate() error {
	if c.Security.CookieSecret == "" {
		return errors.New("security.cookie_secret is required")
	}
	if len(c.Security.CookieSecret) < 32 {
		return errors.New("security.cookie_secret must be at least 32 characters")
	}
	switch c.SMS.Provider {
	case "twilio":
		if c.SMS.Twilio.AccountSID == "" || c.SMS.Twilio.AuthToken == "" || c.SMS.Twilio.From == "" {
			return errors.New("sms.twilio requires account_sid, auth_token and from")
		}
	case "sns", "log":
	default:
		return fmt.Errorf("unknown sms provider %q", c.SMS.Provider)
	}
	switch c.Analytics.ArchiveFormat {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("unknown analytics archive format %q", c.Analytics.ArchiveFormat)
	}
	switch c.Email.Provider {
	case "ses", "log":
	default:
		return fmt.Errorf("unknown email provider %q", c.Email.Provider)
	}
	return nil
}

func overrideWithEnv(config *Config) error {
	strs := map[string]*string{
		"SERVER_HOST":               &config.Server.Host,
		"PUBLIC_URL":                &config.Server.PublicURL,
		"DATABASE_HOST":             &config.Database.Host,
		"DATABASE_USER":             &config.Database.User,
		"DATABASE_PASSWORD":         &config.Database.Password,
		"DATABASE_DBNAME":           &config.Database.DBName,
		"DATABASE_SSLMODE":          &config.Database.SSLMode,
		"BUBBLE_BASE_URL":           &config.Bubble.BaseURL,
		"BUBBLE_API_KEY":            &config.Bubble.APIKey,
		"SMS_PROVIDER":              &config.SMS.Provider,
		"SMS_SENDER_ID":             &config.SMS.SenderID,
		"TWILIO_ACCOUNT_SID":        &config.SMS.Twilio.AccountSID,
		"TWILIO_AUTH_TOKEN":         &config.SMS.Twilio.AuthToken,
		"TWILIO_FROM_NUMBER":        &config.SMS.Twilio.From,
		"EMAIL_PROVIDER":            &config.Email.Provider,
		"EMAIL_FROM":                &config.Email.From,
		"AWS_REGION":                &config.AWS.Region,
		"AWS_ACCESS_KEY_ID":         &config.AWS.AccessKeyID,
		"AWS_SECRET_ACCESS_KEY":     &config.AWS.SecretAccessKey,
		"ANALYTICS_ROLLUP_SCHEDULE": &config.Analytics.RollupSchedule,
		"ANALYTICS_ARCHIVE_BUCKET":  &config.Analytics.ArchiveBucket,
		"TUTORIAL_VIDEO_URL":        &config.Tutorial.VideoURL,
		"COOKIE_SECRET":             &config.Security.CookieSecret,
		"LOG_LEVEL":                 &config.Logging.Level,
		"APP_IOS_URL":               &config.App.IOSURL,
		"APP_ANDROID_URL":           &config.App.AndroidURL,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SERVER_PORT":           &config.Server.Port,
		"DATABASE_PORT":         &config.Database.Port,
		"RATE_LIMIT_PER_MINUTE": &config.RateLimit.RequestsPerMinute,
		"RATE_LIMIT_BURST":      &config.RateLimit.Burst,
		"ANALYTICS_QUEUE_SIZE":  &config.Analytics.QueueSize,
		"INVITE_MAX_PARALLEL":   &config.App.MaxParallelSends,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"BUBBLE_TIMEOUT":       &config.Bubble.Timeout,
		"TUTORIAL_SESSION_TTL": &config.Tutorial.SessionTTL,
		"SHUTDOWN_TIMEOUT":     &config.Server.ShutdownTimeout,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	if v := os.Getenv("SECURE_COOKIE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SECURE_COOKIE: %w", err)
		}
		config.Security.SecureCookie = b
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		config.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// UseDatabase reports whether PostgreSQL is configured
func (c *DatabaseConfig) UseDatabase() bool {
	return c.Host != ""
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
