package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AuthClerk    = "clerk"
	AuthFirebase = "firebase"
	AuthJWT      = "jwt"

	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Firebase  FirebaseConfig  `yaml:"firebase"`
	SMS       SMSConfig       `yaml:"sms"`
	Store     StoreConfig     `yaml:"store"`
	Reminders RemindersConfig `yaml:"reminders"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Timezone  string          `yaml:"timezone"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	AssetsDir    string        `yaml:"assets_dir"`
}

type AuthConfig struct {
	Provider       string `yaml:"provider"`
	ClerkSecretKey string `yaml:"clerk_secret_key"`
	// WebhookSecret signs Clerk webhook deliveries. The webhook route is
	// not mounted when it is empty.
	WebhookSecret string `yaml:"webhook_secret"`
	// JWTSecret and JWTIssuer configure the shared-secret provider.
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`
}

type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	// CredentialsB64 holds a base64 encoded service account JSON.
	CredentialsB64 string `yaml:"credentials_b64"`
	PushEnabled    bool   `yaml:"push_enabled"`
}

// SMSConfig holds Twilio credentials. SMS delivery is off unless all three
// are set.
type SMSConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	From       string `yaml:"from"`
}

func (c SMSConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

type StoreConfig struct {
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url"`
}

type RemindersConfig struct {
	DBPath        string `yaml:"db_path"`
	StorageKey    string `yaml:"storage_key"`
	SweepSchedule string `yaml:"sweep_schedule"`
}

type MetricsConfig struct {
	User        string `yaml:"user"`
	Pass        string `yaml:"pass"`
	PprofSecret string `yaml:"pprof_secret"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:         "3333",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
			AssetsDir:    "./assets",
		},
		Auth: AuthConfig{
			Provider: AuthClerk,
		},
		Firebase: FirebaseConfig{
			CredentialsFile: "./serviceAccountKey.json",
			PushEnabled:     true,
		},
		Store: StoreConfig{
			Backend: StoreFirestore,
		},
		Reminders: RemindersConfig{
			DBPath:        "reminders.db",
			StorageKey:    "skincareReminders_v2",
			SweepSchedule: "@every 1h",
		},
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 30,
		},
		Timezone: "Local",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// GLOW_CONFIG_PATH, and the environment (after loading .env when present).
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := Default()

	if path := os.Getenv("GLOW_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("PORT", &cfg.Server.Port)
	setString("ASSETS_DIR", &cfg.Server.AssetsDir)
	setString("APP_TIMEZONE", &cfg.Timezone)
	setString("AUTH_PROVIDER", &cfg.Auth.Provider)
	setString("CLERK_SECRET_KEY", &cfg.Auth.ClerkSecretKey)
	setString("CLERK_WEBHOOK_SECRET", &cfg.Auth.WebhookSecret)
	setString("JWT_SECRET", &cfg.Auth.JWTSecret)
	setString("JWT_ISSUER", &cfg.Auth.JWTIssuer)
	setString("FIREBASE_PROJECT_ID", &cfg.Firebase.ProjectID)
	setString("FIREBASE_CREDENTIALS_FILE", &cfg.Firebase.CredentialsFile)
	setString("FCM_SERVICE_ACCOUNT_JSON", &cfg.Firebase.CredentialsB64)
	setString("TWILIO_ACCOUNT_SID", &cfg.SMS.AccountSID)
	setString("TWILIO_AUTH_TOKEN", &cfg.SMS.AuthToken)
	setString("TWILIO_FROM_NUMBER", &cfg.SMS.From)
	setString("DOCUMENT_STORE", &cfg.Store.Backend)
	setString("DATABASE_URL", &cfg.Store.DatabaseURL)
	setString("REMINDERS_DB_PATH", &cfg.Reminders.DBPath)
	setString("REMINDERS_STORAGE_KEY", &cfg.Reminders.StorageKey)
	setString("REMINDER_SWEEP_SCHEDULE", &cfg.Reminders.SweepSchedule)
	setString("METRICS_USER", &cfg.Metrics.User)
	setString("METRICS_PASS", &cfg.Metrics.Pass)
	setString("PPROF_SECRET", &cfg.Metrics.PprofSecret)

	if v := os.Getenv("FCM_PUSH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid FCM_PUSH_ENABLED: %w", err)
		}
		cfg.Firebase.PushEnabled = enabled
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit.RPS = rps
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimit.Burst = burst
	}

	return nil
}

func (c Config) Validate() error {
	switch c.Auth.Provider {
	case AuthClerk:
		if c.Auth.ClerkSecretKey == "" {
			return fmt.Errorf("CLERK_SECRET_KEY environment variable is not set")
		}
	case AuthFirebase:
	case AuthJWT:
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
		}
	default:
		return fmt.Errorf("unknown auth provider %q", c.Auth.Provider)
	}

	switch c.Store.Backend {
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case StoreFirestore, StoreMemory:
	default:
		return fmt.Errorf("unknown document store %q", c.Store.Backend)
	}

	if c.Reminders.StorageKey == "" {
		return fmt.Errorf("reminders storage key must not be empty")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// NeedsFirebase reports whether any configured component talks to Firebase.
func (c Config) NeedsFirebase() bool {
	return c.Auth.Provider == AuthFirebase || c.Store.Backend == StoreFirestore || c.Firebase.PushEnabled
}

// Location resolves the timezone used for users' local calendar dates.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
