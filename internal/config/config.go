package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	BotToken       string // DATACOL_BOT_TOKEN (required)
	DatabaseURL    string // DATACOL_DATABASE_URL (required)
	PublicURL      string // DATACOL_PUBLIC_URL or RENDER_EXTERNAL_URL (set = push mode)
	HTTPAddr       string // DATACOL_HTTP_ADDR (default ":" + PORT, or ":10000")
	GRPCAddr       string // DATACOL_GRPC_ADDR (optional, empty = no gRPC health server)
	WebhookSecret  string // DATACOL_WEBHOOK_SECRET (optional)
	AuthToken      string // DATACOL_AUTH_TOKEN (optional, empty = stats API open)
	NATSURL        string // DATACOL_NATS_URL (optional, empty = no events)
	RedisURL       string // DATACOL_REDIS_URL (optional, moves the cursor to Redis)
	TelegramAPIURL string // DATACOL_TELEGRAM_API_URL (default Bot API endpoint)

	// Ingestion policy and pull duty cycle
	AllowedKinds []string      // DATACOL_ALLOWED_KINDS (comma list; empty = all)
	PollActive   time.Duration // DATACOL_POLL_ACTIVE (default 1.2s)
	PollTimeout  time.Duration // DATACOL_POLL_TIMEOUT (default 6s)
	PollIdle     time.Duration // DATACOL_POLL_IDLE (default 3s)

	// Sync settings
	SyncInterval   time.Duration // DATACOL_SYNC_INTERVAL (default 0 = disabled)
	SyncS3Bucket   string        // DATACOL_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // DATACOL_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // DATACOL_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // DATACOL_SYNC_S3_KEY (default "datacol/backup.jsonl")
	SyncGitRepo    string        // DATACOL_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // DATACOL_SYNC_GIT_FILE (default "datacol.jsonl")
	SyncGitBranch  string        // DATACOL_SYNC_GIT_BRANCH (default "main")

	LogLevel  string // DATACOL_LOG_LEVEL (default "info")
	LogFormat string // DATACOL_LOG_FORMAT ("text" or "json", default "text")
}

// fileConfig is the optional TOML file named by DATACOL_CONFIG_FILE.
// Environment variables take precedence over file values.
type fileConfig struct {
	Ingest struct {
		AllowedKinds []string `toml:"allowed_kinds"`
	} `toml:"ingest"`
	Poll struct {
		Active  string `toml:"active"`
		Timeout string `toml:"timeout"`
		Idle    string `toml:"idle"`
	} `toml:"poll"`
	Sync struct {
		Interval string `toml:"interval"`
	} `toml:"sync"`
}

// Mode returns "push" when a public URL is configured and "pull" otherwise.
func (c *Config) Mode() string {
	if c.PublicURL != "" {
		return "push"
	}
	return "pull"
}

// WebhookURL is the URL registered with the Bot API in push mode.
func (c *Config) WebhookURL() string {
	if c.PublicURL == "" {
		return ""
	}
	return strings.TrimRight(c.PublicURL, "/") + "/webhook"
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var fc fileConfig
	if path := os.Getenv("DATACOL_CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return nil, fmt.Errorf("DATACOL_CONFIG_FILE: %w", err)
		}
	}

	c := &Config{
		BotToken:       strings.TrimSpace(os.Getenv("DATACOL_BOT_TOKEN")),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATACOL_DATABASE_URL")),
		PublicURL:      strings.TrimSpace(envOrDefault("DATACOL_PUBLIC_URL", os.Getenv("RENDER_EXTERNAL_URL"))),
		HTTPAddr:       envOrDefault("DATACOL_HTTP_ADDR", ":"+envOrDefault("PORT", "10000")),
		GRPCAddr:       os.Getenv("DATACOL_GRPC_ADDR"),
		WebhookSecret:  os.Getenv("DATACOL_WEBHOOK_SECRET"),
		AuthToken:      os.Getenv("DATACOL_AUTH_TOKEN"),
		NATSURL:        os.Getenv("DATACOL_NATS_URL"),
		RedisURL:       os.Getenv("DATACOL_REDIS_URL"),
		TelegramAPIURL: os.Getenv("DATACOL_TELEGRAM_API_URL"),
		AllowedKinds:   fc.Ingest.AllowedKinds,
		SyncS3Bucket:   os.Getenv("DATACOL_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("DATACOL_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("DATACOL_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("DATACOL_SYNC_S3_KEY", "datacol/backup.jsonl"),
		SyncGitRepo:    os.Getenv("DATACOL_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("DATACOL_SYNC_GIT_FILE", "datacol.jsonl"),
		SyncGitBranch:  envOrDefault("DATACOL_SYNC_GIT_BRANCH", "main"),
		LogLevel:       envOrDefault("DATACOL_LOG_LEVEL", "info"),
		LogFormat:      envOrDefault("DATACOL_LOG_FORMAT", "text"),
	}
	if c.BotToken == "" {
		return nil, fmt.Errorf("DATACOL_BOT_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("DATACOL_DATABASE_URL is required")
	}

	if kinds := os.Getenv("DATACOL_ALLOWED_KINDS"); kinds != "" {
		c.AllowedKinds = splitList(kinds)
	}

	durations := []struct {
		key      string
		file     string
		fallback string
		dst      *time.Duration
	}{
		{"DATACOL_POLL_ACTIVE", fc.Poll.Active, "1.2s", &c.PollActive},
		{"DATACOL_POLL_TIMEOUT", fc.Poll.Timeout, "6s", &c.PollTimeout},
		{"DATACOL_POLL_IDLE", fc.Poll.Idle, "3s", &c.PollIdle},
		{"DATACOL_SYNC_INTERVAL", fc.Sync.Interval, "0s", &c.SyncInterval},
	}
	for _, d := range durations {
		fallback := d.fallback
		if d.file != "" {
			fallback = d.file
		}
		v, err := time.ParseDuration(envOrDefault(d.key, fallback))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("%s: must not be negative", d.key)
		}
		*d.dst = v
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("DATACOL_LOG_FORMAT: unknown format %q", c.LogFormat)
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
