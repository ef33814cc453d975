// Package config loads runtime settings from the environment and an optional .env file.
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

// Remote backends.
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendKV       = "kv"
	BackendS3       = "s3"
	BackendDynamo   = "dynamodb"
	BackendPostgres = "postgres"
)

// DefaultAdminPasswords are accepted when PICKLECUP_ADMIN_PASSWORDS is unset.
var DefaultAdminPasswords = []string{"123456", "Pickleballpctq"}

// Remote selects and configures the off-site snapshot store.
type Remote struct {
	Backend string

	KVURL   string
	KVToken string

	S3Bucket    string
	S3Key       string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	DynamoTable    string
	DynamoRegion   string
	DynamoEndpoint string

	PostgresDSN string
}

type Config struct {
	Port           int
	DBPath         string
	LogLevel       string
	AdminPasswords []string
	PublicBaseURL  string
	CORSOrigins    []string
	AutosaveDelay  time.Duration
	NoBrowser      bool
	Remote         Remote

	// RemotePoll is how often the remote store is checked for updates from
	// other devices. Zero turns polling off.
	RemotePoll time.Duration
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Port:           8080,
		DBPath:         "picklecup.db",
		LogLevel:       "info",
		AdminPasswords: append([]string(nil), DefaultAdminPasswords...),
		CORSOrigins:    []string{"*"},
		AutosaveDelay:  1500 * time.Millisecond,
		RemotePoll:     5 * time.Second,
		Remote: Remote{
			Backend:  BackendMemory,
			S3Key:    "tournament.json",
			S3Region: "auto",
		},
	}
}

// Load reads .env (if present) and then PICKLECUP_* variables from the process environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a config from getenv on top of Default.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Default()

	if v := getenv("PICKLECUP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PICKLECUP_PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := getenv("PICKLECUP_AUTOSAVE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PICKLECUP_AUTOSAVE_DELAY: %w", err)
		}
		cfg.AutosaveDelay = d
	}
	if v := getenv("PICKLECUP_REMOTE_POLL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PICKLECUP_REMOTE_POLL: %w", err)
		}
		cfg.RemotePoll = d
	}
	if v := getenv("PICKLECUP_NO_BROWSER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PICKLECUP_NO_BROWSER: %w", err)
		}
		cfg.NoBrowser = b
	}

	setString(&cfg.DBPath, getenv("PICKLECUP_DB"))
	setString(&cfg.LogLevel, getenv("PICKLECUP_LOG_LEVEL"))
	setString(&cfg.PublicBaseURL, strings.TrimRight(getenv("PICKLECUP_BASE_URL"), "/"))
	if v := splitList(getenv("PICKLECUP_ADMIN_PASSWORDS")); len(v) > 0 {
		cfg.AdminPasswords = v
	}
	if v := splitList(getenv("PICKLECUP_CORS_ORIGINS")); len(v) > 0 {
		cfg.CORSOrigins = v
	}

	r := &cfg.Remote
	setString(&r.Backend, strings.ToLower(getenv("PICKLECUP_REMOTE")))
	setString(&r.KVURL, getenv("PICKLECUP_KV_URL"))
	setString(&r.KVToken, getenv("PICKLECUP_KV_TOKEN"))
	setString(&r.S3Bucket, getenv("PICKLECUP_S3_BUCKET"))
	setString(&r.S3Key, getenv("PICKLECUP_S3_KEY"))
	setString(&r.S3Region, getenv("PICKLECUP_S3_REGION"))
	setString(&r.S3Endpoint, getenv("PICKLECUP_S3_ENDPOINT"))
	setString(&r.S3AccessKey, getenv("PICKLECUP_S3_ACCESS_KEY"))
	setString(&r.S3SecretKey, getenv("PICKLECUP_S3_SECRET_KEY"))
	setString(&r.DynamoTable, getenv("PICKLECUP_DYNAMO_TABLE"))
	setString(&r.DynamoRegion, getenv("PICKLECUP_DYNAMO_REGION"))
	setString(&r.DynamoEndpoint, getenv("PICKLECUP_DYNAMO_ENDPOINT"))
	setString(&r.PostgresDSN, getenv("PICKLECUP_POSTGRES_DSN"))

	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if len(c.AdminPasswords) == 0 {
		return errors.New("at least one admin password is required")
	}
	if c.AutosaveDelay < 0 {
		return errors.New("autosave delay cannot be negative")
	}
	if c.RemotePoll < 0 {
		return errors.New("remote poll interval cannot be negative")
	}
	return c.Remote.Validate()
}

// Validate checks that the selected backend has what it needs.
func (r Remote) Validate() error {
	switch r.Backend {
	case BackendNone, BackendMemory:
		return nil
	case BackendKV:
		if r.KVURL == "" || r.KVToken == "" {
			return errors.New("kv backend requires PICKLECUP_KV_URL and PICKLECUP_KV_TOKEN")
		}
	case BackendS3:
		if r.S3Bucket == "" {
			return errors.New("s3 backend requires PICKLECUP_S3_BUCKET")
		}
		if (r.S3AccessKey == "") != (r.S3SecretKey == "") {
			return errors.New("s3 access key and secret key must be set together")
		}
	case BackendDynamo:
		if r.DynamoTable == "" {
			return errors.New("dynamodb backend requires PICKLECUP_DYNAMO_TABLE")
		}
	case BackendPostgres:
		if r.PostgresDSN == "" {
			return errors.New("postgres backend requires PICKLECUP_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown remote backend %q", r.Backend)
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
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
