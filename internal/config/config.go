// Package config loads and validates acquirer configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

// Config captures every knob of the service.
type Config struct {
	Auth       AuthConfig       `mapstructure:"auth"`
	Service    ServiceConfig    `mapstructure:"service"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Search     SearchConfig     `mapstructure:"search"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Sink       SinkConfig       `mapstructure:"sink"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// AuthConfig carries the document service token, inline or from a file.
type AuthConfig struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token_file"`
}

// ServiceConfig points at the document service.
type ServiceConfig struct {
	WSDLURL     string        `mapstructure:"wsdl_url"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	SSLVerify   bool          `mapstructure:"ssl_verify"`
}

// FetcherConfig tunes archive downloads.
type FetcherConfig struct {
	UserAgent         string        `mapstructure:"user_agent"`
	MaxArchiveBytes   int64         `mapstructure:"max_archive_bytes"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay"`
	AutoWait          bool          `mapstructure:"auto_wait"`
	BlockWait         time.Duration `mapstructure:"block_wait"`
	MaxWait           time.Duration `mapstructure:"max_wait"`
	ProgressInterval  time.Duration `mapstructure:"progress_interval"`
	BlockMarker       string        `mapstructure:"block_marker"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// ArchiveConfig bounds decompression.
type ArchiveConfig struct {
	MaxEntryBytes int64 `mapstructure:"max_entry_bytes"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	Subsystem          string   `mapstructure:"subsystem"`
	DocumentType       string   `mapstructure:"document_type"`
	IncludeAttachments bool     `mapstructure:"include_attachments"`
	Subsystems         []string `mapstructure:"subsystems"`
}

// CheckpointConfig locates resume state on disk.
type CheckpointConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
	// Mirror also uploads checkpoints to the blob sink store.
	Mirror bool `mapstructure:"mirror"`
}

// SinkConfig selects where accepted records go.
type SinkConfig struct {
	Blob     BlobSinkConfig     `mapstructure:"blob"`
	Postgres PostgresSinkConfig `mapstructure:"postgres"`
	PubSub   PubSubSinkConfig   `mapstructure:"pubsub"`
}

// BlobSinkConfig writes one JSON document per record.
type BlobSinkConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Provider string `mapstructure:"provider"`
	Prefix   string `mapstructure:"prefix"`
	BaseDir  string `mapstructure:"base_dir"`
	Bucket   string `mapstructure:"bucket"`
}

// PostgresSinkConfig upserts records into a table.
type PostgresSinkConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DSN          string `mapstructure:"dsn"`
	Table        string `mapstructure:"table"`
	MaxConns     int32  `mapstructure:"max_conns"`
	EnsureSchema bool   `mapstructure:"ensure_schema"`
}

// PubSubSinkConfig announces stored records.
type PubSubSinkConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// SearchPaths are scanned for config.{yaml,json,toml} when Load is given no path.
var SearchPaths = []string{".", "/etc/tender-acquirer", "$HOME/.tender-acquirer"}

// Load builds a Config from defaults, a config file and TENDER_* env vars.
// An empty path searches SearchPaths and tolerates finding nothing.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TENDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		for _, dir := range SearchPaths {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.token_file", "")
	v.SetDefault("service.wsdl_url", "https://int44.zakupki.gov.ru/eis-integration/services/getDocsIP?wsdl")
	v.SetDefault("service.open_timeout", 30*time.Second)
	v.SetDefault("service.read_timeout", 120*time.Second)
	v.SetDefault("service.ssl_verify", false)
	v.SetDefault("fetcher.user_agent", "tender-acquirer/1.0")
	v.SetDefault("fetcher.max_archive_bytes", 100*1024*1024)
	v.SetDefault("fetcher.max_attempts", 3)
	v.SetDefault("fetcher.retry_base_delay", time.Second)
	v.SetDefault("fetcher.auto_wait", false)
	v.SetDefault("fetcher.block_wait", 610*time.Second)
	v.SetDefault("fetcher.max_wait", 0)
	v.SetDefault("fetcher.progress_interval", time.Minute)
	v.SetDefault("fetcher.block_marker", "")
	v.SetDefault("fetcher.requests_per_second", 0)
	v.SetDefault("archive.max_entry_bytes", 100*1024*1024)
	v.SetDefault("search.subsystem", tender.DefaultSubsystem)
	v.SetDefault("search.document_type", tender.DefaultDocumentType)
	v.SetDefault("search.include_attachments", false)
	v.SetDefault("search.subsystems", tender.DefaultSearchSubsystems)
	v.SetDefault("checkpoint.enabled", true)
	v.SetDefault("checkpoint.dir", ".tender-checkpoints")
	v.SetDefault("checkpoint.mirror", false)
	v.SetDefault("sink.blob.enabled", false)
	v.SetDefault("sink.blob.provider", "local")
	v.SetDefault("sink.blob.prefix", "tenders")
	v.SetDefault("sink.blob.base_dir", "data")
	v.SetDefault("sink.blob.bucket", "")
	v.SetDefault("sink.postgres.enabled", false)
	v.SetDefault("sink.postgres.dsn", "")
	v.SetDefault("sink.postgres.table", "tenders")
	v.SetDefault("sink.postgres.max_conns", 4)
	v.SetDefault("sink.postgres.ensure_schema", true)
	v.SetDefault("sink.pubsub.enabled", false)
	v.SetDefault("sink.pubsub.project_id", "")
	v.SetDefault("sink.pubsub.topic_id", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and sane limits.
func (c Config) Validate() error {
	switch {
	case c.Service.WSDLURL == "":
		return errors.New("service.wsdl_url is required")
	case c.Service.OpenTimeout <= 0:
		return errors.New("service.open_timeout must be > 0")
	case c.Service.ReadTimeout <= 0:
		return errors.New("service.read_timeout must be > 0")
	case c.Fetcher.MaxAttempts <= 0:
		return errors.New("fetcher.max_attempts must be > 0")
	case c.Fetcher.MaxArchiveBytes <= 0:
		return errors.New("fetcher.max_archive_bytes must be > 0")
	case c.Fetcher.BlockWait <= 0:
		return errors.New("fetcher.block_wait must be > 0")
	case c.Fetcher.MaxWait < 0:
		return errors.New("fetcher.max_wait must be >= 0")
	case c.Fetcher.RequestsPerSecond < 0:
		return errors.New("fetcher.requests_per_second must be >= 0")
	case c.Archive.MaxEntryBytes <= 0:
		return errors.New("archive.max_entry_bytes must be > 0")
	case c.Server.Port <= 0:
		return errors.New("server.port must be > 0")
	case c.Checkpoint.Enabled && c.Checkpoint.Dir == "":
		return errors.New("checkpoint.dir must be set when checkpoints are enabled")
	case c.Checkpoint.Mirror && !c.Sink.Blob.Enabled:
		return errors.New("checkpoint.mirror requires sink.blob.enabled")
	case c.Sink.Blob.Enabled && c.Sink.Blob.Provider == "gcs" && c.Sink.Blob.Bucket == "":
		return errors.New("sink.blob.bucket must be set for the gcs provider")
	case c.Sink.Postgres.Enabled && c.Sink.Postgres.DSN == "":
		return errors.New("sink.postgres.dsn must be set when the postgres sink is enabled")
	case c.Sink.PubSub.Enabled && (c.Sink.PubSub.ProjectID == "" || c.Sink.PubSub.TopicID == ""):
		return errors.New("sink.pubsub.project_id and sink.pubsub.topic_id must be set when pubsub is enabled")
	}
	for _, s := range c.Search.Subsystems {
		if !tender.IsSubsystem(s) {
			return fmt.Errorf("search.subsystems: unknown subsystem %q", s)
		}
	}
	return nil
}

// ResolveToken returns the inline token, or the trimmed content of the token
// file when no inline token is set.
func (a AuthConfig) ResolveToken() (string, error) {
	if t := strings.TrimSpace(a.Token); t != "" {
		return t, nil
	}
	if a.TokenFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(a.TokenFile)
	if err != nil {
		return "", fmt.Errorf("read auth.token_file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
