package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Upload  UploadConfig
	Preview PreviewConfig
	Log     LogConfig
	Archive ArchiveConfig
	S3      S3Config
	GCP     GCPConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
}

// UploadConfig bounds what callers may upload and where it is staged.
type UploadConfig struct {
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	MaxBatchFiles int    `mapstructure:"max_batch_files"`
	TempDir       string `mapstructure:"temp_dir"`
	// MaxPages bounds the page count a selection may be evaluated against.
	MaxPages      int    `mapstructure:"max_pages"`
}

// MaxFileSize returns the per-file limit in bytes.
func (u UploadConfig) MaxFileSize() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// PreviewConfig controls page text previews.
type PreviewConfig struct {
	MaxPages int `mapstructure:"max_pages"`
	MaxChars int `mapstructure:"max_chars"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SlogLevel maps Level to a slog level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a JSON logger, or a text logger when Format is "text".
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Archive providers.
const (
	ArchiveNone = "none"
	ArchiveS3   = "s3"
	ArchiveGCS  = "gcs"
)

// ArchiveConfig selects where the server keeps a copy of every extracted document.
type ArchiveConfig struct {
	Provider string `mapstructure:"provider"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// GCPConfig holds settings for the page-extractor Cloud Function.
type GCPConfig struct {
	ProjectID        string `mapstructure:"project_id"`
	OutputBucket     string `mapstructure:"output_bucket"`
	OutputPrefix     string `mapstructure:"output_prefix"`
	CollectionName   string `mapstructure:"collection"`
	WorkflowID       string `mapstructure:"workflow_id"`
	WorkflowLocation string `mapstructure:"workflow_location"`
	PagesMetadataKey string `mapstructure:"pages_metadata_key"`
	ModeMetadataKey  string `mapstructure:"mode_metadata_key"`
}

// ValidateFunction checks the settings the Cloud Function cannot run without.
func (c *Config) ValidateFunction() error {
	var errs []error
	if c.GCP.ProjectID == "" {
		errs = append(errs, errors.New("PAGEPICK_GCP_PROJECT_ID must be set"))
	}
	if c.GCP.OutputBucket == "" {
		errs = append(errs, errors.New("PAGEPICK_GCP_OUTPUT_BUCKET must be set"))
	}
	return errors.Join(errs...)
}

// ValidateServer checks the server settings.
func (c *Config) ValidateServer() error {
	switch c.Archive.Provider {
	case ArchiveNone, "":
	case ArchiveS3, ArchiveGCS:
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive provider %q needs PAGEPICK_ARCHIVE_BUCKET", c.Archive.Provider)
		}
	default:
		return fmt.Errorf("unknown archive provider %q", c.Archive.Provider)
	}
	if c.Upload.MaxFileSizeMB <= 0 {
		return errors.New("upload.max_file_size_mb must be positive")
	}
	return nil
}

// Load reads configuration from environment variables with the PAGEPICK_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PAGEPICK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.environment", "development")

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 50)
	v.SetDefault("upload.max_batch_files", 20)
	v.SetDefault("upload.temp_dir", "")
	v.SetDefault("upload.max_pages", 100000)

	// Preview defaults
	v.SetDefault("preview.max_pages", 10)
	v.SetDefault("preview.max_chars", 200)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Archive defaults
	v.SetDefault("archive.provider", ArchiveNone)
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.prefix", "extracted")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// GCP defaults
	v.SetDefault("gcp.project_id", "")
	v.SetDefault("gcp.output_bucket", "")
	v.SetDefault("gcp.output_prefix", "extracted")
	v.SetDefault("gcp.collection", "extractions")
	v.SetDefault("gcp.workflow_id", "")
	v.SetDefault("gcp.workflow_location", "us-central1")
	v.SetDefault("gcp.pages_metadata_key", "pages")
	v.SetDefault("gcp.mode_metadata_key", "mode")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":             "PAGEPICK_SERVER_PORT",
		"server.read_timeout":     "PAGEPICK_SERVER_READ_TIMEOUT",
		"server.write_timeout":    "PAGEPICK_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout": "PAGEPICK_SERVER_SHUTDOWN_TIMEOUT",
		"server.environment":      "PAGEPICK_SERVER_ENVIRONMENT",
		"upload.max_file_size_mb": "PAGEPICK_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.max_batch_files":  "PAGEPICK_UPLOAD_MAX_BATCH_FILES",
		"upload.temp_dir":         "PAGEPICK_UPLOAD_TEMP_DIR",
		"upload.max_pages":        "PAGEPICK_UPLOAD_MAX_PAGES",
		"preview.max_pages":       "PAGEPICK_PREVIEW_MAX_PAGES",
		"preview.max_chars":       "PAGEPICK_PREVIEW_MAX_CHARS",
		"log.level":               "PAGEPICK_LOG_LEVEL",
		"log.format":              "PAGEPICK_LOG_FORMAT",
		"archive.provider":        "PAGEPICK_ARCHIVE_PROVIDER",
		"archive.bucket":          "PAGEPICK_ARCHIVE_BUCKET",
		"archive.prefix":          "PAGEPICK_ARCHIVE_PREFIX",
		"s3.region":               "PAGEPICK_S3_REGION",
		"s3.endpoint":             "PAGEPICK_S3_ENDPOINT",
		"s3.access_key":           "PAGEPICK_S3_ACCESS_KEY",
		"s3.secret_key":           "PAGEPICK_S3_SECRET_KEY",
		"s3.presign_expiry":       "PAGEPICK_S3_PRESIGN_EXPIRY",
		"gcp.project_id":          "PAGEPICK_GCP_PROJECT_ID",
		"gcp.output_bucket":       "PAGEPICK_GCP_OUTPUT_BUCKET",
		"gcp.output_prefix":       "PAGEPICK_GCP_OUTPUT_PREFIX",
		"gcp.collection":          "PAGEPICK_GCP_COLLECTION",
		"gcp.workflow_id":         "PAGEPICK_GCP_WORKFLOW_ID",
		"gcp.workflow_location":   "PAGEPICK_GCP_WORKFLOW_LOCATION",
		"gcp.pages_metadata_key":  "PAGEPICK_GCP_PAGES_METADATA_KEY",
		"gcp.mode_metadata_key":   "PAGEPICK_GCP_MODE_METADATA_KEY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Cloud Run and Cloud Functions set PORT. Use it unless PAGEPICK_SERVER_PORT is explicit.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("PAGEPICK_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
		MaxBatchFiles: v.GetInt("upload.max_batch_files"),
		TempDir:       v.GetString("upload.temp_dir"),
		MaxPages:      v.GetInt("upload.max_pages"),
	}
	cfg.Preview = PreviewConfig{
		MaxPages: v.GetInt("preview.max_pages"),
		MaxChars: v.GetInt("preview.max_chars"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Archive = ArchiveConfig{
		Provider: strings.ToLower(v.GetString("archive.provider")),
		Bucket:   v.GetString("archive.bucket"),
		Prefix:   v.GetString("archive.prefix"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.GCP = GCPConfig{
		ProjectID:        v.GetString("gcp.project_id"),
		OutputBucket:     v.GetString("gcp.output_bucket"),
		OutputPrefix:     v.GetString("gcp.output_prefix"),
		CollectionName:   v.GetString("gcp.collection"),
		WorkflowID:       v.GetString("gcp.workflow_id"),
		WorkflowLocation: v.GetString("gcp.workflow_location"),
		PagesMetadataKey: v.GetString("gcp.pages_metadata_key"),
		ModeMetadataKey:  v.GetString("gcp.mode_metadata_key"),
	}

	return cfg, nil
}
