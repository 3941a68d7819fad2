// Package config loads daemon settings from the environment, optionally
// layered over a TOML file named by SYNCLOG_CONFIG. Environment variables
// win over the file; the file wins over built-in defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	StreamList    string // SYNCLOG_STREAM_LIST (default "config/streams.txt")
	OutputDir     string // SYNCLOG_OUTPUT_DIR (default "/tmp")
	GRPCAddr      string // SYNCLOG_GRPC_ADDR (default ":9090")
	HTTPAddr      string // SYNCLOG_HTTP_ADDR (default ":8080")
	NATSURL       string // SYNCLOG_NATS_URL (optional, empty = in-memory transport)
	SubjectPrefix string // SYNCLOG_SUBJECT_PREFIX (optional)
	AuthToken     string // SYNCLOG_AUTH_TOKEN (optional, empty = auth disabled)
	LogLevel      string // SYNCLOG_LOG_LEVEL (default "info")

	// Type catalog
	RedisAddr       string            // SYNCLOG_REDIS_ADDR (optional)
	RedisCatalogKey string            // SYNCLOG_REDIS_CATALOG_KEY (default "synclog:types")
	Types           map[string]string // [types] table in the config file

	// Session index
	DatabaseURL string // SYNCLOG_DATABASE_URL (optional, empty = in-memory index)

	// Archive settings
	ArchiveS3Bucket    string // SYNCLOG_ARCHIVE_S3_BUCKET (enables S3 when set)
	ArchiveS3Endpoint  string // SYNCLOG_ARCHIVE_S3_ENDPOINT (custom endpoint for MinIO)
	ArchiveS3Region    string // SYNCLOG_ARCHIVE_S3_REGION (default "us-east-1")
	ArchiveS3Prefix    string // SYNCLOG_ARCHIVE_S3_PREFIX (default "synclog/")
	ArchiveGitRepo     string // SYNCLOG_ARCHIVE_GIT_REPO (enables git when set; path to clone)
	ArchiveGitDir      string // SYNCLOG_ARCHIVE_GIT_DIR (default "sessions")
	ArchiveGitBranch   string // SYNCLOG_ARCHIVE_GIT_BRANCH (default "main")
	ArchiveCompression string // SYNCLOG_ARCHIVE_COMPRESSION (default "zstd")

	StaleAfter time.Duration // SYNCLOG_STALE_AFTER (default 30s; 0 = reaper disabled)

	// Post-session hook
	HookCommand string        // SYNCLOG_HOOK_COMMAND (optional, run via sh -c after each session)
	HookTimeout time.Duration // SYNCLOG_HOOK_TIMEOUT (default 30s)
}

// File is the on-disk TOML layout. Keys mirror the environment variable
// names without the SYNCLOG_ prefix.
type File struct {
	StreamList         string            `toml:"stream_list"`
	OutputDir          string            `toml:"output_dir"`
	GRPCAddr           string            `toml:"grpc_addr"`
	HTTPAddr           string            `toml:"http_addr"`
	NATSURL            string            `toml:"nats_url"`
	SubjectPrefix      string            `toml:"subject_prefix"`
	AuthToken          string            `toml:"auth_token"`
	LogLevel           string            `toml:"log_level"`
	RedisAddr          string            `toml:"redis_addr"`
	RedisCatalogKey    string            `toml:"redis_catalog_key"`
	DatabaseURL        string            `toml:"database_url"`
	ArchiveS3Bucket    string            `toml:"archive_s3_bucket"`
	ArchiveS3Endpoint  string            `toml:"archive_s3_endpoint"`
	ArchiveS3Region    string            `toml:"archive_s3_region"`
	ArchiveS3Prefix    string            `toml:"archive_s3_prefix"`
	ArchiveGitRepo     string            `toml:"archive_git_repo"`
	ArchiveGitDir      string            `toml:"archive_git_dir"`
	ArchiveGitBranch   string            `toml:"archive_git_branch"`
	ArchiveCompression string            `toml:"archive_compression"`
	StaleAfter         string            `toml:"stale_after"`
	HookCommand        string            `toml:"hook_command"`
	HookTimeout        string            `toml:"hook_timeout"`
	Types              map[string]string `toml:"types"`
}

// Load builds the configuration from defaults, the optional file, and the
// environment.
func Load() (*Config, error) {
	c := &Config{
		StreamList:         "config/streams.txt",
		OutputDir:          "/tmp",
		GRPCAddr:           ":9090",
		HTTPAddr:           ":8080",
		LogLevel:           "info",
		RedisCatalogKey:    "synclog:types",
		ArchiveS3Region:    "us-east-1",
		ArchiveS3Prefix:    "synclog/",
		ArchiveGitDir:      "sessions",
		ArchiveGitBranch:   "main",
		ArchiveCompression: "zstd",
	}
	staleAfter := "30s"
	hookTimeout := "30s"

	if path := os.Getenv("SYNCLOG_CONFIG"); path != "" {
		f, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		f.apply(c)
		override(&staleAfter, f.StaleAfter)
		override(&hookTimeout, f.HookTimeout)
	}

	override(&c.StreamList, os.Getenv("SYNCLOG_STREAM_LIST"))
	override(&c.OutputDir, os.Getenv("SYNCLOG_OUTPUT_DIR"))
	override(&c.GRPCAddr, os.Getenv("SYNCLOG_GRPC_ADDR"))
	override(&c.HTTPAddr, os.Getenv("SYNCLOG_HTTP_ADDR"))
	override(&c.NATSURL, os.Getenv("SYNCLOG_NATS_URL"))
	override(&c.SubjectPrefix, os.Getenv("SYNCLOG_SUBJECT_PREFIX"))
	override(&c.AuthToken, os.Getenv("SYNCLOG_AUTH_TOKEN"))
	override(&c.LogLevel, os.Getenv("SYNCLOG_LOG_LEVEL"))
	override(&c.RedisAddr, os.Getenv("SYNCLOG_REDIS_ADDR"))
	override(&c.RedisCatalogKey, os.Getenv("SYNCLOG_REDIS_CATALOG_KEY"))
	override(&c.DatabaseURL, os.Getenv("SYNCLOG_DATABASE_URL"))
	override(&c.ArchiveS3Bucket, os.Getenv("SYNCLOG_ARCHIVE_S3_BUCKET"))
	override(&c.ArchiveS3Endpoint, os.Getenv("SYNCLOG_ARCHIVE_S3_ENDPOINT"))
	override(&c.ArchiveS3Region, os.Getenv("SYNCLOG_ARCHIVE_S3_REGION"))
	override(&c.ArchiveS3Prefix, os.Getenv("SYNCLOG_ARCHIVE_S3_PREFIX"))
	override(&c.ArchiveGitRepo, os.Getenv("SYNCLOG_ARCHIVE_GIT_REPO"))
	override(&c.ArchiveGitDir, os.Getenv("SYNCLOG_ARCHIVE_GIT_DIR"))
	override(&c.ArchiveGitBranch, os.Getenv("SYNCLOG_ARCHIVE_GIT_BRANCH"))
	override(&c.ArchiveCompression, os.Getenv("SYNCLOG_ARCHIVE_COMPRESSION"))
	override(&c.HookCommand, os.Getenv("SYNCLOG_HOOK_COMMAND"))
	override(&staleAfter, os.Getenv("SYNCLOG_STALE_AFTER"))
	override(&hookTimeout, os.Getenv("SYNCLOG_HOOK_TIMEOUT"))

	d, err := time.ParseDuration(staleAfter)
	if err != nil {
		return nil, fmt.Errorf("SYNCLOG_STALE_AFTER: %w", err)
	}
	c.StaleAfter = d

	if c.HookTimeout, err = time.ParseDuration(hookTimeout); err != nil {
		return nil, fmt.Errorf("SYNCLOG_HOOK_TIMEOUT: %w", err)
	}

	if _, err := c.SlogLevel(); err != nil {
		return nil, fmt.Errorf("SYNCLOG_LOG_LEVEL: %w", err)
	}

	return c, nil
}

// LoadFile decodes a TOML config file.
func LoadFile(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("reading config %s: unknown key %q", path, undecoded[0].String())
	}
	return &f, nil
}

func (f *File) apply(c *Config) {
	override(&c.StreamList, f.StreamList)
	override(&c.OutputDir, f.OutputDir)
	override(&c.GRPCAddr, f.GRPCAddr)
	override(&c.HTTPAddr, f.HTTPAddr)
	override(&c.NATSURL, f.NATSURL)
	override(&c.SubjectPrefix, f.SubjectPrefix)
	override(&c.AuthToken, f.AuthToken)
	override(&c.LogLevel, f.LogLevel)
	override(&c.RedisAddr, f.RedisAddr)
	override(&c.RedisCatalogKey, f.RedisCatalogKey)
	override(&c.DatabaseURL, f.DatabaseURL)
	override(&c.ArchiveS3Bucket, f.ArchiveS3Bucket)
	override(&c.ArchiveS3Endpoint, f.ArchiveS3Endpoint)
	override(&c.ArchiveS3Region, f.ArchiveS3Region)
	override(&c.ArchiveS3Prefix, f.ArchiveS3Prefix)
	override(&c.ArchiveGitRepo, f.ArchiveGitRepo)
	override(&c.ArchiveGitDir, f.ArchiveGitDir)
	override(&c.ArchiveGitBranch, f.ArchiveGitBranch)
	override(&c.ArchiveCompression, f.ArchiveCompression)
	override(&c.HookCommand, f.HookCommand)
	if len(f.Types) > 0 {
		c.Types = f.Types
	}
}

// SlogLevel parses LogLevel (debug, info, warn, error).
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, err
	}
	return l, nil
}

// override sets *dst to v when v is non-empty.
func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
