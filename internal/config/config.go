// Package config holds the extension's configuration.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/nextflow-ls/internal/logging"
)

// Defaults mirror the upstream distribution of the Nextflow language
// server: a single fat jar published as a zipped GitHub release asset,
// launched with the Java runtime bundled alongside the extension.
const (
	// DefaultRepository is the upstream GitHub repository releasing the server.
	DefaultRepository = "nextflow-io/language-server"

	// DefaultArtifactName is the fixed local filename of the installed server
	// jar, and the exact release asset name expected upstream.
	DefaultArtifactName = "language-server-all.jar"

	// DefaultStagingDir is where downloaded archives are unpacked before the
	// extracted jar is moved into place.
	DefaultStagingDir = "jar-download"

	// DefaultJavaPath is the bundled Java launcher, relative to the
	// extension's install directory.
	DefaultJavaPath = "./bin/java"

	// DefaultRequestTimeout bounds release lookups and downloads.
	DefaultRequestTimeout = 60 * time.Second
)

// Validation errors.
var (
	ErrEmptyArtifactName = errors.New("config: artifact name is required")
	ErrEmptyStagingDir   = errors.New("config: staging dir is required")
	ErrEmptyJavaPath     = errors.New("config: java path is required")
	ErrInvalidRepository = errors.New("config: repository must be owner/name")
)

// Config describes where the extension installs the language server and
// how it reaches the release feed.
type Config struct {
	// WorkDir is the directory the artifact and staging directory live in.
	// Relative paths are resolved by the host against the extension's
	// working directory.
	WorkDir string

	// Repository is the upstream GitHub repository, as "owner/name".
	Repository string

	// ArtifactName is the installed server filename and the release asset
	// name to match, byte for byte.
	ArtifactName string

	// StagingDir is the temporary unpack directory, relative to WorkDir.
	StagingDir string

	// JavaPath is the launcher executable for the server.
	JavaPath string

	// RequestTimeout bounds individual network operations.
	RequestTimeout time.Duration

	// LogLevel is the minimum level for extension logging.
	LogLevel logging.Level
}

// Option configures a Config.
type Option func(*Config)

// WithWorkDir sets the directory the artifact is installed into.
func WithWorkDir(dir string) Option {
	return func(c *Config) {
		c.WorkDir = dir
	}
}

// WithRepository overrides the upstream release repository.
func WithRepository(repo string) Option {
	return func(c *Config) {
		c.Repository = repo
	}
}

// WithArtifactName overrides the expected asset and install filename.
func WithArtifactName(name string) Option {
	return func(c *Config) {
		c.ArtifactName = name
	}
}

// WithJavaPath overrides the launcher executable path.
func WithJavaPath(path string) Option {
	return func(c *Config) {
		c.JavaPath = path
	}
}

// WithRequestTimeout overrides the network timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// WithLogLevel sets the minimum log level.
func WithLogLevel(level logging.Level) Option {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// New creates a Config with defaults applied, then options.
func New(opts ...Option) *Config {
	c := &Config{
		WorkDir:        ".",
		Repository:     DefaultRepository,
		ArtifactName:   DefaultArtifactName,
		StagingDir:     DefaultStagingDir,
		JavaPath:       DefaultJavaPath,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       logging.LevelInfo,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ArtifactName == "" {
		return ErrEmptyArtifactName
	}
	if c.StagingDir == "" {
		return ErrEmptyStagingDir
	}
	if c.JavaPath == "" {
		return ErrEmptyJavaPath
	}
	owner, name, ok := strings.Cut(c.Repository, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidRepository, c.Repository)
	}
	return nil
}

// ArtifactPath returns the full path of the installed artifact.
func (c *Config) ArtifactPath() string {
	return filepath.Join(c.WorkDir, c.ArtifactName)
}

// StagingPath returns the full path of the staging directory.
func (c *Config) StagingPath() string {
	return filepath.Join(c.WorkDir, c.StagingDir)
}
