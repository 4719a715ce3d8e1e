// Package main is the command-line entry point for the Nextflow
// language-server extension. The host editor loads the extension as a
// library; this binary exists for CI and for debugging the install flow
// outside the editor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dshills/nextflow-ls/internal/config"
	"github.com/dshills/nextflow-ls/internal/extension"
	"github.com/dshills/nextflow-ls/internal/install"
	"github.com/dshills/nextflow-ls/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("nextflow-ls %s (%s)\n", version, commit)
		return 0
	}

	cfgOpts := []config.Option{
		config.WithWorkDir(opts.workDir),
		config.WithLogLevel(logging.ParseLevel(opts.logLevel)),
	}

	// A manifest in the work dir overrides the built-in server identity
	// and upstream repository.
	serverID := extension.ServerID
	manifest, err := extension.LoadManifestFromDir(opts.workDir)
	switch {
	case err == nil:
		cfgOpts = append(cfgOpts, manifest.ConfigOptions()...)
		if id, _, ok := manifest.PrimaryServer(); ok {
			serverID = id
		}
	case errors.Is(err, os.ErrNotExist):
		// No manifest in the work dir; built-in defaults apply.
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid extension manifest: %v\n", err)
		return 1
	}

	cfg := config.New(cfgOpts...)

	log := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Output: os.Stderr,
		Prefix: "nextflow-ls",
	})
	if manifest != nil {
		log.Info("loaded %s from %s", manifest, manifest.Path())
	}

	reporter := install.StatusFunc(func(serverID string, status install.Status) {
		log.Info("%s: %s", serverID, status)
	})
	resolver := install.NewResolver(cfg,
		install.WithStatusReporter(reporter),
		install.WithLogger(log.WithComponent("install")),
	)

	ext, err := extension.New(cfg, extension.WithLogger(log), extension.WithResolver(resolver))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	ctx := context.Background()

	switch {
	case opts.install:
		path, err := resolver.Resolve(ctx, serverID)
		if err != nil {
			return reportResolveError(err)
		}
		fmt.Println(path)
		return 0

	case opts.command:
		cmd, err := ext.LaunchCommand(ctx, serverID)
		if err != nil {
			return reportResolveError(err)
		}
		fmt.Printf("%s %s\n", cmd.Command, strings.Join(cmd.Args, " "))
		return 0

	default:
		flag.Usage()
		return 2
	}
}

// reportResolveError prints a resolution failure with its category.
func reportResolveError(err error) int {
	switch {
	case errors.Is(err, install.ErrReleaseLookup):
		fmt.Fprintf(os.Stderr, "Error: could not reach the release feed: %v\n", err)
	case errors.Is(err, install.ErrAssetNotFound):
		fmt.Fprintf(os.Stderr, "Error: latest release has no server jar: %v\n", err)
	case errors.Is(err, install.ErrDownload):
		fmt.Fprintf(os.Stderr, "Error: download failed: %v\n", err)
	case errors.Is(err, install.ErrNoExtractedFile), errors.Is(err, install.ErrInstall):
		fmt.Fprintf(os.Stderr, "Error: install failed: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return 1
}

// options holds parsed command-line options.
type options struct {
	install     bool
	command     bool
	workDir     string
	logLevel    string
	showVersion bool
}

// parseFlags parses command-line flags.
func parseFlags() options {
	var opts options

	flag.BoolVar(&opts.install, "install", false, "install the language server artifact and print its path")
	flag.BoolVar(&opts.command, "command", false, "print the launch command (installing first if needed)")
	flag.StringVar(&opts.workDir, "work-dir", ".", "directory the artifact is installed into")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	flag.Parse()
	return opts
}
