package extension

import (
	"context"

	"github.com/dshills/nextflow-ls/internal/config"
	"github.com/dshills/nextflow-ls/internal/install"
	"github.com/dshills/nextflow-ls/internal/logging"
	"github.com/dshills/nextflow-ls/internal/lsp"
)

// ServerID is the identifier the host uses for the Nextflow language
// server managed by this extension.
const ServerID = "nextflow-language-server"

// Extension is the process-wide extension state. The host constructs one
// instance per plugin load and calls LaunchCommand and LabelForCompletion
// from its own lifecycle hooks.
type Extension struct {
	cfg      *config.Config
	resolver *install.Resolver
	log      *logging.Logger
}

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the extension logger.
func WithLogger(log *logging.Logger) Option {
	return func(e *Extension) {
		e.log = log
	}
}

// WithResolver overrides the artifact resolver.
func WithResolver(r *install.Resolver) Option {
	return func(e *Extension) {
		e.resolver = r
	}
}

// New creates the extension. The artifact is not resolved here; the first
// LaunchCommand call triggers installation if needed.
func New(cfg *config.Config, opts ...Option) (*Extension, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Extension{
		cfg: cfg,
		log: logging.NullLogger,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.resolver == nil {
		e.resolver = install.NewResolver(cfg, install.WithLogger(e.log.WithComponent("install")))
	}

	return e, nil
}

// Resolver returns the extension's artifact resolver.
func (e *Extension) Resolver() *install.Resolver {
	return e.resolver
}

// LaunchCommand resolves the language-server artifact and returns the
// command the host should launch: the bundled Java runtime with the jar.
func (e *Extension) LaunchCommand(ctx context.Context, serverID string) (lsp.Command, error) {
	jarPath, err := e.resolver.Resolve(ctx, serverID)
	if err != nil {
		e.log.Error("resolve language server artifact: %v", err)
		return lsp.Command{}, err
	}

	return lsp.Command{
		Command: e.cfg.JavaPath,
		Args:    []string{"-jar", jarPath},
		Env:     map[string]string{},
	}, nil
}

// LabelForCompletion renders a completion item into a display label, or
// nil when the host should use its default rendering.
func (e *Extension) LabelForCompletion(serverID string, item lsp.CompletionItem) *lsp.CodeLabel {
	label := lsp.LabelForCompletion(item)
	if label == nil {
		e.log.Debug("%s: no custom label for %s completion %q", serverID, item.Kind, item.Label)
	}
	return label
}
