package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dshills/nextflow-ls/internal/config"
	"github.com/dshills/nextflow-ls/internal/download"
	"github.com/dshills/nextflow-ls/internal/logging"
	"github.com/dshills/nextflow-ls/internal/release"
)

// ReleaseClient looks up the latest qualifying release of a repository.
type ReleaseClient interface {
	LatestRelease(ctx context.Context, repo string, opts release.Options) (*release.Release, error)
}

// Fetcher downloads an asset and unpacks it into a directory.
type Fetcher interface {
	DownloadAndExtract(ctx context.Context, url, dir string, kind download.ArchiveKind) error
}

// Resolver produces a validated local path to the installed language-server
// artifact, downloading and installing it on first use.
//
// Resolution is idempotent: once the artifact exists on disk, repeated
// calls return the same path with no network traffic. Concurrent calls
// during a first-time install collapse into a single flight.
type Resolver struct {
	cfg      *config.Config
	releases ReleaseClient
	fetcher  Fetcher
	reporter StatusReporter
	log      *logging.Logger

	group singleflight.Group

	mu         sync.Mutex
	cachedPath string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithReleaseClient overrides the release feed client.
func WithReleaseClient(rc ReleaseClient) ResolverOption {
	return func(r *Resolver) {
		r.releases = rc
	}
}

// WithFetcher overrides the download capability.
func WithFetcher(f Fetcher) ResolverOption {
	return func(r *Resolver) {
		r.fetcher = f
	}
}

// WithStatusReporter sets the host status channel.
func WithStatusReporter(sr StatusReporter) ResolverOption {
	return func(r *Resolver) {
		r.reporter = sr
	}
}

// WithLogger sets the resolver logger.
func WithLogger(log *logging.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = log
	}
}

// NewResolver creates a resolver for the configured artifact.
func NewResolver(cfg *config.Config, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cfg:      cfg,
		reporter: NopReporter,
		log:      logging.NullLogger,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.releases == nil {
		r.releases = release.NewClient(release.WithTimeout(cfg.RequestTimeout))
	}
	if r.fetcher == nil {
		r.fetcher = download.NewClient()
	}

	return r
}

// Resolve returns the path to the installed artifact, installing it first
// if necessary. serverID tags advisory status events sent to the host.
func (r *Resolver) Resolve(ctx context.Context, serverID string) (string, error) {
	if path, ok := r.cached(); ok {
		return path, nil
	}

	v, err, _ := r.group.Do(r.cfg.ArtifactName, func() (any, error) {
		return r.resolveSlow(ctx, serverID)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// InstalledPath returns the cached artifact path without triggering an
// install. ok is false when no resolution has succeeded yet or the cached
// file has been deleted externally.
func (r *Resolver) InstalledPath() (string, bool) {
	return r.cached()
}

// cached returns the in-memory path if it still refers to a regular file.
// A stale cache (file deleted externally) falls through to re-resolution
// rather than being trusted blindly.
func (r *Resolver) cached() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cachedPath != "" && isRegularFile(r.cachedPath) {
		return r.cachedPath, true
	}
	return "", false
}

// setCached records a successfully resolved path.
func (r *Resolver) setCached(path string) {
	r.mu.Lock()
	r.cachedPath = path
	r.mu.Unlock()
}

// resolveSlow runs the on-disk check and, if needed, the full install
// sequence. Callers hold the singleflight slot for this artifact.
func (r *Resolver) resolveSlow(ctx context.Context, serverID string) (string, error) {
	// Re-check under the flight: another caller may have finished the
	// install between the fast path and entering the flight.
	if path, ok := r.cached(); ok {
		return path, nil
	}

	// A jar left behind by a previous process counts as installed.
	artifactPath := r.cfg.ArtifactPath()
	if isRegularFile(artifactPath) {
		r.log.Debug("found existing artifact at %s", artifactPath)
		r.setCached(artifactPath)
		return artifactPath, nil
	}

	path, err := r.install(ctx, serverID, artifactPath)
	if err != nil {
		return "", err
	}

	r.setCached(path)
	return path, nil
}

// install performs the first-time download-unpack-install sequence.
func (r *Resolver) install(ctx context.Context, serverID, artifactPath string) (string, error) {
	r.reporter.ReportStatus(serverID, StatusCheckingForUpdate)

	rel, err := r.releases.LatestRelease(ctx, r.cfg.Repository, release.Options{
		RequireAssets: true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReleaseLookup, err)
	}
	r.log.Info("installing language server from release %s", rel.TagName)

	asset := rel.FindAsset(r.cfg.ArtifactName)
	if asset == nil {
		return "", fmt.Errorf("%w: release %s has no asset %q", ErrAssetNotFound, rel.TagName, r.cfg.ArtifactName)
	}

	r.reporter.ReportStatus(serverID, StatusDownloading)

	// The staging directory may survive a crashed earlier run; its stale
	// contents are overwritten by the fresh download.
	staging := r.cfg.StagingPath()
	if err := os.MkdirAll(staging, 0o755); err != nil {
		r.log.Warn("create staging dir %s: %v", staging, err)
	}

	if err := r.fetcher.DownloadAndExtract(ctx, asset.DownloadURL, staging, download.ArchiveZip); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}

	extracted, err := firstRegularFile(staging)
	if err != nil {
		return "", err
	}

	if err := os.Rename(extracted, artifactPath); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInstall, err)
	}

	// Cleanup is best-effort; leftover staging is inert.
	if err := os.RemoveAll(staging); err != nil {
		r.log.Warn("remove staging dir %s: %v", staging, err)
	}

	r.log.Info("installed language server at %s", artifactPath)
	return artifactPath, nil
}

// firstRegularFile returns a regular file directly inside dir. The archive
// is expected to contain exactly one top-level file; with more than one,
// the choice is unspecified.
func firstRegularFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: list %s: %v", ErrNoExtractedFile, dir, err)
	}

	for _, entry := range entries {
		if entry.Type().IsRegular() {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNoExtractedFile, dir)
}

// isRegularFile reports whether path exists and is a regular file.
func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
