package install

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dshills/nextflow-ls/internal/config"
	"github.com/dshills/nextflow-ls/internal/download"
	"github.com/dshills/nextflow-ls/internal/release"
)

// fakeReleaseClient serves a canned release and counts lookups.
type fakeReleaseClient struct {
	mu    sync.Mutex
	calls int
	rel   *release.Release
	err   error
}

func (f *fakeReleaseClient) LatestRelease(ctx context.Context, repo string, opts release.Options) (*release.Release, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.rel, nil
}

func (f *fakeReleaseClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeFetcher writes canned files into the destination directory.
type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	files map[string]string
	err   error
}

func (f *fakeFetcher) DownloadAndExtract(ctx context.Context, url, dir string, kind download.ArchiveKind) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	for name, content := range f.files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func goodRelease() *release.Release {
	return &release.Release{
		Name:    "v1.0.0",
		TagName: "v1.0.0",
		Assets: []release.Asset{
			{Name: "language-server-all.jar", DownloadURL: "https://example.com/language-server-all.jar"},
		},
	}
}

func newTestResolver(t *testing.T, rc *fakeReleaseClient, ff *fakeFetcher, reporter StatusReporter) (*Resolver, *config.Config) {
	t.Helper()

	cfg := config.New(config.WithWorkDir(t.TempDir()))
	opts := []ResolverOption{
		WithReleaseClient(rc),
		WithFetcher(ff),
	}
	if reporter != nil {
		opts = append(opts, WithStatusReporter(reporter))
	}
	return NewResolver(cfg, opts...), cfg
}

func TestResolve_ExistingArtifact(t *testing.T) {
	rc := &fakeReleaseClient{rel: goodRelease()}
	ff := &fakeFetcher{files: map[string]string{"language-server-all.jar": "jar"}}
	r, cfg := newTestResolver(t, rc, ff, nil)

	// Artifact left over from a previous process.
	if err := os.WriteFile(cfg.ArtifactPath(), []byte("existing"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	first, err := r.Resolve(context.Background(), "test-server")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, err := r.Resolve(context.Background(), "test-server")
	if err != nil {
		t.Fatalf("Resolve() second call error = %v", err)
	}

	if first != second {
		t.Errorf("paths differ: %q vs %q", first, second)
	}
	if first != cfg.ArtifactPath() {
		t.Errorf("Resolve() = %q, want %q", first, cfg.ArtifactPath())
	}
	if rc.callCount() != 0 {
		t.Errorf("release lookups = %d, want 0", rc.callCount())
	}
	if ff.callCount() != 0 {
		t.Errorf("downloads = %d, want 0", ff.callCount())
	}
}

func TestResolve_FirstTimeInstall(t *testing.T) {
	var statuses []Status
	reporter := StatusFunc(func(serverID string, status Status) {
		if serverID != "test-server" {
			t.Errorf("status tagged %q, want %q", serverID, "test-server")
		}
		statuses = append(statuses, status)
	})

	rc := &fakeReleaseClient{rel: goodRelease()}
	ff := &fakeFetcher{files: map[string]string{"language-server-all.jar": "jar-bytes"}}
	r, cfg := newTestResolver(t, rc, ff, reporter)

	path, err := r.Resolve(context.Background(), "test-server")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if path != cfg.ArtifactPath() {
		t.Errorf("Resolve() = %q, want %q", path, cfg.ArtifactPath())
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read installed artifact: %v", err)
	}
	if string(content) != "jar-bytes" {
		t.Errorf("artifact content = %q, want %q", content, "jar-bytes")
	}

	// Staging is cleaned up after a successful install.
	if _, err := os.Stat(cfg.StagingPath()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("staging dir still present after install (err=%v)", err)
	}

	want := []Status{StatusCheckingForUpdate, StatusDownloading}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("statuses[%d] = %v, want %v", i, statuses[i], want[i])
		}
	}
}

func TestResolve_IdempotentAfterInstall(t *testing.T) {
	rc := &fakeReleaseClient{rel: goodRelease()}
	ff := &fakeFetcher{files: map[string]string{"language-server-all.jar": "jar"}}
	r, _ := newTestResolver(t, rc, ff, nil)

	if _, err := r.Resolve(context.Background(), "test-server"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, err := r.Resolve(context.Background(), "test-server"); err != nil {
		t.Fatalf("Resolve() second call error = %v", err)
	}

	if rc.callCount() != 1 {
		t.Errorf("release lookups = %d, want 1", rc.callCount())
	}
	if ff.callCount() != 1 {
		t.Errorf("downloads = %d, want 1", ff.callCount())
	}
}

func TestResolve_StaleCacheFallsBack(t *testing.T) {
	rc := &fakeReleaseClient{rel: goodRelease()}
	ff := &fakeFetcher{files: map[string]string{"language-server-all.jar": "jar"}}
	r, cfg := newTestResolver(t, rc, ff, nil)

	if _, err := r.Resolve(context.Background(), "test-server"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// Artifact deleted externally: the cached path must not be trusted.
	if err := os.Remove(cfg.ArtifactPath()); err != nil {
		t.Fatalf("remove artifact: %v", err)
	}

	path, err := r.Resolve(context.Background(), "test-server")
	if err != nil {
		t.Fatalf("Resolve() after deletion error = %v", err)
	}
	if !fileExists(path) {
		t.Errorf("artifact not reinstalled at %q", path)
	}
	if ff.callCount() != 2 {
		t.Errorf("downloads = %d, want 2", ff.callCount())
	}
}

func TestResolve_StaleStagingDir(t *testing.T) {
	rc := &fakeReleaseClient{rel: goodRelease()}
	ff := &fakeFetcher{files: map[string]string{"language-server-all.jar": "fresh"}}
	r, cfg := newTestResolver(t, rc, ff, nil)

	// A crashed earlier run left a partial download behind.
	if err := os.MkdirAll(cfg.StagingPath(), 0o755); err != nil {
		t.Fatalf("create stale staging: %v", err)
	}
	stale := filepath.Join(cfg.StagingPath(), "language-server-all.jar")
	if err := os.WriteFile(stale, []byte("partial"), 0o644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}

	path, err := r.Resolve(context.Background(), "test-server")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read installed artifact: %v", err)
	}
	if string(content) != "fresh" {
		t.Errorf("artifact content = %q, want %q", content, "fresh")
	}
}

func TestResolve_AssetNameExactMatch(t *testing.T) {
	rc := &fakeReleaseClient{rel: &release.Release{
		TagName: "v1.0.0",
		Assets: []release.Asset{
			{Name: "language-server-all.jar.sig", DownloadURL: "https://example.com/sig"},
			{Name: "Language-Server-All.jar", DownloadURL: "https://example.com/case"},
		},
	}}
	ff := &fakeFetcher{}
	r, _ := newTestResolver(t, rc, ff, nil)

	_, err := r.Resolve(context.Background(), "test-server")
	if !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("Resolve() error = %v, want ErrAssetNotFound", err)
	}
	if ff.callCount() != 0 {
		t.Errorf("downloads = %d, want 0", ff.callCount())
	}
}

func TestResolve_ReleaseLookupError(t *testing.T) {
	rc := &fakeReleaseClient{err: errors.New("feed unreachable")}
	r, _ := newTestResolver(t, rc, &fakeFetcher{}, nil)

	_, err := r.Resolve(context.Background(), "test-server")
	if !errors.Is(err, ErrReleaseLookup) {
		t.Errorf("Resolve() error = %v, want ErrReleaseLookup", err)
	}
}

func TestResolve_DownloadError(t *testing.T) {
	rc := &fakeReleaseClient{rel: goodRelease()}
	ff := &fakeFetcher{err: errors.New("connection reset")}
	r, _ := newTestResolver(t, rc, ff, nil)

	_, err := r.Resolve(context.Background(), "test-server")
	if !errors.Is(err, ErrDownload) {
		t.Errorf("Resolve() error = %v, want ErrDownload", err)
	}
}

func TestResolve_NoExtractedFile(t *testing.T) {
	rc := &fakeReleaseClient{rel: goodRelease()}
	ff := &fakeFetcher{} // downloads "succeed" but extract nothing
	r, _ := newTestResolver(t, rc, ff, nil)

	_, err := r.Resolve(context.Background(), "test-server")
	if !errors.Is(err, ErrNoExtractedFile) {
		t.Errorf("Resolve() error = %v, want ErrNoExtractedFile", err)
	}
}

func TestResolve_ErrorNotCached(t *testing.T) {
	rc := &fakeReleaseClient{err: errors.New("feed unreachable")}
	ff := &fakeFetcher{files: map[string]string{"language-server-all.jar": "jar"}}
	r, _ := newTestResolver(t, rc, ff, nil)

	if _, err := r.Resolve(context.Background(), "test-server"); err == nil {
		t.Fatal("Resolve() expected error")
	}

	// The next attempt retries from the top and succeeds.
	rc.mu.Lock()
	rc.err = nil
	rc.rel = goodRelease()
	rc.mu.Unlock()

	if _, err := r.Resolve(context.Background(), "test-server"); err != nil {
		t.Errorf("Resolve() after recovery error = %v", err)
	}
}

func TestResolve_Concurrent(t *testing.T) {
	rc := &fakeReleaseClient{rel: goodRelease()}
	ff := &fakeFetcher{files: map[string]string{"language-server-all.jar": "jar"}}
	r, cfg := newTestResolver(t, rc, ff, nil)

	const workers = 8
	var wg sync.WaitGroup
	paths := make([]string, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = r.Resolve(context.Background(), "test-server")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("Resolve() worker %d error = %v", i, errs[i])
		}
		if paths[i] != cfg.ArtifactPath() {
			t.Errorf("worker %d path = %q, want %q", i, paths[i], cfg.ArtifactPath())
		}
	}
	if ff.callCount() != 1 {
		t.Errorf("downloads = %d, want 1", ff.callCount())
	}
}

func TestInstalledPath(t *testing.T) {
	rc := &fakeReleaseClient{rel: goodRelease()}
	ff := &fakeFetcher{files: map[string]string{"language-server-all.jar": "jar"}}
	r, cfg := newTestResolver(t, rc, ff, nil)

	if _, ok := r.InstalledPath(); ok {
		t.Error("InstalledPath() reported installed before any resolve")
	}

	if _, err := r.Resolve(context.Background(), "test-server"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	path, ok := r.InstalledPath()
	if !ok || path != cfg.ArtifactPath() {
		t.Errorf("InstalledPath() = %q, %v; want %q, true", path, ok, cfg.ArtifactPath())
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusNone, "none"},
		{StatusCheckingForUpdate, "checking for update"},
		{StatusDownloading, "downloading"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.expected {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.expected)
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
