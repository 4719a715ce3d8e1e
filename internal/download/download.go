// Package download fetches release assets and unpacks them into a
// destination directory.
package download

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/nextflow-ls/internal/logging"
)

// ArchiveKind identifies how a downloaded asset is packaged.
type ArchiveKind int

const (
	// ArchiveZip is a zip archive; all regular members are extracted.
	ArchiveZip ArchiveKind = iota
	// ArchiveGzip is a single gzip-compressed file.
	ArchiveGzip
	// ArchiveNone is an uncompressed file written as-is.
	ArchiveNone
)

// String returns a human-readable archive kind name.
func (k ArchiveKind) String() string {
	switch k {
	case ArchiveZip:
		return "zip"
	case ArchiveGzip:
		return "gzip"
	case ArchiveNone:
		return "none"
	default:
		return "unknown"
	}
}

// Standard errors returned by the downloader.
var (
	// ErrTransferStatus indicates the asset server answered with a non-OK status.
	ErrTransferStatus = errors.New("download returned unexpected status")

	// ErrUnsafePath indicates an archive member would escape the destination.
	ErrUnsafePath = errors.New("archive member path escapes destination")

	// ErrUnknownArchive indicates an unrecognized archive kind.
	ErrUnknownArchive = errors.New("unknown archive kind")
)

// Client downloads and unpacks assets.
type Client struct {
	httpc *http.Client
	log   *logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for transfers.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// WithTimeout sets the per-transfer timeout on the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpc = &http.Client{Timeout: d}
	}
}

// WithLogger sets the client logger.
func WithLogger(log *logging.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a downloader.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpc: &http.Client{Timeout: 5 * time.Minute},
		log:   logging.NullLogger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// DownloadAndExtract fetches url and unpacks it into dir according to
// kind. dir must already exist. Existing files are overwritten, so a
// stale staging directory from a crashed earlier run is harmless.
func (c *Client) DownloadAndExtract(ctx context.Context, url, dir string, kind ArchiveKind) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s for %s", ErrTransferStatus, resp.Status, url)
	}

	switch kind {
	case ArchiveZip:
		return c.extractZip(resp.Body, dir)
	case ArchiveGzip:
		return c.extractGzip(resp.Body, dir, url)
	case ArchiveNone:
		return writeFile(filepath.Join(dir, baseName(url)), resp.Body)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownArchive, kind)
	}
}

// extractZip unpacks every regular member of a zip archive into dir.
// Directory members are recreated; other member types are skipped.
func (c *Client) extractZip(body io.Reader, dir string) error {
	// archive/zip needs random access, so the archive is buffered first.
	// Server archives are a few tens of megabytes at most.
	buf, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read archive body: %w", err)
	}

	// Non-local member names are caught per-member by safeJoin below, so
	// the reader-level insecure-path check is not needed on top.
	zr, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("open zip archive: %w", err)
	}

	for _, member := range zr.File {
		target, err := safeJoin(dir, member.Name)
		if err != nil {
			return err
		}

		if member.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create archive directory %s: %w", member.Name, err)
			}
			continue
		}
		if !member.FileInfo().Mode().IsRegular() {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create parent for %s: %w", member.Name, err)
		}

		rc, err := member.Open()
		if err != nil {
			return fmt.Errorf("open archive member %s: %w", member.Name, err)
		}
		err = writeFile(target, rc)
		rc.Close()
		if err != nil {
			return err
		}

		c.log.Debug("extracted %s (%d bytes)", member.Name, member.UncompressedSize64)
	}

	return nil
}

// extractGzip decompresses a single gzip stream into dir, named after the
// URL with any .gz suffix dropped.
func (c *Client) extractGzip(body io.Reader, dir, url string) error {
	gr, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gr.Close()

	name := strings.TrimSuffix(baseName(url), ".gz")
	return writeFile(filepath.Join(dir, name), gr)
}

// safeJoin joins an archive member name onto dir, rejecting members that
// would resolve outside it.
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))
	if target != filepath.Clean(dir) && !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

// writeFile writes r to path, truncating any existing file.
func writeFile(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}

// baseName returns the final path element of a URL, stripped of any query.
func baseName(url string) string {
	name := path.Base(url)
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	return name
}
