// Package release queries the GitHub release feed for the upstream
// language-server project.
package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dshills/nextflow-ls/internal/logging"
)

// Standard errors returned by the release client.
var (
	// ErrNoRelease indicates no release satisfied the lookup options.
	ErrNoRelease = errors.New("no qualifying release found")

	// ErrFeedStatus indicates the release feed answered with a non-OK status.
	ErrFeedStatus = errors.New("release feed returned unexpected status")
)

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name        string
	DownloadURL string
}

// Release describes one published release of the upstream project.
type Release struct {
	Name       string
	TagName    string
	Prerelease bool
	Assets     []Asset
}

// Options filter which release LatestRelease returns.
type Options struct {
	// RequireAssets skips releases with no downloadable assets.
	RequireAssets bool

	// IncludePrerelease allows prereleases to qualify. Drafts never qualify.
	IncludePrerelease bool
}

// listPageSize bounds how many releases a single lookup scans.
const listPageSize = 30

// Client talks to a GitHub-compatible release feed.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the feed base URL (for tests and mirrors).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the HTTP client used for feed requests.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
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

// NewClient creates a release feed client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: "https://api.github.com",
		httpc:   &http.Client{Timeout: 60 * time.Second},
		log:     logging.NullLogger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// LatestRelease returns the most recent release of repo ("owner/name")
// that satisfies opts. Releases are scanned newest first; drafts are
// always skipped.
func (c *Client) LatestRelease(ctx context.Context, repo string, opts Options) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases?per_page=%d", c.baseURL, repo, listPageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query release feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s for %s", ErrFeedStatus, resp.Status, repo)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read release feed response: %w", err)
	}

	for _, rel := range gjson.ParseBytes(body).Array() {
		if rel.Get("draft").Bool() {
			continue
		}
		if rel.Get("prerelease").Bool() && !opts.IncludePrerelease {
			continue
		}

		assets := rel.Get("assets").Array()
		if opts.RequireAssets && len(assets) == 0 {
			continue
		}

		out := &Release{
			Name:       rel.Get("name").String(),
			TagName:    rel.Get("tag_name").String(),
			Prerelease: rel.Get("prerelease").Bool(),
			Assets:     make([]Asset, 0, len(assets)),
		}
		for _, a := range assets {
			out.Assets = append(out.Assets, Asset{
				Name:        a.Get("name").String(),
				DownloadURL: a.Get("browser_download_url").String(),
			})
		}

		c.log.Debug("selected release %q with %d assets", out.TagName, len(out.Assets))
		return out, nil
	}

	return nil, fmt.Errorf("%w for %s", ErrNoRelease, repo)
}

// FindAsset returns the asset whose name exactly equals name, or nil.
// Matching is byte-exact: "language-server-all.jar.sig" does not match
// "language-server-all.jar".
func (r *Release) FindAsset(name string) *Asset {
	for i := range r.Assets {
		if r.Assets[i].Name == name {
			return &r.Assets[i]
		}
	}
	return nil
}
