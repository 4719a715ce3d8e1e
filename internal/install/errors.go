package install

import "errors"

// Standard errors returned by the resolver. Each resolution failure wraps
// exactly one of these, so callers can match the failure category with
// errors.Is.
var (
	// ErrReleaseLookup indicates the release feed could not be queried or
	// no qualifying release exists.
	ErrReleaseLookup = errors.New("release lookup failed")

	// ErrAssetNotFound indicates the latest release lacks the expected
	// asset name. Permanent until upstream publishes a fixing release.
	ErrAssetNotFound = errors.New("release asset not found")

	// ErrDownload indicates the transfer or decompression failed.
	ErrDownload = errors.New("artifact download failed")

	// ErrNoExtractedFile indicates the downloaded archive contained no
	// regular file.
	ErrNoExtractedFile = errors.New("no file extracted from archive")

	// ErrInstall indicates the extracted artifact could not be moved into
	// its final location.
	ErrInstall = errors.New("artifact install failed")
)
