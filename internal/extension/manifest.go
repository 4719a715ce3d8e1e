package extension

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/dshills/nextflow-ls/internal/config"
)

// ManifestFile is the manifest filename inside an extension directory.
const ManifestFile = "extension.json"

// Manifest describes the extension's metadata for the host runtime.
type Manifest struct {
	// Identity
	Name        string `json:"name"`        // Unique identifier (e.g., "nextflow")
	Version     string `json:"version"`     // Semver (e.g., "1.2.0")
	DisplayName string `json:"displayName"` // Human-readable name
	Description string `json:"description"` // Short description
	Author      string `json:"author"`      // Author name or org
	Repository  string `json:"repository"`  // Extension repository URL

	// Languages this extension provides support for.
	Languages []string `json:"languages"`

	// LanguageServers maps server identifiers to their declarations.
	LanguageServers map[string]ServerEntry `json:"languageServers"`

	// Internal: path to the extension directory
	path string
}

// ServerEntry declares a language server the extension provides.
type ServerEntry struct {
	// Language is the language the server handles.
	Language string `json:"language"`

	// UpstreamRepository is the release repository the server binary is
	// fetched from, as "owner/name".
	UpstreamRepository string `json:"upstreamRepository"`
}

// Validation errors.
var (
	ErrMissingName    = errors.New("manifest: name is required")
	ErrInvalidName    = errors.New("manifest: name must be alphanumeric with hyphens")
	ErrMissingVersion = errors.New("manifest: version is required")
	ErrInvalidVersion = errors.New("manifest: version must be valid semver")
	ErrNoServers      = errors.New("manifest: at least one language server is required")
	ErrServerLanguage = errors.New("manifest: language server needs a language")
)

// namePattern validates extension names.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// semverPattern validates version strings (simplified semver).
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// LoadManifest loads and validates an extension manifest from a file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	m.path = filepath.Dir(path)

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// LoadManifestFromDir loads the manifest from an extension directory.
func LoadManifestFromDir(dir string) (*Manifest, error) {
	return LoadManifest(filepath.Join(dir, ManifestFile))
}

// Validate checks that the manifest is valid.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return ErrMissingName
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: %s", ErrInvalidName, m.Name)
	}

	if m.Version == "" {
		return ErrMissingVersion
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: %s", ErrInvalidVersion, m.Version)
	}

	if len(m.LanguageServers) == 0 {
		return ErrNoServers
	}
	for id, entry := range m.LanguageServers {
		if entry.Language == "" {
			return fmt.Errorf("%w: %s", ErrServerLanguage, id)
		}
	}

	return nil
}

// PrimaryServer returns the extension's primary language-server
// declaration. With more than one declaration the lexicographically
// smallest identifier wins, so the choice is stable across loads.
func (m *Manifest) PrimaryServer() (string, ServerEntry, bool) {
	if len(m.LanguageServers) == 0 {
		return "", ServerEntry{}, false
	}

	ids := make([]string, 0, len(m.LanguageServers))
	for id := range m.LanguageServers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids[0], m.LanguageServers[ids[0]], true
}

// ConfigOptions returns configuration derived from the manifest: the
// primary server's upstream release repository, when declared.
func (m *Manifest) ConfigOptions() []config.Option {
	var opts []config.Option
	if _, entry, ok := m.PrimaryServer(); ok && entry.UpstreamRepository != "" {
		opts = append(opts, config.WithRepository(entry.UpstreamRepository))
	}
	return opts
}

// Path returns the path to the extension directory.
func (m *Manifest) Path() string {
	return m.path
}

// String returns a string representation of the manifest.
func (m *Manifest) String() string {
	display := m.DisplayName
	if display == "" {
		display = m.Name
	}
	return fmt.Sprintf("%s v%s", display, m.Version)
}
