// Package extension is the surface the host editor talks to.
//
// The extension bridges the host's language-intelligence framework to the
// external, Java-based Nextflow language server. It does three things:
//
//   - Ensures the server jar is present locally, downloading and unpacking
//     it from the upstream release feed on first use (internal/install).
//   - Produces the fixed command triple used to launch the server: the
//     bundled Java runtime, "-jar", and the resolved jar path.
//   - Renders language-server completion items into display labels with
//     annotated sub-ranges (internal/lsp).
//
// Everything else — process supervision, the LSP transport, editor UI —
// belongs to the host runtime.
package extension
