// Package lsp provides the completion protocol types and code-label
// rendering for the Nextflow language-server extension.
//
// The extension does not speak LSP itself: the host editor owns the
// transport, the request/response framing, and the server process. This
// package holds only the slice of the protocol the extension touches:
//
//   - CompletionItem and CompletionItemKind, as delivered by the host from
//     the Nextflow language server.
//   - Command, the launch triple the host uses to start the server.
//   - CodeLabel and CodeLabelSpan, the display structure the host renders
//     for a completion item, produced by LabelForCompletion.
//
// LabelForCompletion is a pure function. It returns nil for any completion
// kind it does not explicitly handle, in which case the host falls back to
// its own default rendering.
package lsp
