package lsp

import "fmt"

// ByteRange is a half-open byte range [Start, End) within a string.
type ByteRange struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the range.
func (r ByteRange) Len() int {
	return r.End - r.Start
}

// CodeLabel is the display structure for a completion item: a rendered
// code string plus an ordered list of span annotations over it.
type CodeLabel struct {
	// Code is the rendered code string.
	Code string

	// Spans annotate Code in left-to-right order. Their concatenation
	// reproduces the displayed label.
	Spans []CodeLabelSpan

	// FilterRange is the byte range within Code used for fuzzy-match
	// highlighting. It always covers the original completion label, even
	// when Code carries extra prefixes or suffixes.
	FilterRange ByteRange
}

// CodeLabelSpan is one segment of a rendered label. A code span copies
// bytes [Range.Start, Range.End) out of CodeLabel.Code and is highlighted
// as source text; a literal span contributes standalone text with an
// optional highlight name and is never matched against the source.
type CodeLabelSpan struct {
	// Range is the byte range copied from CodeLabel.Code. Only meaningful
	// when Literal is false.
	Range ByteRange

	// Text is the literal text. Only meaningful when Literal is true.
	Text string

	// Highlight names the style applied to a literal span. Empty means
	// the host's default styling.
	Highlight string

	// Literal distinguishes the two span forms.
	Literal bool
}

// CodeRangeSpan returns a span copying bytes [start, end) from the
// rendered code string.
func CodeRangeSpan(start, end int) CodeLabelSpan {
	return CodeLabelSpan{Range: ByteRange{Start: start, End: end}}
}

// LiteralSpan returns a span carrying independently styled literal text.
func LiteralSpan(text, highlight string) CodeLabelSpan {
	return CodeLabelSpan{Text: text, Highlight: highlight, Literal: true}
}

// LabelForCompletion renders a completion item into a CodeLabel.
//
// Rendering is keyed on the item kind:
//
//   - Class, Enum, Interface: "{label} variable" with an " (import {detail})"
//     literal suffix. Items without a detail produce no label rather than a
//     blank import suffix.
//   - Method: "{label}()".
//   - Variable: "def {label}", with the "def " prefix excluded from the
//     highlighted region.
//
// Any other kind returns nil and the host falls back to its default
// rendering. The filter range always spans the original label so that
// fuzzy-match highlighting stays aligned to what the user typed.
func LabelForCompletion(item CompletionItem) *CodeLabel {
	switch item.Kind {
	case CompletionItemKindClass, CompletionItemKindEnum, CompletionItemKindInterface:
		if item.Detail == "" {
			return nil
		}
		return &CodeLabel{
			Code: item.Label + " variable",
			Spans: []CodeLabelSpan{
				CodeRangeSpan(0, len(item.Label)),
				LiteralSpan(" (import "+item.Detail+")", ""),
			},
			FilterRange: ByteRange{Start: 0, End: len(item.Label)},
		}

	case CompletionItemKindMethod:
		code := item.Label + "()"
		return &CodeLabel{
			Code:        code,
			Spans:       []CodeLabelSpan{CodeRangeSpan(0, len(code))},
			FilterRange: ByteRange{Start: 0, End: len(item.Label)},
		}

	case CompletionItemKindVariable:
		const def = "def "
		code := def + item.Label
		return &CodeLabel{
			Code:        code,
			Spans:       []CodeLabelSpan{CodeRangeSpan(len(def), len(code))},
			FilterRange: ByteRange{Start: 0, End: len(item.Label)},
		}

	default:
		return nil
	}
}

// Validate checks the label's internal invariants: every code-span range
// and the filter range must lie within the rendered code string, and span
// ranges must be well formed.
func (l *CodeLabel) Validate() error {
	if l.FilterRange.Start < 0 || l.FilterRange.End < l.FilterRange.Start || l.FilterRange.End > len(l.Code) {
		return fmt.Errorf("filter range %d..%d out of bounds for code of length %d",
			l.FilterRange.Start, l.FilterRange.End, len(l.Code))
	}
	for i, span := range l.Spans {
		if span.Literal {
			continue
		}
		r := span.Range
		if r.Start < 0 || r.End < r.Start || r.End > len(l.Code) {
			return fmt.Errorf("span %d range %d..%d out of bounds for code of length %d",
				i, r.Start, r.End, len(l.Code))
		}
	}
	return nil
}

// Display returns the text the host would show for the label: code spans
// resolved against Code, literal spans inlined.
func (l *CodeLabel) Display() string {
	var out []byte
	for _, span := range l.Spans {
		if span.Literal {
			out = append(out, span.Text...)
			continue
		}
		out = append(out, l.Code[span.Range.Start:span.Range.End]...)
	}
	return string(out)
}
