// Package mmd converts Nougat's mmd markup into renderer-friendly Markdown.
//
// Nougat emits math with TeX-style escapes (\[ \] for display, \( \) for
// inline) that most Markdown math renderers don't recognise. Convert rewrites
// them to dollar delimiters and optionally normalises two constructs KaTeX
// chokes on: brace-wrapped sized delimiters and \tag equation labels.
//
// Convert is best effort: it is a fixed pipeline of global substitutions, not
// a parser. Malformed or unbalanced markup simply doesn't match and passes
// through unchanged.
package mmd

import (
	"regexp"
	"strings"
)

// Options toggle the optional normalization passes. The display and inline
// math conversions always run.
type Options struct {
	// RewriteTags replaces \tag{label} with a spaced visible "(label)".
	// Equation tags are not universally supported downstream.
	RewriteTags bool

	// FixSizedDelimiters unwraps brace-wrapped sized delimiters,
	// e.g. \bigl{\|} → \bigl\|.
	FixSizedDelimiters bool
}

// DefaultOptions enables both normalization passes.
func DefaultOptions() Options {
	return Options{RewriteTags: true, FixSizedDelimiters: true}
}

var (
	// (?s) so display math spans lines; non-greedy so each \[ pairs with
	// the nearest \] instead of merging independent spans.
	displayMathRe = regexp.MustCompile(`(?s)\\\[(.*?)\\\]`)
	inlineMathRe  = regexp.MustCompile(`(?s)\\\((.*?)\\\)`)

	// Brace content must be non-empty and may not nest braces.
	sizedDelimRe = regexp.MustCompile(`\\(bigl|Bigl|biggl|Biggl|bigr|Bigr|biggr|Biggr)\{([^{}]+)\}`)
	tagRe        = regexp.MustCompile(`\\tag\{([^{}]+)\}`)
)

// Convert rewrites Nougat math delimiters to Markdown dollar delimiters.
// It is a pure function: total over all inputs, never errors, and the passes
// run in a fixed order, each on the full output of the previous one.
func Convert(text string, opts Options) string {
	// Display math: \[ ... \] → $$\n ... \n$$
	out := displayMathRe.ReplaceAllString(text, "$$$$\n${1}\n$$$$")

	// Inline math: \( ... \) → $ ... $
	out = inlineMathRe.ReplaceAllString(out, "$$${1}$$")

	if opts.FixSizedDelimiters {
		out = sizedDelimRe.ReplaceAllStringFunc(out, normalizeSizedDelim)
	}

	if opts.RewriteTags {
		out = tagRe.ReplaceAllString(out, `\qquad\text{(${1})}`)
	}

	return out
}

// normalizeSizedDelim rewrites \bigl{\|} to \bigl\|. A brace argument that
// trims to nothing would produce an invalid macro invocation, so it is
// treated as a non-match.
func normalizeSizedDelim(match string) string {
	sub := sizedDelimRe.FindStringSubmatch(match)
	if sub == nil {
		return match
	}
	delim := strings.TrimSpace(sub[2])
	if delim == "" {
		return match
	}
	return `\` + sub[1] + delim
}
