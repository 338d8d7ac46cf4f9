// Package qhash implements the Query Hasher / Normalizer (spec L3):
// canonicalization of generated SQL text before hashing, and a
// 256-bit deterministic, collision-resistant hash with a short
// printable fingerprint form.
//
// Canonicalization order is fixed by spec.md §4.4: literal masking,
// then whitespace collapsing, then case folding.
package qhash

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Options controls which canonicalization passes run. Each is an
// independent config flag per spec.md §4.4.
type Options struct {
	CollapseWhitespace bool
	Upcase             bool
	MaskLiterals       bool
}

// DefaultOptions enables every pass, producing the query-shape form
// the runner's shape statistics are keyed on.
func DefaultOptions() Options {
	return Options{CollapseWhitespace: true, Upcase: true, MaskLiterals: true}
}

var (
	numberLiteralRe = regexp.MustCompile(`-?\b\d+(\.\d+)?\b`)
	stringLiteralRe = regexp.MustCompile(`'(?:[^'\\]|\\.|'')*'`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes q according to opts. It is idempotent:
// Normalize(Normalize(q, o), o) == Normalize(q, o) for any q, o
// (spec.md §8 property 8), because literal masking is only ever
// applied to literals that still look like literals, and re-masking
// "#NUM#"/"'#STR#'" is a no-op on those placeholders.
func Normalize(q string, opts Options) string {
	out := q
	if opts.MaskLiterals {
		out = maskLiterals(out)
	}
	if opts.CollapseWhitespace {
		out = strings.TrimSpace(whitespaceRe.ReplaceAllString(out, " "))
	}
	if opts.Upcase {
		out = strings.ToUpper(out)
	}
	return out
}

// maskLiterals replaces single-quoted string literals with '#STR#'
// and decimal number literals with #NUM#, preserving doubled-quote
// escapes inside strings.
func maskLiterals(q string) string {
	masked := stringLiteralRe.ReplaceAllString(q, "'#STR#'")
	masked = numberLiteralRe.ReplaceAllString(masked, "#NUM#")
	return masked
}

// HashQuery returns the 256-bit SHA-256 digest of the normalized form
// of q. Per spec.md §8 property 9, HashQuery(q) == HashQuery(q') iff
// Normalize(q, opts) == Normalize(q', opts).
func HashQuery(q string, opts Options) [32]byte {
	return sha256.Sum256([]byte(Normalize(q, opts)))
}

// Fingerprint returns the 16-hex-char short printable form of a
// query's hash.
func Fingerprint(q string, opts Options) string {
	h := HashQuery(q, opts)
	return hex.EncodeToString(h[:])[:16]
}

// FingerprintOf renders an already-computed hash as its 16-hex-char
// short form.
func FingerprintOf(h [32]byte) string {
	return hex.EncodeToString(h[:])[:16]
}
