// Package normalize provides the text cleanup applied to every record before it is surfaced
// Pipeline order
// 1 UTF-8 repair drop invalid bytes
// 2 CRLF and lone CR to LF
// 3 Unicode NFC composition
// 4 Remove format chars (ZWSP ZWJ BOM) and controls other than newline and tab
// 5 Trim surrounding whitespace
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// chainPool hands out fresh transformer chains; a chain is stateful so it cannot be shared
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFC,
			runes.Remove(runes.In(unicode.Cf)),
			runes.Remove(runes.Predicate(isDroppedControl)),
		)
	},
}

var crlf = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Text returns the cleaned form of s following the pipeline described above
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	s = crlf.Replace(s)

	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		// the chain only removes runes so the input is a safe fallback
		out = s
	}
	return strings.TrimSpace(out)
}

// IsBlank reports whether s has no visible content once cleaned
func IsBlank(s string) bool { return Text(s) == "" }

// isDroppedControl keeps newline and tab, drops every other C0/C1 control and DEL
func isDroppedControl(r rune) bool {
	if r == '\n' || r == '\t' {
		return false
	}
	return unicode.IsControl(r)
}
