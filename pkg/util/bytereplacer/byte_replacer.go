package bytereplacer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/grafana/escapers/pkg/escape"
)

// Replacer performs replacements in a string
type Replacer interface {
	Replace(string) string
}

var (
	_ Replacer            = &strings.Replacer{}
	_ Replacer            = &CodePointReplacer{}
	_ escape.Policy       = &CodePointReplacer{}
	_ escape.IndexScanner = &CodePointReplacer{}
)

// CodePointReplacer replaces every code point matched by a regexp with a
// single byte.
type CodePointReplacer struct {
	re          *regexp.Regexp
	replacement []byte
	// replaced is the precomputed regexp result for every ASCII byte.
	replaced [utf8.RuneSelf]bool
	engine   *escape.Unicode
}

// New creates a new Replacer that replaces the code points matched by the
// regexp provided with the replacement byte. The regexp only runs for ASCII
// once here; it is evaluated at replacement time for non-ASCII code points
// only.
func New(re *regexp.Regexp, replacement byte) *CodePointReplacer {
	r := &CodePointReplacer{
		re:          re,
		replacement: []byte{replacement},
	}
	for i := 0; i < utf8.RuneSelf; i++ {
		r.replaced[i] = re.MatchString(string(rune(i)))
	}
	r.engine = escape.NewUnicode(r)
	return r
}

// EscapeRune implements escape.Policy.
func (r *CodePointReplacer) EscapeRune(cp rune) []byte {
	if cp < utf8.RuneSelf {
		if r.replaced[cp] {
			return r.replacement
		}
		return nil
	}
	if r.re.MatchString(string(cp)) {
		return r.replacement
	}
	return nil
}

// NextEscapeIndex implements escape.IndexScanner.
func (r *CodePointReplacer) NextEscapeIndex(s string, start int) int {
	for i := start; i < len(s); i++ {
		if c := s[i]; c >= utf8.RuneSelf || r.replaced[c] {
			return i
		}
	}
	return len(s)
}

// Replace returns s with every matched code point replaced. Malformed UTF-8
// can't be decoded into code points, so it is replaced byte by byte instead.
func (r *CodePointReplacer) Replace(s string) string {
	out, err := r.engine.Escape(s)
	if err == nil {
		return out
	}
	return strings.Map(func(c rune) rune {
		if c == utf8.RuneError || r.EscapeRune(c) != nil {
			return rune(r.replacement[0])
		}
		return c
	}, s)
}
