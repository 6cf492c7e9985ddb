// Package percent implements the percent-encoding escaper used for URL
// components: unsafe code points are written as the %XX groups of their UTF-8
// bytes.
package percent

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/grafana/escapers/pkg/errorx"
	"github.com/grafana/escapers/pkg/escape"
)

const (
	alphanumerics = "abcdefghijklmnopqrstuvwxyz" +
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
		"0123456789"

	// RFC 3986 URI producers should use upper case hex digits.
	upperHexDigits = "0123456789ABCDEF"
)

var (
	_ escape.Escaper      = &Escaper{}
	_ escape.Policy       = &Escaper{}
	_ escape.IndexScanner = &Escaper{}
)

// Escaper percent-encodes everything outside its safe set. ASCII letters and
// digits are always safe.
type Escaper struct {
	plusForSpace bool
	// safeOctets is indexed by code point and only as long as the largest
	// safe code point requires.
	safeOctets []bool
	engine     *escape.Unicode
}

// New returns an Escaper leaving alphanumerics and every code point of
// safeChars unescaped. When plusForSpace is set, ' ' is written as '+'
// instead of "%20".
//
// Alphanumerics must not be listed in safeChars, and space can't be both
// safe and turned into '+'; both are reported as errorx.InvalidConfig.
func New(safeChars string, plusForSpace bool) (*Escaper, error) {
	if !utf8.ValidString(safeChars) {
		return nil, errorx.InvalidConfig{Msg: fmt.Sprintf("safe characters %q are not valid UTF-8", safeChars)}
	}
	if strings.ContainsAny(safeChars, alphanumerics) {
		return nil, errorx.InvalidConfig{Msg: "alphanumerics are always safe and must not be listed as safe characters"}
	}
	// Safe characters are never modified, so a safe space would make
	// plusForSpace meaningless.
	if plusForSpace && strings.ContainsRune(safeChars, ' ') {
		return nil, errorx.InvalidConfig{Msg: "space can't be a safe character when it is escaped as '+'"}
	}

	e := &Escaper{
		plusForSpace: plusForSpace,
		safeOctets:   createSafeOctets(safeChars + alphanumerics),
	}
	e.engine = escape.NewUnicode(e)
	return e, nil
}

// MustNew is like New but panics on invalid parameters. It is meant for
// package level escapers built from constants.
func MustNew(safeChars string, plusForSpace bool) *Escaper {
	e, err := New(safeChars, plusForSpace)
	if err != nil {
		panic(err)
	}
	return e
}

func createSafeOctets(safeChars string) []bool {
	maxChar := rune(-1)
	for _, c := range safeChars {
		if c > maxChar {
			maxChar = c
		}
	}
	octets := make([]bool, maxChar+1)
	for _, c := range safeChars {
		octets[c] = true
	}
	return octets
}

// isSafeByte is the raw byte check used by the fast scans. Any byte of a
// multi-byte sequence is reported as unsafe so that the slow path decodes it.
func (e *Escaper) isSafeByte(c byte) bool {
	return c < utf8.RuneSelf && int(c) < len(e.safeOctets) && e.safeOctets[c]
}

// Escape implements escape.Escaper.
func (e *Escaper) Escape(s string) (string, error) {
	for index := 0; index < len(s); index++ {
		if !e.isSafeByte(s[index]) {
			return e.engine.EscapeFrom(s, index)
		}
	}
	return s, nil
}

// NextEscapeIndex implements escape.IndexScanner.
func (e *Escaper) NextEscapeIndex(s string, index int) int {
	for ; index < len(s); index++ {
		if !e.isSafeByte(s[index]) {
			break
		}
	}
	return index
}

// EscapeRune implements escape.Policy.
func (e *Escaper) EscapeRune(cp rune) []byte {
	// A negative value can only come from a bug in the engine, let the
	// default branch report it.
	if cp >= 0 && int(cp) < len(e.safeOctets) && e.safeOctets[cp] {
		return nil
	}

	switch {
	case cp == ' ' && e.plusForSpace:
		return []byte{'+'}

	case cp >= 0 && cp <= 0x7F:
		// %XX
		dest := make([]byte, 3)
		dest[0] = '%'
		dest[2] = upperHexDigits[cp&0xF]
		dest[1] = upperHexDigits[cp>>4]
		return dest

	case cp >= 0x80 && cp <= 0x7FF:
		// 110xxxxx 10xxxxxx
		dest := make([]byte, 6)
		dest[0] = '%'
		dest[3] = '%'
		dest[5] = upperHexDigits[cp&0xF]
		cp >>= 4
		dest[4] = upperHexDigits[0x8|(cp&0x3)]
		cp >>= 2
		dest[2] = upperHexDigits[cp&0xF]
		cp >>= 4
		dest[1] = upperHexDigits[0xC|cp]
		return dest

	case cp >= 0x800 && cp <= 0xFFFF:
		// 1110xxxx 10xxxxxx 10xxxxxx
		dest := make([]byte, 9)
		dest[0] = '%'
		dest[1] = 'E'
		dest[3] = '%'
		dest[6] = '%'
		dest[8] = upperHexDigits[cp&0xF]
		cp >>= 4
		dest[7] = upperHexDigits[0x8|(cp&0x3)]
		cp >>= 2
		dest[5] = upperHexDigits[cp&0xF]
		cp >>= 4
		dest[4] = upperHexDigits[0x8|(cp&0x3)]
		cp >>= 2
		dest[2] = upperHexDigits[cp]
		return dest

	case cp >= 0x10000 && cp <= utf8.MaxRune:
		// 11110xxx 10xxxxxx 10xxxxxx 10xxxxxx
		dest := make([]byte, 12)
		dest[0] = '%'
		dest[1] = 'F'
		dest[3] = '%'
		dest[6] = '%'
		dest[9] = '%'
		dest[11] = upperHexDigits[cp&0xF]
		cp >>= 4
		dest[10] = upperHexDigits[0x8|(cp&0x3)]
		cp >>= 2
		dest[8] = upperHexDigits[cp&0xF]
		cp >>= 4
		dest[7] = upperHexDigits[0x8|(cp&0x3)]
		cp >>= 2
		dest[5] = upperHexDigits[cp&0xF]
		cp >>= 4
		dest[4] = upperHexDigits[0x8|(cp&0x3)]
		cp >>= 2
		dest[2] = upperHexDigits[cp&0x7]
		return dest

	default:
		// If this ever happens it is due to a bug in the engine, not bad input.
		panic(errorx.Internal{Msg: fmt.Sprintf("invalid unicode character value %d", cp)})
	}
}
