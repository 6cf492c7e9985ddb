package escape

import (
	"errors"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/grafana/escapers/pkg/errorx"
)

var (
	ErrTrailingHighSurrogate  = errors.New("trailing high surrogate at end of input")
	ErrExpectedLowSurrogate   = errors.New("expected low surrogate")
	ErrUnexpectedLowSurrogate = errors.New("unexpected low surrogate")
	ErrInvalidUTF8            = errors.New("invalid UTF-8")
)

const (
	highSurrogateMax = 0xDBFF

	// surrogateWidth is the length of a surrogate half in its generalized
	// three byte UTF-8 form (ED A0..BF 80..BF).
	surrogateWidth = 3
)

// CodePointAt decodes the code point starting at s[index] and returns it
// together with the number of bytes it occupies.
//
// Surrogate halves encoded on their own (as CESU-8 and WTF-8 do) follow the
// UTF-16 pairing rules: a high half directly followed by a low half decodes
// to a single supplementary code point spanning six bytes, and any unpaired
// half is an error. Every other malformed sequence fails with ErrInvalidUTF8.
// Errors are errorx.BadRequest values wrapping one of the Err* sentinels.
func CodePointAt(s string, index int) (rune, int, error) {
	if index < 0 || index >= len(s) {
		panic(errorx.Internal{Msg: fmt.Sprintf("index %d out of range [0,%d)", index, len(s))})
	}
	if c := s[index]; c < utf8.RuneSelf {
		return rune(c), 1, nil
	}

	r, width := utf8.DecodeRuneInString(s[index:])
	if r != utf8.RuneError || width > 1 {
		return r, width, nil
	}

	hi, ok := surrogateAt(s, index)
	switch {
	case !ok:
		return 0, 0, invalidInput(ErrInvalidUTF8, s, index)
	case hi > highSurrogateMax:
		return 0, 0, invalidInput(ErrUnexpectedLowSurrogate, s, index)
	case index+surrogateWidth == len(s):
		return 0, 0, invalidInput(ErrTrailingHighSurrogate, s, index)
	}

	lo, ok := surrogateAt(s, index+surrogateWidth)
	if !ok || lo <= highSurrogateMax {
		return 0, 0, invalidInput(ErrExpectedLowSurrogate, s, index+surrogateWidth)
	}
	return utf16.DecodeRune(hi, lo), 2 * surrogateWidth, nil
}

// surrogateAt reports the surrogate half encoded at s[i:i+3], if any.
func surrogateAt(s string, i int) (rune, bool) {
	if len(s)-i < surrogateWidth || s[i] != 0xED || s[i+1]&0xE0 != 0xA0 || s[i+2]&0xC0 != 0x80 {
		return 0, false
	}
	return 0xD000 | rune(s[i+1]&0x3F)<<6 | rune(s[i+2]&0x3F), true
}

func invalidInput(cause error, s string, index int) error {
	return errorx.BadRequest{
		Msg: fmt.Sprintf("can't escape malformed input at byte %d of %d", index, len(s)),
		Err: cause,
	}
}
