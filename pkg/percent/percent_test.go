package percent

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/escapers/pkg/errorx"
	"github.com/grafana/escapers/pkg/escape"
)

func TestNew_InvalidConfig(t *testing.T) {
	for _, tc := range []struct {
		name         string
		safeChars    string
		plusForSpace bool
	}{
		{name: "alphanumeric range", safeChars: "a-z"},
		{name: "digit", safeChars: "-_9"},
		{name: "upper case letter", safeChars: "Q"},
		{name: "plus for space with safe space", safeChars: " ", plusForSpace: true},
		{name: "invalid utf-8", safeChars: "-\xff"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e, err := New(tc.safeChars, tc.plusForSpace)
			require.Error(t, err)
			assert.Nil(t, e)

			var invalidConfig errorx.InvalidConfig
			assert.True(t, errors.As(err, &invalidConfig))
		})
	}
}

func TestMustNew_Panics(t *testing.T) {
	assert.Panics(t, func() { MustNew("0", false) })
	assert.NotPanics(t, func() { MustNew(" ", false) })
}

func TestEscaper_Escape(t *testing.T) {
	for _, tc := range []struct {
		name         string
		safeChars    string
		plusForSpace bool
		in           string
		want         string
	}{
		{name: "empty", in: "", want: ""},
		{name: "alphanumerics are always safe", in: "abcXYZ019", want: "abcXYZ019"},
		{name: "configured safe chars", safeChars: "-_.", in: "a-b_c.d", want: "a-b_c.d"},
		{name: "space without plus mode", in: "a b", want: "a%20b"},
		{name: "space with plus mode", plusForSpace: true, in: "a b", want: "a+b"},
		{name: "safe space", safeChars: " ", in: "a b", want: "a b"},
		{name: "plus is escaped in plus mode", plusForSpace: true, in: "a+b c", want: "a%2Bb+c"},
		{name: "percent sign", in: "100%", want: "100%25"},
		{name: "control characters", in: "\x00\t\x7f", want: "%00%09%7F"},
		{name: "two byte code point", in: "é", want: "%C3%A9"},
		{name: "three byte code point", in: "€", want: "%E2%82%AC"},
		{name: "four byte code point", in: "😀", want: "%F0%9F%98%80"},
		{name: "surrogate pair", in: "\xed\xa0\xbd\xed\xb8\x80", want: "%F0%9F%98%80"},
		{name: "non-ascii safe character", safeChars: "é", in: "café!", want: "café%21"},
		{name: "mixed", safeChars: "/", in: "/päth/tö a€", want: "/p%C3%A4th/t%C3%B6%20a%E2%82%AC"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e, err := New(tc.safeChars, tc.plusForSpace)
			require.NoError(t, err)

			got, err := e.Escape(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEscaper_Escape_Malformed(t *testing.T) {
	e := MustNew("-", false)
	for _, tc := range []struct {
		in      string
		wantErr error
	}{
		{in: "abc\xed\xa0\xbd", wantErr: escape.ErrTrailingHighSurrogate},
		{in: "a b\xed\xa0\xbd", wantErr: escape.ErrTrailingHighSurrogate},
		{in: "\xed\xa0\xbdabc", wantErr: escape.ErrExpectedLowSurrogate},
		{in: "ab\xed\xb8\x80c", wantErr: escape.ErrUnexpectedLowSurrogate},
		{in: "ab\xc3", wantErr: escape.ErrInvalidUTF8},
	} {
		t.Run(fmt.Sprintf("%q", tc.in), func(t *testing.T) {
			got, err := e.Escape(tc.in)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
			assert.Empty(t, got)
		})
	}
}

func TestEscaper_EscapeRune(t *testing.T) {
	e := MustNew("", false)
	for _, cp := range []rune{
		0x00, '%', 0x7F,
		0x80, 0xE9, 0x7FF,
		0x800, 0x20AC, 0xFFFD, 0xFFFF,
		0x10000, 0x1F600, 0x10FFFF,
	} {
		t.Run(fmt.Sprintf("U+%04X", cp), func(t *testing.T) {
			var want strings.Builder
			buf := make([]byte, utf8.UTFMax)
			for _, b := range buf[:utf8.EncodeRune(buf, cp)] {
				fmt.Fprintf(&want, "%%%02X", b)
			}
			assert.Equal(t, want.String(), string(e.EscapeRune(cp)))
		})
	}
}

func TestEscaper_EscapeRune_Safe(t *testing.T) {
	e := MustNew("~", true)
	assert.Nil(t, e.EscapeRune('a'))
	assert.Nil(t, e.EscapeRune('~'))
	assert.Equal(t, []byte("+"), e.EscapeRune(' '))
}

func TestEscaper_EscapeRune_OutOfRangePanics(t *testing.T) {
	e := MustNew("", false)
	for _, cp := range []rune{-1, utf8.MaxRune + 1} {
		assert.PanicsWithValue(t, errorx.Internal{Msg: fmt.Sprintf("invalid unicode character value %d", cp)}, func() {
			e.EscapeRune(cp)
		})
	}
}

func TestEscaper_NextEscapeIndex(t *testing.T) {
	e := MustNew("-", false)
	assert.Equal(t, 3, e.NextEscapeIndex("ab-/", 0))
	assert.Equal(t, 4, e.NextEscapeIndex("ab-/", 4))
	// Multi-byte sequences are left to the code point aware slow path.
	assert.Equal(t, 1, e.NextEscapeIndex("aé", 0))
}

func TestEscaper_Escape_ReturnsInputWithoutAllocating(t *testing.T) {
	e := MustNew("-_.", false)
	in := strings.Repeat("safe-input_", 50)

	allocs := testing.AllocsPerRun(100, func() {
		out, err := e.Escape(in)
		if err != nil || out != in {
			t.Fatalf("unexpected result %q, %v", out, err)
		}
	})
	assert.Zero(t, allocs)
}

func TestEscaper_Escape_SafeNonASCIIDoesNotAllocate(t *testing.T) {
	e := MustNew("é", false)
	in := "caféé"

	allocs := testing.AllocsPerRun(100, func() {
		out, err := e.Escape(in)
		if err != nil || out != in {
			t.Fatalf("unexpected result %q, %v", out, err)
		}
	})
	assert.Zero(t, allocs)
}

func TestEscaper_Escape_LongInput(t *testing.T) {
	e := MustNew("", true)
	in := strings.Repeat("a b€", 10000)

	got, err := e.Escape(in)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a+b%E2%82%AC", 10000), got)
}

func TestSafeCharsMatching(t *testing.T) {
	assert.Equal(t, "-._~", SafeCharsMatching(regexp.MustCompile(`[\w.~-]`)))
	assert.Equal(t, "", SafeCharsMatching(regexp.MustCompile(`[a-z]`)))
	assert.Equal(t, " ", SafeCharsMatching(regexp.MustCompile(`\s`)))

	_, err := New(SafeCharsMatching(regexp.MustCompile(`[^/?#]`)), false)
	assert.NoError(t, err)
}
