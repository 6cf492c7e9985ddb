package escape

// destPad is the slack added on top of the remaining input whenever the
// destination buffer has to grow.
const destPad = 32

var _ Escaper = &Unicode{}

// Unicode is the generic scan-and-rewrite engine. It walks the input code
// point by code point, asks its Policy about each one and only builds a new
// string once something actually needs escaping.
type Unicode struct {
	policy  Policy
	scanner IndexScanner
}

// NewUnicode returns an engine escaping with p. If p also implements
// IndexScanner its scan is used to skip over safe input.
func NewUnicode(p Policy) *Unicode {
	u := &Unicode{policy: p}
	if s, ok := p.(IndexScanner); ok {
		u.scanner = s
	}
	return u
}

// Escape implements Escaper.
func (u *Unicode) Escape(s string) (string, error) {
	index := u.nextEscapeIndex(s, 0)
	if index == len(s) {
		return s, nil
	}
	return u.EscapeFrom(s, index)
}

// EscapeFrom escapes s knowing that s[:index] needs no escaping. Policies
// with their own fast path call it once they find the first candidate. If the
// candidates all turn out to be safe, s is returned as is.
func (u *Unicode) EscapeFrom(s string, index int) (string, error) {
	end := len(s)

	// The scratch buffer is only taken once something is rewritten.
	var (
		buf  *[]byte
		dest []byte
	)
	destIndex := 0
	unescapedChunkStart := 0

	for index < end {
		r, width, err := CodePointAt(s, index)
		if err != nil {
			if buf != nil {
				putBuffer(buf)
			}
			return "", err
		}
		nextIndex := index + width

		if escaped := u.policy.EscapeRune(r); escaped != nil {
			if buf == nil {
				buf = getBuffer()
				dest = *buf
			}
			charsSkipped := index - unescapedChunkStart
			sizeNeeded := destIndex + charsSkipped + len(escaped)
			if len(dest) < sizeNeeded {
				dest = growBuffer(dest, destIndex, sizeNeeded+(end-index)+destPad)
			}
			destIndex += copy(dest[destIndex:], s[unescapedChunkStart:index])
			destIndex += copy(dest[destIndex:], escaped)
			unescapedChunkStart = nextIndex
		}
		index = u.nextEscapeIndex(s, nextIndex)
	}

	if unescapedChunkStart == 0 {
		return s, nil
	}

	if charsSkipped := end - unescapedChunkStart; charsSkipped > 0 {
		if len(dest) < destIndex+charsSkipped {
			dest = growBuffer(dest, destIndex, destIndex+charsSkipped)
		}
		destIndex += copy(dest[destIndex:], s[unescapedChunkStart:end])
	}

	escaped := string(dest[:destIndex])
	*buf = dest
	putBuffer(buf)
	return escaped, nil
}

func (u *Unicode) nextEscapeIndex(s string, start int) int {
	if u.scanner != nil {
		return u.scanner.NextEscapeIndex(s, start)
	}
	index := start
	for index < len(s) {
		r, width, err := CodePointAt(s, index)
		if err != nil || u.policy.EscapeRune(r) != nil {
			break
		}
		index += width
	}
	return index
}
