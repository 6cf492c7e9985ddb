// Package escape rewrites the code points of a string that a Policy considers
// unsafe, leaving every other byte untouched.
//
// An Escaper returns its input unchanged, without allocating, when nothing in
// it needs escaping. Escapers are immutable and safe for concurrent use.
package escape

// Escaper transforms a complete string into its escaped form.
type Escaper interface {
	// Escape returns s with every unsafe code point replaced by its escape
	// sequence. It fails with an errorx.BadRequest if s is malformed.
	Escape(s string) (string, error)
}

// Func adapts a plain function to the Escaper interface.
type Func func(s string) (string, error)

func (f Func) Escape(s string) (string, error) {
	return f(s)
}

// Policy decides what to do with a single code point.
type Policy interface {
	// EscapeRune returns nil if r can be left as is, otherwise the bytes that
	// replace it in the output. An empty non-nil slice drops r.
	// It must be a pure function of r.
	EscapeRune(r rune) []byte
}

// IndexScanner can be implemented by a Policy that knows a cheaper way of
// finding the next position needing escaping than decoding every code point.
type IndexScanner interface {
	// NextEscapeIndex returns the index of the first byte at or after start
	// that may need escaping, or len(s) if there is none. Returning an index
	// that turns out to be safe is allowed; skipping an unsafe one is not.
	NextEscapeIndex(s string, start int) int
}
