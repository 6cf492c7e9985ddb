package escape

import "sync"

const (
	// initialBufferSize matches the typical length of an escaped URL component.
	initialBufferSize = 1024
	// maxRetainedBufferSize caps the buffers kept in the pool so that one
	// huge input doesn't pin its scratch space on the heap forever.
	maxRetainedBufferSize = 64 << 10
)

// scratchPool hands out destination buffers for the slow path. A buffer is
// owned by exactly one escape call between getBuffer and putBuffer.
var scratchPool = sync.Pool{
	New: func() any {
		b := make([]byte, initialBufferSize)
		return &b
	},
}

func getBuffer() *[]byte {
	return scratchPool.Get().(*[]byte)
}

func putBuffer(b *[]byte) {
	if cap(*b) > maxRetainedBufferSize {
		return
	}
	*b = (*b)[:cap(*b)]
	scratchPool.Put(b)
}

// growBuffer returns a buffer of the given size holding the first n bytes of
// dest.
func growBuffer(dest []byte, n, size int) []byte {
	grown := make([]byte, size)
	copy(grown, dest[:n])
	return grown
}
