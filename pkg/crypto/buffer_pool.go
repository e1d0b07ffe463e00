// buffer_pool.go reduces per-chunk allocations in the file protocol by
// pooling buffers sized for Zault's ≤1 MiB content chunks, plus a small
// pool for AEAD nonces that get generated constantly during add_file/
// get_file.
package crypto

import (
	"sync"

	"github.com/pzverkov/zault/internal/constants"
)

// BufferPool provides pooled byte slices for chunk-sized crypto operations.
type BufferPool struct {
	nonce sync.Pool
	chunk sync.Pool
}

const chunkBufferSize = constants.MaxChunkSize + constants.AEADNonceSize + constants.AEADTagSize

// NewBufferPool creates a buffer pool sized for Zault's chunking scheme.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		nonce: sync.Pool{New: func() any {
			buf := make([]byte, constants.AEADNonceSize)
			return &buf
		}},
		chunk: sync.Pool{New: func() any {
			buf := make([]byte, chunkBufferSize)
			return &buf
		}},
	}
}

var globalPool = NewBufferPool()

// GetNonce returns a zeroed nonce-sized buffer from the global pool.
func GetNonce() []byte {
	bufPtr := globalPool.nonce.Get().(*[]byte)
	buf := *bufPtr
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// PutNonce returns a nonce buffer to the global pool.
func PutNonce(buf []byte) {
	if cap(buf) != constants.AEADNonceSize {
		return
	}
	buf = buf[:cap(buf)]
	for i := range buf {
		buf[i] = 0
	}
	globalPool.nonce.Put(&buf)
}

// GetChunkBuffer returns a buffer of at least size bytes, drawn from the
// chunk pool when size fits a single content chunk plus AEAD overhead,
// or freshly allocated otherwise.
func GetChunkBuffer(size int) []byte {
	if size <= 0 {
		return nil
	}
	if size > chunkBufferSize {
		return make([]byte, size)
	}
	bufPtr := globalPool.chunk.Get().(*[]byte)
	return (*bufPtr)[:size]
}

// PutChunkBuffer returns a chunk buffer to the pool after zeroing it —
// chunk buffers pass through plaintext file content, so the pool never
// hands out a buffer that still carries a previous caller's data.
func PutChunkBuffer(buf []byte) {
	if cap(buf) != chunkBufferSize {
		return
	}
	buf = buf[:cap(buf)]
	for i := range buf {
		buf[i] = 0
	}
	globalPool.chunk.Put(&buf)
}
