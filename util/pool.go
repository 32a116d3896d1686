package util

import "sync"

// ChunkSize is the largest unit read from a handle in one step.
const ChunkSize = 1024

// BufPool recycles chunk buffers for readers that hand data across
// goroutines.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, ChunkSize)
		return &buf
	},
}

// GetBuf retrieves a full-length chunk buffer.  Return it with [PutBuf].
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool, restoring its full length.
func PutBuf(buf *[]byte) {
	if buf == nil || cap(*buf) < ChunkSize {
		return
	}
	*buf = (*buf)[:ChunkSize]
	BufPool.Put(buf)
}
