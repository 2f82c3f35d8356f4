package chat

import "io"

const defaultChunkBuf = 4096

// Ingestor folds an incremental answer body into a single accumulated
// string. Each chunk read triggers emit with the complete text so far, so a
// consumer that re-renders from the timeline instead of tracking deltas
// stays correct even if an emit is repeated.
type Ingestor struct {
	// BufSize bounds a single read. Zero means a reasonable default.
	BufSize int
}

// Run consumes r until closure. It returns whatever text accumulated along
// with any transport error; a partial answer is kept as-is on a mid-stream
// failure (no rollback), the caller decides what an empty result means.
func (ing Ingestor) Run(r io.Reader, emit func(full string)) (string, error) {
	size := ing.BufSize
	if size <= 0 {
		size = defaultChunkBuf
	}
	buf := make([]byte, size)
	var acc []byte
	for {
		n, err := r.Read(buf)
		if n > 0 {
			acc = append(acc, buf[:n]...)
			if emit != nil {
				emit(string(acc))
			}
		}
		if err == io.EOF {
			return string(acc), nil
		}
		if err != nil {
			return string(acc), err
		}
	}
}
