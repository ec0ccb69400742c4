package demux

import (
	"errors"
	"io"
)

// accChunkSize is the read granularity for refilling the window.
const accChunkSize = 4096

// AccReader accumulates bytes from an io.Reader into an in-memory window
// that satisfies Buffered. Demuxers see only the window; all blocking reads
// happen in Fill, under the caller's control.
type AccReader struct {
	r   io.Reader
	buf []byte
	off int
	eof bool
}

// NewAccReader wraps r. No bytes are read until the first Fill.
func NewAccReader(r io.Reader) *AccReader {
	return &AccReader{r: r}
}

// Data returns the buffered, not-yet-consumed bytes. The slice is only
// valid until the next Fill or Advance.
func (a *AccReader) Data() []byte {
	return a.buf[a.off:]
}

// Empty reports whether the window is drained and the underlying reader
// has hit end of input.
func (a *AccReader) Empty() bool {
	return a.off >= len(a.buf) && a.eof
}

// Advance drops n consumed bytes from the front of the window. n beyond
// the window is clamped to it.
func (a *AccReader) Advance(n int) {
	if n < 0 {
		return
	}
	if rem := len(a.buf) - a.off; n > rem {
		n = rem
	}
	a.off += n
}

// Fill reads from the underlying reader until the window holds at least
// min unconsumed bytes or the input ends. End of input is not an error;
// callers detect it with Empty or by checking the window size.
func (a *AccReader) Fill(min int) error {
	for len(a.buf)-a.off < min && !a.eof {
		// Reclaim consumed space before growing the window.
		if a.off > 0 {
			a.buf = append(a.buf[:0], a.buf[a.off:]...)
			a.off = 0
		}
		chunk := make([]byte, accChunkSize)
		n, err := a.r.Read(chunk)
		if n > 0 {
			a.buf = append(a.buf, chunk[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.eof = true
				return nil
			}
			return err
		}
	}
	return nil
}
