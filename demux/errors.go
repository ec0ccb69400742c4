package demux

import (
	"errors"
	"fmt"
)

// Sentinel errors for demuxer sessions. Callers distinguish failure modes
// with errors.Is.
var (
	// ErrNotThisFormat reports that the input does not carry the
	// container's magic signature. Fatal for the open attempt.
	ErrNotThisFormat = errors.New("demux: not this format")

	// ErrInvalidEncoding reports a header token that is not valid text.
	ErrInvalidEncoding = errors.New("demux: header token is not valid UTF-8")

	// ErrNotImplemented reports that the front end does not provide the
	// requested extraction path. Fatal for the call, but the session can
	// still report end of input once the buffer drains.
	ErrNotImplemented = errors.New("demux: not implemented")

	// ErrInvalidState reports an operation on a session that is closed,
	// failed, or not yet in the required lifecycle state.
	ErrInvalidState = errors.New("demux: invalid session state")
)

// MoreDataError reports that the buffered window is too small to make
// progress. The caller refills the buffer with at least Count more bytes
// and retries; the session state is unchanged.
type MoreDataError struct {
	Count int // minimum additional bytes required
}

func (e *MoreDataError) Error() string {
	return fmt.Sprintf("demux: need at least %d more bytes", e.Count)
}
