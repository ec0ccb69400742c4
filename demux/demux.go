// Package demux defines the pull-based contract between container front
// ends and the host pipeline: the Demuxer interface, the event variants it
// produces, and the buffered-input view it reads from.
//
// Demuxers are synchronous and never block: they only ever inspect the
// bytes the buffer currently holds and report how much more they need.
// Refilling, retries, and cursor advancement belong to the Context driver.
package demux

import "carton/media"

// Buffered is the demuxer's view of a buffered input. Implementations own
// all I/O; a demuxer only inspects the in-memory window.
type Buffered interface {
	// Data returns the buffered, not-yet-consumed bytes.
	Data() []byte
	// Empty reports whether no buffered bytes remain and the underlying
	// input is exhausted.
	Empty() bool
}

// Demuxer is a container front end for one input session. Instances are not
// safe for concurrent use; the host gives each pipeline worker its own.
type Demuxer interface {
	// ReadHeaders parses the container preamble, registers the discovered
	// streams with info, and returns the number of bytes consumed so the
	// caller can advance its read cursor. A *MoreDataError is recoverable:
	// the caller may refill the buffer and call ReadHeaders again. Any
	// other error poisons the session.
	ReadHeaders(buf Buffered, info *media.GlobalInfo) (consumed int, err error)

	// NextEvent returns the next demuxer event. Events are delivered in
	// FIFO order; EventEOF is produced at most once and closes the session.
	NextEvent(buf Buffered) (Event, error)
}

// EventKind discriminates the Event variants.
type EventKind int

// Event variants.
const (
	// EventMoreDataNeeded asks the caller to buffer at least Count more
	// bytes before polling again.
	EventMoreDataNeeded EventKind = iota
	// EventNewStream announces an elementary stream discovered after the
	// headers were read.
	EventNewStream
	// EventNewPacket carries one coded media unit.
	EventNewPacket
	// EventContinue carries nothing; the caller should poll again.
	EventContinue
	// EventEOF reports that the input is exhausted. Terminal.
	EventEOF
)

func (k EventKind) String() string {
	switch k {
	case EventMoreDataNeeded:
		return "more-data-needed"
	case EventNewStream:
		return "new-stream"
	case EventNewPacket:
		return "new-packet"
	case EventContinue:
		return "continue"
	case EventEOF:
		return "eof"
	default:
		return "invalid"
	}
}

// Event is one demuxer-to-host message. Kind selects the variant; only the
// payload field belonging to that variant is set.
type Event struct {
	Kind   EventKind
	Count  int           // EventMoreDataNeeded
	Stream *media.Stream // EventNewStream
	Packet *media.Packet // EventNewPacket
}
