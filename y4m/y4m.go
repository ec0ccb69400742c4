// Package y4m implements the YUV4MPEG2 container front end: signature
// probing, header-line parsing, and the pull-event session the host
// pipeline drives.
//
// A Y4M input is one text header line followed by raw video frames. The
// front end decodes the frame dimensions from the header and registers a
// single video stream; frame-body extraction is not provided, so after the
// header the session only ever reports end of input (see Demuxer.NextEvent).
package y4m

import (
	"bytes"
	"errors"
	"strconv"
	"unicode/utf8"

	"carton/demux"
	"carton/format"
	"carton/media"
)

// magic is the Y4M signature: the tag plus the single space that separates
// it from the first header field.
const magic = "YUV4MPEG2 "

// probeMinLen is the smallest prefix a probe can judge: the magic tag and
// one delimiter byte.
const probeMinLen = len(magic) + 1

// probeScore is returned on a signature match. The match is unambiguous,
// but the probe validates nothing past the magic, so the score stays well
// below the maximum while still outranking generic probes.
const probeScore = 10

// Y4M headers carry no timing or rate information, so registered streams
// get a nanosecond timebase and a sentinel bit rate.
const (
	timeBaseDen     = 1_000_000_000
	sentinelBitRate = 1
)

// Header is the decoded subset of a Y4M header line. Exactly one Header
// exists per session, created by ReadHeaders and immutable afterwards.
type Header struct {
	Width  int
	Height int
}

// nextToken returns the next header token: the maximal run of bytes before
// a space or newline. A space delimiter is consumed and dropped from rest;
// a newline is left at rest[0] so the caller can detect the end of the
// header line. With no delimiter in data the token is not yet complete and
// a *demux.MoreDataError is returned.
func nextToken(data []byte) (token, rest []byte, err error) {
	i := bytes.IndexAny(data, " \n")
	if i < 0 {
		return nil, nil, &demux.MoreDataError{Count: 1}
	}
	token = data[:i]
	if !utf8.Valid(token) {
		return nil, nil, demux.ErrInvalidEncoding
	}
	if data[i] == ' ' {
		return token, data[i+1:], nil
	}
	return token, data[i:], nil
}

// parseUint is the tolerant numeric parse for W and H values: a malformed
// or negative value reports !ok and the caller keeps the field's previous
// value instead of failing the header.
func parseUint(s string) (int, bool) {
	v, err := strconv.ParseUint(s, 10, 31)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// parseHeader decodes one Y4M header line from the start of data. It
// returns the header record and the remainder of data positioned exactly
// past the terminating newline, so the caller can compute the consumed
// length for cursor advancement.
//
// Each token's first byte is the field key. W and H set the dimensions;
// every other key (frame rate, aspect, interlacing, color space, comments)
// is skipped without ending the loop, since real headers carry several of
// them in no fixed order. The last occurrence of a recognized key wins.
func parseHeader(data []byte) (Header, []byte, error) {
	if !bytes.HasPrefix(data, []byte(magic)) {
		if len(data) < len(magic) && bytes.HasPrefix([]byte(magic), data) {
			return Header{}, nil, &demux.MoreDataError{Count: len(magic) - len(data)}
		}
		return Header{}, nil, demux.ErrNotThisFormat
	}

	var hdr Header
	rest := data[len(magic):]
	for {
		token, next, err := nextToken(rest)
		if err != nil {
			return Header{}, nil, err
		}
		if len(token) > 0 {
			value := string(token[1:])
			switch token[0] {
			case 'W':
				if w, ok := parseUint(value); ok {
					hdr.Width = w
				}
			case 'H':
				if h, ok := parseUint(value); ok {
					hdr.Height = h
				}
			}
		}
		if len(next) > 0 && next[0] == '\n' {
			return hdr, next[1:], nil
		}
		rest = next
	}
}

// Probe scores a candidate prefix for format auto-detection. Only the magic
// tag is inspected; a prefix shorter than the tag plus one delimiter scores
// zero rather than guessing. A full header parse is never attempted, since
// the prefix is generally too short to contain the whole line.
func Probe(data []byte) uint8 {
	if len(data) < probeMinLen {
		return 0
	}
	if !bytes.HasPrefix(data, []byte(magic)) {
		return 0
	}
	return probeScore
}

// sessionState tracks the demuxer lifecycle. Transitions are one-way:
// unopened -> headerRead -> draining -> closed, with failed terminal for a
// session whose header parse failed.
type sessionState int

const (
	stateUnopened sessionState = iota
	stateHeaderRead
	stateDraining
	stateClosed
	stateFailed
)

// Demuxer is one Y4M demuxing session: the parsed header (once available)
// and the pending-event queue. Not safe for concurrent use; the host gives
// each pipeline worker its own instance.
type Demuxer struct {
	state  sessionState
	header *Header
	queue  []demux.Event // FIFO, drained before any new input is considered
}

// NewDemuxer returns a fresh session in the unopened state.
func NewDemuxer() *Demuxer {
	return &Demuxer{}
}

// ReadHeaders parses the Y4M header line from the buffered input, registers
// one video stream with info, and returns the number of consumed bytes
// (through the terminating newline). A *demux.MoreDataError leaves the
// session unopened so the caller can refill and retry; any other parse
// failure poisons the session and registers nothing.
func (d *Demuxer) ReadHeaders(buf demux.Buffered, info *media.GlobalInfo) (int, error) {
	if d.state != stateUnopened {
		return 0, demux.ErrInvalidState
	}
	data := buf.Data()
	hdr, rest, err := parseHeader(data)
	if err != nil {
		var more *demux.MoreDataError
		if !errors.As(err, &more) {
			d.state = stateFailed
		}
		return 0, err
	}

	d.header = &hdr
	info.AddStream(media.Stream{
		ID: 0,
		Params: media.CodecParams{
			BitRate: sentinelBitRate,
			Kind:    media.KindVideo,
			Video:   &media.VideoInfo{Width: hdr.Width, Height: hdr.Height},
		},
		TimeBase: media.Rational{Num: 1, Den: timeBaseDen},
	})
	d.state = stateHeaderRead
	return len(data) - len(rest), nil
}

// Header returns the parsed header record, or nil before ReadHeaders has
// succeeded. The record never changes once set.
func (d *Demuxer) Header() *Header {
	return d.header
}

// NextEvent returns the next queued event in FIFO order, or EOF once the
// queue and the input are both exhausted. EOF closes the session; any later
// call fails with demux.ErrInvalidState.
//
// Frame-body extraction is not implemented: buffered frame bytes with an
// empty queue fail with demux.ErrNotImplemented rather than spinning on
// Continue or fabricating a packet. The error does not close the session;
// it can still report EOF once the input drains.
func (d *Demuxer) NextEvent(buf demux.Buffered) (demux.Event, error) {
	switch d.state {
	case stateHeaderRead, stateDraining:
	default:
		return demux.Event{}, demux.ErrInvalidState
	}
	d.state = stateDraining

	if len(d.queue) > 0 {
		ev := d.queue[0]
		d.queue = d.queue[1:]
		return ev, nil
	}
	if buf.Empty() {
		d.state = stateClosed
		return demux.Event{Kind: demux.EventEOF}, nil
	}
	return demux.Event{}, demux.ErrNotImplemented
}

// Descriptor returns the registration value for the Y4M front end. Hosts
// register it with their format registry at startup.
func Descriptor() *format.Descriptor {
	return &format.Descriptor{
		Name:        "y4m-rs",
		Format:      "y4m",
		Description: "YUV4MPEG2 raw video demuxer",
		Extensions:  []string{"y4m"},
		New:         func() demux.Demuxer { return NewDemuxer() },
		Probe:       Probe,
	}
}
