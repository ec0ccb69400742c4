package demux

import (
	"errors"
	"fmt"
	"io"

	"carton/media"
)

// Context drives one Demuxer against an AccReader. It owns the retry policy
// for short buffers: demuxers report how much more input they need, the
// Context refills and calls again. Demuxers themselves never retry.
type Context struct {
	dem Demuxer
	buf *AccReader

	// Info is the stream table the demuxer fills during ReadHeaders.
	Info media.GlobalInfo
}

// NewContext couples dem with its buffered input.
func NewContext(dem Demuxer, buf *AccReader) *Context {
	return &Context{dem: dem, buf: buf}
}

// ReadHeaders parses the container preamble, refilling the buffer and
// retrying whenever the demuxer reports a short window. On success the read
// cursor has been advanced past the consumed header bytes.
func (c *Context) ReadHeaders() error {
	if err := c.buf.Fill(1); err != nil {
		return err
	}
	for {
		consumed, err := c.dem.ReadHeaders(c.buf, &c.Info)
		if err == nil {
			c.buf.Advance(consumed)
			return nil
		}
		var more *MoreDataError
		if !errors.As(err, &more) {
			return err
		}
		want := len(c.buf.Data()) + more.Count
		if err := c.buf.Fill(want); err != nil {
			return err
		}
		if len(c.buf.Data()) < want {
			return fmt.Errorf("container header truncated: %w", io.ErrUnexpectedEOF)
		}
	}
}

// ReadEvent polls the demuxer for its next event, servicing
// EventMoreDataNeeded by refilling the buffer and polling again.
func (c *Context) ReadEvent() (Event, error) {
	for {
		// Top up one byte so the demuxer's end-of-input check observes
		// the true reader state, not just a drained window.
		if err := c.buf.Fill(1); err != nil {
			return Event{}, err
		}
		ev, err := c.dem.NextEvent(c.buf)
		if err != nil {
			return Event{}, err
		}
		if ev.Kind != EventMoreDataNeeded {
			return ev, nil
		}
		want := len(c.buf.Data()) + ev.Count
		if err := c.buf.Fill(want); err != nil {
			return Event{}, err
		}
		if len(c.buf.Data()) < want {
			return Event{}, fmt.Errorf("container payload truncated: %w", io.ErrUnexpectedEOF)
		}
	}
}
