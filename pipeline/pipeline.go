// Package pipeline drives one ingested stream end to end: probe the
// container format, open its demuxer, and drain events until end of input,
// forwarding packets to a sink while collecting counters for diagnostics.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"carton/demux"
	"carton/format"
	"carton/media"
)

// PacketSink receives the coded media units pulled out of the container.
type PacketSink interface {
	WritePacket(pkt *media.Packet) error
}

// Discard drops every packet, for metadata-only runs.
var Discard PacketSink = discardSink{}

type discardSink struct{}

func (discardSink) WritePacket(*media.Packet) error { return nil }

// Stats is a point-in-time snapshot of pipeline progress.
type Stats struct {
	Format   string `json:"format"`
	Streams  int    `json:"streams"`
	Events   int64  `json:"events"`
	Packets  int64  `json:"packets"`
	UptimeMs int64  `json:"uptimeMs"`
}

// Pipeline owns one demuxer session and its buffered input. Run is called
// once; Snapshot may be called concurrently from diagnostics handlers.
type Pipeline struct {
	log      *slog.Logger
	key      string
	registry *format.Registry
	input    *demux.AccReader
	sink     PacketSink

	dctx *demux.Context

	formatKey atomic.Value // string
	streams   atomic.Int32
	events    atomic.Int64
	packets   atomic.Int64
	start     time.Time
}

// New creates a pipeline for one input stream. The container format is
// chosen by probing registry against the head of input. A nil sink
// discards packets.
func New(key string, input io.Reader, registry *format.Registry, sink PacketSink) *Pipeline {
	if sink == nil {
		sink = Discard
	}
	return &Pipeline{
		log:      slog.With("component", "pipeline", "stream", key),
		key:      key,
		registry: registry,
		input:    demux.NewAccReader(input),
		sink:     sink,
		start:    time.Now(),
	}
}

// Run probes, opens, and drains the stream. It returns nil on end of input,
// the context error on cancellation, and the demuxer's error otherwise.
// Demuxer errors are surfaced, never swallowed: a front end without a
// packet path reports demux.ErrNotImplemented here.
func (p *Pipeline) Run(ctx context.Context) error {
	desc, err := p.open()
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := p.dctx.ReadEvent()
		if err != nil {
			return fmt.Errorf("read %s event: %w", desc.Format, err)
		}
		p.events.Add(1)

		switch ev.Kind {
		case demux.EventEOF:
			p.log.Info("end of input", "events", p.events.Load(), "packets", p.packets.Load())
			return nil
		case demux.EventContinue:
			continue
		case demux.EventNewPacket:
			p.packets.Add(1)
			if err := p.sink.WritePacket(ev.Packet); err != nil {
				return fmt.Errorf("sink packet: %w", err)
			}
		case demux.EventNewStream:
			if ev.Stream != nil {
				p.streams.Add(1)
				p.log.Info("late stream", "kind", ev.Stream.Params.Kind.String())
			}
		}
	}
}

// open probes the format and reads the container headers, logging every
// discovered stream.
func (p *Pipeline) open() (*format.Descriptor, error) {
	if err := p.input.Fill(format.ProbeBufferSize); err != nil {
		return nil, fmt.Errorf("buffer probe prefix: %w", err)
	}
	prefix := p.input.Data()
	if len(prefix) > format.ProbeBufferSize {
		prefix = prefix[:format.ProbeBufferSize]
	}
	desc, score := p.registry.Probe(prefix)
	if desc == nil {
		return nil, fmt.Errorf("stream %q: %w", p.key, demux.ErrNotThisFormat)
	}
	p.formatKey.Store(desc.Format)
	p.log.Info("format detected", "format", desc.Format, "score", score)

	p.dctx = demux.NewContext(desc.New(), p.input)
	if err := p.dctx.ReadHeaders(); err != nil {
		return nil, fmt.Errorf("read %s headers: %w", desc.Format, err)
	}
	p.streams.Store(int32(len(p.dctx.Info.Streams)))
	for _, st := range p.dctx.Info.Streams {
		attrs := []any{"index", st.Index, "kind", st.Params.Kind.String()}
		if v := st.Params.Video; v != nil {
			attrs = append(attrs, "width", v.Width, "height", v.Height)
		}
		p.log.Info("stream", attrs...)
	}
	return desc, nil
}

// Snapshot returns current pipeline counters.
func (p *Pipeline) Snapshot() Stats {
	key, _ := p.formatKey.Load().(string)
	return Stats{
		Format:   key,
		Streams:  int(p.streams.Load()),
		Events:   p.events.Load(),
		Packets:  p.packets.Load(),
		UptimeMs: time.Since(p.start).Milliseconds(),
	}
}
