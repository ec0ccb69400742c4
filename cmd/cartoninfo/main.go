// Command cartoninfo probes a media file against the registered container
// formats, reads its headers, and prints the discovered stream metadata.
// With -drain it also pulls events until end of input.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"carton/demux"
	"carton/format"
	"carton/media"
	"carton/y4m"
)

func main() {
	drain := flag.Bool("drain", false, "pull events until end of input")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cartoninfo [-drain] <file>")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *drain); err != nil {
		fmt.Fprintln(os.Stderr, "cartoninfo:", err)
		os.Exit(1)
	}
}

func run(path string, drain bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	formats := format.NewRegistry()
	if err := formats.Register(y4m.Descriptor()); err != nil {
		return err
	}

	buf := demux.NewAccReader(f)
	if err := buf.Fill(format.ProbeBufferSize); err != nil {
		return err
	}
	prefix := buf.Data()
	if len(prefix) > format.ProbeBufferSize {
		prefix = prefix[:format.ProbeBufferSize]
	}
	desc, score := formats.Probe(prefix)
	if desc == nil {
		return fmt.Errorf("%s: format not recognized", path)
	}
	fmt.Printf("format: %s (%s, probe score %d)\n", desc.Format, desc.Description, score)

	dctx := demux.NewContext(desc.New(), buf)
	if err := dctx.ReadHeaders(); err != nil {
		return fmt.Errorf("read headers: %w", err)
	}
	for _, st := range dctx.Info.Streams {
		if v := st.Params.Video; st.Params.Kind == media.KindVideo && v != nil {
			fmt.Printf("stream %d: video %dx%d\n", st.Index, v.Width, v.Height)
		} else {
			fmt.Printf("stream %d: %s\n", st.Index, st.Params.Kind)
		}
	}
	if !drain {
		return nil
	}

	var packets int
	for {
		ev, err := dctx.ReadEvent()
		if err != nil {
			if errors.Is(err, demux.ErrNotImplemented) {
				return fmt.Errorf("packet extraction unavailable for %s: %w", desc.Format, err)
			}
			return fmt.Errorf("read event: %w", err)
		}
		switch ev.Kind {
		case demux.EventEOF:
			fmt.Printf("end of input after %d packets\n", packets)
			return nil
		case demux.EventNewPacket:
			packets++
		}
	}
}
