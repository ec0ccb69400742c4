package media

import "testing"

func TestGlobalInfoAddStream(t *testing.T) {
	t.Parallel()

	var g GlobalInfo
	idx := g.AddStream(Stream{ID: 7, Params: CodecParams{Kind: KindVideo}})
	if idx != 0 {
		t.Fatalf("first stream index = %d, want 0", idx)
	}
	idx = g.AddStream(Stream{ID: 9, Params: CodecParams{Kind: KindAudio}})
	if idx != 1 {
		t.Fatalf("second stream index = %d, want 1", idx)
	}

	if len(g.Streams) != 2 {
		t.Fatalf("got %d streams, want 2", len(g.Streams))
	}
	if g.Streams[0].Index != 0 || g.Streams[1].Index != 1 {
		t.Fatalf("stream indexes not assigned: %d, %d", g.Streams[0].Index, g.Streams[1].Index)
	}
	if g.Streams[1].ID != 9 {
		t.Fatalf("stream ID not preserved: %d", g.Streams[1].ID)
	}
}

func TestMediaKindString(t *testing.T) {
	t.Parallel()

	cases := map[MediaKind]string{
		KindUnknown:   "unknown",
		KindVideo:     "video",
		KindAudio:     "audio",
		MediaKind(42): "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("MediaKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
