// Package media defines the stream, packet, and codec-parameter value types
// exchanged between container front ends and the host pipeline.
package media

// Rational is an exact fraction, used for stream time bases.
type Rational struct {
	Num int64
	Den int64
}

// MediaKind tags the broad media category of an elementary stream.
type MediaKind int

// Stream kinds.
const (
	KindUnknown MediaKind = iota
	KindVideo
	KindAudio
)

func (k MediaKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// VideoInfo carries the video parameters a container header can describe.
type VideoInfo struct {
	Width  int
	Height int
}

// CodecParams describes the coded representation of one elementary stream.
// Containers that carry no bit-rate or timing information leave the
// corresponding fields at their sentinel values.
type CodecParams struct {
	CodecID string
	BitRate int64
	Delay   int
	Kind    MediaKind
	Video   *VideoInfo // set when Kind is KindVideo
}

// Stream describes one elementary stream discovered in a container. The
// front end fills it from header data and hands it to GlobalInfo by value;
// the host owns the copy from then on.
type Stream struct {
	ID       int64
	Index    int
	Params   CodecParams
	Start    *int64 // optional start time in TimeBase units
	Duration *int64 // optional duration in TimeBase units
	TimeBase Rational
	Extra    []byte // opaque container-private data
}

// Packet is one coded media unit extracted from a container.
type Packet struct {
	Data        []byte
	Pos         int64
	StreamIndex int
	PTS         int64
	DTS         int64
	IsKey       bool
}

// GlobalInfo collects the stream table for one opened input.
type GlobalInfo struct {
	Duration *int64
	Streams  []Stream
}

// AddStream appends st to the stream table, assigning its table index, and
// returns that index.
func (g *GlobalInfo) AddStream(st Stream) int {
	st.Index = len(g.Streams)
	g.Streams = append(g.Streams, st)
	return st.Index
}
