package quic

import (
	"bufio"
	"strings"
	"testing"
)

func TestExtractStreamKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want string
	}{
		{name: "simple key", line: "camera1", want: "camera1"},
		{name: "leading slash", line: "/camera1", want: "camera1"},
		{name: "live prefix", line: "live/camera1", want: "camera1"},
		{name: "slash and live prefix", line: "/live/camera1", want: "camera1"},
		{name: "empty returns default", line: "", want: "default"},
		{name: "just slash returns default", line: "/", want: "default"},
		{name: "trailing carriage return stripped", line: "camera1\r", want: "camera1"},
		{name: "nested path preserved", line: "studio/camera1", want: "studio/camera1"},
		{name: "live in name preserved", line: "liveshow", want: "liveshow"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := extractStreamKey(tc.line); got != tc.want {
				t.Errorf("extractStreamKey(%q) = %q, want %q", tc.line, got, tc.want)
			}
		})
	}
}

func TestReadKeyLine(t *testing.T) {
	t.Parallel()

	r := bufio.NewReader(strings.NewReader("live/cam1\nYUV4MPEG2 ..."))
	key, err := readKeyLine(r)
	if err != nil {
		t.Fatal(err)
	}
	if key != "live/cam1" {
		t.Fatalf("key = %q, want %q", key, "live/cam1")
	}

	// Payload after the preamble is untouched.
	rest := make([]byte, 9)
	if _, err := r.Read(rest); err != nil {
		t.Fatal(err)
	}
	if string(rest) != "YUV4MPEG2" {
		t.Fatalf("payload start = %q, want %q", rest, "YUV4MPEG2")
	}
}

func TestReadKeyLineTooLong(t *testing.T) {
	t.Parallel()

	r := bufio.NewReader(strings.NewReader(strings.Repeat("x", maxKeyLine+1) + "\n"))
	if _, err := readKeyLine(r); err == nil {
		t.Fatal("expected error for oversized key line")
	}
}

func TestReadKeyLineTruncated(t *testing.T) {
	t.Parallel()

	r := bufio.NewReader(strings.NewReader("no-newline"))
	if _, err := readKeyLine(r); err == nil {
		t.Fatal("expected error when the stream ends before the newline")
	}
}
