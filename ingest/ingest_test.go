package ingest

import (
	"io"
	"sync"
	"testing"
	"time"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	stream, w := r.Register("test-stream")

	if stream.Key != "test-stream" {
		t.Fatalf("got key %q, want %q", stream.Key, "test-stream")
	}
	if w == nil {
		t.Fatal("writer is nil")
	}

	got, ok := r.Get("test-stream")
	if !ok {
		t.Fatal("Get returned false for registered stream")
	}
	if got != stream {
		t.Fatal("Get returned different stream pointer")
	}
}

func TestRegistryGetMissing(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	if _, ok := r.Get("nonexistent"); ok {
		t.Fatal("Get returned true for missing stream")
	}
}

func TestRegistryUnregister(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	r.Register("stream1")
	r.Unregister("stream1")

	if _, ok := r.Get("stream1"); ok {
		t.Fatal("stream still found after Unregister")
	}
}

func TestRegistryUnregisterMissing(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	// Should not panic.
	r.Unregister("nonexistent")
}

func TestRegistryUnregisterClosesPipe(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	stream, _ := r.Register("stream1")
	r.Unregister("stream1")

	// The input side must observe EOF once the pipe is closed.
	buf := make([]byte, 1)
	if _, err := stream.input.Read(buf); err != io.EOF {
		t.Fatalf("expected EOF after Unregister, got %v", err)
	}

	select {
	case <-stream.Done():
	default:
		t.Fatal("Done not signaled after Unregister")
	}
}

func TestRegistryReRegisterTearsDownOldStream(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	old, _ := r.Register("cam")
	replacement, _ := r.Register("cam")

	if old == replacement {
		t.Fatal("re-register returned the old stream")
	}
	select {
	case <-old.Done():
	case <-time.After(time.Second):
		t.Fatal("old stream not torn down on re-register")
	}
	got, ok := r.Get("cam")
	if !ok || got != replacement {
		t.Fatal("registry does not hold the replacement stream")
	}
}

func TestRegistryOnStreamCallback(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var calledKey string

	done := make(chan struct{})
	r := NewRegistry(func(key string, input io.Reader) {
		mu.Lock()
		calledKey = key
		mu.Unlock()
		close(done)
	})

	_, w := r.Register("cb-stream")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("onStream callback never invoked")
	}
	mu.Lock()
	if calledKey != "cb-stream" {
		t.Fatalf("callback key = %q, want %q", calledKey, "cb-stream")
	}
	mu.Unlock()

	// Writer and reader are coupled through the pipe.
	readDone := make(chan string, 1)
	stream, _ := r.Get("cb-stream")
	go func() {
		buf := make([]byte, 5)
		n, _ := io.ReadFull(stream.input, buf)
		readDone <- string(buf[:n])
	}()
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-readDone:
		if got != "hello" {
			t.Fatalf("pipe delivered %q, want %q", got, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("pipe read timed out")
	}
}

func TestStreamStats(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	stream, _ := r.Register("cam")
	stream.SetRemoteAddr("203.0.113.9:4000")
	stream.RecordRead(1316)
	stream.RecordRead(684)

	stats := stream.IngestStats()
	if stats.BytesReceived != 2000 {
		t.Fatalf("BytesReceived = %d, want 2000", stats.BytesReceived)
	}
	if stats.ReadCount != 2 {
		t.Fatalf("ReadCount = %d, want 2", stats.ReadCount)
	}
	if stats.RemoteAddr != "203.0.113.9:4000" {
		t.Fatalf("RemoteAddr = %q", stats.RemoteAddr)
	}
	if stats.UptimeMs < 0 {
		t.Fatalf("UptimeMs = %d", stats.UptimeMs)
	}
}
