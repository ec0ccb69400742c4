// Package quic implements the QUIC push-ingest edge. A publisher dials the
// listener with ALPN "carton/1", opens one unidirectional stream, sends the
// stream key terminated by a newline (the QUIC analog of an SRT streamid),
// and then the raw container bytes. The server registers the stream with
// the ingest registry and pumps bytes into its pipe until the stream ends.
package quic

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/quic-go/quic-go"

	"carton/certs"
	"carton/ingest"
)

// alpnProtocol is the ALPN token publishers must negotiate.
const alpnProtocol = "carton/1"

// maxKeyLine bounds the stream-key preamble so a hostile publisher cannot
// grow the line buffer without limit.
const maxKeyLine = 256

// readBufferSize is the per-connection copy buffer for payload reads.
const readBufferSize = 32 * 1024

// maxIdleTimeout closes publisher connections that go silent.
const maxIdleTimeout = 30 * time.Second

// Server accepts incoming QUIC publish connections and registers them with
// the ingest registry for demuxing.
type Server struct {
	log      *slog.Logger
	addr     string
	cert     *certs.CertInfo
	registry *ingest.Registry
}

// NewServer creates a QUIC ingest server listening on addr with the given
// certificate. If log is nil, slog.Default() is used.
func NewServer(addr string, cert *certs.CertInfo, registry *ingest.Registry, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		log:      log.With("component", "quic-ingest"),
		addr:     addr,
		cert:     cert,
		registry: registry,
	}
}

// Start begins accepting publish connections. It blocks until the context
// is cancelled.
func (s *Server) Start(ctx context.Context) error {
	tlsConf := &tls.Config{
		Certificates: []tls.Certificate{s.cert.TLSCert},
		NextProtos:   []string{alpnProtocol},
	}
	ln, err := quic.ListenAddr(s.addr, tlsConf, &quic.Config{
		MaxIdleTimeout: maxIdleTimeout,
	})
	if err != nil {
		return fmt.Errorf("QUIC listen on %s: %w", s.addr, err)
	}
	s.log.Info("listening", "addr", s.addr)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn("accept error", "error", err)
			continue
		}
		go s.handleConnection(ctx, conn)
	}
}

func (s *Server) handleConnection(ctx context.Context, conn quic.Connection) {
	defer conn.CloseWithError(0, "done")

	recv, err := conn.AcceptUniStream(ctx)
	if err != nil {
		s.log.Debug("accept stream error", "remote", conn.RemoteAddr(), "error", err)
		return
	}

	br := bufio.NewReaderSize(recv, readBufferSize)
	line, err := readKeyLine(br)
	if err != nil {
		s.log.Warn("bad stream preamble", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	streamKey := extractStreamKey(line)
	s.log.Info("publish", "stream_key", streamKey, "remote", conn.RemoteAddr())

	stream, writer := s.registry.Register(streamKey)
	stream.SetRemoteAddr(conn.RemoteAddr().String())

	buf := make([]byte, readBufferSize)
	for {
		if ctx.Err() != nil {
			break
		}
		n, err := br.Read(buf)
		if n > 0 {
			stream.RecordRead(n)
			if _, werr := writer.Write(buf[:n]); werr != nil {
				s.log.Debug("pipe write error", "stream_key", streamKey, "error", werr)
				break
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("read error", "stream_key", streamKey, "error", err)
			}
			break
		}
	}

	stats := stream.IngestStats()
	s.registry.Unregister(streamKey)
	s.log.Info("connection closed", "stream_key", streamKey,
		"bytes", stats.BytesReceived, "reads", stats.ReadCount,
		"uptime_ms", stats.UptimeMs)
}

// readKeyLine reads the newline-terminated stream-key preamble, failing if
// the line exceeds maxKeyLine bytes or the stream ends before the newline.
func readKeyLine(r *bufio.Reader) (string, error) {
	var b strings.Builder
	for b.Len() < maxKeyLine {
		c, err := r.ReadByte()
		if err != nil {
			return "", fmt.Errorf("read stream key: %w", err)
		}
		if c == '\n' {
			return b.String(), nil
		}
		b.WriteByte(c)
	}
	return "", fmt.Errorf("stream key exceeds %d bytes", maxKeyLine)
}

func extractStreamKey(line string) string {
	line = strings.TrimSuffix(line, "\r")
	line = strings.TrimPrefix(line, "/")
	line = strings.TrimPrefix(line, "live/")
	if line == "" {
		return "default"
	}
	return line
}
