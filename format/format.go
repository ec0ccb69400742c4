// Package format holds the registry of container front ends and picks one
// for a given input by probing a bounded prefix against every registered
// descriptor.
package format

import (
	"fmt"
	"strings"
	"sync"

	"carton/demux"
)

// ProbeBufferSize is the prefix length handed to descriptor probes. Probes
// must tolerate shorter prefixes near end of input and score them zero
// rather than reading out of bounds.
const ProbeBufferSize = 64

// Descriptor registers one container format front end.
type Descriptor struct {
	Name        string // implementation name, e.g. "y4m-rs"
	Format      string // short format key, unique within a registry
	Description string
	Extensions  []string // recognized file extensions, without the dot
	MIMETypes   []string

	// New creates a fresh demuxer session for this format.
	New func() demux.Demuxer

	// Probe scores how likely data, a prefix of at most ProbeBufferSize
	// bytes, belongs to this format. Zero means no match.
	Probe func(data []byte) uint8
}

// Registry holds registered descriptors. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]*Descriptor
	order []*Descriptor // registration order, for deterministic probing
}

// NewRegistry returns an empty registry. Hosts register every format they
// support at startup; there is no ambient global registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]*Descriptor)}
}

// Register adds d to the registry. Registering a descriptor without a
// format key, factory, or probe, or reusing a format key, is an error.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("format: nil descriptor")
	}
	if d.Format == "" || d.New == nil || d.Probe == nil {
		return fmt.Errorf("format: incomplete descriptor %q", d.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[d.Format]; ok {
		return fmt.Errorf("format: %q already registered", d.Format)
	}
	r.byKey[d.Format] = d
	r.order = append(r.order, d)
	return nil
}

// Lookup returns the descriptor registered under the given format key.
func (r *Registry) Lookup(format string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byKey[format]
	return d, ok
}

// ByExtension returns the first registered descriptor claiming ext
// (case-insensitive, leading dot ignored).
func (r *Registry) ByExtension(ext string) (*Descriptor, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.order {
		for _, e := range d.Extensions {
			if strings.ToLower(e) == ext {
				return d, true
			}
		}
	}
	return nil, false
}

// Probe scores data against every registered descriptor and returns the
// best match with its score. A nil descriptor means nothing recognized the
// prefix. Ties go to the earlier registration.
func (r *Registry) Probe(data []byte) (*Descriptor, uint8) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		best  *Descriptor
		score uint8
	)
	for _, d := range r.order {
		if s := d.Probe(data); s > score {
			best, score = d, s
		}
	}
	return best, score
}
