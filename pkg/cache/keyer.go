package cache

import "slices"

// RenderKeyOpts lists everything that changes a rendered diagram.
type RenderKeyOpts struct {
	View            string   `json:"view"` // "products", "product" or "nodes"
	Product         string   `json:"product,omitempty"`
	Format          string   `json:"format"`
	Exclude         []string `json:"exclude,omitempty"`
	IncludeInternal bool     `json:"include_internal,omitempty"`
	Detailed        bool     `json:"detailed,omitempty"`
	StylesHash      string   `json:"styles,omitempty"`
	Scale           float64  `json:"scale,omitempty"`
	SourceHash      string   `json:"source,omitempty"` // hash of the DOT source
}

// Keyer derives cache keys.
type Keyer interface {
	// RenderKey keys a diagram by the fingerprint of its analysis.
	RenderKey(fingerprint string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RenderKey implements Keyer. Exclusion order does not affect the key.
func (DefaultKeyer) RenderKey(fingerprint string, opts RenderKeyOpts) string {
	opts.Exclude = slices.Clone(opts.Exclude)
	slices.Sort(opts.Exclude)
	return hashKey("render", fingerprint, opts)
}

// ScopedKeyer prefixes every key of an inner Keyer, isolating callers that
// share one backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer uses
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// RenderKey implements Keyer.
func (k *ScopedKeyer) RenderKey(fingerprint string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(fingerprint, opts)
}
