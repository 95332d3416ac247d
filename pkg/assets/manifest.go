// Package assets provides runtime resolution of compiled asset URLs.
//
// The build writes a manifest mapping source asset names to their
// fingerprinted versions, together with the build hash and the origin the
// assets are served from:
//
//	{
//	  "hash": "9f2c4a...",
//	  "origin": "http://127.0.0.1:8096",
//	  "prefix": "/static/",
//	  "entries": {"app.js": "app.9f2c4a1b.js"}
//	}
//
// The dev server serves its live manifest at /__manifest, so a client
// discovers the asset origin from the server's own configuration instead
// of assuming a fixed host and port. The bundle entry's hash always comes
// from this build metadata; nothing ships a hardcoded hash.
package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
)

// DefaultEntry is the bundle entry asset name.
const DefaultEntry = "app.js"

// Manifest holds the mapping from source asset names to fingerprinted
// names, plus the build metadata. It is safe for concurrent use.
type Manifest struct {
	mu      sync.RWMutex
	entries map[string]string
	hash    string
	origin  string
	prefix  string
}

type manifestJSON struct {
	Hash    string            `json:"hash,omitempty"`
	Origin  string            `json:"origin,omitempty"`
	Prefix  string            `json:"prefix,omitempty"`
	Entries map[string]string `json:"entries"`
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{entries: make(map[string]string)}
}

// Load reads a manifest JSON file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses manifest JSON.
func Decode(data []byte) (*Manifest, error) {
	var raw manifestJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw.Entries == nil {
		raw.Entries = make(map[string]string)
	}
	return &Manifest{
		entries: raw.Entries,
		hash:    raw.Hash,
		origin:  raw.Origin,
		prefix:  raw.Prefix,
	}, nil
}

// Fetch retrieves the live manifest from a dev server.
func Fetch(ctx context.Context, url string) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch manifest: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Encode serializes the manifest to JSON.
func (m *Manifest) Encode() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw := manifestJSON{
		Hash:    m.hash,
		Origin:  m.origin,
		Prefix:  m.prefix,
		Entries: m.entries,
	}
	return json.MarshalIndent(raw, "", "  ")
}

// Resolve returns the fingerprinted name for the given source name.
// If not found, returns the source name unchanged.
func (m *Manifest) Resolve(source string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if resolved, ok := m.entries[source]; ok {
		return resolved
	}
	return source
}

// Has returns true if the manifest contains the given source name.
func (m *Manifest) Has(source string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[source]
	return ok
}

// Set adds or updates an entry.
func (m *Manifest) Set(source, resolved string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[source] = resolved
}

// Hash returns the build hash.
func (m *Manifest) Hash() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hash
}

// SetHash records the build hash.
func (m *Manifest) SetHash(hash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hash = hash
}

// Origin returns the origin assets are served from.
func (m *Manifest) Origin() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.origin
}

// SetOrigin records the serving origin.
func (m *Manifest) SetOrigin(origin string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.origin = origin
}

// Prefix returns the public path prefix.
func (m *Manifest) Prefix() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prefix
}

// SetPrefix records the public path prefix.
func (m *Manifest) SetPrefix(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefix = prefix
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// All returns a copy of all manifest entries.
func (m *Manifest) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		result[k] = v
	}
	return result
}
