package render

import "sync"

// Mount is the render target: the stand-in for the single DOM node the
// application is mounted into. Its identity is stable across re-renders;
// its content is replaced by each render call. Only the renderer writes
// to it.
type Mount struct {
	id string

	mu         sync.Mutex
	html       string
	hydrated   bool
	generation int
}

// NewMount creates a mount target with the given element identifier.
func NewMount(id string) *Mount {
	return &Mount{id: id}
}

// NewPrerenderedMount creates a mount target seeded with server-rendered
// markup, as a page delivering SSR output would provide.
func NewPrerenderedMount(id, html string) *Mount {
	return &Mount{id: id, html: html}
}

// ID returns the mount element identifier.
func (m *Mount) ID() string {
	return m.id
}

// HTML returns the currently rendered markup.
func (m *Mount) HTML() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.html
}

// Hydrated reports whether the mount has been hydrated at least once.
func (m *Mount) Hydrated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hydrated
}

// Generation counts content replacements. Hydrating markup identical to
// the current content attaches without replacing, so the generation is
// observably unchanged for idempotent re-renders.
func (m *Mount) Generation() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// apply installs new markup. Called by renderers only.
func (m *Mount) apply(html string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hydrated || m.html != html {
		if m.html != html {
			m.generation++
		}
		m.html = html
	}
	m.hydrated = true
}
