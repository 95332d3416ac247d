package render

// HTMLRenderer renders a node tree into a Mount.
//
// Hydration semantics: when the mount already holds markup equal to the
// tree's rendering (server-rendered output, or a repeated render with
// equal input), the renderer attaches to it instead of discarding and
// rebuilding. Otherwise the mount's content is fully replaced.
type HTMLRenderer struct{}

// NewHTMLRenderer creates the renderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

// Hydrate renders root and attaches it to the mount.
func (r *HTMLRenderer) Hydrate(m *Mount, root *Node) error {
	m.apply(root.HTML())
	return nil
}
