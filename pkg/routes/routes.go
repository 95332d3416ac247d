// Package routes defines the client's route tables: the mapping from URL
// patterns to view identifiers.
//
// Two mutually exclusive variants exist: the full base route set and the
// restricted player route set used by the packaged player build. A Table is
// immutable once built; hot reload replaces the table, it never mutates one
// in place.
package routes

import "strings"

// Variant identifies which route set a table was built from.
type Variant string

const (
	// VariantBase is the full application route set.
	VariantBase Variant = "base"

	// VariantPlayer is the restricted player route set.
	VariantPlayer Variant = "player"
)

// Params holds matched route parameters.
type Params map[string]string

// Table maps URL patterns to view identifiers.
type Table struct {
	variant Variant
	root    *node
	pats    []string
}

type node struct {
	segment    string
	children   map[string]*node
	paramChild *node
	catchAll   *node
	view       string
	terminal   bool
}

func newNode(segment string) *node {
	return &node{segment: segment, children: make(map[string]*node)}
}

// NewTable creates an empty table for the given variant.
func NewTable(variant Variant) *Table {
	return &Table{variant: variant, root: newNode("")}
}

// Variant returns the route set this table was built from.
func (t *Table) Variant() Variant {
	return t.variant
}

// Add registers a view for a pattern. Patterns use ":name" for parameter
// segments and a trailing "*" for a catch-all.
func (t *Table) Add(pattern, view string) {
	current := t.root
	for _, segment := range splitPath(pattern) {
		switch {
		case segment == "*":
			if current.catchAll == nil {
				current.catchAll = newNode("*")
			}
			current = current.catchAll
		case strings.HasPrefix(segment, ":"):
			if current.paramChild == nil {
				current.paramChild = newNode(segment)
			}
			current = current.paramChild
		default:
			child, ok := current.children[segment]
			if !ok {
				child = newNode(segment)
				current.children[segment] = child
			}
			current = child
		}
	}
	current.view = view
	current.terminal = true
	t.pats = append(t.pats, pattern)
}

// Match resolves a URL path to a view and its parameters. Literal segments
// win over parameters, parameters over catch-alls.
func (t *Table) Match(path string) (string, Params, bool) {
	params := make(Params)
	n := match(t.root, splitPath(path), params)
	if n == nil {
		return "", nil, false
	}
	return n.view, params, true
}

func match(current *node, segments []string, params Params) *node {
	if len(segments) == 0 {
		if current.terminal {
			return current
		}
		return nil
	}

	head, rest := segments[0], segments[1:]

	if child, ok := current.children[head]; ok {
		if n := match(child, rest, params); n != nil {
			return n
		}
	}

	if current.paramChild != nil {
		if n := match(current.paramChild, rest, params); n != nil {
			params[strings.TrimPrefix(current.paramChild.segment, ":")] = head
			return n
		}
	}

	if current.catchAll != nil && current.catchAll.terminal {
		params["*"] = strings.Join(segments, "/")
		return current.catchAll
	}

	return nil
}

// Patterns returns the registered patterns in registration order.
func (t *Table) Patterns() []string {
	out := make([]string, len(t.pats))
	copy(out, t.pats)
	return out
}

// Len returns the number of registered patterns.
func (t *Table) Len() int {
	return len(t.pats)
}

func splitPath(path string) []string {
	var segments []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// BaseTable builds the full application route set.
func BaseTable() *Table {
	t := NewTable(VariantBase)
	t.Add("/", "home")
	t.Add("/login", "login")
	t.Add("/search", "search")
	t.Add("/:user", "user-collections")
	t.Add("/:user/:coll", "collection")
	t.Add("/:user/:coll/list/:list", "collection-list")
	t.Add("/:user/:coll/*", "replay")
	return t
}

// PlayerTable builds the restricted player route set.
func PlayerTable() *Table {
	t := NewTable(VariantPlayer)
	t.Add("/", "player-home")
	t.Add("/replay/*", "player-replay")
	return t
}

// Select returns the player table when player is set, the base table
// otherwise. The two sets are mutually exclusive.
func Select(player bool) *Table {
	if player {
		return PlayerTable()
	}
	return BaseTable()
}

// Loader resolves a route table. The bootstrap calls it again on hot
// reload so route-definition changes yield a fresh table.
type Loader func() *Table

// DefaultLoader returns a Loader bound to the build-time variant choice.
func DefaultLoader(player bool) Loader {
	return func() *Table {
		return Select(player)
	}
}
