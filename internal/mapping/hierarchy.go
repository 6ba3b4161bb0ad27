package mapping

// Hierarchy indexes entity types by name and knows their subtypes.
// It is built once from the types a loader declared and never changes.
type Hierarchy struct {
	types    []*EntityType
	byName   map[string]*EntityType
	children map[*EntityType][]*EntityType
}

// NewHierarchy indexes types. Types keep their declaration order; a type
// whose Base is not among types is still treated as having that base.
func NewHierarchy(types []*EntityType) *Hierarchy {
	h := &Hierarchy{
		types:    types,
		byName:   make(map[string]*EntityType, len(types)),
		children: make(map[*EntityType][]*EntityType),
	}
	for _, t := range types {
		h.byName[t.Name] = t
		if t.Base != nil {
			h.children[t.Base] = append(h.children[t.Base], t)
		}
	}
	return h
}

// Types returns all types in declaration order.
func (h *Hierarchy) Types() []*EntityType {
	return h.types
}

// Lookup returns the type named name.
func (h *Hierarchy) Lookup(name string) (*EntityType, bool) {
	t, ok := h.byName[name]
	return t, ok
}

// TypeAndSubtypes returns t followed by all of its transitive subtypes in
// declaration order (depth first). Terminates on malformed cyclic bases.
func (h *Hierarchy) TypeAndSubtypes(t *EntityType) []*EntityType {
	var out []*EntityType
	seen := make(map[*EntityType]bool)
	var walk func(*EntityType)
	walk = func(cur *EntityType) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		out = append(out, cur)
		for _, c := range h.children[cur] {
			walk(c)
		}
	}
	walk(t)
	return out
}

// ConcreteTypeAndSubtypes is TypeAndSubtypes without abstract types.
func (h *Hierarchy) ConcreteTypeAndSubtypes(t *EntityType) []*EntityType {
	var out []*EntityType
	for _, c := range h.TypeAndSubtypes(t) {
		if !c.Abstract {
			out = append(out, c)
		}
	}
	return out
}

// ImpliedTypes returns the concrete types a type mapping can produce: its
// exact types followed by every concrete member of its is-type-of
// hierarchies, deduplicated, in first-appearance order.
func (h *Hierarchy) ImpliedTypes(tm *TypeMapping) []*EntityType {
	var out []*EntityType
	seen := make(map[*EntityType]bool)
	add := func(t *EntityType) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range tm.Types {
		add(t)
	}
	for _, t := range tm.IsOfTypes {
		for _, c := range h.ConcreteTypeAndSubtypes(t) {
			add(c)
		}
	}
	return out
}
