package mapping

import (
	"fmt"
	"strings"
)

// Collection is a loaded mapping collection: one or more container
// mappings plus the conceptual and store metadata they reference.
//
// A Collection is immutable once NewCollection returns.
type Collection struct {
	Containers []*ContainerMapping
	Hierarchy  *Hierarchy
	StoreSets  []*StoreSet
	Complex    []*ComplexType
	Assocs     []*AssociationType

	sets map[string]setRef
}

type setRef struct {
	container *ContainerMapping
	set       *SetMapping
}

// NewCollection indexes containers by qualified set name ("Container.Set").
// Returns an error if two containers map the same qualified name or the
// same conceptual and store container pair.
func NewCollection(h *Hierarchy, containers ...*ContainerMapping) (*Collection, error) {
	if h == nil {
		h = NewHierarchy(nil)
	}
	c := &Collection{
		Containers: containers,
		Hierarchy:  h,
		sets:       make(map[string]setRef),
	}
	pairs := make(map[[2]string]bool, len(containers))
	for _, cm := range containers {
		pair := [2]string{cm.ConceptualContainer, cm.StoreContainer}
		if pairs[pair] {
			return nil, fmt.Errorf("new collection: duplicate container mapping %s to %s", pair[0], pair[1])
		}
		pairs[pair] = true
		for _, s := range cm.Sets {
			q := cm.QualifiedName(s.Name)
			if _, dup := c.sets[q]; dup {
				return nil, fmt.Errorf("new collection: duplicate set %q", q)
			}
			c.sets[q] = setRef{container: cm, set: s}
		}
	}
	return c, nil
}

// LookupSet resolves a set name. Qualified names ("Container.Set") are
// matched exactly; an unqualified name matches if exactly one container maps
// it.
func (c *Collection) LookupSet(name string) (*ContainerMapping, *SetMapping, bool) {
	if ref, ok := c.sets[name]; ok {
		return ref.container, ref.set, true
	}
	if strings.Contains(name, ".") {
		return nil, nil, false
	}
	var found setRef
	matches := 0
	for _, cm := range c.Containers {
		if s := cm.Set(name); s != nil {
			found = setRef{container: cm, set: s}
			matches++
		}
	}
	if matches != 1 {
		return nil, nil, false
	}
	return found.container, found.set, true
}

// Container returns the container mapping with the given conceptual name.
func (c *Collection) Container(name string) (*ContainerMapping, bool) {
	for _, cm := range c.Containers {
		if cm.ConceptualContainer == name {
			return cm, true
		}
	}
	return nil, false
}
