package closurehash

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"sort"
	"strconv"

	"github.com/roach88/mapview/internal/mapping"
)

// Domain prefixes. The version suffix allows the algorithm to change
// without old digests ever comparing equal to new ones.
const (
	DomainClosure = "mapview/closure/v1"
	DomainViews   = "mapview/views/v1"
)

// Digest is an opaque fingerprint. It is only ever compared for equality.
type Digest string

// String returns the hex text of the digest.
func (d Digest) String() string {
	return string(d)
}

// Compute returns the digest of the closure rooted at c. The hierarchy h
// supplies the members of every is-type-of mapping, so adding or removing a
// subtype changes the digest. A nil h treats every type as having no
// subtypes.
func Compute(c *mapping.ContainerMapping, h *mapping.Hierarchy) Digest {
	return ComputeWithTrace(c, h, nil)
}

// ComputeWithTrace is Compute that also writes the traversal text to trace.
// A nil trace behaves like Compute.
func ComputeWithTrace(c *mapping.ContainerMapping, h *mapping.Hierarchy, trace io.Writer) Digest {
	if h == nil {
		h = mapping.NewHierarchy(nil)
	}
	hh := newDomainHash(DomainClosure)
	out := io.Writer(hh)
	if trace != nil {
		out = io.MultiWriter(hh, trace)
	}
	t := &traversal{
		w:         writer{w: out},
		visited:   make(map[any]int),
		version:   c.Version,
		hierarchy: h,
	}
	t.container(c)
	return Digest(hex.EncodeToString(hh.Sum(nil)))
}

// ViewsDigest returns the digest of a set of view texts keyed by qualified
// set name. Iteration order of views does not matter.
func ViewsDigest(views map[string]string) Digest {
	names := make([]string, 0, len(views))
	for n := range views {
		names = append(names, n)
	}
	sort.Strings(names)

	h := newDomainHash(DomainViews)
	w := writer{w: h}
	w.int("views.count", len(names))
	for _, n := range names {
		w.str("set", n)
		w.str("text", views[n])
	}
	return Digest(hex.EncodeToString(h.Sum(nil)))
}

// newDomainHash returns SHA-256 primed with domain + 0x00. The null byte
// keeps domain and data from running together.
func newDomainHash(domain string) hash.Hash {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	return h
}

// traversal holds the identity table for one Compute call.
type traversal struct {
	w         writer
	visited   map[any]int
	next      int
	version   mapping.Version
	hierarchy *mapping.Hierarchy
}

// begin opens node. It returns false, after writing a back-reference, when
// node was already expanded.
func (t *traversal) begin(node any, kind string) bool {
	if n, ok := t.visited[node]; ok {
		t.w.raw("#" + strconv.Itoa(n) + ";")
		return false
	}
	t.next++
	t.visited[node] = t.next
	t.w.raw("[" + strconv.Itoa(t.next) + ":" + kind + ";")
	return true
}

func (t *traversal) end() {
	t.w.raw("]")
}

func (t *traversal) null(name string) {
	t.w.raw(name + "=nil;")
}

func (t *traversal) container(c *mapping.ContainerMapping) {
	if !t.begin(c, "ContainerMapping") {
		return
	}
	t.w.str("conceptual", c.ConceptualContainer)
	t.w.str("store", c.StoreContainer)
	t.w.int("version", int(c.Version))
	if t.version >= mapping.Version3 {
		t.w.bool("generateUpdateViews", c.GenerateUpdateViews)
	}
	t.w.int("sets.count", len(c.Sets))
	for _, s := range c.Sets {
		t.set(s)
	}
	if t.version >= mapping.Version2 {
		t.w.int("functionImports.count", len(c.FunctionImports))
		for _, f := range c.FunctionImports {
			t.functionImport(f)
		}
	}
	t.end()
}

func (t *traversal) set(s *mapping.SetMapping) {
	if !t.begin(s, "SetMapping") {
		return
	}
	t.w.str("name", s.Name)
	t.w.str("kind", string(s.Kind))
	if s.ElementType != nil {
		t.entityType(s.ElementType)
	} else {
		t.null("elementType")
	}
	if s.Association != nil {
		t.association(s.Association)
	} else {
		t.null("association")
	}

	roles := sortedKeys(s.EndSets)
	t.w.int("endSets.count", len(roles))
	for _, r := range roles {
		t.w.str("role", r)
		t.w.str("set", s.EndSets[r])
	}

	t.w.str("queryView", s.QueryView)
	keys := make([]mapping.ViewKey, 0, len(s.TypeQueryViews))
	for k := range s.TypeQueryViews {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	t.w.int("typeQueryViews.count", len(keys))
	for _, k := range keys {
		t.w.str("key", k.String())
		t.w.str("view", s.TypeQueryViews[k])
	}

	t.w.int("typeMappings.count", len(s.TypeMappings))
	for _, tm := range s.TypeMappings {
		t.typeMapping(tm)
	}
	t.end()
}

func (t *traversal) typeMapping(tm *mapping.TypeMapping) {
	if !t.begin(tm, "TypeMapping") {
		return
	}
	t.w.int("types.count", len(tm.Types))
	for _, et := range tm.Types {
		t.entityType(et)
	}

	isOf := make([]*mapping.EntityType, len(tm.IsOfTypes))
	copy(isOf, tm.IsOfTypes)
	sort.SliceStable(isOf, func(i, j int) bool { return isOf[i].Name < isOf[j].Name })
	t.w.int("isOfTypes.count", len(isOf))
	for _, et := range isOf {
		t.entityType(et)
		// Members in hierarchy declaration order; the root itself comes first.
		members := t.hierarchy.TypeAndSubtypes(et)
		t.w.int("members.count", len(members))
		for _, m := range members {
			t.entityType(m)
		}
	}

	t.w.int("fragments.count", len(tm.Fragments))
	for _, f := range tm.Fragments {
		t.fragment(f)
	}
	t.end()
}

func (t *traversal) fragment(f *mapping.Fragment) {
	if !t.begin(f, "Fragment") {
		return
	}
	if f.StoreSet != nil {
		t.storeSet(f.StoreSet)
	} else {
		t.null("storeSet")
	}
	if t.version >= mapping.Version2 {
		t.w.bool("distinct", f.Distinct)
	}
	t.w.int("properties.count", len(f.Properties))
	for _, p := range f.Properties {
		t.propertyMapping(p)
	}

	conds := make([]*mapping.ConditionMapping, len(f.Conditions))
	copy(conds, f.Conditions)
	sort.SliceStable(conds, func(i, j int) bool { return conds[i].Column < conds[j].Column })
	t.w.int("conditions.count", len(conds))
	for _, c := range conds {
		t.condition(c)
	}
	t.end()
}

func (t *traversal) propertyMapping(pm *mapping.PropertyMapping) {
	if !t.begin(pm, "PropertyMapping") {
		return
	}
	if pm.Property != nil {
		t.property(pm.Property)
	} else {
		t.null("property")
	}
	if pm.Column != nil {
		t.column(pm.Column)
	} else {
		t.null("column")
	}
	t.w.int("complex.count", len(pm.Complex))
	for _, c := range pm.Complex {
		t.propertyMapping(c)
	}
	t.end()
}

func (t *traversal) condition(c *mapping.ConditionMapping) {
	if !t.begin(c, "Condition") {
		return
	}
	t.w.str("column", c.Column)
	t.w.str("kind", c.Kind.String())
	if c.Kind == mapping.ConditionEquals {
		t.w.str("value", c.Value)
	}
	t.end()
}

// entityType hashes a type by its identity facts. Subtypes are not visited
// from here; they are reached through the mappings that reference them.
func (t *traversal) entityType(et *mapping.EntityType) {
	if !t.begin(et, "EntityType") {
		return
	}
	t.w.str("name", et.Name)
	t.w.bool("abstract", et.Abstract)
	if et.Base != nil {
		t.entityType(et.Base)
	} else {
		t.null("base")
	}
	t.w.strs("key", et.Key)
	t.w.int("properties.count", len(et.Properties))
	for _, p := range et.Properties {
		t.property(p)
	}
	t.w.int("navigation.count", len(et.NavigationProperties))
	for _, n := range et.NavigationProperties {
		t.navigation(n)
	}
	t.end()
}

// property omits the declaring type: it is implied by the identity of the
// type that reached the property.
func (t *traversal) property(p *mapping.Property) {
	if !t.begin(p, "Property") {
		return
	}
	t.w.str("name", p.Name)
	t.w.str("type", p.TypeName)
	t.w.bool("nullable", p.Nullable)
	t.w.bool("concurrencyFixed", p.ConcurrencyFixed)
	if p.Complex != nil {
		t.complexType(p.Complex)
	} else {
		t.null("complex")
	}
	t.end()
}

func (t *traversal) complexType(ct *mapping.ComplexType) {
	if !t.begin(ct, "ComplexType") {
		return
	}
	t.w.str("name", ct.Name)
	t.w.int("properties.count", len(ct.Properties))
	for _, p := range ct.Properties {
		t.property(p)
	}
	t.end()
}

func (t *traversal) navigation(n *mapping.NavigationProperty) {
	if !t.begin(n, "NavigationProperty") {
		return
	}
	t.w.str("name", n.Name)
	t.w.str("from", n.FromRole)
	t.w.str("to", n.ToRole)
	if n.Association != nil {
		t.association(n.Association)
	} else {
		t.null("association")
	}
	t.end()
}

func (t *traversal) association(a *mapping.AssociationType) {
	if !t.begin(a, "AssociationType") {
		return
	}
	t.w.str("name", a.Name)
	for i, e := range a.Ends {
		if e == nil {
			t.null("end" + strconv.Itoa(i))
			continue
		}
		t.assocEnd(e)
	}
	if rc := a.Constraint; rc != nil {
		if t.begin(rc, "ReferentialConstraint") {
			t.w.str("principal", rc.PrincipalRole)
			t.w.str("dependent", rc.DependentRole)
			t.w.strs("principalProperties", rc.PrincipalProperties)
			t.w.strs("dependentProperties", rc.DependentProperties)
			t.end()
		}
	} else {
		t.null("constraint")
	}
	t.end()
}

func (t *traversal) assocEnd(e *mapping.AssociationEnd) {
	if !t.begin(e, "AssociationEnd") {
		return
	}
	t.w.str("role", e.Role)
	t.w.str("multiplicity", string(e.Multiplicity))
	if e.Type != nil {
		t.entityType(e.Type)
	} else {
		t.null("type")
	}
	t.end()
}

func (t *traversal) storeSet(s *mapping.StoreSet) {
	if !t.begin(s, "StoreSet") {
		return
	}
	t.w.str("name", s.Name)
	t.w.int("columns.count", len(s.Columns))
	for _, c := range s.Columns {
		t.column(c)
	}
	t.end()
}

func (t *traversal) column(c *mapping.Column) {
	if !t.begin(c, "Column") {
		return
	}
	t.w.str("name", c.Name)
	t.w.str("type", c.TypeName)
	t.w.bool("nullable", c.Nullable)
	t.end()
}

func (t *traversal) functionImport(f *mapping.FunctionImportMapping) {
	if !t.begin(f, "FunctionImportMapping") {
		return
	}
	t.w.str("name", f.Name)
	t.w.bool("composable", f.Composable)
	t.w.int("resultMappings.count", len(f.ResultMappings))
	for _, rm := range f.ResultMappings {
		if !t.begin(rm, "ResultMapping") {
			continue
		}
		t.w.int("typeMappings.count", len(rm.TypeMappings))
		for _, tm := range rm.TypeMappings {
			t.typeMapping(tm)
		}
		t.end()
	}
	t.end()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
