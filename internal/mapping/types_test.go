package mapping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHierarchy() (*Hierarchy, map[string]*EntityType) {
	root := &EntityType{Name: "Root", Abstract: true}
	a := &EntityType{Name: "A", Base: root}
	b := &EntityType{Name: "B", Base: root, Abstract: true}
	b1 := &EntityType{Name: "B1", Base: b}
	b2 := &EntityType{Name: "B2", Base: b}
	types := map[string]*EntityType{"Root": root, "A": a, "B": b, "B1": b1, "B2": b2}
	return NewHierarchy([]*EntityType{root, a, b, b1, b2}), types
}

func names(ts []*EntityType) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

func TestHierarchyTypeAndSubtypes(t *testing.T) {
	h, ty := sampleHierarchy()

	assert.Equal(t, []string{"Root", "A", "B", "B1", "B2"}, names(h.TypeAndSubtypes(ty["Root"])))
	assert.Equal(t, []string{"B", "B1", "B2"}, names(h.TypeAndSubtypes(ty["B"])))
	assert.Equal(t, []string{"A", "B1", "B2"}, names(h.ConcreteTypeAndSubtypes(ty["Root"])))
	assert.Equal(t, []string{"B1"}, names(h.TypeAndSubtypes(ty["B1"])))
}

func TestHierarchyImpliedTypes(t *testing.T) {
	h, ty := sampleHierarchy()

	tm := &TypeMapping{
		Types:     []*EntityType{ty["A"]},
		IsOfTypes: []*EntityType{ty["B"], ty["Root"]},
	}
	// Exact types first, then hierarchy members, deduplicated.
	assert.Equal(t, []string{"A", "B1", "B2"}, names(h.ImpliedTypes(tm)))
}

func TestHierarchyLookup(t *testing.T) {
	h, ty := sampleHierarchy()

	got, ok := h.Lookup("B2")
	require.True(t, ok)
	assert.Same(t, ty["B2"], got)

	_, ok = h.Lookup("Missing")
	assert.False(t, ok)
}

func TestEntityTypePropertySearchesBase(t *testing.T) {
	base := &EntityType{Name: "Base", Properties: []*Property{{Name: "Id"}}}
	derived := &EntityType{Name: "Derived", Base: base, Properties: []*Property{{Name: "Extra"}}}

	assert.NotNil(t, derived.Property("Id"))
	assert.NotNil(t, derived.Property("Extra"))
	assert.Nil(t, base.Property("Extra"))
	assert.True(t, derived.IsSubtypeOf(base))
	assert.False(t, base.IsSubtypeOf(derived))
}

func TestEntityTypeEffectiveKey(t *testing.T) {
	base := &EntityType{Name: "Base", Key: []string{"Id"}}
	mid := &EntityType{Name: "Mid", Base: base}
	leaf := &EntityType{Name: "Leaf", Base: mid}

	assert.Equal(t, []string{"Id"}, leaf.EffectiveKey())
	assert.Nil(t, (&EntityType{Name: "Keyless"}).EffectiveKey())
}

func TestViewKeyComparedByValue(t *testing.T) {
	k1 := TypeKey("Model.People", "Model.Employee", true)
	k2 := TypeKey("Model.People", "Model.Employee", true)
	k3 := TypeKey("Model.People", "Model.Employee", false)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1.String(), k3.String())

	m := map[ViewKey]int{k1: 1}
	assert.Equal(t, 1, m[k2], "keys must work as map keys by value")

	assert.False(t, SetKey("Model.People").IsTypeSpecific())
	assert.Equal(t, "Model.People", SetKey("Model.People").String())
	assert.Equal(t, "Model.People/Model.Employee/true", k1.String())
}

func TestCollectionLookupSet(t *testing.T) {
	c1 := &ContainerMapping{ConceptualContainer: "One", Sets: []*SetMapping{{Name: "People"}, {Name: "Shared"}}}
	c2 := &ContainerMapping{ConceptualContainer: "Two", Sets: []*SetMapping{{Name: "Orders"}, {Name: "Shared"}}}
	col, err := NewCollection(nil, c1, c2)
	require.NoError(t, err)

	cm, s, ok := col.LookupSet("One.People")
	require.True(t, ok)
	assert.Same(t, c1, cm)
	assert.Equal(t, "People", s.Name)

	_, s, ok = col.LookupSet("Orders")
	require.True(t, ok, "unqualified name unique across containers")
	assert.Equal(t, "Orders", s.Name)

	_, _, ok = col.LookupSet("Shared")
	assert.False(t, ok, "ambiguous unqualified name")

	_, _, ok = col.LookupSet("Two.Missing")
	assert.False(t, ok)
}

func TestNewCollectionRejectsDuplicateSets(t *testing.T) {
	c := &ContainerMapping{ConceptualContainer: "One", Sets: []*SetMapping{{Name: "People"}, {Name: "People"}}}
	_, err := NewCollection(nil, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "One.People")
}

func TestNewCollectionRejectsDuplicateContainerPairs(t *testing.T) {
	c1 := &ContainerMapping{ConceptualContainer: "One", StoreContainer: "S", Sets: []*SetMapping{{Name: "People"}}}
	c2 := &ContainerMapping{ConceptualContainer: "One", StoreContainer: "S", Sets: []*SetMapping{{Name: "Orders"}}}
	_, err := NewCollection(nil, c1, c2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate container mapping One to S")

	c2.StoreContainer = "Other"
	_, err = NewCollection(nil, c1, c2)
	assert.NoError(t, err, "one conceptual container may map to several stores")
}

func TestForeignKeyAssociation(t *testing.T) {
	assoc := &AssociationType{Name: "A", Constraint: &ReferentialConstraint{}}
	fk := &SetMapping{Kind: SetKindAssociation, Association: assoc}
	assert.True(t, fk.IsForeignKeyAssociation())

	mapped := &SetMapping{Kind: SetKindAssociation, Association: assoc, TypeMappings: []*TypeMapping{{}}}
	assert.False(t, mapped.IsForeignKeyAssociation())

	noConstraint := &SetMapping{Kind: SetKindAssociation, Association: &AssociationType{Name: "B"}}
	assert.False(t, noConstraint.IsForeignKeyAssociation())
}

func TestDiagnostics(t *testing.T) {
	var ds Diagnostics
	ds.Warnf(CodeEmptyTypeMapping, "", nil, "type mapping has no fragments")
	assert.False(t, ds.HasErrors())
	assert.NoError(t, ds.Err())

	ds.Errorf(CodeUnreachableType, "Model.B", []SourceLocation{{File: "m.yaml", Line: 3, Column: 5}, {Line: 7, Column: 1}},
		"type %q is unreachable", "Model.B")
	require.True(t, ds.HasErrors())
	assert.Len(t, ds.Errors(), 1)
	assert.Len(t, ds.Warnings(), 1)

	err := ds.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[E301]")
	assert.Contains(t, err.Error(), "m.yaml:3:5")
	assert.Contains(t, err.Error(), "7:1")
}

func TestVersionValid(t *testing.T) {
	assert.True(t, Version1.Valid())
	assert.True(t, LatestVersion.Valid())
	assert.False(t, Version(0).Valid())
	assert.False(t, (LatestVersion + 1).Valid())
}

func TestDiagnosticJSON(t *testing.T) {
	in := Diagnostics{{Severity: SeverityWarning, Code: CodeSetNotMapped, Message: "unmapped"}}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"severity":"warning"`)

	var out Diagnostics
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	var s Severity
	assert.Error(t, s.UnmarshalText([]byte("fatal")))
}
