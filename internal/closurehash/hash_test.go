package closurehash

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mapview/internal/mapping"
	"github.com/roach88/mapview/internal/testutil"
)

// selfAssociation builds a version 1 container whose only type navigates to
// itself through an association with both ends on that type.
func selfAssociation() *mapping.ContainerMapping {
	t := &mapping.EntityType{
		Name:       "M.T",
		Key:        []string{"Id"},
		Properties: []*mapping.Property{{Name: "Id", TypeName: "Int32"}},
	}
	a := &mapping.AssociationType{
		Name: "M.A",
		Ends: [2]*mapping.AssociationEnd{
			{Role: "A", Type: t, Multiplicity: mapping.MultiplicityOne},
			{Role: "B", Type: t, Multiplicity: mapping.MultiplicityMany},
		},
	}
	t.NavigationProperties = []*mapping.NavigationProperty{
		{Name: "Self", Association: a, FromRole: "A", ToRole: "B"},
	}
	return &mapping.ContainerMapping{
		ConceptualContainer: "M",
		StoreContainer:      "S",
		Version:             mapping.Version1,
		Sets: []*mapping.SetMapping{{
			Name:        "Ts",
			Kind:        mapping.SetKindEntity,
			ElementType: t,
		}},
	}
}

// people hashes the fixture against its own hierarchy.
func people(f *testutil.People) Digest {
	return Compute(f.Container, f.Collection.Hierarchy)
}

func trace(t *testing.T, c *mapping.ContainerMapping) (Digest, string) {
	t.Helper()
	var buf bytes.Buffer
	d := ComputeWithTrace(c, nil, &buf)
	return d, buf.String()
}

func TestComputeWithTrace_Golden(t *testing.T) {
	_, text := trace(t, selfAssociation())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "self_association", []byte(text))
}

func TestCompute_BackReferencePerRevisit(t *testing.T) {
	_, text := trace(t, selfAssociation())

	// T is expanded once and revisited from each association end.
	assert.Equal(t, 1, strings.Count(text, "[3:EntityType;"))
	assert.Equal(t, 2, strings.Count(text, "#3;"))
	assert.Equal(t, 2, strings.Count(text, "#"))
}

var (
	openRe = regexp.MustCompile(`\[(\d+):`)
	refRe  = regexp.MustCompile(`#(\d+);`)
)

func TestCompute_EveryNodeExpandedOnce(t *testing.T) {
	f := testutil.NewPeople()
	_, text := trace(t, f.Container)

	opens := openRe.FindAllStringSubmatch(text, -1)
	require.NotEmpty(t, opens)
	for i, m := range opens {
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		assert.Equal(t, i+1, n, "nodes numbered in first-visit order")
	}
	assert.Equal(t, len(opens), strings.Count(text, "]"), "every node closed")

	refs := refRe.FindAllStringSubmatch(text, -1)
	assert.NotEmpty(t, refs, "People closure contains shared nodes")
	for _, m := range refs {
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		assert.LessOrEqual(t, n, len(opens))
	}
}

func TestCompute_Deterministic(t *testing.T) {
	a := people(testutil.NewPeople())
	b := people(testutil.NewPeople())

	assert.Equal(t, a, b, "independently built equal closures hash equal")
	assert.Len(t, a.String(), 64)
	assert.Regexp(t, `^[0-9a-f]{64}$`, a.String())
}

func TestCompute_SensitiveToRelevantFields(t *testing.T) {
	base := people(testutil.NewPeople())

	tests := []struct {
		name   string
		mutate func(f *testutil.People)
	}{
		{"condition value", func(f *testutil.People) {
			f.PeopleSet.TypeMappings[0].Fragments[0].Conditions[0].Value = "X"
		}},
		{"condition kind", func(f *testutil.People) {
			c := f.PeopleSet.TypeMappings[0].Fragments[0].Conditions[0]
			c.Kind = mapping.ConditionIsNotNull
			c.Value = ""
		}},
		{"property nullability", func(f *testutil.People) {
			f.Address.Properties[2].Nullable = false
		}},
		{"column name", func(f *testutil.People) {
			f.PeopleStore.Columns[3].Name = "Discriminator"
		}},
		{"abstractness", func(f *testutil.People) {
			f.Person.Abstract = false
		}},
		{"query view", func(f *testutil.People) {
			f.ArchiveSet.QueryView += " WHERE T.Id > 0"
		}},
		{"end set", func(f *testutil.People) {
			f.PersonAddressSet.EndSets["Address"] = "Archive"
		}},
		{"multiplicity", func(f *testutil.People) {
			f.PersonAddress.Ends[0].Multiplicity = mapping.MultiplicityOne
		}},
		{"fragment distinct", func(f *testutil.People) {
			f.PeopleSet.TypeMappings[1].Fragments[0].Distinct = true
		}},
		{"update views", func(f *testutil.People) {
			f.Container.GenerateUpdateViews = false
		}},
		{"function import composability", func(f *testutil.People) {
			f.GetPeople.Composable = false
		}},
		{"type mapping order", func(f *testutil.People) {
			tms := f.PeopleSet.TypeMappings
			tms[0], tms[1] = tms[1], tms[0]
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testutil.NewPeople()
			tt.mutate(f)
			assert.NotEqual(t, base, people(f))
		})
	}
}

// isOfPeople maps the People set through one is-type-of mapping over
// Person, so the types it produces depend on the hierarchy.
func isOfPeople(f *testutil.People) {
	f.PeopleSet.TypeMappings = []*mapping.TypeMapping{
		testutil.IsOf(f.Person, 10, testutil.IsNotNull("Kind", 11)),
	}
}

func TestCompute_SensitiveToHierarchyMembers(t *testing.T) {
	f := testutil.NewPeople()
	isOfPeople(f)
	withCustomer := people(f)

	without := mapping.NewHierarchy([]*mapping.EntityType{f.Person, f.Employee, f.Address})
	assert.NotEqual(t, withCustomer, Compute(f.Container, without),
		"removing a subtype of an is-type-of root changes the digest")

	reordered := mapping.NewHierarchy([]*mapping.EntityType{f.Person, f.Customer, f.Employee, f.Address})
	assert.NotEqual(t, withCustomer, Compute(f.Container, reordered),
		"member order follows declaration order")

	unrelated := &mapping.EntityType{Name: "Model.Invoice"}
	extended := mapping.NewHierarchy([]*mapping.EntityType{f.Person, f.Employee, f.Customer, f.Address, unrelated})
	assert.Equal(t, withCustomer, Compute(f.Container, extended),
		"types outside every is-type-of hierarchy do not affect the digest")
}

func TestCompute_HierarchyIgnoredWithoutIsOf(t *testing.T) {
	f := testutil.NewPeople()
	assert.Equal(t, people(f), Compute(f.Container, nil))
}

func TestComputeWithTrace_Members(t *testing.T) {
	f := testutil.NewPeople()
	isOfPeople(f)
	var buf bytes.Buffer
	ComputeWithTrace(f.Container, f.Collection.Hierarchy, &buf)
	assert.Contains(t, buf.String(), "isOfTypes.count=1:1;")
	assert.Contains(t, buf.String(), "members.count=1:3;")
}

func TestCompute_InsensitiveToUnorderedCollections(t *testing.T) {
	build := func(swap bool) Digest {
		types := testutil.Types("M.A", "M.B")
		isOf := []*mapping.EntityType{types[0], types[1]}
		conds := []*mapping.ConditionMapping{
			testutil.Equals("Kind", "1", 1),
			testutil.IsNotNull("Flag", 2),
		}
		if swap {
			isOf[0], isOf[1] = isOf[1], isOf[0]
			conds[0], conds[1] = conds[1], conds[0]
		}
		tm := &mapping.TypeMapping{
			IsOfTypes: isOf,
			Fragments: []*mapping.Fragment{{Conditions: conds}},
		}
		return Compute(&mapping.ContainerMapping{
			ConceptualContainer: "M",
			StoreContainer:      "S",
			Version:             mapping.LatestVersion,
			Sets: []*mapping.SetMapping{{
				Name:         "As",
				Kind:         mapping.SetKindEntity,
				ElementType:  types[0],
				TypeMappings: []*mapping.TypeMapping{tm},
			}},
		}, mapping.NewHierarchy(types))
	}
	assert.Equal(t, build(false), build(true))
}

func TestCompute_IgnoresSourceLocations(t *testing.T) {
	f := testutil.NewPeople()
	base := people(f)

	f.PeopleSet.Location = mapping.SourceLocation{File: "moved.yaml", Line: 99}
	f.PeopleSet.TypeMappings[0].Fragments[0].Conditions[0].Location.Line = 500

	assert.Equal(t, base, people(f))
}

func TestCompute_VersionGatedFields(t *testing.T) {
	build := func(v mapping.Version, distinct, update bool) Digest {
		f := testutil.NewPeople()
		f.Container.Version = v
		f.Container.GenerateUpdateViews = update
		f.PeopleSet.TypeMappings[0].Fragments[0].Distinct = distinct
		return people(f)
	}

	// Version 1 predates both flags.
	assert.Equal(t, build(mapping.Version1, false, false), build(mapping.Version1, true, true))
	// Version 2 hashes Distinct but not GenerateUpdateViews.
	assert.NotEqual(t, build(mapping.Version2, false, false), build(mapping.Version2, true, false))
	assert.Equal(t, build(mapping.Version2, false, false), build(mapping.Version2, false, true))
	// Version 3 hashes both.
	assert.NotEqual(t, build(mapping.Version3, false, false), build(mapping.Version3, false, true))
}

func TestCompute_FunctionImportsGatedOnVersion2(t *testing.T) {
	f := testutil.NewPeople()
	f.Container.Version = mapping.Version1
	with := people(f)
	f.Container.FunctionImports = nil
	assert.Equal(t, with, people(f))
}

func TestCompute_NormalizesStrings(t *testing.T) {
	build := func(name string) Digest {
		c := selfAssociation()
		c.Sets[0].Name = name
		return Compute(c, nil)
	}
	assert.Equal(t, build("Caf\u00e9s"), build("Cafe\u0301s"))
}

func TestCompute_LengthPrefixPreventsAmbiguity(t *testing.T) {
	a := selfAssociation()
	a.ConceptualContainer, a.StoreContainer = "M;store=1:S", ""
	b := selfAssociation()
	assert.NotEqual(t, Compute(a, nil), Compute(b, nil))
}

func TestViewsDigest(t *testing.T) {
	views := map[string]string{
		"Model.People":    "SELECT VALUE 1",
		"Model.Addresses": "SELECT VALUE 2",
	}
	d := ViewsDigest(views)

	assert.Equal(t, d, ViewsDigest(map[string]string{
		"Model.Addresses": "SELECT VALUE 2",
		"Model.People":    "SELECT VALUE 1",
	}))
	assert.NotEqual(t, d, ViewsDigest(map[string]string{
		"Model.People":    "SELECT VALUE 1 ",
		"Model.Addresses": "SELECT VALUE 2",
	}))
	assert.NotEqual(t, d, ViewsDigest(map[string]string{
		"Model.People": "SELECT VALUE 1",
	}))
	assert.NotEqual(t, Digest(""), ViewsDigest(nil))
}

func TestDomainsSeparate(t *testing.T) {
	empty := &mapping.ContainerMapping{}
	assert.NotEqual(t, Compute(empty, nil), ViewsDigest(nil))
}
