package reachability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mapview/internal/mapping"
	"github.com/roach88/mapview/internal/testutil"
)

func group(types []*mapping.EntityType, conds ...*mapping.ConditionMapping) Group {
	return sourced("", types, conds...)
}

// sourced is group reading rows of store set source, with every condition
// on a column of that set.
func sourced(source string, types []*mapping.EntityType, conds ...*mapping.ConditionMapping) Group {
	g := Group{Types: types, Source: source}
	for _, c := range conds {
		g.Conditions = append(g.Conditions, Condition{Set: source, ConditionMapping: c})
	}
	return g
}

func TestAnalyze_PointConditionsWithElse(t *testing.T) {
	ts := testutil.Types("A", "B", "C")
	groups := []Group{
		group(ts[:1], testutil.Equals("Kind", "1", 1)),
		group(ts[1:2], testutil.Equals("Kind", "2", 2)),
		group(ts[2:3]),
	}

	for _, checkAmbiguity := range []bool{false, true} {
		r := Analyze(groups, checkAmbiguity)
		for _, typ := range ts {
			assert.True(t, r.IsReachable(typ), "%s reachable (ambiguity=%v)", typ.Name, checkAmbiguity)
		}
		assert.Empty(t, r.Collisions)
		assert.Empty(t, r.Unreachable())
		assert.Equal(t, 3, r.Reachable.Size())
	}

	r := Analyze(groups, false)
	w, ok := r.Witness(ts[0])
	require.True(t, ok)
	assert.Equal(t, Assignment{"Kind": "'1'"}, w)
	w, ok = r.Witness(ts[2])
	require.True(t, ok)
	assert.Equal(t, Assignment{"Kind": "<other>"}, w)
}

func TestAnalyze_UnconditionedOverlapIsAmbiguous(t *testing.T) {
	ts := testutil.Types("A", "B")

	tests := []struct {
		name   string
		groups []Group
	}{
		{"disjoint types", []Group{group(ts[:1]), group(ts[1:])}},
		{"overlapping types", []Group{group(ts), group(ts[1:])}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Analyze(tt.groups, true)
			assert.ElementsMatch(t, ts, r.Ambiguous())
			assert.Equal(t, 0, r.Reachable.Size())
			require.Len(t, r.Collisions, 1)
			assert.Equal(t, ts[0], r.Collisions[0].A)
			assert.Equal(t, ts[1], r.Collisions[0].B)
			assert.Empty(t, r.Collisions[0].Row, "every row collides")
			assert.Empty(t, r.Unreachable(), "ambiguous types are not reported as unreachable")
		})
	}
}

func TestAnalyze_SubsumedConditionUnreachable(t *testing.T) {
	ts := testutil.Types("A", "B")
	groups := []Group{
		group(ts[:1], testutil.IsNotNull("Kind", 1)),
		group(ts[1:], testutil.Equals("Kind", "1", 2)),
	}

	r := Analyze(groups, false)
	assert.True(t, r.IsReachable(ts[0]))
	assert.False(t, r.IsReachable(ts[1]))
	assert.Equal(t, []*mapping.EntityType{ts[1]}, r.Unreachable())

	w, ok := r.Witness(ts[0])
	require.True(t, ok)
	assert.Equal(t, Assignment{"Kind": "<other>"}, w)
	_, ok = r.Witness(ts[1])
	assert.False(t, ok)
}

func TestAnalyze_ContradictoryConditions(t *testing.T) {
	ts := testutil.Types("A", "B")
	groups := []Group{
		group(ts[:1], testutil.Equals("Kind", "1", 1), testutil.IsNull("Kind", 2)),
		group(ts[1:], testutil.Equals("Kind", "2", 3)),
	}

	for _, checkAmbiguity := range []bool{false, true} {
		r := Analyze(groups, checkAmbiguity)
		assert.False(t, r.IsReachable(ts[0]))
		assert.True(t, r.IsReachable(ts[1]))
	}
}

func TestAnalyze_NullAndNotNullPartition(t *testing.T) {
	ts := testutil.Types("A", "B")
	groups := []Group{
		group(ts[:1], testutil.IsNull("Deleted", 1)),
		group(ts[1:], testutil.IsNotNull("Deleted", 2)),
	}

	r := Analyze(groups, true)
	assert.Empty(t, r.Collisions)
	assert.Equal(t, 2, r.Reachable.Size())
	w, _ := r.Witness(ts[0])
	assert.Equal(t, Assignment{"Deleted": "NULL"}, w)
}

func TestAnalyze_MultipleColumns(t *testing.T) {
	ts := testutil.Types("A", "B", "C")
	groups := []Group{
		group(ts[:1], testutil.Equals("Kind", "1", 1), testutil.IsNull("Flag", 1)),
		group(ts[1:2], testutil.Equals("Kind", "1", 2), testutil.IsNotNull("Flag", 2)),
		group(ts[2:], testutil.Equals("Kind", "2", 3)),
	}

	r := Analyze(groups, true)
	assert.Empty(t, r.Collisions)
	assert.Equal(t, 3, r.Reachable.Size())
	assert.Equal(t, []string{"Kind", "Flag"}, r.Domain.Columns())
	assert.Equal(t, []string{"1", "2"}, r.Domain.Values("Kind"))
	assert.Empty(t, r.Domain.Values("Flag"))
	assert.Nil(t, r.Domain.Values("Missing"))
}

func TestAnalyze_DontCareIsUnconditioned(t *testing.T) {
	ts := testutil.Types("A", "B")
	dontCare := &mapping.ConditionMapping{Column: "Kind", Kind: mapping.ConditionDontCare}
	groups := []Group{
		group(ts[:1], testutil.Equals("Kind", "1", 1)),
		group(ts[1:], dontCare),
	}

	r := Analyze(groups, true)
	assert.Empty(t, r.Collisions, "don't-care group acts as else")
	assert.Equal(t, 2, r.Reachable.Size())
}

func TestAnalyze_CandidateOrder(t *testing.T) {
	ts := testutil.Types("A", "B", "C")
	groups := []Group{
		group([]*mapping.EntityType{ts[2], ts[0]}, testutil.Equals("Kind", "1", 1)),
		group([]*mapping.EntityType{ts[1], ts[2]}, testutil.Equals("Kind", "2", 2)),
	}

	r := Analyze(groups, false)
	assert.Equal(t, []*mapping.EntityType{ts[2], ts[0], ts[1]}, r.Candidates)
}

func TestAnalyze_SourcesAreDisjoint(t *testing.T) {
	ts := testutil.Types("A", "B")
	groups := []Group{
		sourced("As", ts[:1], testutil.Equals("IsDeleted", "0", 1)),
		sourced("Bs", ts[1:], testutil.Equals("IsDeleted", "0", 2)),
	}

	for _, checkAmbiguity := range []bool{false, true} {
		r := Analyze(groups, checkAmbiguity)
		assert.Equal(t, 2, r.Reachable.Size(), "ambiguity=%v", checkAmbiguity)
		assert.Empty(t, r.Collisions)
		assert.Empty(t, r.Unreachable())
	}

	r := Analyze(groups, false)
	assert.Equal(t, []string{"As.IsDeleted", "Bs.IsDeleted"}, r.Domain.Columns())
	w, ok := r.Witness(ts[1])
	require.True(t, ok)
	assert.Equal(t, "'0'", w["Bs.IsDeleted"])
}

func TestAnalyze_ElseGroupPerSource(t *testing.T) {
	ts := testutil.Types("A", "B", "C")
	groups := []Group{
		sourced("As", ts[:1], testutil.Equals("Kind", "1", 1)),
		sourced("As", ts[1:2]),
		sourced("Cs", ts[2:]),
	}

	r := Analyze(groups, true)
	assert.Equal(t, 3, r.Reachable.Size())
	assert.Empty(t, r.Collisions, "the unconditioned group of Cs is not the else of As")
}

func TestAnalyze_CollisionWithinSource(t *testing.T) {
	ts := testutil.Types("A", "B", "C")
	groups := []Group{
		sourced("As", ts[:1], testutil.Equals("Kind", "1", 1)),
		sourced("As", ts[1:2], testutil.IsNotNull("Kind", 2)),
		sourced("Cs", ts[2:], testutil.Equals("Kind", "1", 3)),
	}

	r := Analyze(groups, true)
	require.Len(t, r.Collisions, 1)
	assert.Equal(t, ts[0], r.Collisions[0].A)
	assert.Equal(t, ts[1], r.Collisions[0].B)
	assert.Equal(t, []*mapping.EntityType{ts[2]}, r.Reachable.Slice())
}

func TestAnalyze_SplitColumnsAreDistinct(t *testing.T) {
	ts := testutil.Types("A", "B")
	a := Group{
		Types:  ts[:1],
		Source: "Main",
		Conditions: []Condition{
			{Set: "Main", ConditionMapping: testutil.Equals("Kind", "1", 1)},
			{Set: "Extra", ConditionMapping: testutil.Equals("Kind", "2", 2)},
		},
	}
	b := sourced("Main", ts[1:], testutil.Equals("Kind", "3", 3))

	for _, checkAmbiguity := range []bool{false, true} {
		r := Analyze([]Group{a, b}, checkAmbiguity)
		assert.True(t, r.IsReachable(ts[0]), "ambiguity=%v", checkAmbiguity)
		assert.True(t, r.IsReachable(ts[1]), "ambiguity=%v", checkAmbiguity)
	}
}

func TestAssignment_String(t *testing.T) {
	assert.Equal(t, "A='1', B=NULL", Assignment{"B": "NULL", "A": "'1'"}.String())
	assert.Equal(t, "", Assignment{}.String())
}
