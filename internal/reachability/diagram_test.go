package reachability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two variables: x in {a, b, other, null}, y in {c, other, null}.
func testDiagram() *diagram {
	return newDiagram([]int{4, 3})
}

func TestDiagram_Terminals(t *testing.T) {
	d := testDiagram()
	assert.Equal(t, trueNode, d.negate(falseNode))
	assert.Equal(t, falseNode, d.negate(trueNode))
	assert.False(t, d.satisfiable(falseNode))
	assert.True(t, d.satisfiable(trueNode))
}

func TestDiagram_PointValuesExclude(t *testing.T) {
	d := testDiagram()
	xa, xb := d.eq(0, 0), d.eq(0, 1)

	assert.Equal(t, falseNode, d.and(xa, xb), "x cannot hold two values")
	assert.True(t, d.satisfiable(d.or(xa, xb)))
	assert.Equal(t, trueNode, d.or(xa, d.negate(xa)))
	assert.Equal(t, falseNode, d.and(xa, d.negate(xa)))
}

func TestDiagram_Canonical(t *testing.T) {
	d := testDiagram()
	xa, yc := d.eq(0, 0), d.eq(1, 0)

	assert.Equal(t, d.and(xa, yc), d.and(yc, xa))
	assert.Equal(t, d.negate(d.and(xa, yc)), d.or(d.negate(xa), d.negate(yc)), "De Morgan")
	assert.Equal(t, xa, d.negate(d.negate(xa)))
	assert.Equal(t, xa, d.eq(0, 0), "unique table shares equal nodes")

	// Covering every value of x is a tautology and reduces to true.
	all := falseNode
	for v := 0; v < 4; v++ {
		all = d.or(all, d.eq(0, v))
	}
	assert.Equal(t, trueNode, all)
}

func TestDiagram_Witness(t *testing.T) {
	d := testDiagram()
	f := d.and(d.negate(d.eq(0, 0)), d.eq(1, 2))

	w, ok := d.witness(f)
	require.True(t, ok)
	assert.NotEqual(t, 0, w[0])
	assert.Equal(t, 2, w[1])

	_, ok = d.witness(falseNode)
	assert.False(t, ok)

	w, ok = d.witness(trueNode)
	require.True(t, ok)
	assert.Empty(t, w)
}
