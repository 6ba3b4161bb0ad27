package reachability

import (
	"strconv"
	"strings"
)

// node is a decision diagram handle. The two terminals are fixed.
type node int32

const (
	falseNode node = 0
	trueNode  node = 1
)

// terminalLevel sorts after every variable.
const terminalLevel = int(^uint(0) >> 1)

type mddNode struct {
	level int
	kids  []node
}

type op uint8

const (
	opAnd op = iota
	opOr
)

type applyKey struct {
	op   op
	a, b node
}

// diagram is a reduced ordered multi-valued decision diagram. Variables are
// tested in index order; node i at level l has one child per value of
// variable l. The unique table guarantees that equivalent formulas share a
// handle, so satisfiability is a comparison against falseNode.
type diagram struct {
	sizes  []int
	nodes  []mddNode
	unique map[string]node
	apply  map[applyKey]node
	not    map[node]node
}

func newDiagram(sizes []int) *diagram {
	return &diagram{
		sizes: sizes,
		nodes: []mddNode{
			{level: terminalLevel},
			{level: terminalLevel},
		},
		unique: make(map[string]node),
		apply:  make(map[applyKey]node),
		not:    make(map[node]node),
	}
}

func (d *diagram) level(n node) int {
	return d.nodes[n].level
}

// mk returns the node testing level with kids, reusing an existing node or
// collapsing to the common child when every branch agrees.
func (d *diagram) mk(level int, kids []node) node {
	same := true
	for _, k := range kids[1:] {
		if k != kids[0] {
			same = false
			break
		}
	}
	if same {
		return kids[0]
	}

	var b strings.Builder
	b.WriteString(strconv.Itoa(level))
	for _, k := range kids {
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(int(k)))
	}
	key := b.String()
	if n, ok := d.unique[key]; ok {
		return n
	}
	n := node(len(d.nodes))
	d.nodes = append(d.nodes, mddNode{level: level, kids: kids})
	d.unique[key] = n
	return n
}

// eq is the formula "variable level has value".
func (d *diagram) eq(level, value int) node {
	kids := make([]node, d.sizes[level])
	for i := range kids {
		kids[i] = falseNode
	}
	kids[value] = trueNode
	return d.mk(level, kids)
}

// cofactor returns the child of n for value at level, or n itself when n
// does not test level.
func (d *diagram) cofactor(n node, level, value int) node {
	if d.level(n) != level {
		return n
	}
	return d.nodes[n].kids[value]
}

func (d *diagram) and(a, b node) node {
	switch {
	case a == falseNode || b == falseNode:
		return falseNode
	case a == trueNode:
		return b
	case b == trueNode || a == b:
		return a
	}
	return d.binary(opAnd, a, b)
}

func (d *diagram) or(a, b node) node {
	switch {
	case a == trueNode || b == trueNode:
		return trueNode
	case a == falseNode:
		return b
	case b == falseNode || a == b:
		return a
	}
	return d.binary(opOr, a, b)
}

func (d *diagram) binary(o op, a, b node) node {
	if a > b {
		a, b = b, a
	}
	key := applyKey{op: o, a: a, b: b}
	if n, ok := d.apply[key]; ok {
		return n
	}
	level := min(d.level(a), d.level(b))
	kids := make([]node, d.sizes[level])
	for v := range kids {
		ca, cb := d.cofactor(a, level, v), d.cofactor(b, level, v)
		if o == opAnd {
			kids[v] = d.and(ca, cb)
		} else {
			kids[v] = d.or(ca, cb)
		}
	}
	n := d.mk(level, kids)
	d.apply[key] = n
	return n
}

func (d *diagram) negate(a node) node {
	switch a {
	case falseNode:
		return trueNode
	case trueNode:
		return falseNode
	}
	if n, ok := d.not[a]; ok {
		return n
	}
	src := d.nodes[a]
	kids := make([]node, len(src.kids))
	for v, k := range src.kids {
		kids[v] = d.negate(k)
	}
	n := d.mk(src.level, kids)
	d.not[a] = n
	return n
}

// satisfiable reports whether some assignment makes n true.
func (d *diagram) satisfiable(n node) bool {
	return n != falseNode
}

// witness returns one satisfying assignment of n as value indexes per level.
// Variables n does not test are omitted. ok is false when n is unsatisfiable.
func (d *diagram) witness(n node) (map[int]int, bool) {
	if n == falseNode {
		return nil, false
	}
	out := make(map[int]int)
	for n != trueNode {
		m := d.nodes[n]
		for v, k := range m.kids {
			if k != falseNode {
				out[m.level] = v
				n = k
				break
			}
		}
	}
	return out, true
}
