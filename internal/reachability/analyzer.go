package reachability

import (
	"github.com/hashicorp/go-set/v3"

	"github.com/roach88/mapview/internal/mapping"
)

// Group is one unit of a polymorphic mapping: a conjunction of conditions
// that, when it holds for a row, produces every type in Types.
//
// Source names the store set whose rows the group reads. Groups with
// different sources never see the same row. Within one source, a group with
// no discriminator condition while other groups have one is the "else"
// group: it holds exactly when no conditioned group of that source does.
type Group struct {
	Types      []*mapping.EntityType
	Source     string
	Conditions []Condition
	Locations  []mapping.SourceLocation
}

// Condition is a discriminator condition on a column of store set Set. Set
// is empty when the fragment names no store set.
type Condition struct {
	Set string
	*mapping.ConditionMapping
}

// variableName is the column qualified by its store set, so equal column
// names in different tables are distinct variables.
func (c Condition) variableName() string {
	if c.Set == "" {
		return c.Column
	}
	return c.Set + "." + c.Column
}

func (g Group) conditioned() bool {
	for _, c := range g.Conditions {
		if c.Kind != mapping.ConditionDontCare {
			return true
		}
	}
	return false
}

func (g Group) implies(t *mapping.EntityType) bool {
	for _, u := range g.Types {
		if u == t {
			return true
		}
	}
	return false
}

// Collision records two types the same row could produce.
type Collision struct {
	A, B *mapping.EntityType
	Row  Assignment
}

// Result is the outcome of one analysis. It is immutable once returned.
type Result struct {
	Domain *Domain

	// Candidates lists every type some group implies, in first-appearance
	// order.
	Candidates []*mapping.EntityType

	// Reachable holds the types some row produces, alone when ambiguity is
	// checked and exclusively of the other candidates otherwise.
	Reachable *set.Set[*mapping.EntityType]

	// Collisions is only populated when ambiguity is checked.
	Collisions []Collision

	ambiguous *set.Set[*mapping.EntityType]
	witnesses map[*mapping.EntityType]Assignment
}

// IsReachable reports whether t is in Reachable.
func (r *Result) IsReachable(t *mapping.EntityType) bool {
	return r.Reachable.Contains(t)
}

// IsAmbiguous reports whether t takes part in a collision.
func (r *Result) IsAmbiguous(t *mapping.EntityType) bool {
	return r.ambiguous.Contains(t)
}

// Unreachable returns candidates no row can produce, excluding types that
// are only rejected for ambiguity, in candidate order.
func (r *Result) Unreachable() []*mapping.EntityType {
	var out []*mapping.EntityType
	for _, t := range r.Candidates {
		if !r.Reachable.Contains(t) && !r.ambiguous.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

// Ambiguous returns the types involved in any collision, in candidate order.
func (r *Result) Ambiguous() []*mapping.EntityType {
	var out []*mapping.EntityType
	for _, t := range r.Candidates {
		if r.ambiguous.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

// Witness returns a row that produces t, when t is reachable.
func (r *Result) Witness(t *mapping.EntityType) (Assignment, bool) {
	a, ok := r.witnesses[t]
	return a, ok
}

// analysis carries the shared state of one Analyze call.
type analysis struct {
	groups   []Group
	domain   *Domain
	d        *diagram
	formulas []node
	// sources partitions group indexes by Source, in first-appearance order.
	sources [][]int
}

func partition(groups []Group) [][]int {
	var out [][]int
	index := make(map[string]int)
	for i, g := range groups {
		p, ok := index[g.Source]
		if !ok {
			p = len(out)
			index[g.Source] = p
			out = append(out, nil)
		}
		out[p] = append(out[p], i)
	}
	return out
}

// candidatesOf returns the candidates some group of part implies, in
// candidate order.
func (a *analysis) candidatesOf(r *Result, part []int) []int {
	var out []int
	for ci, t := range r.Candidates {
		for _, gi := range part {
			if a.groups[gi].implies(t) {
				out = append(out, ci)
				break
			}
		}
	}
	return out
}

// Analyze computes which candidate types of groups are reachable.
//
// Rows are drawn from one source at a time, and each source is analyzed
// separately. With checkAmbiguity false a type is reachable when some row
// of some source satisfies every group of that source implying it, no group
// of that source not implying it, and produces no other candidate. With
// checkAmbiguity true a type's formula in a source is the conjunction of its
// implying groups there; the type is rejected when that formula is
// unsatisfiable in every source or when it overlaps another type's formula
// in any source.
func Analyze(groups []Group, checkAmbiguity bool) *Result {
	a := &analysis{groups: groups, domain: NewDomain(groups), sources: partition(groups)}
	a.d = newDiagram(a.domain.sizes())
	a.buildFormulas()

	r := &Result{
		Domain:    a.domain,
		Reachable: set.New[*mapping.EntityType](0),
		ambiguous: set.New[*mapping.EntityType](0),
		witnesses: make(map[*mapping.EntityType]Assignment),
	}
	seen := set.New[*mapping.EntityType](0)
	for _, g := range groups {
		for _, t := range g.Types {
			if seen.Insert(t) {
				r.Candidates = append(r.Candidates, t)
			}
		}
	}

	if checkAmbiguity {
		a.unambiguous(r)
	} else {
		a.exclusive(r)
	}
	return r
}

// buildFormulas turns each group into a diagram. Else groups are resolved
// last, against the disjunction of every conditioned group of their source.
func (a *analysis) buildFormulas() {
	a.formulas = make([]node, len(a.groups))
	for _, part := range a.sources {
		anyConditioned := false
		covered := falseNode
		for _, i := range part {
			g := a.groups[i]
			if !g.conditioned() {
				continue
			}
			anyConditioned = true
			f := trueNode
			for _, c := range g.Conditions {
				f = a.d.and(f, a.condition(c))
			}
			a.formulas[i] = f
			covered = a.d.or(covered, f)
		}

		otherwise := trueNode
		if anyConditioned {
			otherwise = a.d.negate(covered)
		}
		for _, i := range part {
			if !a.groups[i].conditioned() {
				a.formulas[i] = otherwise
			}
		}
	}
}

func (a *analysis) condition(c Condition) node {
	level := a.domain.byColumn[c.variableName()]
	v := a.domain.vars[level]
	switch c.Kind {
	case mapping.ConditionEquals:
		return a.d.eq(level, v.index[c.Value])
	case mapping.ConditionIsNull:
		return a.d.eq(level, v.null())
	case mapping.ConditionIsNotNull:
		return a.d.negate(a.d.eq(level, v.null()))
	default:
		return trueNode
	}
}

func (a *analysis) exclusive(r *Result) {
	for _, part := range a.sources {
		local := a.candidatesOf(r, part)
		cands := make([]node, len(local))
		for i, ci := range local {
			t := r.Candidates[ci]
			f := trueNode
			for _, gi := range part {
				if a.groups[gi].implies(t) {
					f = a.d.and(f, a.formulas[gi])
				} else {
					f = a.d.and(f, a.d.negate(a.formulas[gi]))
				}
			}
			cands[i] = f
		}

		for i, ci := range local {
			t := r.Candidates[ci]
			if r.Reachable.Contains(t) {
				continue
			}
			f := cands[i]
			for j := range local {
				if j != i {
					f = a.d.and(f, a.d.negate(cands[j]))
				}
			}
			if a.d.satisfiable(f) {
				r.Reachable.Insert(t)
				r.witnesses[t] = a.assignment(f)
			}
		}
	}
}

func (a *analysis) unambiguous(r *Result) {
	type pair struct{ i, j int }
	collided := make(map[pair]bool)
	satisfied := make(map[int]node)

	for _, part := range a.sources {
		local := a.candidatesOf(r, part)
		cands := make([]node, len(local))
		for i, ci := range local {
			t := r.Candidates[ci]
			f := trueNode
			for _, gi := range part {
				if a.groups[gi].implies(t) {
					f = a.d.and(f, a.formulas[gi])
				}
			}
			cands[i] = f
			if _, ok := satisfied[ci]; !ok && a.d.satisfiable(f) {
				satisfied[ci] = f
			}
		}

		for i, ci := range local {
			if !a.d.satisfiable(cands[i]) {
				continue
			}
			for j := i + 1; j < len(local); j++ {
				cj := local[j]
				both := a.d.and(cands[i], cands[j])
				if collided[pair{ci, cj}] || !a.d.satisfiable(both) {
					continue
				}
				collided[pair{ci, cj}] = true
				r.Collisions = append(r.Collisions, Collision{
					A:   r.Candidates[ci],
					B:   r.Candidates[cj],
					Row: a.assignment(both),
				})
				r.ambiguous.Insert(r.Candidates[ci])
				r.ambiguous.Insert(r.Candidates[cj])
			}
		}
	}

	for ci, t := range r.Candidates {
		f, ok := satisfied[ci]
		if ok && !r.ambiguous.Contains(t) {
			r.Reachable.Insert(t)
			r.witnesses[t] = a.assignment(f)
		}
	}
}

func (a *analysis) assignment(n node) Assignment {
	w, _ := a.d.witness(n)
	out := make(Assignment, len(w))
	for level, value := range w {
		v := a.domain.vars[level]
		out[v.column] = v.label(value)
	}
	return out
}
