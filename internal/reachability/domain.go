package reachability

import (
	"sort"

	"github.com/roach88/mapview/internal/mapping"
)

// variable is one discriminator column of one store set. Values 0..len(values)-1 are the
// literals in first-appearance order, followed by the other and null
// sentinels.
type variable struct {
	column string
	values []string
	index  map[string]int
}

func (v *variable) size() int  { return len(v.values) + 2 }
func (v *variable) other() int { return len(v.values) }
func (v *variable) null() int  { return len(v.values) + 1 }

// label names value i of v for diagnostics.
func (v *variable) label(i int) string {
	switch {
	case i < len(v.values):
		return "'" + v.values[i] + "'"
	case i == v.other():
		return "<other>"
	default:
		return "NULL"
	}
}

// Domain is the set of discriminator variables of one mapping, in
// first-appearance order of their columns. A column of a named store set is
// keyed "Set.Column"; a column with no store set is keyed by its bare name.
type Domain struct {
	vars     []*variable
	byColumn map[string]int
}

// NewDomain collects the discriminator columns and literals of groups.
// Don't-care conditions contribute nothing.
func NewDomain(groups []Group) *Domain {
	d := &Domain{byColumn: make(map[string]int)}
	for _, g := range groups {
		for _, c := range g.Conditions {
			if c.Kind == mapping.ConditionDontCare {
				continue
			}
			v := d.variable(c.variableName())
			if c.Kind == mapping.ConditionEquals {
				if _, ok := v.index[c.Value]; !ok {
					v.index[c.Value] = len(v.values)
					v.values = append(v.values, c.Value)
				}
			}
		}
	}
	return d
}

func (d *Domain) variable(column string) *variable {
	if i, ok := d.byColumn[column]; ok {
		return d.vars[i]
	}
	v := &variable{column: column, index: make(map[string]int)}
	d.byColumn[column] = len(d.vars)
	d.vars = append(d.vars, v)
	return v
}

// Columns returns the discriminator columns in variable order.
func (d *Domain) Columns() []string {
	out := make([]string, len(d.vars))
	for i, v := range d.vars {
		out[i] = v.column
	}
	return out
}

// Values returns the literal values compared against column, in
// first-appearance order.
func (d *Domain) Values(column string) []string {
	i, ok := d.byColumn[column]
	if !ok {
		return nil
	}
	return d.vars[i].values
}

func (d *Domain) sizes() []int {
	out := make([]int, len(d.vars))
	for i, v := range d.vars {
		out[i] = v.size()
	}
	return out
}

// Assignment is one witness row: column to rendered value.
type Assignment map[string]string

// String renders the assignment with columns sorted.
func (a Assignment) String() string {
	cols := make([]string, 0, len(a))
	for c := range a {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	s := ""
	for i, c := range cols {
		if i > 0 {
			s += ", "
		}
		s += c + "=" + a[c]
	}
	return s
}
