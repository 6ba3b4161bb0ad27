package synth

import (
	"fmt"
	"strconv"

	"github.com/roach88/mapview/internal/mapping"
	"github.com/roach88/mapview/internal/reachability"
	"github.com/roach88/mapview/internal/viewir"
)

// candidateMapping is a type mapping that produces at least one concrete
// type, in the same order as reachability.GroupsOf.
type candidateMapping struct {
	tm    *mapping.TypeMapping
	types []*mapping.EntityType
}

func (cm candidateMapping) produces(t *mapping.EntityType) bool {
	for _, u := range cm.types {
		if u == t {
			return true
		}
	}
	return false
}

func (cm candidateMapping) conditioned() bool {
	for _, f := range cm.tm.Fragments {
		for _, c := range f.Conditions {
			if c.Kind != mapping.ConditionDontCare {
				return true
			}
		}
	}
	return false
}

// build returns the union of branches for the reachable types of set. A nil
// targets builds every reachable type; otherwise only types in targets.
func (s *Synthesizer) build(c *mapping.ContainerMapping, set *mapping.SetMapping, targets []*mapping.EntityType) (viewir.Query, error) {
	var cms []candidateMapping
	for _, tm := range set.TypeMappings {
		var types []*mapping.EntityType
		for _, t := range s.h.ImpliedTypes(tm) {
			if !t.Abstract {
				types = append(types, t)
			}
		}
		if len(types) > 0 {
			cms = append(cms, candidateMapping{tm: tm, types: types})
		}
	}

	r := reachability.Analyze(reachability.GroupsOf(s.h, set.TypeMappings), false)
	want := func(t *mapping.EntityType) bool {
		if targets == nil {
			return true
		}
		for _, u := range targets {
			if u == t {
				return true
			}
		}
		return false
	}

	var branches []viewir.Query
	for _, t := range r.Candidates {
		if !r.IsReachable(t) || !want(t) {
			continue
		}
		b, err := s.branch(c, cms, t)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", t.Name, err)
		}
		branches = append(branches, b)
	}

	switch len(branches) {
	case 0:
		return nil, fmt.Errorf("no reachable type in set %s", set.Name)
	case 1:
		return branches[0], nil
	default:
		return &viewir.UnionAll{Branches: branches}, nil
	}
}

// branch builds the select producing t.
func (s *Synthesizer) branch(c *mapping.ContainerMapping, cms []candidateMapping, t *mapping.EntityType) (viewir.Query, error) {
	home := -1
	for i, cm := range cms {
		for _, u := range cm.tm.Types {
			if u == t {
				home = i
				break
			}
		}
		if home >= 0 {
			break
		}
	}
	if home < 0 {
		for i, cm := range cms {
			if cm.produces(t) {
				home = i
				break
			}
		}
	}
	if home < 0 {
		return nil, fmt.Errorf("no type mapping produces the type")
	}
	tm := cms[home].tm

	aliases := make([]string, len(tm.Fragments))
	for i, f := range tm.Fragments {
		if f.StoreSet == nil {
			return nil, fmt.Errorf("fragment %d has no store set", i)
		}
		if len(tm.Fragments) == 1 {
			aliases[i] = "T"
		} else {
			aliases[i] = "T" + strconv.Itoa(i)
		}
	}

	from, err := s.source(c, tm, aliases, t)
	if err != nil {
		return nil, err
	}

	filters := []viewir.Predicate{conditions(tm, aliases)}
	exact := false
	for _, u := range tm.Types {
		exact = exact || u == t
	}
	// A conditioned exact mapping already excludes the other mappings' rows.
	negate := !exact || !cms[home].conditioned()
	base := tm.Fragments[0].StoreSet
	for i, other := range cms {
		if !negate || i == home || other.produces(t) || !other.conditioned() {
			continue
		}
		if p, ok := conditionsOn(other.tm, base, aliases[0]); ok {
			filters = append(filters, &viewir.Not{Predicate: p})
		}
	}

	return &viewir.Select{
		From:   from,
		Filter: viewir.AndOf(filters...),
		Value:  construct(t, tm, aliases),
	}, nil
}

// source scans the first fragment and joins every further fragment on the
// key columns of t.
func (s *Synthesizer) source(c *mapping.ContainerMapping, tm *mapping.TypeMapping, aliases []string, t *mapping.EntityType) (viewir.Source, error) {
	scan := func(i int) *viewir.Scan {
		return &viewir.Scan{Set: c.StoreContainer + "." + tm.Fragments[i].StoreSet.Name, Alias: aliases[i]}
	}
	var src viewir.Source = scan(0)
	for i := 1; i < len(tm.Fragments); i++ {
		var on []viewir.Predicate
		for _, k := range t.EffectiveKey() {
			p := t.Property(k)
			if p == nil {
				return nil, fmt.Errorf("key %s is not a property of %s", k, t.Name)
			}
			left := columnFor(tm.Fragments[0], p)
			right := columnFor(tm.Fragments[i], p)
			if left == nil || right == nil {
				return nil, fmt.Errorf("key %s is not mapped in every fragment", k)
			}
			on = append(on, &viewir.Equals{
				Left:  viewir.Col(aliases[0], left.Name),
				Right: viewir.Col(aliases[i], right.Name),
			})
		}
		if len(on) == 0 {
			return nil, fmt.Errorf("type %s has no key to join fragments on", t.Name)
		}
		src = &viewir.Join{Left: src, Right: scan(i), On: viewir.AndOf(on...)}
	}
	return src, nil
}

// conditions is the conjunction of every condition of tm, each column read
// through its own fragment's alias.
func conditions(tm *mapping.TypeMapping, aliases []string) viewir.Predicate {
	var ps []viewir.Predicate
	for i, f := range tm.Fragments {
		for _, c := range f.Conditions {
			ps = append(ps, condition(c, aliases[i]))
		}
	}
	return viewir.AndOf(ps...)
}

// conditionsOn returns the conditions of tm read through alias, provided
// every conditioned fragment of tm targets store.
func conditionsOn(tm *mapping.TypeMapping, store *mapping.StoreSet, alias string) (viewir.Predicate, bool) {
	var ps []viewir.Predicate
	for _, f := range tm.Fragments {
		for _, c := range f.Conditions {
			if c.Kind == mapping.ConditionDontCare {
				continue
			}
			if f.StoreSet != store {
				return nil, false
			}
			ps = append(ps, condition(c, alias))
		}
	}
	p := viewir.AndOf(ps...)
	return p, p != nil
}

func condition(c *mapping.ConditionMapping, alias string) viewir.Predicate {
	col := viewir.Col(alias, c.Column)
	switch c.Kind {
	case mapping.ConditionEquals:
		return &viewir.Equals{Left: col, Right: viewir.Lit(c.Value)}
	case mapping.ConditionIsNull:
		return &viewir.IsNull{Expr: col}
	case mapping.ConditionIsNotNull:
		return &viewir.Not{Predicate: &viewir.IsNull{Expr: col}}
	default:
		return nil
	}
}

// construct builds t from the columns its properties are mapped to in tm.
// Unmapped properties are null.
func construct(t *mapping.EntityType, tm *mapping.TypeMapping, aliases []string) viewir.Expr {
	props := allProperties(t)
	args := make([]viewir.Expr, len(props))
	for i, p := range props {
		args[i] = propertyValue(p, tm, aliases)
	}
	return &viewir.Construct{Type: t.Name, Args: args}
}

func propertyValue(p *mapping.Property, tm *mapping.TypeMapping, aliases []string) viewir.Expr {
	for i, f := range tm.Fragments {
		for _, pm := range f.Properties {
			if pm.Property != p {
				continue
			}
			if v := mappedValue(pm, aliases[i]); v != nil {
				return v
			}
		}
	}
	return &viewir.Null{}
}

func mappedValue(pm *mapping.PropertyMapping, alias string) viewir.Expr {
	if pm.Column != nil {
		return viewir.Col(alias, pm.Column.Name)
	}
	ct := pm.Property.Complex
	if ct == nil {
		return nil
	}
	args := make([]viewir.Expr, len(ct.Properties))
	for i, p := range ct.Properties {
		args[i] = &viewir.Null{}
		for _, sub := range pm.Complex {
			if sub.Property == p {
				if v := mappedValue(sub, alias); v != nil {
					args[i] = v
				}
				break
			}
		}
	}
	return &viewir.Construct{Type: ct.Name, Args: args}
}

func columnFor(f *mapping.Fragment, p *mapping.Property) *mapping.Column {
	for _, pm := range f.Properties {
		if pm.Property == p {
			return pm.Column
		}
	}
	return nil
}

// allProperties lists the properties of t, base type properties first.
func allProperties(t *mapping.EntityType) []*mapping.Property {
	var chain []*mapping.EntityType
	seen := make(map[*mapping.EntityType]bool)
	for cur := t; cur != nil && !seen[cur]; cur = cur.Base {
		seen[cur] = true
		chain = append(chain, cur)
	}
	var out []*mapping.Property
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].Properties...)
	}
	return out
}
