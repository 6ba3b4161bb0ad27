package reachability

import (
	"fmt"
	"slices"

	"github.com/roach88/mapview/internal/mapping"
)

// GroupsOf builds one group per type mapping. The conditions of all of a
// type mapping's fragments are conjoined, since an instance split across
// fragments must satisfy each of them; each condition stays tied to its
// fragment's store set. The group's source is the store set of its first
// fragment that names one. Abstract exact types are not candidates, and a
// type mapping left without candidates produces no group.
func GroupsOf(h *mapping.Hierarchy, typeMappings []*mapping.TypeMapping) []Group {
	groups := make([]Group, 0, len(typeMappings))
	for _, tm := range typeMappings {
		var g Group
		for _, t := range h.ImpliedTypes(tm) {
			if !t.Abstract {
				g.Types = append(g.Types, t)
			}
		}
		if len(g.Types) == 0 {
			continue
		}
		for _, f := range tm.Fragments {
			set := ""
			if f.StoreSet != nil {
				set = f.StoreSet.Name
				if g.Source == "" {
					g.Source = set
				}
			}
			for _, c := range f.Conditions {
				g.Conditions = append(g.Conditions, Condition{Set: set, ConditionMapping: c})
			}
		}
		g.Locations = locationsOf(tm)
		groups = append(groups, g)
	}
	return groups
}

// locationsOf lists every fragment and condition location of tm, falling
// back to the type mapping itself.
func locationsOf(tm *mapping.TypeMapping) []mapping.SourceLocation {
	var out []mapping.SourceLocation
	seen := make(map[mapping.SourceLocation]bool)
	add := func(l mapping.SourceLocation) {
		if l.IsValid() && !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	for _, f := range tm.Fragments {
		add(f.Location)
		for _, c := range f.Conditions {
			add(c.Location)
		}
	}
	if len(out) == 0 {
		add(tm.Location)
	}
	return out
}

// ValidateTypeConditions analyzes typeMappings and reports every problem in
// one pass:
//
//   - E304 for each abstract type mapped exactly
//   - E303 for each pair of types one row could produce (checkAmbiguity only)
//   - E301 for each explicitly mapped type no row can produce
//   - E302 for each is-type-of hierarchy none of whose members can be produced
//
// Diagnostics carry every contributing location. Types that appear only
// through an is-type-of hierarchy are not reported individually.
func ValidateTypeConditions(h *mapping.Hierarchy, typeMappings []*mapping.TypeMapping, checkAmbiguity bool) mapping.Diagnostics {
	var diags mapping.Diagnostics

	for _, tm := range typeMappings {
		for _, t := range tm.Types {
			if t.Abstract {
				diags.Errorf(mapping.CodeAbstractTypeMapped, t.Name, locationsOf(tm),
					"abstract type %s cannot be mapped exactly; map it with is-type-of", t.Name)
			}
		}
	}

	groups := GroupsOf(h, typeMappings)
	r := Analyze(groups, checkAmbiguity)
	locs := func(ts ...*mapping.EntityType) []mapping.SourceLocation {
		var out []mapping.SourceLocation
		seen := make(map[mapping.SourceLocation]bool)
		for _, g := range groups {
			for _, t := range ts {
				if !g.implies(t) {
					continue
				}
				for _, l := range g.Locations {
					if !seen[l] {
						seen[l] = true
						out = append(out, l)
					}
				}
				break
			}
		}
		return out
	}

	for _, c := range r.Collisions {
		diags.Errorf(mapping.CodeAmbiguousType, c.A.Name, locs(c.A, c.B),
			"types %s and %s can both be produced by the same row (%s)", c.A.Name, c.B.Name, rowText(c.Row))
	}

	explicit := make(map[*mapping.EntityType]bool)
	for _, tm := range typeMappings {
		for _, t := range tm.Types {
			explicit[t] = true
		}
	}
	for _, t := range r.Unreachable() {
		if explicit[t] {
			diags.Errorf(mapping.CodeUnreachableType, t.Name, locs(t),
				"type %s is mapped but no row satisfies its conditions", t.Name)
		}
	}

	for _, tm := range typeMappings {
		for _, root := range tm.IsOfTypes {
			members := h.ConcreteTypeAndSubtypes(root)
			if len(members) == 0 || anyProduced(r, members) {
				continue
			}
			diags.Errorf(mapping.CodeUnreachableIsTypeOf, root.Name, mergeLocations(locationsOf(tm), locs(members...)),
				"no type in the hierarchy of %s can be produced by any row", root.Name)
		}
	}
	return diags
}

// mergeLocations appends the locations of more not already in first.
func mergeLocations(first, more []mapping.SourceLocation) []mapping.SourceLocation {
	out := append([]mapping.SourceLocation(nil), first...)
	for _, l := range more {
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}

// anyProduced reports whether some member is reachable or already diagnosed
// as ambiguous.
func anyProduced(r *Result, members []*mapping.EntityType) bool {
	for _, m := range members {
		if r.IsReachable(m) || r.IsAmbiguous(m) {
			return true
		}
	}
	return false
}

func rowText(a Assignment) string {
	if len(a) == 0 {
		return "any row"
	}
	return fmt.Sprintf("for example %s", a)
}
