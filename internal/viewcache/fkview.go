package viewcache

import (
	"fmt"

	"github.com/roach88/mapview/internal/mapping"
	"github.com/roach88/mapview/internal/viewir"
	"github.com/roach88/mapview/internal/viewsql"
)

// foreignKeyView builds the view of a foreign-key association set from its
// referential constraint. Every instance of the dependent end set whose
// foreign key properties are all non-null contributes one association
// instance referencing the principal through those properties.
func foreignKeyView(cm *mapping.ContainerMapping, sm *mapping.SetMapping) (*mapping.GeneratedView, error) {
	key := mapping.SetKey(cm.QualifiedName(sm.Name))
	fail := func(format string, args ...any) (*mapping.GeneratedView, error) {
		return nil, &MappingError{
			Code:      ErrCodeViewNotGenerated,
			Message:   fmt.Sprintf(format, args...),
			Container: cm.ConceptualContainer,
			Set:       key.Set,
		}
	}

	a := sm.Association
	rc := a.Constraint
	principal, dependent := a.End(rc.PrincipalRole), a.End(rc.DependentRole)
	if principal == nil || dependent == nil || dependent.Type == nil {
		return fail("referential constraint of %s names an unknown role", a.Name)
	}
	principalSet, ok := sm.EndSets[rc.PrincipalRole]
	if !ok {
		return fail("no end set for role %s", rc.PrincipalRole)
	}
	dependentSet, ok := sm.EndSets[rc.DependentRole]
	if !ok {
		return fail("no end set for role %s", rc.DependentRole)
	}
	if len(rc.DependentProperties) == 0 {
		return fail("referential constraint of %s has no dependent properties", a.Name)
	}

	const alias = "T"
	var notNull []viewir.Predicate
	fkKeys := make([]viewir.Expr, len(rc.DependentProperties))
	for i, p := range rc.DependentProperties {
		fkKeys[i] = viewir.Col(alias, p)
		notNull = append(notNull, &viewir.Not{Predicate: &viewir.IsNull{Expr: viewir.Col(alias, p)}})
	}
	depKey := dependent.Type.EffectiveKey()
	if len(depKey) == 0 {
		return fail("dependent type %s has no key", dependent.Type.Name)
	}
	depKeys := make([]viewir.Expr, len(depKey))
	for i, k := range depKey {
		depKeys[i] = viewir.Col(alias, k)
	}

	args := make([]viewir.Expr, 0, 2)
	for _, e := range a.Ends {
		switch e.Role {
		case rc.PrincipalRole:
			args = append(args, &viewir.Ref{Set: cm.QualifiedName(principalSet), Keys: fkKeys})
		case rc.DependentRole:
			args = append(args, &viewir.Ref{Set: cm.QualifiedName(dependentSet), Keys: depKeys})
		}
	}

	q := &viewir.Select{
		From:   &viewir.Scan{Set: cm.QualifiedName(dependentSet), Alias: alias},
		Filter: viewir.AndOf(notNull...),
		Value:  &viewir.Construct{Type: a.Name, Args: args},
	}
	if err := viewir.Validate(q); err != nil {
		return fail("invalid foreign-key view: %v", err)
	}
	text, err := viewsql.Compile(q)
	if err != nil {
		return fail("render foreign-key view: %v", err)
	}
	return mapping.NewGeneratedView(key, text, q, mapping.OriginForeignKey), nil
}
