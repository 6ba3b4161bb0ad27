package viewir

import (
	"errors"
	"fmt"
)

// Validate checks that q is well formed: every node is non-nil, every
// Select draws from a named source, aliases are unique within a source and
// every Column in a Select refers to one of them.
//
// All problems are returned together, joined with errors.Join.
func Validate(q Query) error {
	v := &validator{}
	v.query(q)
	return errors.Join(v.errs...)
}

type validator struct {
	errs []error
}

func (v *validator) fail(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) query(q Query) {
	switch q := q.(type) {
	case nil:
		v.fail("nil query")
	case *Select:
		v.selectQuery(q)
	case *UnionAll:
		if len(q.Branches) == 0 {
			v.fail("union with no branches")
		}
		for _, b := range q.Branches {
			v.query(b)
		}
	case *OfType:
		if q.Type == "" {
			v.fail("of-type without a type")
		}
		v.query(q.Input)
	default:
		v.fail("unknown query type %T", q)
	}
}

func (v *validator) selectQuery(s *Select) {
	aliases := make(map[string]bool)
	v.source(s.From, aliases)
	if s.Value == nil {
		v.fail("select without a value")
	} else {
		v.expr(s.Value, aliases)
	}
	if s.Filter != nil {
		v.predicate(s.Filter, aliases)
	}
}

func (v *validator) source(src Source, aliases map[string]bool) {
	switch src := src.(type) {
	case nil:
		v.fail("select without a source")
	case *Scan:
		if src.Set == "" {
			v.fail("scan without a set")
		}
		if src.Alias == "" {
			v.fail("scan of %s without an alias", src.Set)
		} else if aliases[src.Alias] {
			v.fail("alias %s used twice", src.Alias)
		}
		aliases[src.Alias] = true
	case *Join:
		v.source(src.Left, aliases)
		v.source(src.Right, aliases)
		if src.On == nil {
			v.fail("join without a condition")
		} else {
			v.predicate(src.On, aliases)
		}
	default:
		v.fail("unknown source type %T", src)
	}
}

func (v *validator) expr(e Expr, aliases map[string]bool) {
	switch e := e.(type) {
	case nil:
		v.fail("nil expression")
	case *Column:
		if !aliases[e.Alias] {
			v.fail("column %s.%s refers to an unknown alias", e.Alias, e.Name)
		}
	case *Literal, *Null:
	case *Construct:
		if e.Type == "" {
			v.fail("constructor without a type")
		}
		for _, a := range e.Args {
			v.expr(a, aliases)
		}
	case *Ref:
		if e.Set == "" {
			v.fail("reference without a set")
		}
		if len(e.Keys) == 0 {
			v.fail("reference to %s without keys", e.Set)
		}
		for _, k := range e.Keys {
			v.expr(k, aliases)
		}
	default:
		v.fail("unknown expression type %T", e)
	}
}

func (v *validator) predicate(p Predicate, aliases map[string]bool) {
	switch p := p.(type) {
	case nil:
		v.fail("nil predicate")
	case *Equals:
		v.expr(p.Left, aliases)
		v.expr(p.Right, aliases)
	case *IsNull:
		v.expr(p.Expr, aliases)
	case *Not:
		v.predicate(p.Predicate, aliases)
	case *And:
		for _, sub := range p.Predicates {
			v.predicate(sub, aliases)
		}
	case *Or:
		for _, sub := range p.Predicates {
			v.predicate(sub, aliases)
		}
	default:
		v.fail("unknown predicate type %T", p)
	}
}
