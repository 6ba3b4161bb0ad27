// Package viewsql renders viewir queries to view text.
//
// The output is deterministic: the same query always renders to the same
// bytes, which keeps view digests stable. String literals are quoted with
// single quotes, doubling embedded quotes.
package viewsql

import (
	"fmt"
	"strings"

	"github.com/roach88/mapview/internal/viewir"
)

// UnionSeparator joins union branches.
const UnionSeparator = "\nUNION ALL\n"

// Compile renders q.
func Compile(q viewir.Query) (string, error) {
	var b strings.Builder
	if err := writeQuery(&b, q); err != nil {
		return "", err
	}
	return b.String(), nil
}

// MustCompile is Compile for queries known to be well formed.
func MustCompile(q viewir.Query) string {
	s, err := Compile(q)
	if err != nil {
		panic(err)
	}
	return s
}

func writeQuery(b *strings.Builder, q viewir.Query) error {
	switch q := q.(type) {
	case *viewir.Select:
		return writeSelect(b, q)
	case *viewir.UnionAll:
		if len(q.Branches) == 0 {
			return fmt.Errorf("cannot compile empty union")
		}
		for i, br := range q.Branches {
			if i > 0 {
				b.WriteString(UnionSeparator)
			}
			if err := writeQuery(b, br); err != nil {
				return fmt.Errorf("union branch %d: %w", i, err)
			}
		}
		return nil
	case *viewir.OfType:
		b.WriteString("OFTYPE((")
		if err := writeQuery(b, q.Input); err != nil {
			return err
		}
		b.WriteString("), ")
		if q.Only {
			b.WriteString("ONLY ")
		}
		b.WriteString(q.Type)
		b.WriteString(")")
		return nil
	case nil:
		return fmt.Errorf("cannot compile nil query")
	default:
		return fmt.Errorf("unsupported query type: %T", q)
	}
}

func writeSelect(b *strings.Builder, s *viewir.Select) error {
	b.WriteString("SELECT VALUE ")
	if err := writeExpr(b, s.Value); err != nil {
		return fmt.Errorf("compile value: %w", err)
	}
	b.WriteString(" FROM ")
	if err := writeSource(b, s.From); err != nil {
		return fmt.Errorf("compile source: %w", err)
	}
	if s.Filter != nil {
		b.WriteString(" WHERE ")
		if err := writePredicate(b, s.Filter); err != nil {
			return fmt.Errorf("compile filter: %w", err)
		}
	}
	return nil
}

func writeSource(b *strings.Builder, src viewir.Source) error {
	switch src := src.(type) {
	case *viewir.Scan:
		b.WriteString(src.Set)
		b.WriteString(" AS ")
		b.WriteString(src.Alias)
		return nil
	case *viewir.Join:
		if err := writeSource(b, src.Left); err != nil {
			return err
		}
		b.WriteString(" INNER JOIN ")
		if err := writeSource(b, src.Right); err != nil {
			return err
		}
		b.WriteString(" ON ")
		return writePredicate(b, src.On)
	case nil:
		return fmt.Errorf("nil source")
	default:
		return fmt.Errorf("unsupported source type: %T", src)
	}
}

func writeExpr(b *strings.Builder, e viewir.Expr) error {
	switch e := e.(type) {
	case *viewir.Column:
		b.WriteString(e.Alias)
		b.WriteString(".")
		b.WriteString(e.Name)
	case *viewir.Literal:
		b.WriteString(Quote(e.Value))
	case *viewir.Null:
		b.WriteString("NULL")
	case *viewir.Construct:
		b.WriteString(e.Type)
		b.WriteString("(")
		if err := writeExprs(b, e.Args); err != nil {
			return err
		}
		b.WriteString(")")
	case *viewir.Ref:
		b.WriteString("CreateRef(")
		b.WriteString(e.Set)
		b.WriteString(", ROW(")
		if err := writeExprs(b, e.Keys); err != nil {
			return err
		}
		b.WriteString("))")
	case nil:
		return fmt.Errorf("nil expression")
	default:
		return fmt.Errorf("unsupported expression type: %T", e)
	}
	return nil
}

func writeExprs(b *strings.Builder, es []viewir.Expr) error {
	for i, e := range es {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := writeExpr(b, e); err != nil {
			return err
		}
	}
	return nil
}

func writePredicate(b *strings.Builder, p viewir.Predicate) error {
	switch p := p.(type) {
	case *viewir.Equals:
		if err := writeExpr(b, p.Left); err != nil {
			return err
		}
		b.WriteString(" = ")
		return writeExpr(b, p.Right)
	case *viewir.IsNull:
		if err := writeExpr(b, p.Expr); err != nil {
			return err
		}
		b.WriteString(" IS NULL")
		return nil
	case *viewir.Not:
		// NOT (x IS NULL) is written in its usual form.
		if n, ok := p.Predicate.(*viewir.IsNull); ok {
			if err := writeExpr(b, n.Expr); err != nil {
				return err
			}
			b.WriteString(" IS NOT NULL")
			return nil
		}
		b.WriteString("NOT (")
		if err := writePredicate(b, p.Predicate); err != nil {
			return err
		}
		b.WriteString(")")
		return nil
	case *viewir.And:
		return writeJunction(b, p.Predicates, " AND ", "TRUE")
	case *viewir.Or:
		return writeJunction(b, p.Predicates, " OR ", "FALSE")
	case nil:
		return fmt.Errorf("nil predicate")
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// writeJunction parenthesizes nested junctions so precedence never has to
// be inferred by a reader.
func writeJunction(b *strings.Builder, ps []viewir.Predicate, sep, empty string) error {
	if len(ps) == 0 {
		b.WriteString(empty)
		return nil
	}
	for i, p := range ps {
		if i > 0 {
			b.WriteString(sep)
		}
		_, and := p.(*viewir.And)
		_, or := p.(*viewir.Or)
		if and || or {
			b.WriteString("(")
		}
		if err := writePredicate(b, p); err != nil {
			return err
		}
		if and || or {
			b.WriteString(")")
		}
	}
	return nil
}

// Quote returns s as a single-quoted literal.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
