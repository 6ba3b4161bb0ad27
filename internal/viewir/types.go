package viewir

// Query produces a collection of conceptual instances.
type Query interface {
	queryNode()
}

// Source is the FROM clause of a Select.
type Source interface {
	sourceNode()
}

// Expr is a scalar or constructed value.
type Expr interface {
	exprNode()
}

// Predicate filters rows.
type Predicate interface {
	predicateNode()
}

// Select constructs Value for every row of From satisfying Filter.
// A nil Filter keeps every row.
type Select struct {
	From   Source
	Filter Predicate
	Value  Expr
}

func (*Select) queryNode() {}

// UnionAll concatenates the results of its branches, duplicates kept.
type UnionAll struct {
	Branches []Query
}

func (*UnionAll) queryNode() {}

// OfType keeps the instances of Input whose type is Type, or a subtype of
// it unless Only is set.
type OfType struct {
	Input Query
	Type  string
	Only  bool
}

func (*OfType) queryNode() {}

// Scan reads a store or conceptual set under Alias.
type Scan struct {
	Set   string
	Alias string
}

func (*Scan) sourceNode() {}

// Join is an inner join of two sources.
type Join struct {
	Left, Right Source
	On          Predicate
}

func (*Join) sourceNode() {}

// Column references a column (or property) through a source alias.
type Column struct {
	Alias string
	Name  string
}

func (*Column) exprNode() {}

// Literal is a string constant.
type Literal struct {
	Value string
}

func (*Literal) exprNode() {}

// Null is the null constant.
type Null struct{}

func (*Null) exprNode() {}

// Construct builds an instance of Type from positional Args.
type Construct struct {
	Type string
	Args []Expr
}

func (*Construct) exprNode() {}

// Ref builds a reference to the instance of Set whose key is Keys.
type Ref struct {
	Set  string
	Keys []Expr
}

func (*Ref) exprNode() {}

// Equals compares two expressions.
type Equals struct {
	Left, Right Expr
}

func (*Equals) predicateNode() {}

// IsNull tests an expression for null.
type IsNull struct {
	Expr Expr
}

func (*IsNull) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (*Not) predicateNode() {}

// And holds when every predicate holds. Empty And is true.
type And struct {
	Predicates []Predicate
}

func (*And) predicateNode() {}

// Or holds when any predicate holds. Empty Or is false.
type Or struct {
	Predicates []Predicate
}

func (*Or) predicateNode() {}

// Col is shorthand for a Column expression.
func Col(alias, name string) *Column {
	return &Column{Alias: alias, Name: name}
}

// Lit is shorthand for a Literal expression.
func Lit(v string) *Literal {
	return &Literal{Value: v}
}

// AndOf returns the conjunction of ps, flattened by one level and without
// wrapping a single predicate. Nil entries are dropped; no predicates yields
// nil, meaning no filter.
func AndOf(ps ...Predicate) Predicate {
	var out []Predicate
	for _, p := range ps {
		switch p := p.(type) {
		case nil:
		case *And:
			out = append(out, p.Predicates...)
		default:
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return &And{Predicates: out}
	}
}
