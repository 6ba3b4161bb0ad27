// Package viewir is the intermediate representation of generated views.
//
// A view is a Query producing conceptual instances from store rows. The
// synthesizer builds queries in this representation; viewsql renders them
// to view text. Keeping the two apart lets the coordinator validate the
// shape of a view before any text exists.
//
// Query, Source, Expr and Predicate are sealed interfaces using the marker
// method pattern, so renderers can switch exhaustively:
//
//	switch q := query.(type) {
//	case *Select:
//	case *UnionAll:
//	case *OfType:
//	}
//
// Shapes:
//
//	Select    SELECT VALUE <expr> FROM <source> [WHERE <predicate>]
//	UnionAll  <query> UNION ALL <query> ...
//	OfType    instances of a query restricted to a type (and subtypes)
//	Scan      <set> AS <alias>
//	Join      <source> INNER JOIN <source> ON <predicate>
package viewir
