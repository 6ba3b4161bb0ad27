// Package viewcache resolves and memoizes the views of a mapping
// collection.
//
// A Coordinator answers two questions: the view of a whole set (GetView)
// and the view of a set restricted to one type (TryGetTypeView). Whole-set
// views are resolved in this order:
//
//  1. a query view authored in the mapping document, used unchanged
//  2. for a foreign-key association set, a view built from its
//     referential constraint
//  3. the views of the set's container, taken from a precompiled bundle
//     whose digests match the live mapping, or synthesized for the whole
//     container in one pass
//
// Every resolved key is computed at most once, however many goroutines
// request it concurrently, and the result (view or error) is kept for the
// coordinator's lifetime. The mapping collection is immutable, so cached
// results never go stale.
//
// A precompiled bundle that targets the container but whose closure digest
// or view digest does not match is a hard StaleArtifact error; it is never
// silently replaced by synthesis.
package viewcache
