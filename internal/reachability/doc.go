// Package reachability decides which conceptual types a polymorphic mapping
// can produce.
//
// Each discriminator column of each store set is a finite-domain variable
// whose values are the literals the mapping compares it against, plus one
// sentinel for "some other value" and one for null. A row comes from one
// store set, so mappings reading different store sets are analyzed apart. Mapping groups become formulas over those
// variables, held in a reduced ordered multi-valued decision diagram; a
// formula is unsatisfiable exactly when its diagram is the false terminal.
//
// Analyze runs in one of two modes. The default mode asks, per type,
// whether some row produces that type and no other. The ambiguity mode,
// used for composable function results, additionally rejects any two types
// that the same row could produce.
package reachability
