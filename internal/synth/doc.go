// Package synth is the default view synthesizer.
//
// GenerateViews builds the query view of every fragment-mapped set of a
// container in one pass, after checking the discriminator conditions of
// every set and function import with the reachability analyzer. Sets with
// user-authored query views and foreign-key association sets are left to
// the caller.
//
// Each reachable type of a set becomes one branch:
//
//	SELECT VALUE Type(columns...) FROM <fragments> WHERE <conditions>
//
// and the branches of a set are combined with UNION ALL. A branch reads the
// fragments of the type mapping that names the type exactly, or of the
// first is-type-of mapping covering it. Its filter is the mapping's own
// conditions. Branches read from an else mapping or an is-type-of mapping
// also exclude the rows of every other conditioned mapping on the same
// store set that does not produce the type.
package synth
