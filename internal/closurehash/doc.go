// Package closurehash fingerprints mapping closures and view texts.
//
// A closure digest changes if and only if a semantically relevant fact in
// the closure changes. Digests are persisted next to precompiled view
// bundles and compared against a freshly computed digest before a bundle is
// trusted, so the encoding must be stable across processes, platforms and
// locales.
//
// # Traversal
//
// Compute walks the closure depth first from the container mapping. Every
// node is keyed by pointer identity and numbered in first-visit order. The
// first visit writes
//
//	[N:Kind;field=len:value;...children...]
//
// and every later visit of the same node writes only
//
//	#N;
//
// so shared sub-mappings and navigation cycles are expanded exactly once.
// Children are visited in declaration order; collections without meaningful
// order (is-type-of sets, conditions, end sets, type-specific views) are
// visited in sorted key order.
//
// # Encoding
//
// Strings are NFC normalized and length prefixed. Integers and booleans are
// formatted with strconv. Nothing locale or time dependent is written. The
// digest is SHA-256 over domain + 0x00 + text, hex encoded, following the
// domain separation scheme used for content-addressed identities.
package closurehash
