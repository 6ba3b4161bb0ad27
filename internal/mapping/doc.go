// Package mapping provides the in-memory mapping closure types for mapview.
//
// This package contains type definitions and small helpers only. All other
// internal packages import mapping; mapping imports nothing internal, which
// keeps it the foundational layer with no circular dependencies.
//
// A mapping closure connects three parallel type graphs for one container:
//   - conceptual (C-space) entity, complex and association types
//   - store (S-space) sets and columns
//   - mapping nodes: container -> set -> type mapping -> fragment -> property/condition
//
// Key design constraints:
//   - Closures are load-once: nothing in this module mutates a closure after
//     the loader hands it over, so closures are shared across goroutines
//     without locking.
//   - Node identity is pointer identity. The same *EntityType is referenced
//     from many mapping nodes, and navigation properties may form cycles.
//   - Everything that is ordered is a slice in declaration order. Maps are
//     used only for collections whose order carries no meaning.
package mapping
