package mapping

// Version identifies the mapping document format a closure was loaded from.
// Newer versions introduce facts that older ones cannot express; the closure
// hasher only includes those facts at or above the introducing version.
type Version int

// Known mapping format versions.
const (
	Version1 Version = 1
	Version2 Version = 2 // fragment Distinct, function import mappings
	Version3 Version = 3 // container GenerateUpdateViews

	// LatestVersion is the version the loader assumes when a document omits it.
	LatestVersion = Version3
)

// Valid reports whether v is a known format version.
func (v Version) Valid() bool {
	return v >= Version1 && v <= LatestVersion
}
