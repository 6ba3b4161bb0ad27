package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/mapview/internal/bundle"
	"github.com/roach88/mapview/internal/closurehash"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestBundle creates a bundle with the given closure digest and views
// as set/text pairs. The views digest is computed from the views.
func createTestBundle(conceptual, closure string, setsAndTexts ...string) *bundle.Bundle {
	views := make(map[string]string)
	b := &bundle.Bundle{
		ConceptualContainer: conceptual,
		StoreContainer:      "Store",
		ClosureDigest:       closurehash.Digest(closure),
	}
	for i := 0; i+1 < len(setsAndTexts); i += 2 {
		views[setsAndTexts[i]] = setsAndTexts[i+1]
		b.Views = append(b.Views, bundle.View{Set: setsAndTexts[i], Text: setsAndTexts[i+1]})
	}
	b.ViewsDigest = closurehash.ViewsDigest(views)
	return b
}
