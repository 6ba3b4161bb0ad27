// Package bundle models precompiled view bundles and the explicit registry
// a host populates with bundle providers.
//
// A bundle carries view texts for every set of one container together with
// two digests recorded when it was generated: the closure digest of the
// mapping it was generated from and the digest of its own view texts. A
// bundle is only trusted when both still match; see viewcache.
package bundle

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/roach88/mapview/internal/closurehash"
	"github.com/roach88/mapview/internal/mapping"
)

// View is one precompiled view.
type View struct {
	Set  string `json:"set"`
	Text string `json:"text"`
}

// Bundle is a precompiled set of views for one container pair.
type Bundle struct {
	ConceptualContainer string             `json:"conceptual_container"`
	StoreContainer      string             `json:"store_container"`
	ClosureDigest       closurehash.Digest `json:"closure_digest"`
	ViewsDigest         closurehash.Digest `json:"views_digest"`
	Views               []View             `json:"views"`
}

// Build creates a bundle for c from views keyed by qualified set name,
// recording both digests. The closure digest is computed against h. Views
// are ordered by set name.
func Build(c *mapping.ContainerMapping, h *mapping.Hierarchy, views map[string]string) *Bundle {
	b := &Bundle{
		ConceptualContainer: c.ConceptualContainer,
		StoreContainer:      c.StoreContainer,
		ClosureDigest:       closurehash.Compute(c, h),
		ViewsDigest:         closurehash.ViewsDigest(views),
	}
	for set, text := range views {
		b.Views = append(b.Views, View{Set: set, Text: text})
	}
	sort.Slice(b.Views, func(i, j int) bool { return b.Views[i].Set < b.Views[j].Set })
	return b
}

// Targets reports whether the bundle was generated for c.
func (b *Bundle) Targets(c *mapping.ContainerMapping) bool {
	return b.ConceptualContainer == c.ConceptualContainer && b.StoreContainer == c.StoreContainer
}

// ViewMap returns the views keyed by set name. A set listed twice is an
// error.
func (b *Bundle) ViewMap() (map[string]string, error) {
	out := make(map[string]string, len(b.Views))
	for _, v := range b.Views {
		if _, dup := out[v.Set]; dup {
			return nil, fmt.Errorf("bundle lists set %q twice", v.Set)
		}
		out[v.Set] = v.Text
	}
	return out, nil
}

// Encode writes b as indented JSON.
func Encode(w io.Writer, b *Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// Decode reads a bundle written by Encode.
func Decode(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &b, nil
}

// ReadFile decodes the bundle stored at path.
func ReadFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
