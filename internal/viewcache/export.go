package viewcache

import (
	"github.com/roach88/mapview/internal/bundle"
	"github.com/roach88/mapview/internal/mapping"
	"github.com/roach88/mapview/internal/metrics"
)

// ExportViews synthesizes every view of container and packages them as a
// bundle that a later process can register and trust. Registered bundles
// are ignored; the result always reflects the live mapping.
//
// User-defined and foreign-key views are included. A container that yields
// no view at all produces a warning, not an error, so that an export of a
// partially authored mapping still reports its diagnostics.
func (c *Coordinator) ExportViews(container string) (*bundle.Bundle, mapping.Diagnostics, error) {
	cm, ok := c.col.Container(container)
	if !ok {
		return nil, nil, &MappingError{Code: ErrCodeUnknownSet, Message: "no such container", Container: container}
	}

	done := c.metrics.Synthesis(metrics.ScopeContainer)
	views, diags := c.synth.GenerateViews(cm)
	done()
	if diags.HasErrors() {
		return nil, diags, &MappingError{
			Code:        ErrCodeSynthesisFailed,
			Message:     "view synthesis reported errors",
			Container:   cm.ConceptualContainer,
			Diagnostics: diags,
		}
	}

	texts := make(map[string]string, len(cm.Sets))
	for name, v := range views {
		texts[name] = v.Text
	}
	for _, sm := range cm.Sets {
		name := cm.QualifiedName(sm.Name)
		switch {
		case sm.QueryView != "":
			texts[name] = sm.QueryView
		case sm.IsForeignKeyAssociation():
			v, err := foreignKeyView(cm, sm)
			if err != nil {
				return nil, diags, err
			}
			texts[name] = v.Text
		}
	}

	if len(texts) == 0 && len(cm.Sets) > 0 {
		diags.Warnf(mapping.CodeNoViewsGenerated, "", nil,
			"container %s declares %d sets but no view was generated", cm.ConceptualContainer, len(cm.Sets))
	}

	b := bundle.Build(cm, c.col.Hierarchy, texts)
	c.logger.Info("views exported",
		"container", cm.ConceptualContainer,
		"views", len(b.Views),
		"closure", b.ClosureDigest.String())
	return b, diags, nil
}
