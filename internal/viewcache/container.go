package viewcache

import (
	"github.com/roach88/mapview/internal/bundle"
	"github.com/roach88/mapview/internal/closurehash"
	"github.com/roach88/mapview/internal/mapping"
	"github.com/roach88/mapview/internal/metrics"
)

// containerViews is the resolved view table of one container.
type containerViews struct {
	views  map[string]*mapping.GeneratedView
	diags  mapping.Diagnostics
	origin mapping.ViewOrigin
}

// resolveContainer produces the views of cm from a trusted bundle or by
// synthesis. It runs at most once per container.
func (c *Coordinator) resolveContainer(cm *mapping.ContainerMapping) (*containerViews, error) {
	cv, err := c.fromBundles(cm)
	if err != nil {
		return nil, err
	}
	if cv == nil {
		cv, err = c.synthesize(cm)
		if err != nil {
			return nil, err
		}
	}

	if len(cv.views) == 0 && len(cm.Sets) > 0 && directSets(cm) == 0 {
		cv.diags.Errorf(mapping.CodeNoViewsGenerated, "", nil,
			"container %s declares %d sets but no view was generated", cm.ConceptualContainer, len(cm.Sets))
		return nil, &MappingError{
			Code:        ErrCodeViewNotGenerated,
			Message:     "no set of the container is mapped",
			Container:   cm.ConceptualContainer,
			Diagnostics: cv.diags,
		}
	}

	c.logger.Info("container views resolved",
		"container", cm.ConceptualContainer,
		"origin", string(cv.origin),
		"views", len(cv.views))
	return cv, nil
}

// directSets counts sets resolved without the container pass.
func directSets(cm *mapping.ContainerMapping) int {
	n := 0
	for _, s := range cm.Sets {
		if s.QueryView != "" || s.IsForeignKeyAssociation() {
			n++
		}
	}
	return n
}

// fromBundles returns the views of the first registered bundle targeting
// cm, after validating it. It returns nil, nil when no bundle targets cm.
// A targeting bundle that fails validation is an error; later bundles are
// not consulted.
func (c *Coordinator) fromBundles(cm *mapping.ContainerMapping) (*containerViews, error) {
	if c.bundles.Len() == 0 {
		return nil, nil
	}
	bundles, err := c.bundles.Bundles()
	if err != nil {
		return nil, &MappingError{
			Code:      ErrCodeBundleLoadFailed,
			Message:   "precompiled bundle failed to load",
			Container: cm.ConceptualContainer,
			Err:       err,
		}
	}

	var live closurehash.Digest
	for _, b := range bundles {
		if !b.Targets(cm) {
			c.metrics.Bundle(metrics.BundleSkipped)
			continue
		}
		if live == "" {
			live = closurehash.Compute(cm, c.col.Hierarchy)
		}
		cv, err := c.trust(cm, b, live)
		if err != nil {
			return nil, err
		}
		c.metrics.Bundle(metrics.BundleTrusted)
		return cv, nil
	}
	return nil, nil
}

// trust validates b against the live mapping and converts its views.
func (c *Coordinator) trust(cm *mapping.ContainerMapping, b *bundle.Bundle, live closurehash.Digest) (*containerViews, error) {
	if b.ClosureDigest != live {
		c.metrics.Bundle(metrics.BundleStale)
		c.logger.Error("precompiled views are stale",
			"container", cm.ConceptualContainer,
			"stored", b.ClosureDigest.String(),
			"live", live.String())
		return nil, newStaleArtifact(cm.ConceptualContainer, "closure", b.ClosureDigest, live)
	}

	texts, err := b.ViewMap()
	if err != nil {
		c.metrics.Bundle(metrics.BundleMalformed)
		return nil, &MappingError{
			Code:      ErrCodeMalformedBundleReference,
			Message:   "precompiled bundle is malformed",
			Container: cm.ConceptualContainer,
			Err:       err,
		}
	}
	if got := closurehash.ViewsDigest(texts); got != b.ViewsDigest {
		c.metrics.Bundle(metrics.BundleStale)
		c.logger.Error("precompiled view texts do not match their digest",
			"container", cm.ConceptualContainer,
			"stored", b.ViewsDigest.String(),
			"live", got.String())
		return nil, newStaleArtifact(cm.ConceptualContainer, "view", b.ViewsDigest, got)
	}

	declared := make(map[string]bool, len(cm.Sets))
	for _, s := range cm.Sets {
		declared[cm.QualifiedName(s.Name)] = true
	}
	cv := &containerViews{
		views:  make(map[string]*mapping.GeneratedView, len(texts)),
		origin: mapping.OriginPrecompiled,
	}
	for _, v := range b.Views {
		if !declared[v.Set] {
			c.metrics.Bundle(metrics.BundleMalformed)
			return nil, &MappingError{
				Code:      ErrCodeMalformedBundleReference,
				Message:   "precompiled bundle references a set the container does not map",
				Container: cm.ConceptualContainer,
				Set:       v.Set,
			}
		}
		key := mapping.SetKey(v.Set)
		cv.views[v.Set] = mapping.NewGeneratedView(key, v.Text, nil, mapping.OriginPrecompiled)
	}
	return cv, nil
}

// synthesize generates every view of cm in one synthesizer call. Error
// diagnostics fail the whole container; warnings are logged and the views
// are kept.
func (c *Coordinator) synthesize(cm *mapping.ContainerMapping) (*containerViews, error) {
	done := c.metrics.Synthesis(metrics.ScopeContainer)
	views, diags := c.synth.GenerateViews(cm)
	done()

	if diags.HasErrors() {
		c.logger.Error("view synthesis failed",
			"container", cm.ConceptualContainer,
			"errors", len(diags.Errors()))
		return nil, &MappingError{
			Code:        ErrCodeSynthesisFailed,
			Message:     "view synthesis reported errors",
			Container:   cm.ConceptualContainer,
			Diagnostics: diags,
		}
	}
	for _, d := range diags.Warnings() {
		c.logger.Warn("view synthesis warning",
			"container", cm.ConceptualContainer,
			"code", d.Code,
			"message", d.Message)
	}
	if views == nil {
		views = make(map[string]*mapping.GeneratedView)
	}
	return &containerViews{views: views, diags: diags, origin: mapping.OriginSynthesized}, nil
}
