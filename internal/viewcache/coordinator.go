package viewcache

import (
	"fmt"
	"log/slog"

	"github.com/roach88/mapview/internal/bundle"
	"github.com/roach88/mapview/internal/mapping"
	"github.com/roach88/mapview/internal/metrics"
	"github.com/roach88/mapview/internal/reachability"
)

// Synthesizer generates views on demand. synth.Synthesizer is the default
// implementation.
type Synthesizer interface {
	// GenerateViews synthesizes every fragment-mapped set of c in one pass,
	// keyed by qualified set name.
	GenerateViews(c *mapping.ContainerMapping) (map[string]*mapping.GeneratedView, mapping.Diagnostics)

	// GenerateTypeView synthesizes the view of set restricted to t.
	GenerateTypeView(c *mapping.ContainerMapping, set *mapping.SetMapping, t *mapping.EntityType, includeSubtypes bool) (*mapping.GeneratedView, error)
}

// Coordinator owns the memoized views of one mapping collection. It is safe
// for concurrent use. Construct one per collection and share it.
type Coordinator struct {
	col     *mapping.Collection
	synth   Synthesizer
	bundles *bundle.Registry
	logger  *slog.Logger
	metrics *metrics.Metrics

	direct     *memo[mapping.ViewKey, *mapping.GeneratedView]
	containers *memo[*mapping.ContainerMapping, *containerViews]
	types      *memo[mapping.ViewKey, *mapping.GeneratedView]
}

// New creates a Coordinator for col, synthesizing with synth.
func New(col *mapping.Collection, synth Synthesizer, opts ...Option) *Coordinator {
	c := &Coordinator{
		col:    col,
		synth:  synth,
		logger: slog.Default(),

		direct: newMemo[mapping.ViewKey, *mapping.GeneratedView](mapping.ViewKey.String),
		containers: newMemo[*mapping.ContainerMapping, *containerViews](func(cm *mapping.ContainerMapping) string {
			return fmt.Sprintf("%p", cm)
		}),
		types: newMemo[mapping.ViewKey, *mapping.GeneratedView](mapping.ViewKey.String),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collection returns the collection c serves.
func (c *Coordinator) Collection() *mapping.Collection {
	return c.col
}

// GetView returns the whole-set view of set, named either qualified
// ("Container.Set") or unqualified when unambiguous.
//
// The error is a *MappingError. Callers racing on the same set observe the
// same view instance or the same error.
func (c *Coordinator) GetView(set string) (*mapping.GeneratedView, error) {
	cm, sm, ok := c.col.LookupSet(set)
	if !ok {
		c.metrics.Request(metrics.KindSet, metrics.OutcomeError)
		return nil, &MappingError{
			Code:    ErrCodeViewNotGenerated,
			Message: "no mapping declares the set",
			Set:     set,
		}
	}
	key := mapping.SetKey(cm.QualifiedName(sm.Name))

	var (
		v        *mapping.GeneratedView
		computed bool
		err      error
	)
	switch {
	case sm.QueryView != "":
		v, computed, err = c.direct.get(key, func() (*mapping.GeneratedView, error) {
			c.metrics.Cached(1)
			return mapping.NewGeneratedView(key, sm.QueryView, nil, mapping.OriginUserDefined), nil
		})
	case sm.IsForeignKeyAssociation():
		v, computed, err = c.direct.get(key, func() (*mapping.GeneratedView, error) {
			v, err := foreignKeyView(cm, sm)
			if err == nil {
				c.metrics.Cached(1)
			}
			return v, err
		})
	default:
		v, computed, err = c.containerView(cm, key)
	}

	switch {
	case err != nil:
		c.metrics.Request(metrics.KindSet, metrics.OutcomeError)
	case computed:
		c.metrics.Request(metrics.KindSet, metrics.OutcomeComputed)
	default:
		c.metrics.Request(metrics.KindSet, metrics.OutcomeHit)
	}
	return v, err
}

// containerView resolves the container of key and picks the set's view.
// computed reports whether this call resolved the container.
func (c *Coordinator) containerView(cm *mapping.ContainerMapping, key mapping.ViewKey) (*mapping.GeneratedView, bool, error) {
	cv, computed, err := c.containers.get(cm, func() (*containerViews, error) {
		return c.resolveContainer(cm)
	})
	if err != nil {
		return nil, computed, err
	}
	if computed {
		c.metrics.Cached(len(cv.views))
	}
	if v, ok := cv.views[key.Set]; ok {
		return v, computed, nil
	}
	return nil, computed, &MappingError{
		Code:        ErrCodeViewNotGenerated,
		Message:     "container resolved without a view for the set",
		Container:   cm.ConceptualContainer,
		Set:         key.Set,
		Diagnostics: cv.diags,
	}
}

// TryGetTypeView returns the view of set restricted to the type named typ,
// with or without its subtypes. It returns false, not an error, when no
// such view exists: the set or type is unknown, the type is abstract and
// includeSubtypes is false, the set is defined by a user query view without
// one for the type, or synthesis fails for a structural reason.
//
// Type-specific views are never taken from precompiled bundles.
func (c *Coordinator) TryGetTypeView(set, typ string, includeSubtypes bool) (*mapping.GeneratedView, bool) {
	cm, sm, ok := c.col.LookupSet(set)
	if !ok {
		c.metrics.Request(metrics.KindType, metrics.OutcomeNone)
		return nil, false
	}
	t, ok := c.col.Hierarchy.Lookup(typ)
	if !ok || (t.Abstract && !includeSubtypes) {
		c.metrics.Request(metrics.KindType, metrics.OutcomeNone)
		return nil, false
	}
	key := mapping.TypeKey(cm.QualifiedName(sm.Name), t.Name, includeSubtypes)

	v, computed, _ := c.types.get(key, func() (*mapping.GeneratedView, error) {
		if text, ok := sm.TypeQueryViews[key]; ok {
			return mapping.NewGeneratedView(key, text, nil, mapping.OriginUserDefined), nil
		}
		if sm.QueryView != "" {
			return nil, nil
		}
		done := c.metrics.Synthesis(metrics.ScopeType)
		v, err := c.synth.GenerateTypeView(cm, sm, t, includeSubtypes)
		done()
		if err != nil {
			c.logger.Debug("no type view", "key", key.String(), "reason", err)
			return nil, nil
		}
		return v, nil
	})

	switch {
	case v == nil:
		c.metrics.Request(metrics.KindType, metrics.OutcomeNone)
	case computed:
		c.metrics.Request(metrics.KindType, metrics.OutcomeComputed)
		c.metrics.Cached(1)
	default:
		c.metrics.Request(metrics.KindType, metrics.OutcomeHit)
	}
	return v, v != nil
}

// ValidateTypeConditions reports unreachable and, when checkAmbiguity is
// set, ambiguous types among the type mappings of set. It does not resolve
// any view.
func (c *Coordinator) ValidateTypeConditions(set string, checkAmbiguity bool) (mapping.Diagnostics, error) {
	_, sm, ok := c.col.LookupSet(set)
	if !ok {
		return nil, &MappingError{Code: ErrCodeUnknownSet, Message: "no mapping declares the set", Set: set}
	}
	return reachability.ValidateTypeConditions(c.col.Hierarchy, sm.TypeMappings, checkAmbiguity), nil
}

// ValidateFunctionImport checks the result mappings of a function import of
// container. Composable imports are checked for ambiguity.
func (c *Coordinator) ValidateFunctionImport(container, name string) (mapping.Diagnostics, error) {
	cm, ok := c.col.Container(container)
	if !ok {
		return nil, &MappingError{Code: ErrCodeUnknownSet, Message: "no such container", Container: container}
	}
	for _, f := range cm.FunctionImports {
		if f.Name != name {
			continue
		}
		var diags mapping.Diagnostics
		for _, rm := range f.ResultMappings {
			diags = append(diags, reachability.ValidateTypeConditions(c.col.Hierarchy, rm.TypeMappings, f.Composable)...)
		}
		return diags, nil
	}
	return nil, &MappingError{
		Code:      ErrCodeUnknownSet,
		Message:   fmt.Sprintf("no function import %s", name),
		Container: container,
	}
}
