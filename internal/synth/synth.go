package synth

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/mapview/internal/mapping"
	"github.com/roach88/mapview/internal/reachability"
	"github.com/roach88/mapview/internal/viewir"
	"github.com/roach88/mapview/internal/viewsql"
)

// ErrNoView is returned, wrapped, when a type-specific view cannot be built
// for structural reasons.
var ErrNoView = errors.New("no view")

// Synthesizer generates views for one mapping collection.
type Synthesizer struct {
	h      *mapping.Hierarchy
	logger *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Synthesizer) {
		s.logger = l
	}
}

// New creates a Synthesizer over the types of h.
func New(h *mapping.Hierarchy, opts ...Option) *Synthesizer {
	s := &Synthesizer{h: h, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateViews synthesizes the query views of c, keyed by qualified set
// name, together with every diagnostic found along the way. A set whose
// conditions produce errors gets no view; the remaining sets are still
// generated so that diagnostics cover the whole container.
func (s *Synthesizer) GenerateViews(c *mapping.ContainerMapping) (map[string]*mapping.GeneratedView, mapping.Diagnostics) {
	views := make(map[string]*mapping.GeneratedView)
	var diags mapping.Diagnostics

	for _, f := range c.FunctionImports {
		for _, rm := range f.ResultMappings {
			diags = append(diags, reachability.ValidateTypeConditions(s.h, rm.TypeMappings, f.Composable)...)
		}
	}

	for _, set := range c.Sets {
		if set.QueryView != "" || set.IsForeignKeyAssociation() {
			continue
		}
		name := c.QualifiedName(set.Name)
		if set.Kind != mapping.SetKindEntity || len(set.TypeMappings) == 0 {
			diags.Warnf(mapping.CodeSetNotMapped, "", locs(set.Location),
				"set %s has no fragments and no query view", name)
			continue
		}

		setDiags := s.checkSet(set)
		diags = append(diags, setDiags...)
		if setDiags.HasErrors() {
			s.logger.Debug("skipping view with invalid conditions", "set", name, "errors", len(setDiags.Errors()))
			continue
		}

		q, err := s.build(c, set, nil)
		if err != nil {
			diags.Errorf(mapping.CodeInvalidView, "", locs(set.Location), "set %s: %v", name, err)
			continue
		}
		text, err := render(q)
		if err != nil {
			diags.Errorf(mapping.CodeInvalidView, "", locs(set.Location), "set %s: %v", name, err)
			continue
		}
		views[name] = mapping.NewGeneratedView(mapping.SetKey(name), text, q, mapping.OriginSynthesized)
	}

	s.logger.Debug("container views synthesized",
		"container", c.ConceptualContainer,
		"views", len(views),
		"diagnostics", len(diags))
	return views, diags
}

// GenerateTypeView synthesizes the view of set restricted to t, or to t and
// its subtypes. Errors wrap ErrNoView.
func (s *Synthesizer) GenerateTypeView(c *mapping.ContainerMapping, set *mapping.SetMapping, t *mapping.EntityType, includeSubtypes bool) (*mapping.GeneratedView, error) {
	name := c.QualifiedName(set.Name)
	if set.QueryView != "" || set.Kind != mapping.SetKindEntity {
		return nil, fmt.Errorf("%w: set %s has no fragments", ErrNoView, name)
	}
	if t.Abstract && !includeSubtypes {
		return nil, fmt.Errorf("%w: abstract type %s has no exact instances", ErrNoView, t.Name)
	}
	if set.ElementType != nil && !t.IsSubtypeOf(set.ElementType) {
		return nil, fmt.Errorf("%w: type %s is not in set %s", ErrNoView, t.Name, name)
	}
	if s.checkSet(set).HasErrors() {
		return nil, fmt.Errorf("%w: set %s has invalid conditions", ErrNoView, name)
	}

	targets := []*mapping.EntityType{t}
	if includeSubtypes {
		targets = s.h.TypeAndSubtypes(t)
	}
	q, err := s.build(c, set, targets)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoView, err)
	}
	q = &viewir.OfType{Input: q, Type: t.Name, Only: !includeSubtypes}
	text, err := render(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoView, err)
	}
	return mapping.NewGeneratedView(mapping.TypeKey(name, t.Name, includeSubtypes), text, q, mapping.OriginSynthesized), nil
}

// checkSet reports empty type mappings and reachability findings for set.
func (s *Synthesizer) checkSet(set *mapping.SetMapping) mapping.Diagnostics {
	var diags mapping.Diagnostics
	for _, tm := range set.TypeMappings {
		if len(tm.Fragments) == 0 {
			diags.Errorf(mapping.CodeEmptyTypeMapping, "", locs(tm.Location),
				"type mapping in set %s has no fragments", set.Name)
		}
	}
	if diags.HasErrors() {
		return diags
	}
	return append(diags, reachability.ValidateTypeConditions(s.h, set.TypeMappings, false)...)
}

func render(q viewir.Query) (string, error) {
	if err := viewir.Validate(q); err != nil {
		return "", fmt.Errorf("invalid view: %w", err)
	}
	return viewsql.Compile(q)
}

func locs(l mapping.SourceLocation) []mapping.SourceLocation {
	if !l.IsValid() {
		return nil
	}
	return []mapping.SourceLocation{l}
}
