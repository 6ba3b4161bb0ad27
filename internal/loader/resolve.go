package loader

import (
	"github.com/roach88/mapview/internal/mapping"
)

// Resolve links docs into one mapping collection. Declarations from every
// document share a namespace, so a container in one file may map types
// declared in another.
//
// Every structural problem is reported; the collection is nil when any of
// them is an error.
func Resolve(docs ...*Document) (*mapping.Collection, mapping.Diagnostics) {
	r := &resolver{
		versions:    make(map[*Document]mapping.Version),
		types:       make(map[string]*mapping.EntityType),
		typeDecls:   make(map[string]typeDecl),
		complexes:   make(map[string]*mapping.ComplexType),
		complexDocs: make(map[string]complexDecl),
		assocs:      make(map[string]*mapping.AssociationType),
		stores:      make(map[string]*mapping.StoreSet),
	}
	for _, d := range docs {
		r.declare(d)
	}
	r.linkComplexTypes()
	r.linkEntityTypes()
	r.linkAssociations()
	r.linkNavigations()
	for _, d := range docs {
		for i := range d.Containers {
			r.container(d, &d.Containers[i])
		}
	}

	if r.diags.HasErrors() {
		return nil, r.diags
	}
	col, err := mapping.NewCollection(mapping.NewHierarchy(r.typeList), r.containers...)
	if err != nil {
		r.diags.Errorf(mapping.CodeDuplicateSet, "", nil, "%v", err)
		return nil, r.diags
	}
	col.StoreSets = r.storeList
	col.Complex = r.complexList
	col.Assocs = r.assocList
	return col, r.diags
}

type typeDecl struct {
	doc *Document
	td  *TypeDoc
}

type complexDecl struct {
	doc *Document
	cd  *ComplexTypeDoc
}

type assocDecl struct {
	doc *Document
	ad  *AssociationDoc
	a   *mapping.AssociationType
}

type resolver struct {
	diags    mapping.Diagnostics
	versions map[*Document]mapping.Version

	types     map[string]*mapping.EntityType
	typeList  []*mapping.EntityType
	typeDecls map[string]typeDecl

	complexes   map[string]*mapping.ComplexType
	complexList []*mapping.ComplexType
	complexDocs map[string]complexDecl

	assocs     map[string]*mapping.AssociationType
	assocList  []*mapping.AssociationType
	assocDecls []assocDecl

	stores    map[string]*mapping.StoreSet
	storeList []*mapping.StoreSet

	containers []*mapping.ContainerMapping
}

func loc(d *Document, p Pos) mapping.SourceLocation {
	return mapping.SourceLocation{File: d.File, Line: p.Line, Column: p.Column}
}

func at(l mapping.SourceLocation) []mapping.SourceLocation {
	return []mapping.SourceLocation{l}
}

// declare registers the named declarations of d.
func (r *resolver) declare(d *Document) {
	v := mapping.LatestVersion
	if d.Version != 0 {
		v = mapping.Version(d.Version)
		if !v.Valid() {
			r.diags.Errorf(mapping.CodeInvalidVersion, "", at(loc(d, Pos{})),
				"unknown mapping format version %d (supported: %d to %d)", d.Version, mapping.Version1, mapping.LatestVersion)
			v = mapping.LatestVersion
		}
	}
	r.versions[d] = v

	for i := range d.Types {
		td := &d.Types[i]
		if _, dup := r.types[td.Name]; dup {
			r.diags.Errorf(mapping.CodeDuplicateDeclaration, td.Name, at(loc(d, td.Pos)), "entity type %s is declared twice", td.Name)
			continue
		}
		t := &mapping.EntityType{Name: td.Name, Abstract: td.Abstract, Key: td.Key}
		r.types[td.Name] = t
		r.typeList = append(r.typeList, t)
		r.typeDecls[td.Name] = typeDecl{doc: d, td: td}
	}
	for i := range d.ComplexTypes {
		cd := &d.ComplexTypes[i]
		if _, dup := r.complexes[cd.Name]; dup {
			r.diags.Errorf(mapping.CodeDuplicateDeclaration, cd.Name, at(loc(d, cd.Pos)), "complex type %s is declared twice", cd.Name)
			continue
		}
		ct := &mapping.ComplexType{Name: cd.Name}
		r.complexes[cd.Name] = ct
		r.complexList = append(r.complexList, ct)
		r.complexDocs[cd.Name] = complexDecl{doc: d, cd: cd}
	}
	for i := range d.Associations {
		ad := &d.Associations[i]
		if _, dup := r.assocs[ad.Name]; dup {
			r.diags.Errorf(mapping.CodeDuplicateDeclaration, "", at(loc(d, ad.Pos)), "association %s is declared twice", ad.Name)
			continue
		}
		a := &mapping.AssociationType{Name: ad.Name}
		r.assocs[ad.Name] = a
		r.assocList = append(r.assocList, a)
		r.assocDecls = append(r.assocDecls, assocDecl{doc: d, ad: ad, a: a})
	}
	for i := range d.StoreSets {
		sd := &d.StoreSets[i]
		if _, dup := r.stores[sd.Name]; dup {
			r.diags.Errorf(mapping.CodeDuplicateDeclaration, "", at(loc(d, sd.Pos)), "store set %s is declared twice", sd.Name)
			continue
		}
		s := &mapping.StoreSet{Name: sd.Name}
		for _, cd := range sd.Columns {
			s.Columns = append(s.Columns, &mapping.Column{Name: cd.Name, TypeName: cd.Type, Nullable: cd.Nullable})
		}
		r.stores[sd.Name] = s
		r.storeList = append(r.storeList, s)
	}
}

// properties converts property declarations, linking complex-valued ones.
func (r *resolver) properties(owner string, l mapping.SourceLocation, pds []PropertyDoc) []*mapping.Property {
	out := make([]*mapping.Property, 0, len(pds))
	for _, pd := range pds {
		p := &mapping.Property{
			Name:             pd.Name,
			TypeName:         pd.Type,
			Nullable:         pd.Nullable,
			ConcurrencyFixed: pd.ConcurrencyFixed,
		}
		if pd.Complex != "" {
			ct, ok := r.complexes[pd.Complex]
			if !ok {
				r.diags.Errorf(mapping.CodeUnknownType, owner, at(l), "property %s.%s has undeclared complex type %s", owner, pd.Name, pd.Complex)
			}
			p.Complex = ct
			if p.TypeName == "" {
				p.TypeName = pd.Complex
			}
		}
		out = append(out, p)
	}
	return out
}

func (r *resolver) linkComplexTypes() {
	for _, ct := range r.complexList {
		decl := r.complexDocs[ct.Name]
		ct.Properties = r.properties(ct.Name, loc(decl.doc, decl.cd.Pos), decl.cd.Properties)
	}
}

// linkEntityTypes sets properties and bases. Types on an inheritance cycle
// are reported and left without a base.
func (r *resolver) linkEntityTypes() {
	bases := make(map[string]string)
	for _, t := range r.typeList {
		decl := r.typeDecls[t.Name]
		t.Properties = r.properties(t.Name, loc(decl.doc, decl.td.Pos), decl.td.Properties)
		if decl.td.Base == "" {
			continue
		}
		if _, ok := r.types[decl.td.Base]; !ok {
			r.diags.Errorf(mapping.CodeUnknownType, t.Name, at(loc(decl.doc, decl.td.Pos)),
				"entity type %s derives from undeclared type %s", t.Name, decl.td.Base)
			continue
		}
		bases[t.Name] = decl.td.Base
	}

	for _, cycle := range inheritanceCycles(bases) {
		locs := make([]mapping.SourceLocation, len(cycle))
		for i, name := range cycle {
			decl := r.typeDecls[name]
			locs[i] = loc(decl.doc, decl.td.Pos)
		}
		r.diags.Errorf(mapping.CodeInheritanceCycle, cycle[0], locs, "inheritance cycle: %s", cyclePath(cycle, bases))
		for _, name := range cycle {
			delete(bases, name)
		}
	}

	for _, t := range r.typeList {
		if b, ok := bases[t.Name]; ok {
			t.Base = r.types[b]
		}
	}
}

func (r *resolver) linkAssociations() {
	for _, decl := range r.assocDecls {
		ad, a := decl.ad, decl.a
		l := at(loc(decl.doc, ad.Pos))
		if len(ad.Ends) != 2 {
			r.diags.Errorf(mapping.CodeInvalidMultiplicity, "", l, "association %s has %d ends, want 2", ad.Name, len(ad.Ends))
		}
		for i, ed := range ad.Ends {
			if i >= 2 {
				break
			}
			end := &mapping.AssociationEnd{Role: ed.Role}
			if t, ok := r.types[ed.Type]; ok {
				end.Type = t
			} else {
				r.diags.Errorf(mapping.CodeUnknownType, ed.Type, l, "association %s end %s has undeclared type %s", ad.Name, ed.Role, ed.Type)
			}
			m := mapping.Multiplicity(ed.Multiplicity)
			if !mapping.ValidMultiplicities[m] {
				r.diags.Errorf(mapping.CodeInvalidMultiplicity, "", l, "association %s end %s has unknown multiplicity %q", ad.Name, ed.Role, ed.Multiplicity)
			}
			end.Multiplicity = m
			a.Ends[i] = end
		}

		cd := ad.Constraint
		if cd == nil {
			continue
		}
		principal, dependent := a.End(cd.Principal), a.End(cd.Dependent)
		if principal == nil || dependent == nil {
			r.diags.Errorf(mapping.CodeUnknownAssociation, "", l,
				"referential constraint of %s names roles %s and %s, which are not both ends", ad.Name, cd.Principal, cd.Dependent)
			continue
		}
		r.checkProperties(ad.Name, principal.Type, cd.PrincipalProperties, l)
		r.checkProperties(ad.Name, dependent.Type, cd.DependentProperties, l)
		if len(cd.PrincipalProperties) != len(cd.DependentProperties) {
			r.diags.Errorf(mapping.CodeUnknownProperty, "", l,
				"referential constraint of %s pairs %d principal with %d dependent properties",
				ad.Name, len(cd.PrincipalProperties), len(cd.DependentProperties))
		}
		a.Constraint = &mapping.ReferentialConstraint{
			PrincipalRole:       cd.Principal,
			DependentRole:       cd.Dependent,
			PrincipalProperties: cd.PrincipalProperties,
			DependentProperties: cd.DependentProperties,
		}
	}
}

func (r *resolver) checkProperties(assoc string, t *mapping.EntityType, names []string, l []mapping.SourceLocation) {
	if t == nil {
		return
	}
	for _, n := range names {
		if t.Property(n) == nil {
			r.diags.Errorf(mapping.CodeUnknownProperty, t.Name, l, "referential constraint of %s names undeclared property %s.%s", assoc, t.Name, n)
		}
	}
}

func (r *resolver) linkNavigations() {
	for _, t := range r.typeList {
		decl := r.typeDecls[t.Name]
		l := at(loc(decl.doc, decl.td.Pos))
		for _, nd := range decl.td.Navigations {
			a, ok := r.assocs[nd.Association]
			if !ok {
				r.diags.Errorf(mapping.CodeUnknownAssociation, t.Name, l,
					"navigation %s.%s uses undeclared association %s", t.Name, nd.Name, nd.Association)
				continue
			}
			if a.End(nd.From) == nil || a.End(nd.To) == nil {
				r.diags.Errorf(mapping.CodeUnknownAssociation, t.Name, l,
					"navigation %s.%s names roles %s and %s, which are not both ends of %s", t.Name, nd.Name, nd.From, nd.To, a.Name)
				continue
			}
			t.NavigationProperties = append(t.NavigationProperties, &mapping.NavigationProperty{
				Name:        nd.Name,
				Association: a,
				FromRole:    nd.From,
				ToRole:      nd.To,
			})
		}
	}
}

func (r *resolver) container(d *Document, cd *ContainerDoc) {
	cm := &mapping.ContainerMapping{
		ConceptualContainer: cd.Conceptual,
		StoreContainer:      cd.Store,
		Version:             r.versions[d],
		GenerateUpdateViews: cd.GenerateUpdateViews,
	}
	for _, other := range r.containers {
		if other.ConceptualContainer == cm.ConceptualContainer && other.StoreContainer == cm.StoreContainer {
			r.diags.Errorf(mapping.CodeDuplicateDeclaration, "", at(loc(d, cd.Pos)),
				"container mapping %s to %s is declared twice", cm.ConceptualContainer, cm.StoreContainer)
			return
		}
	}

	declared := make(map[string]bool, len(cd.Sets))
	for i := range cd.Sets {
		declared[cd.Sets[i].Name] = true
	}

	seen := make(map[string]bool, len(cd.Sets))
	for i := range cd.Sets {
		sd := &cd.Sets[i]
		l := loc(d, sd.Pos)
		if seen[sd.Name] {
			r.diags.Errorf(mapping.CodeDuplicateSet, "", at(l), "set %s is mapped twice", cm.QualifiedName(sd.Name))
			continue
		}
		seen[sd.Name] = true
		if sm := r.set(d, cm, sd, declared); sm != nil {
			cm.Sets = append(cm.Sets, sm)
		}
	}

	for i := range cd.FunctionImports {
		fd := &cd.FunctionImports[i]
		f := &mapping.FunctionImportMapping{Name: fd.Name, Composable: fd.Composable, Location: loc(d, fd.Pos)}
		for _, rd := range fd.Results {
			rm := &mapping.ResultMapping{}
			for j := range rd.TypeMappings {
				rm.TypeMappings = append(rm.TypeMappings, r.typeMapping(d, &rd.TypeMappings[j], false))
			}
			f.ResultMappings = append(f.ResultMappings, rm)
		}
		cm.FunctionImports = append(cm.FunctionImports, f)
	}

	r.containers = append(r.containers, cm)
}

func (r *resolver) set(d *Document, cm *mapping.ContainerMapping, sd *SetDoc, declared map[string]bool) *mapping.SetMapping {
	l := loc(d, sd.Pos)
	name := cm.QualifiedName(sd.Name)
	sm := &mapping.SetMapping{Name: sd.Name, QueryView: sd.QueryView, Location: l}

	switch sd.Kind {
	case "", string(mapping.SetKindEntity):
		sm.Kind = mapping.SetKindEntity
		t, ok := r.types[sd.ElementType]
		if !ok {
			r.diags.Errorf(mapping.CodeUnknownType, sd.ElementType, at(l), "set %s has undeclared element type %q", name, sd.ElementType)
		}
		sm.ElementType = t
	case string(mapping.SetKindAssociation):
		sm.Kind = mapping.SetKindAssociation
		a, ok := r.assocs[sd.Association]
		if !ok {
			r.diags.Errorf(mapping.CodeUnknownAssociation, "", at(l), "set %s uses undeclared association %q", name, sd.Association)
			return sm
		}
		sm.Association = a
		sm.EndSets = make(map[string]string, len(sd.EndSets))
		for role, set := range sd.EndSets {
			if a.End(role) == nil {
				r.diags.Errorf(mapping.CodeUnknownAssociation, "", at(l), "set %s binds role %s, which is not an end of %s", name, role, a.Name)
				continue
			}
			if !declared[set] {
				r.diags.Errorf(mapping.CodeUnknownEndSet, "", at(l), "set %s binds role %s to undeclared set %s", name, role, set)
				continue
			}
			sm.EndSets[role] = set
		}
	default:
		r.diags.Errorf(mapping.CodeUnknownType, "", at(l), "set %s has unknown kind %q", name, sd.Kind)
		return sm
	}

	for _, tv := range sd.TypeQueryViews {
		t, ok := r.types[tv.Type]
		if !ok {
			r.diags.Errorf(mapping.CodeUnknownType, tv.Type, at(l), "type view of set %s names undeclared type %s", name, tv.Type)
			continue
		}
		if sm.TypeQueryViews == nil {
			sm.TypeQueryViews = make(map[mapping.ViewKey]string)
		}
		sm.TypeQueryViews[mapping.TypeKey(name, t.Name, tv.IncludeSubtypes)] = tv.View
	}

	for i := range sd.TypeMappings {
		sm.TypeMappings = append(sm.TypeMappings, r.typeMapping(d, &sd.TypeMappings[i], true))
	}
	return sm
}

// typeMapping resolves a type mapping. Set fragments must name a store set;
// function import fragments test result columns and name none.
func (r *resolver) typeMapping(d *Document, td *TypeMappingDoc, needStore bool) *mapping.TypeMapping {
	tm := &mapping.TypeMapping{Location: loc(d, td.Pos)}
	l := at(tm.Location)

	lookup := func(names []string) []*mapping.EntityType {
		var out []*mapping.EntityType
		for _, n := range names {
			t, ok := r.types[n]
			if !ok {
				r.diags.Errorf(mapping.CodeUnknownType, n, l, "type mapping names undeclared type %s", n)
				continue
			}
			out = append(out, t)
		}
		return out
	}
	tm.Types = lookup(td.Types)
	tm.IsOfTypes = lookup(td.IsOfTypes)
	mapped := append(append([]*mapping.EntityType(nil), tm.Types...), tm.IsOfTypes...)

	for i := range td.Fragments {
		tm.Fragments = append(tm.Fragments, r.fragment(d, &td.Fragments[i], mapped, needStore))
	}
	return tm
}

func (r *resolver) fragment(d *Document, fd *FragmentDoc, mapped []*mapping.EntityType, needStore bool) *mapping.Fragment {
	f := &mapping.Fragment{Distinct: fd.Distinct, Location: loc(d, fd.Pos)}
	l := at(f.Location)

	switch {
	case fd.StoreSet != "":
		s, ok := r.stores[fd.StoreSet]
		if !ok {
			r.diags.Errorf(mapping.CodeUnknownStoreSet, "", l, "fragment targets undeclared store set %s", fd.StoreSet)
		}
		f.StoreSet = s
	case needStore:
		r.diags.Errorf(mapping.CodeUnknownStoreSet, "", l, "fragment names no store set")
	}

	for _, pd := range fd.Properties {
		var p *mapping.Property
		for _, t := range mapped {
			if p = t.Property(pd.Property); p != nil {
				break
			}
		}
		if p == nil {
			r.diags.Errorf(mapping.CodeUnknownProperty, "", l, "fragment maps undeclared property %s", pd.Property)
			continue
		}
		if pm := r.propertyMapping(p, pd, f.StoreSet, l); pm != nil {
			f.Properties = append(f.Properties, pm)
		}
	}

	seen := make(map[string]bool, len(fd.Conditions))
	for i := range fd.Conditions {
		if c := r.condition(d, &fd.Conditions[i], f.StoreSet, seen); c != nil {
			f.Conditions = append(f.Conditions, c)
		}
	}
	return f
}

func (r *resolver) propertyMapping(p *mapping.Property, pd PropertyMappingDoc, s *mapping.StoreSet, l []mapping.SourceLocation) *mapping.PropertyMapping {
	pm := &mapping.PropertyMapping{Property: p}
	if p.Complex == nil {
		if s != nil {
			c := s.Column(pd.Column)
			if c == nil {
				r.diags.Errorf(mapping.CodeUnknownColumn, "", l, "property %s maps to undeclared column %s.%s", p.Name, s.Name, pd.Column)
				return nil
			}
			pm.Column = c
		}
		return pm
	}

	if len(pd.Complex) == 0 {
		r.diags.Errorf(mapping.CodeUnknownProperty, "", l, "complex property %s maps no members", p.Name)
		return nil
	}
	for _, nested := range pd.Complex {
		var np *mapping.Property
		for _, cp := range p.Complex.Properties {
			if cp.Name == nested.Property {
				np = cp
				break
			}
		}
		if np == nil {
			r.diags.Errorf(mapping.CodeUnknownProperty, "", l, "complex type %s has no property %s", p.Complex.Name, nested.Property)
			continue
		}
		if npm := r.propertyMapping(np, nested, s, l); npm != nil {
			pm.Complex = append(pm.Complex, npm)
		}
	}
	return pm
}

func (r *resolver) condition(d *Document, cd *ConditionDoc, s *mapping.StoreSet, seen map[string]bool) *mapping.ConditionMapping {
	l := loc(d, cd.Pos)
	ok := true
	if seen[cd.Column] {
		r.diags.Errorf(mapping.CodeDuplicateCondition, "", at(l), "column %s is conditioned twice in one fragment", cd.Column)
		ok = false
	}
	seen[cd.Column] = true
	if s != nil && s.Column(cd.Column) == nil {
		r.diags.Errorf(mapping.CodeUnknownColumn, "", at(l), "condition tests undeclared column %s.%s", s.Name, cd.Column)
		ok = false
	}

	c := &mapping.ConditionMapping{Column: cd.Column, Location: l}
	switch {
	case cd.Value != nil && cd.IsNull != nil:
		r.diags.Errorf(mapping.CodeConditionBothValues, "", at(l), "condition on %s has both a value and isNull", cd.Column)
		return nil
	case cd.Value != nil:
		c.Kind = mapping.ConditionEquals
		c.Value = *cd.Value
	case cd.IsNull != nil && *cd.IsNull:
		c.Kind = mapping.ConditionIsNull
	case cd.IsNull != nil:
		c.Kind = mapping.ConditionIsNotNull
	default:
		r.diags.Errorf(mapping.CodeConditionNoValue, "", at(l), "condition on %s has neither a value nor isNull", cd.Column)
		return nil
	}
	if !ok {
		return nil
	}
	return c
}
