package mapping

// EntityType is a conceptual entity type.
//
// Base is nil for hierarchy roots. Subtypes are not stored on the type; use
// Hierarchy to find them.
type EntityType struct {
	Name                 string
	Abstract             bool
	Base                 *EntityType
	Key                  []string
	Properties           []*Property
	NavigationProperties []*NavigationProperty
}

// Property returns the property with the given name, searching base types.
func (t *EntityType) Property(name string) *Property {
	for cur := t; cur != nil; cur = cur.Base {
		for _, p := range cur.Properties {
			if p.Name == name {
				return p
			}
		}
	}
	return nil
}

// EffectiveKey returns the key declared on t or on its nearest base.
func (t *EntityType) EffectiveKey() []string {
	for cur := t; cur != nil; cur = cur.Base {
		if len(cur.Key) > 0 {
			return cur.Key
		}
	}
	return nil
}

// IsSubtypeOf reports whether t equals other or derives from it.
func (t *EntityType) IsSubtypeOf(other *EntityType) bool {
	for cur := t; cur != nil; cur = cur.Base {
		if cur == other {
			return true
		}
	}
	return false
}

// ComplexType is a conceptual structural type without identity.
type ComplexType struct {
	Name       string
	Properties []*Property
}

// Property is a scalar or complex-valued member of a structural type.
// Exactly one of TypeName and Complex is meaningful.
type Property struct {
	Name             string
	TypeName         string
	Nullable         bool
	ConcurrencyFixed bool
	Complex          *ComplexType
}

// NavigationProperty points from an entity type through an association.
type NavigationProperty struct {
	Name        string
	Association *AssociationType
	FromRole    string
	ToRole      string
}

// Multiplicity of an association end.
type Multiplicity string

// Association end multiplicities.
const (
	MultiplicityZeroOrOne Multiplicity = "0..1"
	MultiplicityOne       Multiplicity = "1"
	MultiplicityMany      Multiplicity = "*"
)

// ValidMultiplicities defines allowed multiplicity strings.
var ValidMultiplicities = map[Multiplicity]bool{
	MultiplicityZeroOrOne: true,
	MultiplicityOne:       true,
	MultiplicityMany:      true,
}

// AssociationType relates two entity types.
type AssociationType struct {
	Name       string
	Ends       [2]*AssociationEnd
	Constraint *ReferentialConstraint
}

// End returns the end playing role, or nil.
func (a *AssociationType) End(role string) *AssociationEnd {
	for _, e := range a.Ends {
		if e != nil && e.Role == role {
			return e
		}
	}
	return nil
}

// AssociationEnd is one side of an association.
type AssociationEnd struct {
	Role         string
	Type         *EntityType
	Multiplicity Multiplicity
}

// ReferentialConstraint describes a foreign-key shaped association: the
// dependent end carries properties referencing the principal end's key.
type ReferentialConstraint struct {
	PrincipalRole       string
	DependentRole       string
	PrincipalProperties []string
	DependentProperties []string
}

// StoreSet is a store (S-space) table or view.
type StoreSet struct {
	Name    string
	Columns []*Column
}

// Column returns the column with the given name, or nil.
func (s *StoreSet) Column(name string) *Column {
	for _, c := range s.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Column is a store column.
type Column struct {
	Name     string
	TypeName string
	Nullable bool
}

// SetKind distinguishes entity set mappings from association set mappings.
type SetKind string

// Set mapping kinds.
const (
	SetKindEntity      SetKind = "entity"
	SetKindAssociation SetKind = "association"
)

// ContainerMapping is the root of a mapping closure: one conceptual
// container mapped to one store container.
type ContainerMapping struct {
	ConceptualContainer string
	StoreContainer      string
	Version             Version
	GenerateUpdateViews bool
	Sets                []*SetMapping
	FunctionImports     []*FunctionImportMapping
}

// Set returns the set mapping named name (unqualified), or nil.
func (c *ContainerMapping) Set(name string) *SetMapping {
	for _, s := range c.Sets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// QualifiedName returns "Container.Set" for a set mapped by c.
func (c *ContainerMapping) QualifiedName(set string) string {
	return c.ConceptualContainer + "." + set
}

// SetMapping maps one conceptual set.
//
// QueryView holds a user-authored whole-set view; TypeQueryViews holds
// user-authored type-specific views keyed by ViewKey. A set with a QueryView
// has no TypeMappings.
type SetMapping struct {
	Name           string
	Kind           SetKind
	ElementType    *EntityType
	Association    *AssociationType
	EndSets        map[string]string // association role -> entity set name
	QueryView      string
	TypeQueryViews map[ViewKey]string
	TypeMappings   []*TypeMapping
	Location       SourceLocation
}

// IsForeignKeyAssociation reports whether the set is an association set
// whose shape is fully given by a referential constraint, with no store
// fragments of its own.
func (s *SetMapping) IsForeignKeyAssociation() bool {
	return s.Kind == SetKindAssociation &&
		s.Association != nil &&
		s.Association.Constraint != nil &&
		len(s.TypeMappings) == 0 &&
		s.QueryView == ""
}

// TypeMapping maps a group of conceptual types. Types are mapped exactly;
// IsOfTypes are mapped together with all of their subtypes. Both are kept in
// declaration order.
type TypeMapping struct {
	Types     []*EntityType
	IsOfTypes []*EntityType
	Fragments []*Fragment
	Location  SourceLocation
}

// Fragment maps properties of a type mapping onto one store set, guarded by
// conditions over store columns.
type Fragment struct {
	StoreSet   *StoreSet
	Distinct   bool
	Properties []*PropertyMapping
	Conditions []*ConditionMapping
	Location   SourceLocation
}

// PropertyMapping maps a conceptual property onto a store column, or onto a
// nested set of mappings for complex-valued properties.
type PropertyMapping struct {
	Property *Property
	Column   *Column
	Complex  []*PropertyMapping
}

// ConditionKind is the kind of test a condition applies to its column.
type ConditionKind int

// Condition kinds.
const (
	ConditionDontCare ConditionKind = iota
	ConditionEquals
	ConditionIsNull
	ConditionIsNotNull
)

// String returns a stable name for the kind.
func (k ConditionKind) String() string {
	switch k {
	case ConditionEquals:
		return "equals"
	case ConditionIsNull:
		return "is-null"
	case ConditionIsNotNull:
		return "is-not-null"
	default:
		return "dont-care"
	}
}

// ConditionMapping guards a fragment with a test on a store column.
// Value is only meaningful for ConditionEquals.
type ConditionMapping struct {
	Column   string
	Kind     ConditionKind
	Value    string
	Location SourceLocation
}

// FunctionImportMapping maps a conceptual function onto a store function
// whose result rows may produce several entity types.
type FunctionImportMapping struct {
	Name           string
	Composable     bool
	ResultMappings []*ResultMapping
	Location       SourceLocation
}

// ResultMapping maps one result set of a function import. Each type mapping
// asserts a conjunction of conditions (in its single fragment) and implies
// its types.
type ResultMapping struct {
	TypeMappings []*TypeMapping
}
