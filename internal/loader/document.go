package loader

import (
	"gopkg.in/yaml.v3"
)

// Pos is a line and column within a document, 1-based. The zero Pos means
// unknown.
type Pos struct {
	Line   int
	Column int
}

func nodePos(n *yaml.Node) Pos {
	return Pos{Line: n.Line, Column: n.Column}
}

// Document is one parsed mapping file.
type Document struct {
	// File is the path the document was read from.
	File string `json:"-" yaml:"-"`

	Version      int              `json:"version,omitempty" yaml:"version,omitempty"`
	Types        []TypeDoc        `json:"types,omitempty" yaml:"types,omitempty"`
	ComplexTypes []ComplexTypeDoc `json:"complexTypes,omitempty" yaml:"complexTypes,omitempty"`
	Associations []AssociationDoc `json:"associations,omitempty" yaml:"associations,omitempty"`
	StoreSets    []StoreSetDoc    `json:"storeSets,omitempty" yaml:"storeSets,omitempty"`
	Containers   []ContainerDoc   `json:"containers,omitempty" yaml:"containers,omitempty"`
}

// TypeDoc declares an entity type.
type TypeDoc struct {
	Name        string          `json:"name" yaml:"name"`
	Abstract    bool            `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Base        string          `json:"base,omitempty" yaml:"base,omitempty"`
	Key         []string        `json:"key,omitempty" yaml:"key,omitempty"`
	Properties  []PropertyDoc   `json:"properties,omitempty" yaml:"properties,omitempty"`
	Navigations []NavigationDoc `json:"navigations,omitempty" yaml:"navigations,omitempty"`
	Pos         Pos             `json:"-" yaml:"-"`
}

// ComplexTypeDoc declares a complex type.
type ComplexTypeDoc struct {
	Name       string        `json:"name" yaml:"name"`
	Properties []PropertyDoc `json:"properties,omitempty" yaml:"properties,omitempty"`
	Pos        Pos           `json:"-" yaml:"-"`
}

// PropertyDoc declares a property. Complex names a complex type and makes
// the property complex-valued.
type PropertyDoc struct {
	Name             string `json:"name" yaml:"name"`
	Type             string `json:"type,omitempty" yaml:"type,omitempty"`
	Nullable         bool   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	ConcurrencyFixed bool   `json:"concurrencyFixed,omitempty" yaml:"concurrencyFixed,omitempty"`
	Complex          string `json:"complex,omitempty" yaml:"complex,omitempty"`
}

// NavigationDoc declares a navigation property.
type NavigationDoc struct {
	Name        string `json:"name" yaml:"name"`
	Association string `json:"association" yaml:"association"`
	From        string `json:"from" yaml:"from"`
	To          string `json:"to" yaml:"to"`
}

// AssociationDoc declares an association type.
type AssociationDoc struct {
	Name       string         `json:"name" yaml:"name"`
	Ends       []EndDoc       `json:"ends" yaml:"ends"`
	Constraint *ConstraintDoc `json:"constraint,omitempty" yaml:"constraint,omitempty"`
	Pos        Pos            `json:"-" yaml:"-"`
}

// EndDoc declares one association end.
type EndDoc struct {
	Role         string `json:"role" yaml:"role"`
	Type         string `json:"type" yaml:"type"`
	Multiplicity string `json:"multiplicity" yaml:"multiplicity"`
}

// ConstraintDoc declares a referential constraint.
type ConstraintDoc struct {
	Principal           string   `json:"principal" yaml:"principal"`
	Dependent           string   `json:"dependent" yaml:"dependent"`
	PrincipalProperties []string `json:"principalProperties" yaml:"principalProperties"`
	DependentProperties []string `json:"dependentProperties" yaml:"dependentProperties"`
}

// StoreSetDoc declares a store table or view.
type StoreSetDoc struct {
	Name    string      `json:"name" yaml:"name"`
	Columns []ColumnDoc `json:"columns,omitempty" yaml:"columns,omitempty"`
	Pos     Pos         `json:"-" yaml:"-"`
}

// ColumnDoc declares a store column.
type ColumnDoc struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Nullable bool   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
}

// ContainerDoc maps a conceptual container onto a store container.
type ContainerDoc struct {
	Conceptual          string              `json:"conceptual" yaml:"conceptual"`
	Store               string              `json:"store" yaml:"store"`
	GenerateUpdateViews bool                `json:"generateUpdateViews,omitempty" yaml:"generateUpdateViews,omitempty"`
	Sets                []SetDoc            `json:"sets,omitempty" yaml:"sets,omitempty"`
	FunctionImports     []FunctionImportDoc `json:"functionImports,omitempty" yaml:"functionImports,omitempty"`
	Pos                 Pos                 `json:"-" yaml:"-"`
}

// SetDoc maps one conceptual set. Kind defaults to "entity".
type SetDoc struct {
	Name           string            `json:"name" yaml:"name"`
	Kind           string            `json:"kind,omitempty" yaml:"kind,omitempty"`
	ElementType    string            `json:"elementType,omitempty" yaml:"elementType,omitempty"`
	Association    string            `json:"association,omitempty" yaml:"association,omitempty"`
	EndSets        map[string]string `json:"endSets,omitempty" yaml:"endSets,omitempty"`
	QueryView      string            `json:"queryView,omitempty" yaml:"queryView,omitempty"`
	TypeQueryViews []TypeViewDoc     `json:"typeQueryViews,omitempty" yaml:"typeQueryViews,omitempty"`
	TypeMappings   []TypeMappingDoc  `json:"typeMappings,omitempty" yaml:"typeMappings,omitempty"`
	Pos            Pos               `json:"-" yaml:"-"`
}

// TypeViewDoc is a user-authored view of a set restricted to one type.
type TypeViewDoc struct {
	Type            string `json:"type" yaml:"type"`
	IncludeSubtypes bool   `json:"includeSubtypes,omitempty" yaml:"includeSubtypes,omitempty"`
	View            string `json:"view" yaml:"view"`
}

// TypeMappingDoc maps a group of types.
type TypeMappingDoc struct {
	Types     []string      `json:"types,omitempty" yaml:"types,omitempty"`
	IsOfTypes []string      `json:"isOfTypes,omitempty" yaml:"isOfTypes,omitempty"`
	Fragments []FragmentDoc `json:"fragments,omitempty" yaml:"fragments,omitempty"`
	Pos       Pos           `json:"-" yaml:"-"`
}

// FragmentDoc maps properties onto one store set.
type FragmentDoc struct {
	StoreSet   string               `json:"storeSet,omitempty" yaml:"storeSet,omitempty"`
	Distinct   bool                 `json:"distinct,omitempty" yaml:"distinct,omitempty"`
	Properties []PropertyMappingDoc `json:"properties,omitempty" yaml:"properties,omitempty"`
	Conditions []ConditionDoc       `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Pos        Pos                  `json:"-" yaml:"-"`
}

// PropertyMappingDoc maps a property onto a column, or a complex property
// onto nested mappings.
type PropertyMappingDoc struct {
	Property string               `json:"property" yaml:"property"`
	Column   string               `json:"column,omitempty" yaml:"column,omitempty"`
	Complex  []PropertyMappingDoc `json:"complex,omitempty" yaml:"complex,omitempty"`
}

// ConditionDoc tests a column. Exactly one of Value and IsNull must be set;
// isNull: false means "is not null".
type ConditionDoc struct {
	Column string  `json:"column" yaml:"column"`
	Value  *string `json:"value,omitempty" yaml:"value,omitempty"`
	IsNull *bool   `json:"isNull,omitempty" yaml:"isNull,omitempty"`
	Pos    Pos     `json:"-" yaml:"-"`
}

// FunctionImportDoc maps a function import's result rows onto types.
type FunctionImportDoc struct {
	Name       string      `json:"name" yaml:"name"`
	Composable bool        `json:"composable,omitempty" yaml:"composable,omitempty"`
	Results    []ResultDoc `json:"results,omitempty" yaml:"results,omitempty"`
	Pos        Pos         `json:"-" yaml:"-"`
}

// ResultDoc is one result set of a function import.
type ResultDoc struct {
	TypeMappings []TypeMappingDoc `json:"typeMappings,omitempty" yaml:"typeMappings,omitempty"`
}
