// Package testutil provides mapping closure fixtures shared by tests.
//
// Fixtures are built programmatically so tests do not depend on the loader.
// Every call returns a fresh, independent closure; tests may mutate the
// returned fixture before handing it to the code under test.
package testutil

import "github.com/roach88/mapview/internal/mapping"

// People is a small polymorphic mapping:
//
//	Model.Person (abstract)
//	  Model.Employee  People.Kind = 'E'
//	  Model.Customer  People.Kind = 'C'
//	Model.Address     Addresses (no conditions)
//	Model.PersonAddress  foreign-key association Person(Id) -> Address(PersonId)
//
// Person and Address navigate to each other, so the closure graph contains
// cycles. Archive has a user-authored query view.
type People struct {
	Collection *mapping.Collection
	Container  *mapping.ContainerMapping

	Person, Employee, Customer, Address *mapping.EntityType
	PersonAddress                       *mapping.AssociationType

	PeopleStore, AddressStore *mapping.StoreSet

	PeopleSet, AddressSet, PersonAddressSet, ArchiveSet *mapping.SetMapping
	GetPeople                                           *mapping.FunctionImportMapping
}

// ArchiveView is the user-authored query view of the Archive set.
const ArchiveView = "SELECT VALUE Model.Employee(T.Id, T.Name, T.Salary) FROM Store.ArchivedPeople AS T"

// NewPeople builds the People fixture.
func NewPeople() *People {
	f := &People{}

	idProp := &mapping.Property{Name: "Id", TypeName: "Int32"}
	f.Person = &mapping.EntityType{
		Name:     "Model.Person",
		Abstract: true,
		Key:      []string{"Id"},
		Properties: []*mapping.Property{
			idProp,
			{Name: "Name", TypeName: "String", Nullable: true},
			{Name: "Version", TypeName: "Binary", ConcurrencyFixed: true},
		},
	}
	f.Employee = &mapping.EntityType{
		Name:       "Model.Employee",
		Base:       f.Person,
		Properties: []*mapping.Property{{Name: "Salary", TypeName: "Decimal", Nullable: true}},
	}
	f.Customer = &mapping.EntityType{
		Name:       "Model.Customer",
		Base:       f.Person,
		Properties: []*mapping.Property{{Name: "Rating", TypeName: "Int32", Nullable: true}},
	}
	f.Address = &mapping.EntityType{
		Name: "Model.Address",
		Key:  []string{"Id"},
		Properties: []*mapping.Property{
			{Name: "Id", TypeName: "Int32"},
			{Name: "PersonId", TypeName: "Int32", Nullable: true},
			{Name: "Street", TypeName: "String", Nullable: true},
		},
	}

	f.PersonAddress = &mapping.AssociationType{
		Name: "Model.PersonAddress",
		Ends: [2]*mapping.AssociationEnd{
			{Role: "Person", Type: f.Person, Multiplicity: mapping.MultiplicityZeroOrOne},
			{Role: "Address", Type: f.Address, Multiplicity: mapping.MultiplicityMany},
		},
		Constraint: &mapping.ReferentialConstraint{
			PrincipalRole:       "Person",
			DependentRole:       "Address",
			PrincipalProperties: []string{"Id"},
			DependentProperties: []string{"PersonId"},
		},
	}
	f.Person.NavigationProperties = []*mapping.NavigationProperty{
		{Name: "Addresses", Association: f.PersonAddress, FromRole: "Person", ToRole: "Address"},
	}
	f.Address.NavigationProperties = []*mapping.NavigationProperty{
		{Name: "Person", Association: f.PersonAddress, FromRole: "Address", ToRole: "Person"},
	}

	f.PeopleStore = &mapping.StoreSet{
		Name: "People",
		Columns: []*mapping.Column{
			{Name: "Id", TypeName: "int"},
			{Name: "Name", TypeName: "nvarchar", Nullable: true},
			{Name: "Version", TypeName: "rowversion"},
			{Name: "Kind", TypeName: "char", Nullable: true},
			{Name: "Salary", TypeName: "decimal", Nullable: true},
			{Name: "Rating", TypeName: "int", Nullable: true},
		},
	}
	f.AddressStore = &mapping.StoreSet{
		Name: "Addresses",
		Columns: []*mapping.Column{
			{Name: "Id", TypeName: "int"},
			{Name: "PersonId", TypeName: "int", Nullable: true},
			{Name: "Street", TypeName: "nvarchar", Nullable: true},
		},
	}

	f.PeopleSet = &mapping.SetMapping{
		Name:        "People",
		Kind:        mapping.SetKindEntity,
		ElementType: f.Person,
		TypeMappings: []*mapping.TypeMapping{
			f.personTypeMapping(f.Employee, "E", "Salary", 10),
			f.personTypeMapping(f.Customer, "C", "Rating", 20),
		},
		Location: mapping.SourceLocation{File: "people.yaml", Line: 5, Column: 3},
	}
	f.AddressSet = &mapping.SetMapping{
		Name:        "Addresses",
		Kind:        mapping.SetKindEntity,
		ElementType: f.Address,
		TypeMappings: []*mapping.TypeMapping{{
			Types: []*mapping.EntityType{f.Address},
			Fragments: []*mapping.Fragment{{
				StoreSet: f.AddressStore,
				Properties: []*mapping.PropertyMapping{
					f.scalar(f.Address, "Id", f.AddressStore, "Id"),
					f.scalar(f.Address, "PersonId", f.AddressStore, "PersonId"),
					f.scalar(f.Address, "Street", f.AddressStore, "Street"),
				},
			}},
		}},
	}
	f.PersonAddressSet = &mapping.SetMapping{
		Name:        "PersonAddresses",
		Kind:        mapping.SetKindAssociation,
		Association: f.PersonAddress,
		EndSets:     map[string]string{"Person": "People", "Address": "Addresses"},
	}
	f.ArchiveSet = &mapping.SetMapping{
		Name:        "Archive",
		Kind:        mapping.SetKindEntity,
		ElementType: f.Employee,
		QueryView:   ArchiveView,
	}
	f.GetPeople = &mapping.FunctionImportMapping{
		Name:       "GetPeople",
		Composable: true,
		ResultMappings: []*mapping.ResultMapping{{
			TypeMappings: []*mapping.TypeMapping{
				conditionalTypeMapping(f.Employee, "Kind", "E", 40),
				conditionalTypeMapping(f.Customer, "Kind", "C", 44),
			},
		}},
	}

	f.Container = &mapping.ContainerMapping{
		ConceptualContainer: "Model",
		StoreContainer:      "Store",
		Version:             mapping.LatestVersion,
		GenerateUpdateViews: true,
		Sets:                []*mapping.SetMapping{f.PeopleSet, f.AddressSet, f.PersonAddressSet, f.ArchiveSet},
		FunctionImports:     []*mapping.FunctionImportMapping{f.GetPeople},
	}

	h := mapping.NewHierarchy([]*mapping.EntityType{f.Person, f.Employee, f.Customer, f.Address})
	col, err := mapping.NewCollection(h, f.Container)
	if err != nil {
		panic(err)
	}
	col.StoreSets = []*mapping.StoreSet{f.PeopleStore, f.AddressStore}
	col.Assocs = []*mapping.AssociationType{f.PersonAddress}
	f.Collection = col
	return f
}

func (f *People) personTypeMapping(t *mapping.EntityType, kind, extra string, line int) *mapping.TypeMapping {
	return &mapping.TypeMapping{
		Types: []*mapping.EntityType{t},
		Fragments: []*mapping.Fragment{{
			StoreSet: f.PeopleStore,
			Properties: []*mapping.PropertyMapping{
				f.scalar(t, "Id", f.PeopleStore, "Id"),
				f.scalar(t, "Name", f.PeopleStore, "Name"),
				f.scalar(t, "Version", f.PeopleStore, "Version"),
				f.scalar(t, extra, f.PeopleStore, extra),
			},
			Conditions: []*mapping.ConditionMapping{{
				Column:   "Kind",
				Kind:     mapping.ConditionEquals,
				Value:    kind,
				Location: mapping.SourceLocation{File: "people.yaml", Line: line + 2, Column: 9},
			}},
			Location: mapping.SourceLocation{File: "people.yaml", Line: line + 1, Column: 7},
		}},
		Location: mapping.SourceLocation{File: "people.yaml", Line: line, Column: 5},
	}
}

func (f *People) scalar(t *mapping.EntityType, prop string, s *mapping.StoreSet, col string) *mapping.PropertyMapping {
	p := t.Property(prop)
	if p == nil {
		panic("testutil: unknown property " + t.Name + "." + prop)
	}
	c := s.Column(col)
	if c == nil {
		panic("testutil: unknown column " + s.Name + "." + col)
	}
	return &mapping.PropertyMapping{Property: p, Column: c}
}

func conditionalTypeMapping(t *mapping.EntityType, column, value string, line int) *mapping.TypeMapping {
	loc := mapping.SourceLocation{File: "people.yaml", Line: line, Column: 5}
	return &mapping.TypeMapping{
		Types: []*mapping.EntityType{t},
		Fragments: []*mapping.Fragment{{
			Conditions: []*mapping.ConditionMapping{{
				Column:   column,
				Kind:     mapping.ConditionEquals,
				Value:    value,
				Location: mapping.SourceLocation{File: "people.yaml", Line: line + 1, Column: 7},
			}},
			Location: loc,
		}},
		Location: loc,
	}
}

// Types creates concrete entity types named names with no base.
func Types(names ...string) []*mapping.EntityType {
	out := make([]*mapping.EntityType, len(names))
	for i, n := range names {
		out[i] = &mapping.EntityType{Name: n}
	}
	return out
}

// Equals returns an equality condition on column.
func Equals(column, value string, line int) *mapping.ConditionMapping {
	return &mapping.ConditionMapping{
		Column:   column,
		Kind:     mapping.ConditionEquals,
		Value:    value,
		Location: mapping.SourceLocation{Line: line, Column: 1},
	}
}

// IsNull returns an is-null condition on column.
func IsNull(column string, line int) *mapping.ConditionMapping {
	return &mapping.ConditionMapping{
		Column:   column,
		Kind:     mapping.ConditionIsNull,
		Location: mapping.SourceLocation{Line: line, Column: 1},
	}
}

// IsNotNull returns an is-not-null condition on column.
func IsNotNull(column string, line int) *mapping.ConditionMapping {
	return &mapping.ConditionMapping{
		Column:   column,
		Kind:     mapping.ConditionIsNotNull,
		Location: mapping.SourceLocation{Line: line, Column: 1},
	}
}

// Exact returns a type mapping for types with one fragment guarded by conds.
func Exact(types []*mapping.EntityType, line int, conds ...*mapping.ConditionMapping) *mapping.TypeMapping {
	loc := mapping.SourceLocation{Line: line, Column: 1}
	return &mapping.TypeMapping{
		Types:     types,
		Fragments: []*mapping.Fragment{{Conditions: conds, Location: loc}},
		Location:  loc,
	}
}

// IsOf returns an is-type-of mapping for t with one fragment guarded by conds.
func IsOf(t *mapping.EntityType, line int, conds ...*mapping.ConditionMapping) *mapping.TypeMapping {
	loc := mapping.SourceLocation{Line: line, Column: 1}
	return &mapping.TypeMapping{
		IsOfTypes: []*mapping.EntityType{t},
		Fragments: []*mapping.Fragment{{Conditions: conds, Location: loc}},
		Location:  loc,
	}
}
