// Package loader reads mapping documents and resolves them into a mapping
// closure.
//
// Documents are YAML (.yaml, .yml, .json) or CUE (.cue) files sharing one
// schema. Loading has two phases. Parsing decodes each file into a
// Document and records the source position of every set, type mapping,
// fragment, condition and function import. Resolving links names across
// all documents into a *mapping.Collection and reports every structural
// problem it finds as an E2xx diagnostic; it never stops at the first one.
//
// A minimal YAML document:
//
//	version: 3
//	types:
//	  - name: Model.Person
//	    key: [Id]
//	    properties:
//	      - {name: Id, type: Int32}
//	storeSets:
//	  - name: People
//	    columns:
//	      - {name: Id, type: int}
//	containers:
//	  - conceptual: Model
//	    store: Store
//	    sets:
//	      - name: People
//	        elementType: Model.Person
//	        typeMappings:
//	          - types: [Model.Person]
//	            fragments:
//	              - storeSet: People
//	                properties:
//	                  - {property: Id, column: Id}
package loader
