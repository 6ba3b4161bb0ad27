package loader

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML (or JSON) mapping document.
func ParseYAML(file string, data []byte) (*Document, error) {
	doc := &Document{File: file}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, yamlError(file, err)
	}
	doc.File = file
	return doc, nil
}

func yamlError(file string, err error) error {
	var te *yaml.TypeError
	if errors.As(err, &te) {
		return &ParseError{File: file, Messages: te.Errors}
	}
	return &ParseError{File: file, Messages: []string{err.Error()}}
}

// Position-recording decoders. Each decodes through a method-less alias of
// its type so decoding does not recurse.

func (d *TypeDoc) UnmarshalYAML(n *yaml.Node) error {
	type raw TypeDoc
	if err := n.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = nodePos(n)
	return nil
}

func (d *ComplexTypeDoc) UnmarshalYAML(n *yaml.Node) error {
	type raw ComplexTypeDoc
	if err := n.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = nodePos(n)
	return nil
}

func (d *AssociationDoc) UnmarshalYAML(n *yaml.Node) error {
	type raw AssociationDoc
	if err := n.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = nodePos(n)
	return nil
}

func (d *StoreSetDoc) UnmarshalYAML(n *yaml.Node) error {
	type raw StoreSetDoc
	if err := n.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = nodePos(n)
	return nil
}

func (d *ContainerDoc) UnmarshalYAML(n *yaml.Node) error {
	type raw ContainerDoc
	if err := n.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = nodePos(n)
	return nil
}

func (d *SetDoc) UnmarshalYAML(n *yaml.Node) error {
	type raw SetDoc
	if err := n.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = nodePos(n)
	return nil
}

func (d *TypeMappingDoc) UnmarshalYAML(n *yaml.Node) error {
	type raw TypeMappingDoc
	if err := n.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = nodePos(n)
	return nil
}

func (d *FragmentDoc) UnmarshalYAML(n *yaml.Node) error {
	type raw FragmentDoc
	if err := n.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = nodePos(n)
	return nil
}

func (d *ConditionDoc) UnmarshalYAML(n *yaml.Node) error {
	type raw ConditionDoc
	if err := n.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = nodePos(n)
	return nil
}

func (d *FunctionImportDoc) UnmarshalYAML(n *yaml.Node) error {
	type raw FunctionImportDoc
	if err := n.Decode((*raw)(d)); err != nil {
		return err
	}
	d.Pos = nodePos(n)
	return nil
}
