package schema

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/leapstack-labs/dalc/pkg/core"
	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a schema definition.
type File struct {
	Types []TypeSpec `yaml:"types"`
}

// TypeSpec defines one type.
type TypeSpec struct {
	ID           string      `yaml:"id"`
	Name         string      `yaml:"name"`
	Label        string      `yaml:"label"`
	Table        string      `yaml:"table"`
	DefaultField string      `yaml:"defaultField"`
	Fields       []FieldSpec `yaml:"fields"`
}

// FieldSpec defines one field. Type is a core.Kind name.
type FieldSpec struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Label       string        `yaml:"label"`
	Column      string        `yaml:"column"`
	Type        string        `yaml:"type"`
	Target      string        `yaml:"target"`
	Inverse     string        `yaml:"inverse"`
	Linking     string        `yaml:"linking"`
	LinkSelf    string        `yaml:"linkSelf"`
	LinkForeign string        `yaml:"linkForeign"`
	Formula     []FormulaPart `yaml:"formula"`
}

// FormulaPart is one concatenated piece of a formula: a field or a text.
type FormulaPart struct {
	Field string  `yaml:"field"`
	Text  *string `yaml:"text"`
}

// LoadYAML reads a schema definition and builds a catalog from it.
func LoadYAML(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var spec File
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}

	types := make([]*core.Type, 0, len(spec.Types))
	for _, ts := range spec.Types {
		t, err := ts.build()
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return NewCatalog(types...)
}

// LoadFile reads a schema definition from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadYAML(f)
}

func (ts TypeSpec) build() (*core.Type, error) {
	t := &core.Type{
		ID:           ts.ID,
		Name:         ts.Name,
		Label:        ts.Label,
		Table:        ts.Table,
		DefaultField: ts.DefaultField,
	}
	for _, fs := range ts.Fields {
		kind, ok := core.ParseKind(fs.Type)
		if !ok {
			return nil, fmt.Errorf("type %s, field %s: unknown datatype %q", ts.Name, fs.Name, fs.Type)
		}
		dt := core.DataType{
			Kind:         kind,
			Target:       fs.Target,
			InverseField: fs.Inverse,
			Linking:      fs.Linking,
			LinkSelf:     fs.LinkSelf,
			LinkForeign:  fs.LinkForeign,
		}
		if kind == core.KindFormula {
			dt.Formula = buildFormula(fs.Formula)
		}
		t.Fields = append(t.Fields, &core.Field{
			ID:     fs.ID,
			Name:   fs.Name,
			Label:  fs.Label,
			Column: fs.Column,
			Type:   dt,
		})
	}
	return t, nil
}

func buildFormula(parts []FormulaPart) core.FormulaExpr {
	if len(parts) == 0 {
		return nil
	}
	exprs := make([]core.FormulaExpr, 0, len(parts))
	for _, p := range parts {
		if p.Text != nil {
			exprs = append(exprs, core.FormulaText{Value: *p.Text})
		} else {
			exprs = append(exprs, core.FormulaField{Field: p.Field})
		}
	}
	if len(exprs) == 1 {
		return exprs[0]
	}
	return core.FormulaConcat{Parts: exprs}
}
