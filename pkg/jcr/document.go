// Package jcr converts criteria to and from JCR, the JSON form visual query
// builders exchange.
//
// Properties are referenced by PIR, the dotted list of field ids along the
// path, and optionally by name. A PIR survives field renames; when both are
// present they must agree. Restriction arguments are polymorphic: scalars
// are values, objects are nested restrictions under and/or/not and subquery
// documents under in.
package jcr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leapstack-labs/dalc/pkg/core"
)

// Document is a JCR document.
type Document struct {
	BaseTypeID   string        `json:"baseTypeId,omitempty"`
	BaseTypeName string        `json:"baseTypeName,omitempty"`
	Properties   []Property    `json:"properties,omitempty"`
	Groupings    []PropertyRef `json:"groupings,omitempty"`
	Restrictions []Restriction `json:"restrictions,omitempty"`
	Orderings    []Ordering    `json:"orderings,omitempty"`
	Limit        *int          `json:"limit,omitempty"`
	Offset       *int          `json:"offset,omitempty"`
}

// Property is a selected property, optionally wrapped in an aggregate
// function. Alias is the field's display label.
type Property struct {
	ID                core.PIR `json:"id,omitempty"`
	Name              string   `json:"name,omitempty"`
	Alias             string   `json:"alias,omitempty"`
	AggregateFunction string   `json:"aggregateFunction,omitempty"`
}

// PropertyRef references a property by PIR, by name or by both.
type PropertyRef struct {
	ID   core.PIR `json:"property_id,omitempty"`
	Name string   `json:"property_name,omitempty"`
}

// Ordering is a sort key.
type Ordering struct {
	PropertyRef
	SortDirection string `json:"sortDirection,omitempty"`
}

// Restriction is a restriction node. Operator is the wire name of a
// core.Operator ("eq", "and", "isnull", ...).
type Restriction struct {
	Operator string `json:"operator"`
	PropertyRef
	Args []Arg `json:"args,omitempty"`
}

// Arg is a restriction argument. Exactly one field is set.
type Arg struct {
	Value       any
	Restriction *Restriction
	Subquery    *Document
}

// MarshalJSON implements json.Marshaler.
func (a Arg) MarshalJSON() ([]byte, error) {
	switch {
	case a.Restriction != nil:
		return json.Marshal(a.Restriction)
	case a.Subquery != nil:
		return json.Marshal(a.Subquery)
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON implements json.Unmarshaler. Arguments depend on the
// operator, so they are decoded from raw messages.
func (r *Restriction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Operator string `json:"operator"`
		PropertyRef
		Args []json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Operator = raw.Operator
	r.PropertyRef = raw.PropertyRef
	r.Args = nil

	op, _ := core.OperatorByName(raw.Operator)
	for _, msg := range raw.Args {
		arg, skip, err := decodeArg(op, raw.Operator, msg)
		if err != nil {
			return err
		}
		if !skip {
			r.Args = append(r.Args, arg)
		}
	}
	return nil
}

// decodeArg decodes one argument by its JSON node type. Nulls are skipped.
func decodeArg(op core.Operator, opName string, msg json.RawMessage) (Arg, bool, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 {
		return Arg{}, true, nil
	}
	switch trimmed[0] {
	case '{':
		switch {
		case op.IsBoolean():
			var nested Restriction
			if err := json.Unmarshal(trimmed, &nested); err != nil {
				return Arg{}, false, err
			}
			return Arg{Restriction: &nested}, false, nil
		case op == core.OpIn:
			var sub Document
			if err := json.Unmarshal(trimmed, &sub); err != nil {
				return Arg{}, false, err
			}
			return Arg{Subquery: &sub}, false, nil
		}
		return Arg{}, false, structureError(opName, core.ErrUnexpectedObjectArg, opName)
	case '[':
		return Arg{}, false, structureError(opName, core.ErrUnsupportedArg, opName)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Arg{}, false, err
	}
	switch x := v.(type) {
	case nil:
		return Arg{}, true, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Arg{Value: i}, false, nil
		}
		f, err := x.Float64()
		if err != nil {
			return Arg{}, false, fmt.Errorf("invalid number %s: %w", x, err)
		}
		return Arg{Value: f}, false, nil
	}
	return Arg{Value: v}, false, nil
}

// structureError reports a malformed document. Documents have no source
// positions, so only the fragment is set.
func structureError(fragment, format string, args ...any) *core.SyntaxError {
	return &core.SyntaxError{Fragment: fragment, Message: fmt.Sprintf(format, args...)}
}

// Unmarshal decodes a JCR document.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		var syntaxErr *core.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, syntaxErr
		}
		return nil, fmt.Errorf("failed to decode JCR document: %w", err)
	}
	return &doc, nil
}

// Marshal encodes a JCR document as indented JSON.
func Marshal(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
