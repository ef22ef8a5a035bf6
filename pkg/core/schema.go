package core

import "strings"

// Kind is the datatype family of a field.
type Kind int

// Datatype kinds.
const (
	KindText Kind = iota + 1
	KindNumber
	KindBoolean
	KindDate
	KindDateTime
	KindID
	KindEnumeration
	KindEmail
	KindReference         // to-one link to another type
	KindInverseCollection // to-many, the target holds a reference back
	KindAssociation       // to-many through a linking type
	KindFormula           // computed text expression over sibling fields
)

var kindNames = map[Kind]string{
	KindText:              "text",
	KindNumber:            "number",
	KindBoolean:           "boolean",
	KindDate:              "date",
	KindDateTime:          "datetime",
	KindID:                "id",
	KindEnumeration:       "enumeration",
	KindEmail:             "email",
	KindReference:         "reference",
	KindInverseCollection: "inverse",
	KindAssociation:       "association",
	KindFormula:           "formula",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind returns the kind with the given name, case-insensitively.
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(s)
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// DataType describes the values a field holds.
type DataType struct {
	Kind Kind

	// Target is the qualified name of the related type for reference,
	// inverse collection and association fields.
	Target string
	// InverseField names the reference field on Target that points back at
	// the owner of an inverse collection.
	InverseField string
	// Linking names the linking type of an association. LinkSelf and
	// LinkForeign are the reference fields on it pointing to the owner and
	// to Target respectively.
	Linking     string
	LinkSelf    string
	LinkForeign string

	// Formula is the stored expression of a formula field.
	Formula FormulaExpr
}

// IsRelationship reports whether the field points at another type.
func (d DataType) IsRelationship() bool {
	switch d.Kind {
	case KindReference, KindInverseCollection, KindAssociation:
		return true
	}
	return false
}

// IsCollection reports whether the field is to-many.
func (d DataType) IsCollection() bool {
	return d.Kind == KindInverseCollection || d.Kind == KindAssociation
}

// IsPrimitive reports whether the field holds a scalar value.
func (d DataType) IsPrimitive() bool {
	return d.Kind != 0 && !d.IsRelationship()
}

// IsNumeric reports whether the field holds numbers.
func (d DataType) IsNumeric() bool {
	return d.Kind == KindNumber
}

// IsTextual reports whether values are stored as character data.
func (d DataType) IsTextual() bool {
	switch d.Kind {
	case KindText, KindEmail, KindEnumeration, KindFormula:
		return true
	}
	return false
}

// FormulaExpr is a node of a formula field's stored expression tree.
type FormulaExpr interface {
	formulaExpr()
}

// FormulaField references a sibling field by name.
type FormulaField struct {
	Field string
}

// FormulaText is a literal text fragment.
type FormulaText struct {
	Value string
}

// FormulaConcat concatenates its parts in order.
type FormulaConcat struct {
	Parts []FormulaExpr
}

func (FormulaField) formulaExpr()  {}
func (FormulaText) formulaExpr()   {}
func (FormulaConcat) formulaExpr() {}

// Field is a single field of a type.
type Field struct {
	ID     string
	Name   string // API name used in DAL paths
	Label  string // display label
	Column string // physical column
	Type   DataType
}

// Type is a runtime-defined record type.
type Type struct {
	ID           string
	Name         string // qualified API name, e.g. "acme.Pigeon"
	Label        string
	Table        string
	DefaultField string
	Fields       []*Field
}

// IDFieldName is the name of the row identifier present on every type.
const IDFieldName = "id"

// Field returns the field with the given API name.
func (t *Type) Field(name string) (*Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// FieldByID returns the field with the given identifier.
func (t *Type) FieldByID(id string) (*Field, bool) {
	for _, f := range t.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// IDField returns the row identifier field.
func (t *Type) IDField() *Field {
	f, _ := t.Field(IDFieldName)
	return f
}

// ShortName returns the type name without its package.
func (t *Type) ShortName() string {
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// Resolver looks up type metadata. Implementations must be safe for
// concurrent reads and stay consistent for the duration of one compilation.
type Resolver interface {
	TypeByName(name string) (*Type, bool)
	TypeByID(id string) (*Type, bool)
}
