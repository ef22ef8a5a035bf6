package schema

import (
	"strings"

	"github.com/leapstack-labs/dalc/pkg/core"
)

// Step is one resolved segment of a property path.
type Step struct {
	Owner *core.Type
	Field *core.Field
}

// Leaf returns the field of the last step.
func Leaf(steps []Step) *core.Field {
	if len(steps) == 0 {
		return nil
	}
	return steps[len(steps)-1].Field
}

// Walk resolves a dotted property path starting at base. Every segment but
// the last must be a relationship field.
func Walk(r core.Resolver, base *core.Type, path string) ([]Step, error) {
	segments := strings.Split(path, ".")
	steps := make([]Step, 0, len(segments))
	owner := base
	for i, seg := range segments {
		f, ok := owner.Field(seg)
		if !ok {
			return nil, core.Schemaf([]string{path}, core.ErrUnknownField, seg, owner.Name)
		}
		steps = append(steps, Step{Owner: owner, Field: f})
		if i == len(segments)-1 {
			break
		}
		next, err := follow(r, owner, f, path)
		if err != nil {
			return nil, err
		}
		owner = next
	}
	return steps, nil
}

// WalkPIR resolves an id path starting at base and returns the equivalent
// dotted property path.
func WalkPIR(r core.Resolver, base *core.Type, pir core.PIR) (string, []Step, error) {
	if len(pir) == 0 {
		return "", nil, core.Schemaf(nil, core.ErrMissingPropertyRef)
	}
	steps := make([]Step, 0, len(pir))
	names := make([]string, 0, len(pir))
	owner := base
	for i, id := range pir {
		f, ok := owner.FieldByID(id)
		if !ok {
			return "", nil, core.Schemaf(nil, core.ErrUnknownFieldID, id, owner.Name)
		}
		steps = append(steps, Step{Owner: owner, Field: f})
		names = append(names, f.Name)
		if i == len(pir)-1 {
			break
		}
		next, err := follow(r, owner, f, strings.Join(names, "."))
		if err != nil {
			return "", nil, err
		}
		owner = next
	}
	return strings.Join(names, "."), steps, nil
}

// PIRFor returns the id path of a dotted property path.
func PIRFor(r core.Resolver, base *core.Type, path string) (core.PIR, []Step, error) {
	steps, err := Walk(r, base, path)
	if err != nil {
		return nil, nil, err
	}
	pir := make(core.PIR, len(steps))
	for i, s := range steps {
		pir[i] = s.Field.ID
	}
	return pir, steps, nil
}

func follow(r core.Resolver, owner *core.Type, f *core.Field, path string) (*core.Type, error) {
	if !f.Type.IsRelationship() {
		return nil, core.Schemaf([]string{path}, core.ErrNotRelationship, f.Name, owner.Name)
	}
	target, ok := r.TypeByName(f.Type.Target)
	if !ok {
		return nil, core.Schemaf([]string{path}, core.ErrUnknownType, f.Type.Target)
	}
	return target, nil
}

// IsCollectionPath reports whether any step of the path is to-many.
func IsCollectionPath(steps []Step) bool {
	for _, s := range steps {
		if s.Field.Type.IsCollection() {
			return true
		}
	}
	return false
}

// ResolveType looks a type up by its exact name, then qualified with
// basePackage, then qualified with systemPackage. The system package is
// only tried for unqualified names.
func ResolveType(r core.Resolver, name, basePackage, systemPackage string) (*core.Type, bool) {
	if t, ok := r.TypeByName(name); ok {
		return t, true
	}
	if basePackage != "" {
		if t, ok := r.TypeByName(basePackage + "." + name); ok {
			return t, true
		}
	}
	if systemPackage != "" && !strings.Contains(name, ".") {
		if t, ok := r.TypeByName(systemPackage + "." + name); ok {
			return t, true
		}
	}
	return nil, false
}

// CheckAggregate verifies that fn can be applied to field f.
func CheckAggregate(fn core.AggregateFunc, path string, f *core.Field) error {
	if fn.RequiresNumeric() && !f.Type.IsNumeric() {
		return core.Schemaf([]string{path}, core.ErrAggregateDatatype, fn, f.Type.Kind, path)
	}
	return nil
}
