package core

// Restriction is a node of a WHERE-clause boolean expression tree.
// The set of implementations is closed: Comparison, IsNull, In, Junction
// and Not.
type Restriction interface {
	restrictionNode()
}

// Comparison compares a property with a single value.
// Op is one of =, <>, >, >=, <, <=, LIKE, ILIKE.
type Comparison struct {
	Op       Operator
	Property string
	Value    any
}

// IsNull matches rows where the property has no value.
type IsNull struct {
	Property string
}

// In matches rows where the property is one of Values, or one of the rows
// returned by Subquery. Exactly one of the two is set.
type In struct {
	Property string
	Values   []any
	Subquery *Criteria
}

// Junction is an n-ary AND or OR.
type Junction struct {
	Op       Operator
	Children []Restriction
}

// Not negates its child.
type Not struct {
	Child Restriction
}

func (*Comparison) restrictionNode() {}
func (*IsNull) restrictionNode()     {}
func (*In) restrictionNode()         {}
func (*Junction) restrictionNode()   {}
func (*Not) restrictionNode()        {}

// PropertyOf returns the property a leaf restriction refers to.
func PropertyOf(r Restriction) (string, bool) {
	switch n := r.(type) {
	case *Comparison:
		return n.Property, true
	case *IsNull:
		return n.Property, true
	case *In:
		return n.Property, true
	}
	return "", false
}

// OperatorOf returns the operator of any restriction node.
func OperatorOf(r Restriction) Operator {
	switch n := r.(type) {
	case *Comparison:
		return n.Op
	case *IsNull:
		return OpIsNull
	case *In:
		return OpIn
	case *Junction:
		return n.Op
	case *Not:
		return OpNot
	}
	return 0
}

// Walk visits r and its descendants depth-first. Returning false from fn
// skips the children of the current node. Subqueries are not entered.
func Walk(r Restriction, fn func(Restriction) bool) {
	if r == nil || !fn(r) {
		return
	}
	switch n := r.(type) {
	case *Junction:
		for _, c := range n.Children {
			Walk(c, fn)
		}
	case *Not:
		Walk(n.Child, fn)
	}
}

// Properties returns the distinct properties referenced by the leaves of r
// in first-seen order.
func Properties(r Restriction) []string {
	var out []string
	seen := make(map[string]bool)
	Walk(r, func(n Restriction) bool {
		if p, ok := PropertyOf(n); ok && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
		return true
	})
	return out
}
