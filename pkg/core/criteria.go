package core

import (
	"sort"
	"strconv"
	"strings"
)

// BaseAlias is the SQL alias of the queried type's table.
const BaseAlias = "this"

// AggregateFunc is an aggregate function applicable to a select property.
type AggregateFunc int

// Aggregate functions.
const (
	Count AggregateFunc = iota + 1
	Sum
	Avg
	Min
	Max
)

func (f AggregateFunc) String() string {
	switch f {
	case Count:
		return "COUNT"
	case Sum:
		return "SUM"
	case Avg:
		return "AVG"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	}
	return ""
}

// RequiresNumeric reports whether the function only applies to numbers.
func (f AggregateFunc) RequiresNumeric() bool {
	return f != Count
}

// LookupAggregate returns the aggregate function with the given name,
// case-insensitively.
func LookupAggregate(name string) (AggregateFunc, bool) {
	switch strings.ToUpper(name) {
	case "COUNT":
		return Count, true
	case "SUM":
		return Sum, true
	case "AVG":
		return Avg, true
	case "MIN":
		return Min, true
	case "MAX":
		return Max, true
	}
	return 0, false
}

// AggregateCall applies an aggregate function to a property path.
type AggregateCall struct {
	Func     AggregateFunc
	Property string
}

func (a AggregateCall) String() string {
	return a.Func.String() + "(" + a.Property + ")"
}

// Direction is a sort direction.
type Direction int

// Sort directions.
const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// ParseDirection parses ASC or DESC, case-insensitively.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(s) {
	case "ASC":
		return Asc, true
	case "DESC":
		return Desc, true
	}
	return Asc, false
}

// Ordering is one ORDER BY term.
type Ordering struct {
	Property  string
	Direction Direction
}

// Criteria is a compiled query.
type Criteria struct {
	Type       *Type
	Properties []string
	Aggregates []AggregateCall
	Where      Restriction
	GroupBy    []string
	OrderBy    []Ordering
	Limit      *int
	Offset     *int

	// Aliases maps every strict prefix of a multi-segment property path to
	// the SQL alias of the joined table.
	Aliases map[string]string

	// Subquery marks a criteria compiled as the argument of IN.
	Subquery bool
}

// NewCriteria returns an empty criteria over t.
func NewCriteria(t *Type) *Criteria {
	return &Criteria{Type: t, Aliases: make(map[string]string)}
}

// LinkSuffix is appended to an association's alias to name its linking
// table join.
const LinkSuffix = "_link"

// AliasFor returns the preferred join alias for a path prefix.
func AliasFor(prefix string) string {
	alias := strings.ReplaceAll(prefix, ".", "_")
	if alias == BaseAlias {
		alias += "_"
	}
	return alias
}

// reserveAlias returns candidate, or candidate with a numeric suffix, such
// that neither the alias nor its linking alias is in taken, and marks both.
func reserveAlias(candidate string, taken map[string]bool) string {
	alias := candidate
	for n := 2; taken[alias] || taken[alias+LinkSuffix]; n++ {
		alias = candidate + "_" + strconv.Itoa(n)
	}
	taken[alias] = true
	taken[alias+LinkSuffix] = true
	return alias
}

// AddPath registers join aliases for every strict prefix of path.
// Aliases are reassigned over all registered prefixes in JoinPaths order,
// so the result does not depend on the order paths are added.
func (c *Criteria) AddPath(path string) {
	if c.Aliases == nil {
		c.Aliases = make(map[string]string)
	}
	added := false
	for i := 0; i < len(path); i++ {
		if path[i] != '.' {
			continue
		}
		prefix := path[:i]
		if _, ok := c.Aliases[prefix]; !ok {
			c.Aliases[prefix] = ""
			added = true
		}
	}
	if !added {
		return
	}
	taken := map[string]bool{BaseAlias: true}
	for _, p := range c.JoinPaths() {
		c.Aliases[p] = reserveAlias(AliasFor(p), taken)
	}
}

// JoinPaths returns the aliased prefixes, parents before children.
func (c *Criteria) JoinPaths() []string {
	paths := make([]string, 0, len(c.Aliases))
	for p := range c.Aliases {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		di, dj := strings.Count(paths[i], "."), strings.Count(paths[j], ".")
		if di != dj {
			return di < dj
		}
		return paths[i] < paths[j]
	})
	return paths
}

// Paths returns every property path the query references outside of
// subqueries: selected properties, aggregate arguments, restriction leaves,
// grouping keys and orderings.
func (c *Criteria) Paths() []string {
	out := append([]string(nil), c.Properties...)
	for _, a := range c.Aggregates {
		out = append(out, a.Property)
	}
	if c.Where != nil {
		out = append(out, Properties(c.Where)...)
	}
	out = append(out, c.GroupBy...)
	for _, o := range c.OrderBy {
		out = append(out, o.Property)
	}
	return out
}

// HasAggregation reports whether the query aggregates or groups rows.
func (c *Criteria) HasAggregation() bool {
	return len(c.Aggregates) > 0 || len(c.GroupBy) > 0
}

// CheckGrouping requires every selected plain property to be a grouping key
// whenever the query aggregates or groups. Only selected properties are
// checked; grouping keys that are not selected are allowed.
func CheckGrouping(c *Criteria) error {
	if !c.HasAggregation() || len(c.Properties) == 0 {
		return nil
	}
	grouped := make(map[string]bool, len(c.GroupBy))
	for _, g := range c.GroupBy {
		grouped[g] = true
	}
	var offending []string
	for _, p := range c.Properties {
		if !grouped[p] {
			offending = append(offending, p)
		}
	}
	if len(offending) == 0 {
		return nil
	}
	return &SchemaError{
		Message: sprintf(ErrNotGrouped, strings.Join(offending, ", ")),
		Fields:  offending,
	}
}
