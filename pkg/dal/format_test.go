package dal_test

import (
	"testing"

	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/dal"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "minimal",
			query: "select name from Pigeon",
			want:  "SELECT name FROM acme.Pigeon",
		},
		{
			name:  "wildcard is expanded",
			query: "SELECT * FROM Owner",
			want:  "SELECT name FROM acme.Owner",
		},
		{
			name:  "every clause",
			query: "select count(id), age from Pigeon where age > 3 and (name = 'Tom' or not name = 'Jerry') group by age order by age desc limit 5 offset 1",
			want:  "SELECT age, COUNT(id) FROM acme.Pigeon WHERE age > '3' AND (name = 'Tom' OR NOT name = 'Jerry') GROUP BY age ORDER BY age DESC LIMIT 5 OFFSET 1",
		},
		{
			name:  "in list and isnull",
			query: "SELECT name FROM Pigeon WHERE color IN ('grey', 'white') OR father ISNULL",
			want:  "SELECT name FROM acme.Pigeon WHERE color IN ('grey', 'white') OR father ISNULL",
		},
		{
			name:  "subquery",
			query: "SELECT id FROM Pigeon WHERE owner.id IN (SELECT id FROM Owner WHERE active = 'true')",
			want:  "SELECT id FROM acme.Pigeon WHERE owner.id IN (SELECT id FROM acme.Owner WHERE active = 'true')",
		},
		{
			name:  "negated group",
			query: "SELECT name FROM Pigeon WHERE NOT (age = 1 AND age = 2)",
			want:  "SELECT name FROM acme.Pigeon WHERE NOT (age = '1' AND age = '2')",
		},
		{
			name:  "quote escaping",
			query: `SELECT name FROM Pigeon WHERE name = 'O\'Brien'`,
			want:  `SELECT name FROM acme.Pigeon WHERE name = 'O\'Brien'`,
		},
		{
			name:  "backslash escaping",
			query: `SELECT name FROM Pigeon WHERE name IN ('C:\\', 'a\\\'b')`,
			want:  `SELECT name FROM acme.Pigeon WHERE name IN ('C:\\', 'a\\\'b')`,
		},
		{
			name:  "lone backslash is kept",
			query: `SELECT name FROM Pigeon WHERE name = 'a\nb'`,
			want:  `SELECT name FROM acme.Pigeon WHERE name = 'a\\nb'`,
		},
		{
			name:  "system type",
			query: "SELECT userName FROM User ORDER BY userName",
			want:  "SELECT userName FROM platform.basic.User ORDER BY userName ASC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompiler(t)
			crit, err := c.Compile(tt.query)
			require.NoError(t, err)

			text := dal.Format(crit)
			assert.Equal(t, tt.want, text)

			again, err := c.Compile(text)
			require.NoError(t, err)
			assert.Equal(t, crit, again)
		})
	}
}

func TestFormat_TypedValues(t *testing.T) {
	crit := compile(t, "SELECT name FROM Pigeon")
	crit.Where = &core.Junction{Op: core.OpAnd, Children: []core.Restriction{
		&core.Comparison{Op: core.OpGT, Property: "age", Value: int64(-3)},
		&core.Comparison{Op: core.OpLT, Property: "weight", Value: decimal.RequireFromString("1.5")},
		&core.In{Property: "age", Values: []any{int64(1), 2.5}},
	}}

	assert.Equal(t,
		"SELECT name FROM acme.Pigeon WHERE age > -3 AND weight < 1.5 AND age IN (1, 2.5)",
		dal.Format(crit))

	again, err := newCompiler(t).Compile(dal.Format(crit))
	require.NoError(t, err)
	assert.Equal(t, &core.Junction{Op: core.OpAnd, Children: []core.Restriction{
		&core.Comparison{Op: core.OpGT, Property: "age", Value: "-3"},
		&core.Comparison{Op: core.OpLT, Property: "weight", Value: "1.5"},
		&core.In{Property: "age", Values: []any{"1", "2.5"}},
	}}, again.Where)
}
