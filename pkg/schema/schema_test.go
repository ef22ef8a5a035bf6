package schema_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/leapstack-labs/dalc/internal/testutil"
	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAML_Fixture(t *testing.T) {
	c := testutil.Catalog(t)

	pigeon, ok := c.TypeByName("acme.Pigeon")
	require.True(t, ok)
	assert.Equal(t, "pigeons", pigeon.Table)
	assert.Equal(t, "Pigeon", pigeon.Label)

	byID, ok := c.TypeByID(pigeon.ID)
	require.True(t, ok)
	assert.Same(t, pigeon, byID)

	title, ok := pigeon.Field("title")
	require.True(t, ok)
	assert.Equal(t, "Display Title", title.Label)
	assert.Equal(t, core.FormulaConcat{Parts: []core.FormulaExpr{
		core.FormulaField{Field: "name"},
		core.FormulaText{Value: " ("},
		core.FormulaField{Field: "color"},
		core.FormulaText{Value: ")"},
	}}, title.Type.Formula)

	father, _ := pigeon.Field("father")
	assert.Equal(t, "Father", father.Label)
	assert.Equal(t, "father_id", father.Column)

	names := make([]string, 0)
	for _, typ := range c.Types() {
		names = append(names, typ.Name)
	}
	assert.Equal(t, []string{"acme.Club", "acme.ClubMembership", "acme.Owner", "acme.Pigeon", "platform.basic.User"}, names)
}

func TestNewCatalog_Defaults(t *testing.T) {
	typ := &core.Type{
		Name: "shop.OrderLine",
		Fields: []*core.Field{
			{Name: "unitPrice", Type: core.DataType{Kind: core.KindNumber}},
		},
	}
	c, err := schema.NewCatalog(typ)
	require.NoError(t, err)

	got, ok := c.TypeByName("shop.OrderLine")
	require.True(t, ok)
	assert.Equal(t, "orderline", got.Table)
	assert.Equal(t, "OrderLine", got.Label)

	id := got.IDField()
	require.NotNil(t, id, "id field is added")
	assert.Equal(t, "id", id.Column)

	price, _ := got.Field("unitPrice")
	assert.Equal(t, "unitprice", price.Column)
	assert.Equal(t, "UnitPrice", price.Label)
	_, err = uuid.Parse(price.ID)
	assert.NoError(t, err, "derived ids are uuids")

	// Derivation is deterministic.
	again := &core.Type{Name: "shop.OrderLine", Fields: []*core.Field{{Name: "unitPrice", Type: core.DataType{Kind: core.KindNumber}}}}
	_, err = schema.NewCatalog(again)
	require.NoError(t, err)
	assert.Equal(t, got.ID, again.ID)
	assert.Equal(t, price.ID, again.Fields[1].ID)
}

func TestLoadYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown datatype",
			yaml:    "types:\n  - name: a.T\n    fields:\n      - {name: x, type: blob}\n",
			wantErr: `unknown datatype "blob"`,
		},
		{
			name:    "unknown target",
			yaml:    "types:\n  - name: a.T\n    fields:\n      - {name: x, type: reference, target: a.Missing}\n",
			wantErr: `unknown target type "a.Missing"`,
		},
		{
			name:    "bad inverse",
			yaml:    "types:\n  - name: a.T\n    fields:\n      - {name: kids, type: inverse, target: a.T, inverse: nope}\n",
			wantErr: "inverse field a.T.nope must reference a.T",
		},
		{
			name:    "formula unknown field",
			yaml:    "types:\n  - name: a.T\n    fields:\n      - name: f\n        type: formula\n        formula: [{field: ghost}]\n",
			wantErr: "formula references unknown field ghost",
		},
		{
			name:    "default field missing",
			yaml:    "types:\n  - name: a.T\n    defaultField: nope\n",
			wantErr: "default field nope is not a scalar field",
		},
		{
			name:    "duplicate type",
			yaml:    "types:\n  - name: a.T\n  - name: a.T\n",
			wantErr: "duplicate type a.T",
		},
		{
			name:    "unknown yaml key",
			yaml:    "types:\n  - name: a.T\n    colour: red\n",
			wantErr: "failed to decode schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.LoadYAML(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWalk(t *testing.T) {
	c := testutil.Catalog(t)
	pigeon, _ := c.TypeByName("acme.Pigeon")

	steps, err := schema.Walk(c, pigeon, "father.owner.name")
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, "acme.Pigeon", steps[1].Owner.Name)
	assert.Equal(t, "acme.Owner", steps[2].Owner.Name)
	assert.Equal(t, "owner-name", schema.Leaf(steps).ID)
	assert.False(t, schema.IsCollectionPath(steps))

	steps, err = schema.Walk(c, pigeon, "clubs.name")
	require.NoError(t, err)
	assert.True(t, schema.IsCollectionPath(steps))

	_, err = schema.Walk(c, pigeon, "father.wingspan")
	var schemaErr *core.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, err.Error(), "field wingspan not found on type acme.Pigeon")

	_, err = schema.Walk(c, pigeon, "name.length")
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, err.Error(), "neither a type reference nor a collection")
}

func TestPIRRoundTrip(t *testing.T) {
	c := testutil.Catalog(t)
	pigeon, _ := c.TypeByName("acme.Pigeon")

	pir, _, err := schema.PIRFor(c, pigeon, "father.name")
	require.NoError(t, err)
	assert.Equal(t, core.PIR{"pigeon-father", "pigeon-name"}, pir)

	path, steps, err := schema.WalkPIR(c, pigeon, pir)
	require.NoError(t, err)
	assert.Equal(t, "father.name", path)
	assert.Len(t, steps, 2)

	_, _, err = schema.WalkPIR(c, pigeon, core.PIR{"pigeon-father", "owner-name"})
	assert.ErrorContains(t, err, "no field with id owner-name on type acme.Pigeon")

	_, _, err = schema.WalkPIR(c, pigeon, core.PIR{"pigeon-name", "pigeon-name"})
	assert.ErrorContains(t, err, "neither a type reference nor a collection")

	_, _, err = schema.WalkPIR(c, pigeon, nil)
	assert.Error(t, err)
}

func TestResolveType(t *testing.T) {
	c := testutil.Catalog(t)

	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"acme.Pigeon", "acme.Pigeon", true},
		{"Pigeon", "acme.Pigeon", true},
		{"User", "platform.basic.User", true},
		{"pigeon", "", false},
		{"basic.User", "", false},
		{"Nest", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, ok := schema.ResolveType(c, tt.name, testutil.BasePackage, testutil.SystemPackage)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, typ.Name)
			}
		})
	}
}

func TestCheckAggregate(t *testing.T) {
	c := testutil.Catalog(t)
	pigeon, _ := c.TypeByName("acme.Pigeon")
	age, _ := pigeon.Field("age")
	name, _ := pigeon.Field("name")

	assert.NoError(t, schema.CheckAggregate(core.Sum, "age", age))
	assert.NoError(t, schema.CheckAggregate(core.Count, "name", name))

	err := schema.CheckAggregate(core.Avg, "name", name)
	var schemaErr *core.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"name"}, schemaErr.Fields)
	assert.Equal(t, "schema error: aggregate function AVG cannot be applied to text field name", err.Error())
}
