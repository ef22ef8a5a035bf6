package schema_test

import (
	"testing"

	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func field(kind core.Kind) *core.Field {
	return &core.Field{Name: "f", Type: core.DataType{Kind: kind}}
}

func TestPostgresLiterals_Literal(t *testing.T) {
	tests := []struct {
		name    string
		kind    core.Kind
		value   any
		want    string
		wantErr bool
	}{
		{"text", core.KindText, "Tom", "'Tom'", false},
		{"text with quote", core.KindText, "O'Brien", "'O''Brien'", false},
		{"number text", core.KindNumber, "3", "3", false},
		{"number trailing zeros", core.KindNumber, "3.50", "3.5", false},
		{"number negative", core.KindNumber, "-12", "-12", false},
		{"number int64", core.KindNumber, int64(42), "42", false},
		{"number float", core.KindNumber, 2.25, "2.25", false},
		{"number decimal", core.KindNumber, decimal.RequireFromString("1.10"), "1.1", false},
		{"number invalid", core.KindNumber, "abc", "", true},
		{"number injection", core.KindNumber, "1; DROP TABLE x", "", true},
		{"boolean text", core.KindBoolean, "true", "TRUE", false},
		{"boolean value", core.KindBoolean, false, "FALSE", false},
		{"boolean invalid", core.KindBoolean, "yes", "", true},
		{"date", core.KindDate, "2024-02-29", "'2024-02-29'", false},
		{"date invalid", core.KindDate, "2023-02-29", "", true},
		{"datetime", core.KindDateTime, "2024-01-02 10:11:12", "'2024-01-02 10:11:12'", false},
		{"datetime rfc3339", core.KindDateTime, "2024-01-02T10:11:12Z", "'2024-01-02T10:11:12Z'", false},
		{"id", core.KindID, "0010000000abc", "'0010000000abc'", false},
		{"enumeration", core.KindEnumeration, "grey", "'grey'", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := schema.PostgresLiterals{}.Literal(field(tt.kind), tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.IsType(t, &core.SchemaError{}, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostgresLiterals_Pattern(t *testing.T) {
	f := schema.PostgresLiterals{}

	got, err := f.Pattern(field(core.KindText), "T%m_")
	require.NoError(t, err)
	assert.Equal(t, "'T%m_'", got)

	got, err = f.Pattern(field(core.KindNumber), "1%")
	require.NoError(t, err)
	assert.Equal(t, "'1%'", got, "patterns on numbers are not validated as numbers")

	got, err = f.Pattern(field(core.KindText), "it's%")
	require.NoError(t, err)
	assert.Equal(t, "'it''s%'", got)
}

func TestText(t *testing.T) {
	assert.Equal(t, "3", schema.Text(int64(3)))
	assert.Equal(t, "3.5", schema.Text(3.5))
	assert.Equal(t, "true", schema.Text(true))
	assert.Equal(t, "", schema.Text(nil))
}
