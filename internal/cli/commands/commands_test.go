package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	clitestutil "github.com/leapstack-labs/dalc/internal/cli/testutil"
	"github.com/leapstack-labs/dalc/internal/config"
	"github.com/leapstack-labs/dalc/internal/testutil"
	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd *cobra.Command
		use string
	}{
		{NewCompileCommand(), "compile [query...]"},
		{NewDecodeCommand(), "decode [file]"},
		{NewSchemaCommand(), "schema [type...]"},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")
		})
	}
}

// run executes cmd with a configuration pointing at the fixture schema.
func run(t *testing.T, cmd *cobra.Command, output, stdin string, args ...string) (string, error) {
	t.Helper()

	dir := clitestutil.SetupTestProject(t)
	cfg := &config.Config{
		Schema:        filepath.Join(dir, "schema.yaml"),
		BasePackage:   testutil.BasePackage,
		SystemPackage: config.DefaultSystemPackage,
		MaxDepth:      config.DefaultMaxDepth,
		Output:        output,
	}
	ctx := config.WithConfig(context.Background(), cfg)
	ctx = context.WithValue(ctx, config.LoggerKey(), testutil.NewTestLogger(t))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name   string
		output string
		stdin  string
		args   []string
		want   string
	}{
		{
			name:   "sql",
			output: config.OutputSQL,
			args:   []string{"SELECT name FROM Pigeon WHERE age > 3"},
			want:   `SELECT "this"."name" AS "name" FROM "pigeons" AS "this" WHERE ("this"."age" > 3)` + "\n",
		},
		{
			name:   "dal keeps argument order",
			output: config.OutputDAL,
			args:   []string{"select name from Pigeon", "SELECT id FROM Owner ORDER BY name DESC"},
			want:   "SELECT name FROM acme.Pigeon\nSELECT id FROM acme.Owner ORDER BY name DESC\n",
		},
		{
			name:   "queries from stdin",
			output: config.OutputDAL,
			stdin:  "-- pigeons\nSELECT name FROM Pigeon\n\n  SELECT * FROM User  \n",
			want:   "SELECT name FROM acme.Pigeon\nSELECT userName FROM platform.basic.User\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, NewCompileCommand(), tt.output, tt.stdin, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCompile_JSON(t *testing.T) {
	out, err := run(t, NewCompileCommand(), config.OutputJSON, "", "SELECT father.name FROM Pigeon")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "acme.Pigeon", doc["baseTypeName"])
	props := doc["properties"].([]any)
	require.Len(t, props, 1)
	assert.Equal(t, "pigeon-father.pigeon-name", props[0].(map[string]any)["id"])

	out, err = run(t, NewCompileCommand(), config.OutputJSON, "", "SELECT name FROM Pigeon", "SELECT name FROM Owner")
	require.NoError(t, err)
	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	assert.Len(t, docs, 2)
}

func TestCompile_Table(t *testing.T) {
	out, err := run(t, NewCompileCommand(), config.OutputTable, "", "SELECT name FROM Pigeon")
	require.NoError(t, err)
	assert.Contains(t, out, "DAL")
	assert.Contains(t, out, "SELECT name FROM acme.Pigeon")
	assert.Contains(t, out, `FROM "pigeons" AS "this"`)
	assert.Contains(t, out, "(1 queries)")
}

func TestCompile_Errors(t *testing.T) {
	_, err := run(t, NewCompileCommand(), config.OutputSQL, "", "SELECT name FROM Pigeon", "SELECT name Pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query 2:")
	var syntaxErr *core.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))

	_, err = run(t, NewCompileCommand(), config.OutputSQL, "\n-- nothing\n")
	require.Error(t, err)
	assert.Equal(t, "no queries given", err.Error())
}

func TestCompile_NoSchema(t *testing.T) {
	cmd := NewCompileCommand()
	cmd.SetArgs([]string{"SELECT name FROM Pigeon"})
	cmd.SetOut(new(bytes.Buffer))
	err := cmd.ExecuteContext(config.WithConfig(context.Background(), &config.Config{Output: config.OutputSQL}))
	assert.ErrorIs(t, err, errNoSchema)
}

const pigeonDocument = `{
  "baseTypeName": "Pigeon",
  "properties": [{"id": "pigeon-father.pigeon-name"}],
  "restrictions": [
    {"operator": "gt", "property_name": "age", "args": [3]},
    {"operator": "isnull", "property_id": "pigeon-mother"}
  ]
}`

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name:   "dal",
			output: config.OutputDAL,
			want:   "SELECT father.name FROM acme.Pigeon WHERE age > 3 AND mother ISNULL\n",
		},
		{
			name:   "sql",
			output: config.OutputSQL,
			want: `SELECT "father"."name" AS "father.name" FROM "pigeons" AS "this" ` +
				`LEFT JOIN "pigeons" AS "father" ON "father"."id" = "this"."father_id" ` +
				`WHERE (("this"."age" > 3) AND ("this"."mother_id" IS NULL))` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+" from stdin", func(t *testing.T) {
			out, err := run(t, NewDecodeCommand(), tt.output, pigeonDocument)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
		t.Run(tt.name+" from file", func(t *testing.T) {
			path := clitestutil.WriteFile(t, t.TempDir(), "query.json", pigeonDocument)
			out, err := run(t, NewDecodeCommand(), tt.output, "", path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestDecode_Canonical(t *testing.T) {
	out, err := run(t, NewDecodeCommand(), config.OutputJSON, pigeonDocument, "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"property_name": "mother"`)
	assert.Contains(t, out, `"name": "father.name"`)
	assert.Contains(t, out, `"operator": "and"`)
}

func TestDecode_Errors(t *testing.T) {
	_, err := run(t, NewDecodeCommand(), config.OutputSQL, `{"baseTypeName": "Nest"}`)
	var schemaErr *core.SchemaError
	require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %v", err)

	_, err = run(t, NewDecodeCommand(), config.OutputSQL, "", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestSchema(t *testing.T) {
	out, err := run(t, NewSchemaCommand(), config.OutputSQL, "")
	require.NoError(t, err)
	for _, want := range []string{"acme.Pigeon", "acme.ClubMembership", "platform.basic.User", "user_name", "acme.Pigeon via father", "(5 types)"} {
		assert.Contains(t, out, want)
	}

	out, err = run(t, NewSchemaCommand(), config.OutputSQL, "", "Owner")
	require.NoError(t, err)
	assert.Contains(t, out, "owner-email")
	assert.NotContains(t, out, "acme.Pigeon")
	assert.Contains(t, out, "(1 types)")

	_, err = run(t, NewSchemaCommand(), config.OutputSQL, "", "Nest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no type found with API name Nest")
}
