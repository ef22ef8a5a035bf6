package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/schema"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [type...]",
		Short: "List the types and fields of the schema",
		Long: `List the types of the schema with their fields, data types, columns and
ids. Type names resolve like the FROM clause of a query, so unqualified
names are looked up in the base and system packages.`,
		Example: `  # List every type
  dalc schema

  # Show a single type
  dalc schema Pigeon`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, args)
		},
	}
	return cmd
}

func runSchema(cmd *cobra.Command, names []string) error {
	env, err := newCommandEnv(cmd)
	if err != nil {
		return err
	}

	types := env.catalog.Types()
	if len(names) > 0 {
		types = types[:0:0]
		for _, name := range names {
			t, ok := schema.ResolveType(env.catalog, name, env.cfg.BasePackage, env.cfg.SystemPackage)
			if !ok {
				return core.Schemaf(nil, core.ErrUnknownType, name)
			}
			types = append(types, t)
		}
	}

	w := cmd.OutOrStdout()
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Type", "Field", "Label", "Kind", "Column", "Target", "ID"})
	for _, typ := range types {
		for _, f := range typ.Fields {
			t.AppendRow(table.Row{typ.Name, f.Name, f.Label, f.Type.Kind, f.Column, target(f), f.ID})
		}
		t.AppendSeparator()
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d types)\n", len(types))
	return nil
}

// target describes where a relationship field points.
func target(f *core.Field) string {
	switch f.Type.Kind {
	case core.KindInverseCollection:
		return f.Type.Target + " via " + f.Type.InverseField
	case core.KindAssociation:
		return f.Type.Target + " via " + f.Type.Linking
	}
	return f.Type.Target
}
