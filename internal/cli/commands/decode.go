package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/leapstack-labs/dalc/pkg/jcr"
	"github.com/spf13/cobra"
)

// NewDecodeCommand creates the decode command.
func NewDecodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a JCR document",
		Long: `Decode a JCR document, validate it against the schema and print it in the
configured output format. The document is read from the file argument, or
from standard input when the argument is missing or "-".

With -o json the document is printed in canonical form, every property
reference carrying both its id path and its name.`,
		Example: `  # Render the SQL of a saved document
  dalc decode query.json

  # Convert a document to DAL text
  cat query.json | dalc decode -o dal`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runDecode(cmd, path)
		},
	}
	return cmd
}

func runDecode(cmd *cobra.Command, path string) error {
	env, err := newCommandEnv(cmd)
	if err != nil {
		return err
	}

	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	doc, err := jcr.Unmarshal(data)
	if err != nil {
		return err
	}
	crit, err := env.decoder().Decode(doc)
	if err != nil {
		return err
	}
	sql, err := env.renderer().Render(crit)
	if err != nil {
		return err
	}
	return env.writeResults(cmd.OutOrStdout(), []result{{source: path, crit: crit, sql: sql}})
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
