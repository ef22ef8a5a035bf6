package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [query...]",
		Short: "Compile DAL queries",
		Long: `Compile one or more DAL queries against the schema.

Queries are taken from the arguments, or read from standard input one per
line when no arguments are given. Each query is compiled independently and
printed in the configured output format:
  - sql:   the rendered SQL statement
  - json:  the JCR document
  - dal:   the canonical DAL text
  - table: DAL and SQL side by side`,
		Example: `  # Compile a single query
  dalc compile -s schema.yaml "SELECT name FROM Pigeon WHERE age > 3"

  # Print the JCR document
  dalc compile -o json "SELECT father.name FROM Pigeon"

  # Compile every line of a file
  dalc compile < queries.dal`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args)
		},
	}
	return cmd
}

func runCompile(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv(cmd)
	if err != nil {
		return err
	}

	queries := args
	if len(queries) == 0 {
		if queries, err = readLines(cmd.InOrStdin()); err != nil {
			return fmt.Errorf("failed to read queries: %w", err)
		}
	}
	if len(queries) == 0 {
		return errors.New("no queries given")
	}

	compiler := env.compiler()
	renderer := env.renderer()
	results := make([]result, len(queries))

	g, ctx := errgroup.WithContext(contextOf(cmd))
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			crit, err := compiler.Compile(q)
			if err != nil {
				return fmt.Errorf("query %d: %w", i+1, err)
			}
			sql, err := renderer.Render(crit)
			if err != nil {
				return fmt.Errorf("query %d: %w", i+1, err)
			}
			results[i] = result{source: q, crit: crit, sql: sql}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return env.writeResults(cmd.OutOrStdout(), results)
}

// readLines returns the non-blank lines of r, trimmed. Lines starting with
// "--" are comments.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
