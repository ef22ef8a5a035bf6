package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/dalc/internal/config"
	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/dal"
	"github.com/leapstack-labs/dalc/pkg/jcr"
)

// result is one compiled or decoded query ready for output.
type result struct {
	source string
	crit   *core.Criteria
	sql    string
}

// writeResults prints results in the configured output format.
func (e *commandEnv) writeResults(w io.Writer, results []result) error {
	switch e.cfg.Output {
	case config.OutputJSON:
		return e.writeJSON(w, results)
	case config.OutputDAL:
		for _, r := range results {
			_, _ = fmt.Fprintln(w, dal.Format(r.crit))
		}
		return nil
	case config.OutputTable:
		return writeTable(w, results)
	default:
		for _, r := range results {
			_, _ = fmt.Fprintln(w, r.sql)
		}
		return nil
	}
}

// writeJSON prints one document as an object and several as an array.
func (e *commandEnv) writeJSON(w io.Writer, results []result) error {
	enc := e.encoder()
	docs := make([]*jcr.Document, 0, len(results))
	for _, r := range results {
		doc, err := enc.Encode(r.crit)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	var (
		data []byte
		err  error
	)
	if len(docs) == 1 {
		data, err = jcr.Marshal(docs[0])
	} else {
		data, err = json.MarshalIndent(docs, "", "  ")
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, string(data))
	return nil
}

func writeTable(w io.Writer, results []result) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "DAL", "SQL"})
	for i, r := range results {
		t.AppendRow(table.Row{i + 1, dal.Format(r.crit), r.sql})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d queries)\n", len(results))
	return nil
}
