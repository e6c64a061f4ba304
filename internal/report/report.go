// Package report prints the outcome of an ingestion run.
package report

import (
	"fmt"
	"io"
	"time"

	"extract-catalog/internal/ingest"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Write renders r as a summary table, followed by the pending batch when
// verbose is set. runErr is the error Run returned, if any.
func Write(w io.Writer, r ingest.Report, runErr error, verbose bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(r.URL)
	t.AppendHeader(table.Row{"Found", "Dropped", "Existing", "Failed", insertedHeader(r), "Duration"})
	t.AppendRow(table.Row{r.Found, r.Dropped, r.Existing, r.Failed, inserted(r), r.Duration().Round(time.Millisecond)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()

	if runErr != nil {
		fmt.Fprintf(w, "FAILED at %s: %v\n", r.Stage, runErr)
	}

	if verbose && len(r.Pending) > 0 {
		p := table.NewWriter()
		p.SetOutputMirror(w)
		p.SetStyle(table.StyleLight)
		p.AppendHeader(table.Row{"#", "Name", "Description"})
		for i, e := range r.Pending {
			p.AppendRow(table.Row{i + 1, e.Key, truncate(e.Description, 80)})
		}
		p.Render()
	}
}

func insertedHeader(r ingest.Report) string {
	if r.DryRun {
		return "Would insert"
	}
	return "Inserted"
}

func inserted(r ingest.Report) int {
	if r.DryRun {
		return len(r.Pending)
	}
	return r.Inserted
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return fmt.Sprintf("%s…", string(runes[:n-1]))
}
