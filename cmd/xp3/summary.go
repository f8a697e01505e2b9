package main

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"xp3/internal/pipeline"
)

// printSummary renders the counters of a run, leaving out the ones that do
// not apply to it.
func printSummary(w io.Writer, title string, sum pipeline.Summary, downloads bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	tw.AppendRow(table.Row{"Songs", sum.Total})
	tw.AppendRow(table.Row{"Resolved", sum.Resolved})
	if sum.Skipped > 0 {
		tw.AppendRow(table.Row{"Skipped", sum.Skipped})
	}
	if sum.Failed > 0 {
		tw.AppendRow(table.Row{"Failed", sum.Failed})
	}
	if downloads {
		tw.AppendRow(table.Row{"Downloaded", sum.Downloaded})
	}
	tw.AppendRow(table.Row{"Tagged", sum.Tagged})
	tw.Render()
}
