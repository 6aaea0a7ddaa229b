// internal/report/summary.go
// Package: report
package report

import (
	"github.com/mwiater/lhmedian/internal/format"
	"github.com/mwiater/lhmedian/internal/metrics"
)

// SummaryTable renders the exported rows as a console table.
func (e *Exporter) SummaryTable(records []metrics.AnnotatedRecord, mode format.Mode) string {
	tb := format.NewTable(mode)
	header := e.Header()
	tb.Header(header...)

	cfgs := make([]format.ColumnConfig, 0, len(header))
	for i := range header {
		cfgs = append(cfgs, format.ColumnConfig{Number: i + 1, Align: format.AlignRight})
	}
	tb.Columns(cfgs...)

	for _, r := range records {
		row := e.Row(r)
		vals := make([]any, len(row))
		for i, v := range row {
			vals[i] = v
		}
		tb.Row(vals...)
	}
	return tb.String()
}
