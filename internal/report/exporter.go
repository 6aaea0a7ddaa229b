// internal/report/exporter.go
// Package: report
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mwiater/lhmedian/internal/logging"
	"github.com/mwiater/lhmedian/internal/metrics"
)

// Options controls the delimited exports.
type Options struct {
	// Style picks compat (default) or fixed number printing.
	Style NumberStyle
	// IncludeMedian adds the isMedian column to CSV and TXT.
	IncludeMedian bool
}

// DefaultOptions matches the files produced by earlier releases.
func DefaultOptions() Options {
	return Options{Style: StyleCompat, IncludeMedian: true}
}

// Artifacts holds the three rendered summaries of a session.
type Artifacts struct {
	CSV  []byte
	TXT  []byte
	JSON []byte
}

// FileWriter is the part of a session area the exporter needs.
type FileWriter interface {
	WriteFile(name string, data []byte) error
}

// Exporter renders annotated records into CSV, TXT and JSON.
type Exporter struct {
	Options Options
}

// NewExporter returns an Exporter with opts.
func NewExporter(opts Options) *Exporter {
	if opts.Style == "" {
		opts.Style = StyleCompat
	}
	return &Exporter{Options: opts}
}

// Header returns the column names of the delimited forms.
func (e *Exporter) Header() []string {
	h := []string{"Run", "FCP", "LCP", "TBT", "CLS", "SI", "Score"}
	if e.Options.IncludeMedian {
		h = append(h, "isMedian")
	}
	return h
}

// Row converts one record into display strings. Timings other than TBT are
// reported in seconds.
func (e *Exporter) Row(r metrics.AnnotatedRecord) []string {
	style := e.Options.Style
	row := []string{
		strconv.Itoa(r.Run),
		FormatValue(r.FCP/1000, 1, style),
		FormatValue(r.LCP/1000, 1, style),
		FormatValue(r.TBT, 0, style),
		FormatValue(r.CLS, 3, style),
		FormatValue(r.SI/1000, 1, style),
		FormatScore(r.Score),
	}
	if e.Options.IncludeMedian {
		row = append(row, strconv.FormatBool(r.IsMedian))
	}
	return row
}

// Export renders all three forms.
func (e *Exporter) Export(records []metrics.AnnotatedRecord) (Artifacts, error) {
	var (
		a   Artifacts
		err error
	)
	if a.CSV, err = e.delimited(records, ','); err != nil {
		return Artifacts{}, fmt.Errorf("render csv: %w", err)
	}
	if a.TXT, err = e.delimited(records, '\t'); err != nil {
		return Artifacts{}, fmt.Errorf("render txt: %w", err)
	}
	if a.JSON, err = MarshalStructured(records); err != nil {
		return Artifacts{}, fmt.Errorf("render json: %w", err)
	}
	return a, nil
}

// Write renders the records and stores <base>.csv, <base>.txt and
// <base>.json through w.
func (e *Exporter) Write(w FileWriter, base string, records []metrics.AnnotatedRecord) (Artifacts, error) {
	a, err := e.Export(records)
	if err != nil {
		return Artifacts{}, err
	}
	files := []struct {
		ext  string
		data []byte
	}{
		{".csv", a.CSV},
		{".txt", a.TXT},
		{".json", a.JSON},
	}
	log := logging.New("report")
	for _, f := range files {
		name := base + f.ext
		if err := w.WriteFile(name, f.data); err != nil {
			return Artifacts{}, fmt.Errorf("write %s: %w", name, err)
		}
		log.Debug("summary written", "file", name, "bytes", len(f.data))
	}
	return a, nil
}

// delimited writes the header and rows separated by comma. The last row has
// no trailing newline.
func (e *Exporter) delimited(records []metrics.AnnotatedRecord, comma rune) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Comma = comma
	if err := cw.Write(e.Header()); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := cw.Write(e.Row(r)); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalStructured encodes records as a two-space indented JSON array.
func MarshalStructured(records []metrics.AnnotatedRecord) ([]byte, error) {
	if records == nil {
		records = []metrics.AnnotatedRecord{}
	}
	return json.MarshalIndent(records, "", "  ")
}
