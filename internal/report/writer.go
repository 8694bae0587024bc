package report

import (
	"io"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/phishscan/internal/model"
)

// Writer defines the interface for report output.
// Implementations write check results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.CheckReport) (int, error)

	// WriteSimple outputs only the simple report portion.
	// This is useful for quick summaries without full details.
	WriteSimple(report *model.SimpleReport) (int, error)

	// WriteBatch outputs the results of a batch check.
	WriteBatch(reports []*model.CheckReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.CheckReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.Write(report) })
}

// WriteSimple outputs the simple report to all configured Writers.
func (m *MultiWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteSimple(report) })
}

// WriteBatch outputs the batch results to all configured Writers.
func (m *MultiWriter) WriteBatch(reports []*model.CheckReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteBatch(reports) })
}

func (m *MultiWriter) each(write func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := write(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// simpleOf returns the simple report of r, building it if needed.
func simpleOf(r *model.CheckReport) *model.SimpleReport {
	if r.SimpleReport == nil {
		r.SimpleReport = model.NewSimpleReport(r)
	}
	return r.SimpleReport
}

// BatchSummary counts the verdicts of a batch check.
type BatchSummary struct {
	Total      int `json:"total"`
	Legitimate int `json:"legitimate"`
	Phishing   int `json:"phishing"`
	Unknown    int `json:"unknown"`
}

// Summarize counts the verdicts in reports. Nil reports (checks that never
// started) count as unknown.
func Summarize(reports []*model.CheckReport) BatchSummary {
	s := BatchSummary{Total: len(reports)}
	for _, r := range reports {
		switch {
		case r == nil || !r.OK():
			s.Unknown++
		case r.Verdict == model.VerdictPhishing:
			s.Phishing++
		case r.Verdict == model.VerdictLegitimate:
			s.Legitimate++
		default:
			s.Unknown++
		}
	}
	return s
}

// verdictText returns the display form of a verdict, e.g. "Phishing".
func verdictText(v model.Verdict) string {
	return cases.Title(language.English).String(string(v))
}

// probabilityText formats an optional probability.
func probabilityText(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}
