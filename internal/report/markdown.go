package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/phishscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CheckReport) (int, error) {
	return w.WriteSimple(simpleOf(report))
}

// WriteSimple outputs the simple report in Markdown format.
func (w *MarkdownWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeFindings(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch outputs a table of checked URLs and a verdict pie chart.
func (w *MarkdownWriter) WriteBatch(reports []*model.CheckReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := Summarize(reports)

	md.H1("phishscan Batch Report")
	md.PlainText("")

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		if r == nil {
			continue
		}
		status := "✅ " + verdictText(r.Verdict)
		switch {
		case !r.OK():
			status = "❌ " + string(r.Status)
		case r.IsPhishing():
			status = "🎣 " + verdictText(r.Verdict)
		}
		rows = append(rows, []string{
			"`" + truncateString(r.URL, 60) + "`",
			status,
			probabilityText(r.LegitProbability),
			strconv.Itoa(simpleOf(r).SuspiciousCount),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Verdict", "Legit Probability", "Suspicious Indicators"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.Total > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Verdict Distribution"),
			piechart.WithShowData(true),
		)
		for _, slice := range []struct {
			label string
			count int
		}{
			{"Legitimate", summary.Legitimate},
			{"Phishing", summary.Phishing},
			{"Unknown", summary.Unknown},
		} {
			if slice.count > 0 {
				chart.LabelAndIntValue(slice.label, uint64(slice.count))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	if summary.Phishing > 0 {
		md.Cautionf("%d of %d URL(s) were classified as phishing.", summary.Phishing, summary.Total)
	} else {
		md.Tip("No URL was classified as phishing.")
	}
	md.PlainText("")
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with check information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.SimpleReport) {
	md.H1("phishscan Report")
	md.PlainText("")

	rows := [][]string{
		{"URL", "`" + report.URL + "`"},
		{"Check Date", report.CheckedAt.Format("2006-01-02 15:04:05 MST")},
		{"Status", w.getStatusText(report)},
		{"Verdict", verdictText(report.Verdict)},
		{"Legit Probability", probabilityText(report.LegitProbability)},
	}
	if report.LegitProbability != nil {
		rows = append(rows, []string{"Risk", report.RiskText})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.SimpleReport) string {
	if report.Error != "" {
		return "❌ Error - " + report.Error
	}
	return "✅ Complete"
}

// writeSummary writes the indicator summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.SimpleReport) {
	md.H2("Indicator Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Indicator Value", "Count"},
		Rows: [][]string{
			{"🔴 Suspicious", strconv.Itoa(report.SuspiciousCount)},
			{"⚪ Neutral", strconv.Itoa(report.NeutralCount)},
			{"🟢 Legitimate", strconv.Itoa(report.LegitimateCount)},
		},
	})
	md.PlainText("")

	if report.HasFindings() {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for finding severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.SimpleReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	if report.CriticalCount > 0 {
		chart.LabelAndIntValue("Critical", uint64(report.CriticalCount))
	}
	if report.HighCount > 0 {
		chart.LabelAndIntValue("High", uint64(report.HighCount))
	}
	if report.MediumCount > 0 {
		chart.LabelAndIntValue("Medium", uint64(report.MediumCount))
	}
	if report.LowCount > 0 {
		chart.LabelAndIntValue("Low", uint64(report.LowCount))
	}
	if report.InfoCount > 0 {
		chart.LabelAndIntValue("Info", uint64(report.InfoCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert for the verdict.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.SimpleReport) {
	switch {
	case report.Error != "":
		md.Note("No prediction was made for this URL.")
	case report.Verdict == model.VerdictPhishing:
		md.Cautionf(
			"This URL was classified as phishing (risk %s). %d indicator(s) look suspicious.",
			report.RiskText, report.SuspiciousCount,
		)
	case report.CriticalCount > 0 || report.HighCount > 0:
		md.Warningf(
			"Classified as legitimate, but %d high severity indicator(s) were found.",
			report.CriticalCount+report.HighCount,
		)
	default:
		md.Tip("This URL was classified as legitimate.")
	}
	md.PlainText("")
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.SimpleReport) {
	md.H2("Findings")
	md.PlainText("")

	if !report.HasFindings() {
		md.PlainText("No suspicious indicators detected.")
		md.PlainText("")
		return
	}

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityCritical, "### 🔴 Critical"},
		{model.SeverityHigh, "### 🟠 High"},
		{model.SeverityMedium, "### 🟡 Medium"},
		{model.SeverityLow, "### 🔵 Low"},
		{model.SeverityInfo, "### ⚪ Info"},
	}

	for _, sev := range severities {
		findings := report.GetFindingsBySeverity(sev.level)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(sev.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		rec := f.Recommendation
		if rec == "" {
			rec = "-"
		}
		rows[i] = []string{
			f.Title,
			"`" + f.Type + "`",
			f.Category,
			truncateString(rec, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Title", "Indicator", "Category", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range findings {
		if f.Impact != "" {
			md.Details(f.Title, f.Impact)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [phishscan](https://github.com/nao1215/phishscan)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
