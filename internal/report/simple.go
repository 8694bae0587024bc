package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/phishscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with severity markers
// and clear section formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with impact and recommendations.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
// It generates a SimpleReport from the CheckReport if not already present.
func (w *SimpleWriter) Write(report *model.CheckReport) (int, error) {
	return w.WriteSimple(simpleOf(report))
}

// WriteSimple outputs the simple report in human-readable format.
func (w *SimpleWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeFindings(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteBatch outputs one line per checked URL followed by the verdict counts.
func (w *SimpleWriter) WriteBatch(reports []*model.CheckReport) (int, error) {
	var sb strings.Builder

	writeRule(&sb, "=")
	sb.WriteString("                      PHISHSCAN BATCH REPORT\n")
	writeRule(&sb, "=")
	sb.WriteString("\n")

	for _, r := range reports {
		if r == nil {
			continue
		}
		status := verdictText(r.Verdict)
		if !r.OK() {
			status = "ERROR (" + string(r.Status) + ")"
		}
		sb.WriteString(fmt.Sprintf("  %-12s %5s  %s\n", status, probabilityText(r.LegitProbability), r.URL))
	}

	summary := Summarize(reports)
	sb.WriteString("\n")
	writeRule(&sb, "-")
	sb.WriteString(fmt.Sprintf("  TOTAL: %d  LEGITIMATE: %d  PHISHING: %d  UNKNOWN: %d\n",
		summary.Total, summary.Legitimate, summary.Phishing, summary.Unknown))
	writeRule(&sb, "=")

	return w.output.Write([]byte(sb.String()))
}

func writeRule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n")
}

// writeHeader writes the report header with check information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.SimpleReport) {
	sb.WriteString("\n")
	writeRule(sb, "=")
	sb.WriteString("                         PHISHSCAN REPORT\n")
	writeRule(sb, "=")
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("URL:               %s\n", report.URL))
	sb.WriteString(fmt.Sprintf("Check Date:        %s\n", report.CheckedAt.Format("2006-01-02 15:04:05 MST")))

	if report.Error != "" {
		sb.WriteString(fmt.Sprintf("Status:            ERROR - %s\n", report.Error))
	} else {
		sb.WriteString("Status:            Complete\n")
	}
	sb.WriteString(fmt.Sprintf("Verdict:           %s\n", verdictText(report.Verdict)))
	sb.WriteString(fmt.Sprintf("Legit Probability: %s\n", probabilityText(report.LegitProbability)))
	if report.LegitProbability != nil {
		sb.WriteString(fmt.Sprintf("Risk:              %s\n", report.RiskText))
	}

	sb.WriteString("\n")
}

// writeSummary writes the indicator and severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.SimpleReport) {
	writeRule(sb, "-")
	sb.WriteString("INDICATOR SUMMARY\n")
	writeRule(sb, "-")
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  SUSPICIOUS: %d\n", report.SuspiciousCount))
	sb.WriteString(fmt.Sprintf("  NEUTRAL:    %d\n", report.NeutralCount))
	sb.WriteString(fmt.Sprintf("  LEGITIMATE: %d\n", report.LegitimateCount))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  CRITICAL: %d  HIGH: %d  MEDIUM: %d  LOW: %d  INFO: %d\n",
		report.CriticalCount, report.HighCount, report.MediumCount, report.LowCount, report.InfoCount))
	sb.WriteString(fmt.Sprintf("  TOTAL:    %d findings\n", report.TotalFindings()))
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.SimpleReport) {
	if !report.HasFindings() && !w.showEmpty {
		return
	}

	writeRule(sb, "-")
	sb.WriteString("FINDINGS\n")
	writeRule(sb, "-")
	sb.WriteString("\n")

	severities := []model.Severity{
		model.SeverityCritical,
		model.SeverityHigh,
		model.SeverityMedium,
		model.SeverityLow,
		model.SeverityInfo,
	}

	for _, severity := range severities {
		findings := report.GetFindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// writeFindingsForSeverity writes findings of a specific severity level.
func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	sb.WriteString(fmt.Sprintf("[%s] %s\n", w.getSeverityIndicator(severity), severity.String()))

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		sb.WriteString(fmt.Sprintf("  * %s (%s)\n", finding.Title, finding.Type))
		if w.verbose && finding.Impact != "" {
			sb.WriteString(fmt.Sprintf("    Impact: %s\n", finding.Impact))
		}
		if w.verbose && finding.Recommendation != "" {
			sb.WriteString(fmt.Sprintf("    Recommendation: %s\n", finding.Recommendation))
		}
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *SimpleWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	writeRule(sb, "=")
	sb.WriteString("Report generated by phishscan\n")
	sb.WriteString("https://github.com/nao1215/phishscan\n")
	writeRule(sb, "=")
}
