package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/feature"
	"github.com/nao1215/phishscan/internal/inference"
	"github.com/nao1215/phishscan/internal/model"
)

// createTestReport creates a phishing report with sample indicators.
func createTestReport() *model.CheckReport {
	report := model.NewCheckReport("http://192.168.0.1/paypal/login")
	report.CheckedAt = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

	legit := 0.05
	report.ApplyResponse(inference.Response{
		URL:              report.URL,
		Status:           inference.StatusOK,
		LegitProbability: &legit,
		Prediction: &classifier.Prediction{
			Label:         classifier.Phishing,
			Probabilities: [2]float64{0.95, 0.05},
			Confidence:    0.95,
		},
	})
	report.Indicators = []feature.Indicator{
		{Name: feature.NameUsingIP, Category: feature.CategoryLexical, Value: feature.Suspicious},
		{Name: feature.NameLongURL, Category: feature.CategoryLexical, Value: feature.Neutral},
		{Name: feature.NameHTTPS, Category: feature.CategoryLexical, Value: feature.Legitimate},
		{Name: feature.NameStatsReport, Category: feature.CategoryReputation, Value: feature.Suspicious},
	}
	report.SimpleReport = model.NewSimpleReport(report)

	return report
}

// createLegitReport creates a legitimate report without findings.
func createLegitReport(url string) *model.CheckReport {
	report := model.NewCheckReport(url)
	legit := 0.97
	report.ApplyResponse(inference.Response{
		URL:              url,
		Status:           inference.StatusOK,
		LegitProbability: &legit,
		Prediction:       &classifier.Prediction{Label: classifier.Legitimate, Confidence: 0.97},
	})
	report.Indicators = []feature.Indicator{
		{Name: feature.NameHTTPS, Category: feature.CategoryLexical, Value: feature.Legitimate},
	}
	return report
}

// createFailedReport creates a report for a check without a model.
func createFailedReport() *model.CheckReport {
	report := model.NewCheckReport("https://example.com/")
	report.Status = inference.StatusModelUnavailable
	report.SetError(classifier.ErrModelUnavailable)
	return report
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"PHISHSCAN REPORT", "http://192.168.0.1/paypal/login", "Phishing", "0.05", "CRITICAL"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes indicator summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "SUSPICIOUS: 2") {
			t.Error("expected suspicious count")
		}
		if !strings.Contains(output, "TOTAL:    2 findings") {
			t.Error("expected total findings")
		}
	})

	t.Run("writes findings most severe first", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		critical := strings.Index(output, "Blocklisted Host")
		high := strings.Index(output, "IP Address Instead of Domain")
		if critical < 0 || high < 0 {
			t.Fatalf("expected both findings in output:\n%s", output)
		}
		if critical > high {
			t.Error("expected critical finding before high finding")
		}
	})

	t.Run("verbose mode includes impact and recommendation", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Impact:") || !strings.Contains(output, "Recommendation:") {
			t.Error("expected verbose details")
		}
	})

	t.Run("hides findings section without findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createLegitReport("https://example.com/")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "FINDINGS") {
			t.Error("expected no findings section")
		}
	})

	t.Run("shows empty severities with showEmpty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(true)).Write(createLegitReport("https://example.com/")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"[!!!] CRITICAL", "[!!] HIGH", "[!] MEDIUM", "[-] LOW", "[i] INFO", "No findings"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("shows error in status", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createFailedReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "ERROR") {
			t.Error("expected error status")
		}
		if !strings.Contains(output, "Legit Probability: n/a") {
			t.Error("expected no probability")
		}
	})

	t.Run("generates simple report when nil", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.SimpleReport = nil

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.SimpleReport == nil {
			t.Error("expected simple report to be generated")
		}
	})
}

// TestSimpleWriterWriteBatch tests batch output.
func TestSimpleWriterWriteBatch(t *testing.T) {
	t.Parallel()

	reports := []*model.CheckReport{
		createTestReport(),
		createLegitReport("https://example.com/"),
		createFailedReport(),
		nil,
	}

	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf).WriteBatch(reports); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"PHISHSCAN BATCH REPORT",
		"ERROR (model_unavailable)",
		"TOTAL: 4  LEGITIMATE: 1  PHISHING: 1  UNKNOWN: 2",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q:\n%s", want, output)
		}
	}
}

// TestSummarize tests verdict counting.
func TestSummarize(t *testing.T) {
	t.Parallel()

	got := Summarize([]*model.CheckReport{
		createTestReport(),
		createTestReport(),
		createLegitReport("https://example.com/"),
		createFailedReport(),
		nil,
	})
	want := BatchSummary{Total: 5, Legitimate: 1, Phishing: 2, Unknown: 2}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.CheckReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Verdict != model.VerdictPhishing {
			t.Errorf("unexpected verdict %q", decoded.Verdict)
		}
		if decoded.SimpleReport == nil {
			t.Error("expected simple report in output")
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected compact single-line output")
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"url\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("custom prefix and indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent(">", "\t")).WriteSimple(createTestReport().SimpleReport); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n>\t\"url\"") {
			t.Errorf("expected custom indentation, got %q", buf.String())
		}
	})

	t.Run("failed report omits probability", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createFailedReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if _, ok := decoded["legit_probability"]; ok {
			t.Error("expected no legit_probability for failed check")
		}
		if decoded["status"] != string(inference.StatusModelUnavailable) {
			t.Errorf("unexpected status %v", decoded["status"])
		}
	})

	t.Run("writes batch document", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		reports := []*model.CheckReport{createTestReport(), nil, createLegitReport("https://example.com/")}
		if _, err := NewJSONWriter(&buf).WriteBatch(reports); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded BatchReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded.Reports) != 2 {
			t.Errorf("expected 2 reports, got %d", len(decoded.Reports))
		}
		if decoded.Summary.Total != 3 || decoded.Summary.Phishing != 1 {
			t.Errorf("unexpected summary %+v", decoded.Summary)
		}
	})
}

// TestFullJSONWriter tests the JSON writer with metadata wrapper.
func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewFullJSONWriter(&buf, "v1.2.3").Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded JSONReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Version != "v1.2.3" {
		t.Errorf("unexpected version %q", decoded.Version)
	}
	if decoded.Summary == nil || decoded.Summary.SuspiciousCount != 2 {
		t.Errorf("unexpected summary %+v", decoded.Summary)
	}
}

// failingWriter is a Writer that always fails.
type failingWriter struct{}

func (failingWriter) Write(*model.CheckReport) (int, error)        { return 0, errors.New("write failed") }
func (failingWriter) WriteSimple(*model.SimpleReport) (int, error) { return 0, errors.New("write failed") }
func (failingWriter) WriteBatch([]*model.CheckReport) (int, error) { return 0, errors.New("write failed") }

// TestMultiWriter tests writing to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected output in both writers")
		}
	})

	t.Run("writes simple and batch to all writers", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&a), NewMarkdownWriter(&b))

		if _, err := mw.WriteSimple(createTestReport().SimpleReport); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := mw.WriteBatch([]*model.CheckReport{createTestReport()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(a.String(), "PHISHSCAN BATCH REPORT") || !strings.Contains(b.String(), "Batch Report") {
			t.Error("expected batch output in both writers")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))

		if _, err := mw.Write(createTestReport()); err == nil {
			t.Fatal("expected error")
		}
		if after.Len() != 0 {
			t.Error("expected later writers to be skipped")
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		n, err := NewMultiWriter().Write(createTestReport())
		if err != nil || n != 0 {
			t.Errorf("expected no-op, got n=%d err=%v", n, err)
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# phishscan Report",
			"`http://192.168.0.1/paypal/login`",
			"## Indicator Summary",
			"mermaid",
			"Finding Severity Distribution",
			"[!CAUTION]",
			"### 🔴 Critical",
			"### 🟠 High",
			"`UsingIP`",
			"<details>",
			"[phishscan](https://github.com/nao1215/phishscan)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("legitimate report without findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createLegitReport("https://example.com/")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No suspicious indicators detected.") {
			t.Error("expected no findings message")
		}
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected tip alert")
		}
		if strings.Contains(output, "Finding Severity Distribution") {
			t.Error("expected no chart without findings")
		}
	})

	t.Run("shows error in status", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createFailedReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "❌ Error") {
			t.Error("expected error status")
		}
	})

	t.Run("writes batch with verdict chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		reports := []*model.CheckReport{
			createTestReport(),
			createLegitReport("https://example.com/"),
			createLegitReport("https://example.org/"),
		}
		if _, err := NewMarkdownWriter(&buf).WriteBatch(reports); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"pie", "Verdict Distribution", "Legitimate", "Phishing", "1 of 3 URL(s)"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})
}

// TestTrainingWriter tests training report output.
func TestTrainingWriter(t *testing.T) {
	t.Parallel()

	result := &classifier.TrainResult{
		TrainSize:  80,
		TestSize:   20,
		ModelPath:  "/tmp/model.json",
		FitElapsed: 1500 * time.Millisecond,
		Metrics: classifier.Metrics{
			Accuracy:  0.9,
			Classes:   []classifier.Label{classifier.Phishing, classifier.Legitimate},
			Confusion: [][]int{{9, 1}, {1, 9}},
			PerClass: []classifier.ClassMetrics{
				{Label: classifier.Phishing, Precision: 0.9, Recall: 0.9, F1: 0.9, Support: 10},
				{Label: classifier.Legitimate, Precision: 0.9, Recall: 0.9, F1: 0.9, Support: 10},
			},
		},
		Artifact: &classifier.Artifact{Params: classifier.DefaultGradientBoosting(), Checksum: "deadbeef"},
	}

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTrainingWriter(&buf).Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"PHISHSCAN TRAINING REPORT", "/tmp/model.json", "0.9000", "deadbeef", "rounds=100", "confusion matrix", "1.5s"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTrainingWriter(&buf, WithTrainingMarkdown(true)).Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"# phishscan Training Report", "## Classification Report", "## Confusion Matrix", "phishing", "macro avg"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("unsaved model", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTrainingWriter(&buf).Write(&classifier.TrainResult{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "(not saved)") {
			t.Error("expected unsaved marker")
		}
	})
}

// TestVerdictText tests verdict display names.
func TestVerdictText(t *testing.T) {
	t.Parallel()

	tests := map[model.Verdict]string{
		model.VerdictPhishing:   "Phishing",
		model.VerdictLegitimate: "Legitimate",
		model.VerdictUnknown:    "Unknown",
	}
	for verdict, want := range tests {
		if got := verdictText(verdict); got != want {
			t.Errorf("verdictText(%q) = %q, want %q", verdict, got, want)
		}
	}
}

// TestTruncateString tests string truncation.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a long string", 10, "this is..."},
		{"abc", 2, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
