package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/nao1215/phishscan/internal/classifier"
)

// TrainingWriter outputs the evaluation of a training run.
type TrainingWriter struct {
	baseWriter

	// markdown selects Markdown output instead of plain text.
	markdown bool
}

// TrainingWriterOption configures a TrainingWriter.
type TrainingWriterOption func(*TrainingWriter)

// WithTrainingMarkdown selects Markdown output.
func WithTrainingMarkdown(enabled bool) TrainingWriterOption {
	return func(w *TrainingWriter) {
		w.markdown = enabled
	}
}

// NewTrainingWriter creates a TrainingWriter that outputs to the given writer.
func NewTrainingWriter(output io.Writer, opts ...TrainingWriterOption) *TrainingWriter {
	w := &TrainingWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the training result.
func (w *TrainingWriter) Write(result *classifier.TrainResult) (int, error) {
	if w.markdown {
		return w.writeMarkdown(result)
	}
	return w.writeText(result)
}

func (w *TrainingWriter) properties(result *classifier.TrainResult) [][]string {
	modelPath := result.ModelPath
	if modelPath == "" {
		modelPath = "(not saved)"
	}
	rows := [][]string{
		{"Model", modelPath},
		{"Train Samples", strconv.Itoa(result.TrainSize)},
		{"Test Samples", strconv.Itoa(result.TestSize)},
		{"Fit Time", result.FitElapsed.Round(time.Millisecond).String()},
		{"Accuracy", strconv.FormatFloat(result.Metrics.Accuracy, 'f', 4, 64)},
	}
	if result.Artifact != nil {
		p := result.Artifact.Params
		rows = append(rows,
			[]string{"Checksum", result.Artifact.Checksum},
			[]string{"Parameters", fmt.Sprintf("rounds=%d learning_rate=%g max_depth=%d min_samples_leaf=%d subsample=%g seed=%d",
				p.Rounds, p.LearningRate, p.MaxDepth, p.MinSamplesLeaf, p.Subsample, p.Seed)},
		)
	}
	return rows
}

func (w *TrainingWriter) writeText(result *classifier.TrainResult) (int, error) {
	var sb strings.Builder

	writeRule(&sb, "=")
	sb.WriteString("                      PHISHSCAN TRAINING REPORT\n")
	writeRule(&sb, "=")
	sb.WriteString("\n")

	for _, row := range w.properties(result) {
		sb.WriteString(fmt.Sprintf("%-14s %s\n", row[0]+":", row[1]))
	}
	sb.WriteString("\n")
	writeRule(&sb, "-")
	sb.WriteString("EVALUATION (held-out split)\n")
	writeRule(&sb, "-")
	sb.WriteString("\n")
	sb.WriteString(result.Metrics.String())
	writeRule(&sb, "=")

	return w.output.Write([]byte(sb.String()))
}

func (w *TrainingWriter) writeMarkdown(result *classifier.TrainResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("phishscan Training Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   w.properties(result),
	})
	md.PlainText("")

	m := result.Metrics
	md.H2("Classification Report")
	md.PlainText("")
	rows := make([][]string, 0, len(m.PerClass)+2)
	for _, cm := range m.PerClass {
		rows = append(rows, classRow(cm.Label.String(), cm))
	}
	rows = append(rows, classRow("macro avg", m.MacroAvg), classRow("weighted avg", m.WeightedAvg))
	md.Table(markdown.TableSet{
		Header: []string{"Class", "Precision", "Recall", "F1", "Support"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(m.Classes) > 0 {
		md.H2("Confusion Matrix")
		md.PlainText("")
		header := []string{"true \\ predicted"}
		for _, c := range m.Classes {
			header = append(header, c.String())
		}
		matrix := make([][]string, 0, len(m.Confusion))
		for i, counts := range m.Confusion {
			row := []string{m.Classes[i].String()}
			for _, n := range counts {
				row = append(row, strconv.Itoa(n))
			}
			matrix = append(matrix, row)
		}
		md.Table(markdown.TableSet{Header: header, Rows: matrix})
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *TrainingWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [phishscan](https://github.com/nao1215/phishscan)*")
}

func classRow(name string, cm classifier.ClassMetrics) []string {
	return []string{
		name,
		strconv.FormatFloat(cm.Precision, 'f', 2, 64),
		strconv.FormatFloat(cm.Recall, 'f', 2, 64),
		strconv.FormatFloat(cm.F1, 'f', 2, 64),
		strconv.Itoa(cm.Support),
	}
}
