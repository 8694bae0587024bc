package classifier

import (
	"fmt"
	"strings"
)

// ClassMetrics holds the per-class scores of an evaluation.
type ClassMetrics struct {
	Label     Label   `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Metrics summarizes a model on a labeled set.
type Metrics struct {
	// Accuracy is the share of correct predictions.
	Accuracy float64 `json:"accuracy"`

	// Classes is the label order of Confusion and PerClass.
	Classes []Label `json:"classes"`

	// Confusion counts samples by true class (rows) and predicted class
	// (columns).
	Confusion [][]int `json:"confusion"`

	PerClass    []ClassMetrics `json:"per_class"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
}

// Evaluate scores every row of x and compares the predictions with y.
// Labels the model does not know count as misclassified and are left out of
// the confusion matrix.
func Evaluate(m *Model, x [][]float64, y []int) (Metrics, error) {
	if m == nil {
		return Metrics{}, ErrModelUnavailable
	}
	if len(x) != len(y) {
		return Metrics{}, fmt.Errorf("%w: %d rows but %d labels", ErrShapeMismatch, len(x), len(y))
	}

	k := len(m.Classes)
	pos := make(map[Label]int, k)
	for i, class := range m.Classes {
		pos[class] = i
	}

	metrics := Metrics{
		Classes:   append([]Label(nil), m.Classes...),
		Confusion: make([][]int, k),
		PerClass:  make([]ClassMetrics, k),
	}
	for i := range metrics.Confusion {
		metrics.Confusion[i] = make([]int, k)
	}

	var correct int
	for i, row := range x {
		pred, err := m.Predict(row)
		if err != nil {
			return Metrics{}, fmt.Errorf("row %d: %w", i, err)
		}
		truth := Label(y[i])
		if truth == pred.Label {
			correct++
		}
		if t, ok := pos[truth]; ok {
			metrics.Confusion[t][pos[pred.Label]]++
		}
	}
	if len(y) > 0 {
		metrics.Accuracy = float64(correct) / float64(len(y))
	}

	var total int
	for c, class := range m.Classes {
		var tp, predicted, support int
		for t := range k {
			predicted += metrics.Confusion[t][c]
			support += metrics.Confusion[c][t]
		}
		tp = metrics.Confusion[c][c]

		cm := ClassMetrics{
			Label:     class,
			Precision: ratio(tp, predicted),
			Recall:    ratio(tp, support),
			Support:   support,
		}
		if cm.Precision+cm.Recall > 0 {
			cm.F1 = 2 * cm.Precision * cm.Recall / (cm.Precision + cm.Recall)
		}
		metrics.PerClass[c] = cm
		total += support

		metrics.MacroAvg.Precision += cm.Precision / float64(k)
		metrics.MacroAvg.Recall += cm.Recall / float64(k)
		metrics.MacroAvg.F1 += cm.F1 / float64(k)
	}
	metrics.MacroAvg.Support = total
	metrics.WeightedAvg.Support = total
	if total > 0 {
		for _, cm := range metrics.PerClass {
			w := float64(cm.Support) / float64(total)
			metrics.WeightedAvg.Precision += w * cm.Precision
			metrics.WeightedAvg.Recall += w * cm.Recall
			metrics.WeightedAvg.F1 += w * cm.F1
		}
	}

	return metrics, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// String renders the metrics as a plain-text classification report.
func (m Metrics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%14s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	for _, cm := range m.PerClass {
		fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", fmt.Sprintf("%d", int(cm.Label)), cm.Precision, cm.Recall, cm.F1, cm.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%14s %10s %10s %10.2f %10d\n", "accuracy", "", "", m.Accuracy, m.MacroAvg.Support)
	fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", "macro avg", m.MacroAvg.Precision, m.MacroAvg.Recall, m.MacroAvg.F1, m.MacroAvg.Support)
	fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", "weighted avg", m.WeightedAvg.Precision, m.WeightedAvg.Recall, m.WeightedAvg.F1, m.WeightedAvg.Support)
	b.WriteString("\nconfusion matrix (rows: true, columns: predicted)\n")
	for i, row := range m.Confusion {
		fmt.Fprintf(&b, "%6d", int(m.Classes[i]))
		for _, n := range row {
			fmt.Fprintf(&b, " %8d", n)
		}
		b.WriteString("\n")
	}
	return b.String()
}
