package classifier

import (
	"fmt"
	"slices"

	"github.com/nao1215/phishscan/internal/feature"
)

// Label is a class label. The dataset encoding is kept verbatim.
type Label int

// Class labels of the phishing datasets.
const (
	Phishing   Label = -1
	Legitimate Label = 1
)

// String returns a human-readable name for the label.
func (l Label) String() string {
	switch l {
	case Phishing:
		return "phishing"
	case Legitimate:
		return "legitimate"
	default:
		return fmt.Sprintf("class(%d)", int(l))
	}
}

// Model is a fitted gradient-boosted ensemble. It is immutable after Fit or
// LoadArtifact returns and safe for concurrent use.
type Model struct {
	// Classes holds the two labels in ascending order. Probabilities are
	// reported in the same order.
	Classes []Label `json:"classes"`

	// InitialLogOdds is the prior log-odds of Classes[1].
	InitialLogOdds float64 `json:"initial_log_odds"`

	// LearningRate scales every tree output.
	LearningRate float64 `json:"learning_rate"`

	// NumFeatures is the input vector length the model was trained on.
	NumFeatures int `json:"num_features"`

	// FeatureNames lists the schema indicators in vector order.
	FeatureNames []string `json:"feature_names,omitempty"`

	// SchemaFingerprint identifies the schema the model was trained on.
	SchemaFingerprint string `json:"schema_fingerprint,omitempty"`

	// Trees are the boosting rounds in fitting order.
	Trees []Tree `json:"trees"`
}

// Prediction is the result of scoring one vector.
type Prediction struct {
	// Label is the class with the larger probability.
	Label Label `json:"label"`

	// Probabilities are ordered like Model.Classes.
	Probabilities [2]float64 `json:"probabilities"`

	// Confidence is the probability of Label.
	Confidence float64 `json:"confidence"`
}

// BindSchema records the schema the model was trained on so that artifacts
// can be checked against the running extractor.
func (m *Model) BindSchema(schema *feature.Schema) {
	m.FeatureNames = slices.Clone(schema.Names())
	m.SchemaFingerprint = schema.Fingerprint()
}

// decision returns the raw ensemble score of x.
func (m *Model) decision(x []float64) float64 {
	score := m.InitialLogOdds
	for i := range m.Trees {
		score += m.LearningRate * m.Trees[i].Predict(x)
	}
	return score
}

// PredictProba returns the class probabilities of x ordered like Classes.
// Values outside an indicator's domain are scored normally.
func (m *Model) PredictProba(x []float64) ([2]float64, error) {
	if m == nil || len(m.Trees) == 0 {
		return [2]float64{}, ErrModelUnavailable
	}
	if len(x) != m.NumFeatures {
		return [2]float64{}, fmt.Errorf("%w: expected %d features, got %d", ErrShapeMismatch, m.NumFeatures, len(x))
	}
	p := sigmoid(m.decision(x))
	return [2]float64{1 - p, p}, nil
}

// Predict scores x and returns the most probable class.
func (m *Model) Predict(x []float64) (Prediction, error) {
	proba, err := m.PredictProba(x)
	if err != nil {
		return Prediction{}, err
	}
	pred := Prediction{
		Label:         m.Classes[0],
		Probabilities: proba,
		Confidence:    proba[0],
	}
	if proba[1] > proba[0] {
		pred.Label = m.Classes[1]
		pred.Confidence = proba[1]
	}
	return pred, nil
}

// ProbabilityOf returns the probability assigned to label, or 0 when the
// label is not one of the model's classes.
func (m *Model) ProbabilityOf(p Prediction, label Label) float64 {
	for i, class := range m.Classes {
		if class == label {
			return p.Probabilities[i]
		}
	}
	return 0
}

// validate checks a deserialized model.
func (m *Model) validate() error {
	if len(m.Classes) != 2 || m.Classes[0] >= m.Classes[1] {
		return fmt.Errorf("%w: classes %v", ErrUnsupportedFormat, m.Classes)
	}
	if m.NumFeatures <= 0 || len(m.Trees) == 0 {
		return fmt.Errorf("%w: empty model", ErrUnsupportedFormat)
	}
	for i := range m.Trees {
		if !m.Trees[i].valid(m.NumFeatures) {
			return fmt.Errorf("%w: tree %d is malformed", ErrUnsupportedFormat, i)
		}
	}
	return nil
}
