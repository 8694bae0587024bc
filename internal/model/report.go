package model

import (
	"time"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/feature"
	"github.com/nao1215/phishscan/internal/inference"
)

// Verdict is the classification outcome of a check.
type Verdict string

const (
	// VerdictLegitimate means the model scored the URL as legitimate.
	VerdictLegitimate Verdict = "legitimate"

	// VerdictPhishing means the model scored the URL as phishing.
	VerdictPhishing Verdict = "phishing"

	// VerdictUnknown means no prediction was made.
	VerdictUnknown Verdict = "unknown"
)

// VerdictFor converts a class label into a Verdict.
func VerdictFor(label classifier.Label) Verdict {
	switch label {
	case classifier.Legitimate:
		return VerdictLegitimate
	case classifier.Phishing:
		return VerdictPhishing
	default:
		return VerdictUnknown
	}
}

// CheckReport is the full result of checking one URL.
//
// Design decision: We use a single flat struct rather than nesting the
// inference response because:
// 1. The database stores it as one row with a JSON column
// 2. Report writers need the same fields regardless of the outcome
// 3. A failed check still has a URL, a timestamp and a status worth keeping
type CheckReport struct {
	// ID is the history identifier, set when the report is persisted.
	ID string `json:"id,omitempty"`

	// URL is the checked URL exactly as given.
	URL string `json:"url"`

	// CheckedAt is when the check started.
	CheckedAt time.Time `json:"checked_at"`

	// Duration is how long extraction and scoring took.
	Duration time.Duration `json:"duration"`

	// Offline is true when no network lookups were enabled.
	Offline bool `json:"offline"`

	// Vector is the extracted feature vector in schema order.
	Vector feature.Vector `json:"vector,omitempty"`

	// Indicators pairs every vector entry with its indicator name.
	Indicators []feature.Indicator `json:"indicators,omitempty"`

	// Status is the inference outcome.
	Status inference.Status `json:"status"`

	// Verdict is the predicted class.
	Verdict Verdict `json:"verdict"`

	// LegitProbability is the probability of the legitimate class rounded to
	// two decimals. Nil when no prediction was made.
	LegitProbability *float64 `json:"legit_probability,omitempty"`

	// Confidence is the probability of the predicted class.
	Confidence float64 `json:"confidence,omitempty"`

	// Risk summarizes the phishing probability as a severity.
	Risk Severity `json:"risk"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// SimpleReport contains the summarized findings for human-readable output.
	SimpleReport *SimpleReport `json:"simple_report,omitempty"`

	// Error contains any error that occurred during the check.
	Error error `json:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewCheckReport creates a new report for the given URL.
func NewCheckReport(url string) *CheckReport {
	return &CheckReport{
		URL:       url,
		CheckedAt: time.Now(),
		Status:    inference.StatusProcessingError,
		Verdict:   VerdictUnknown,
	}
}

// ApplyResponse copies the scoring outcome into the report.
func (r *CheckReport) ApplyResponse(resp inference.Response) {
	r.Status = resp.Status
	if resp.Vector != nil {
		r.Vector = resp.Vector
	}
	if resp.Status != inference.StatusOK || resp.Prediction == nil {
		r.Verdict = VerdictUnknown
		r.LegitProbability = nil
		if resp.Error != "" {
			r.ErrorMessage = resp.Error
		}
		return
	}

	r.Verdict = VerdictFor(resp.Prediction.Label)
	r.Confidence = resp.Prediction.Confidence
	r.LegitProbability = resp.LegitProbability
	if resp.LegitProbability != nil {
		r.Risk = RiskFromProbability(1 - *resp.LegitProbability)
	}
}

// SetError records err on the report.
func (r *CheckReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// OK reports whether a prediction was made.
func (r *CheckReport) OK() bool {
	return r.Status == inference.StatusOK
}

// IsPhishing reports whether the URL was classified as phishing.
func (r *CheckReport) IsPhishing() bool {
	return r.OK() && r.Verdict == VerdictPhishing
}

// SuspiciousIndicators returns the indicators that point to phishing.
func (r *CheckReport) SuspiciousIndicators() []feature.Indicator {
	var out []feature.Indicator
	for _, ind := range r.Indicators {
		if ind.Value == feature.Suspicious {
			out = append(out, ind)
		}
	}
	return out
}
