package model

import (
	"errors"
	"testing"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/feature"
	"github.com/nao1215/phishscan/internal/inference"
)

func probability(v float64) *float64 {
	return &v
}

// TestNewCheckReport tests the defaults of a new report.
func TestNewCheckReport(t *testing.T) {
	t.Parallel()

	r := NewCheckReport("https://example.com")
	if r.URL != "https://example.com" {
		t.Errorf("unexpected URL %q", r.URL)
	}
	if r.CheckedAt.IsZero() {
		t.Error("expected CheckedAt to be set")
	}
	if r.Verdict != VerdictUnknown {
		t.Errorf("expected unknown verdict, got %q", r.Verdict)
	}
	if r.OK() {
		t.Error("a new report must not be OK")
	}
}

// TestCheckReportApplyResponse tests copying inference results.
func TestCheckReportApplyResponse(t *testing.T) {
	t.Parallel()

	t.Run("phishing prediction", func(t *testing.T) {
		t.Parallel()

		r := NewCheckReport("http://192.168.0.1/login")
		r.ApplyResponse(inference.Response{
			URL:    r.URL,
			Vector: feature.Vector{feature.Suspicious},
			Prediction: &classifier.Prediction{
				Label:         classifier.Phishing,
				Probabilities: [2]float64{0.92, 0.08},
				Confidence:    0.92,
			},
			LegitProbability: probability(0.08),
			Status:           inference.StatusOK,
		})

		if !r.IsPhishing() {
			t.Error("expected phishing verdict")
		}
		if r.Risk != SeverityCritical {
			t.Errorf("expected critical risk, got %v", r.Risk)
		}
		if r.Confidence != 0.92 {
			t.Errorf("unexpected confidence %v", r.Confidence)
		}
		if len(r.Vector) != 1 {
			t.Errorf("expected vector to be copied, got %v", r.Vector)
		}
	})

	t.Run("model unavailable", func(t *testing.T) {
		t.Parallel()

		r := NewCheckReport("https://example.com")
		r.ApplyResponse(inference.Response{
			URL:    r.URL,
			Status: inference.StatusModelUnavailable,
			Error:  classifier.ErrModelUnavailable.Error(),
		})

		if r.OK() || r.IsPhishing() {
			t.Error("report without prediction must not be OK")
		}
		if r.LegitProbability != nil {
			t.Error("expected no probability")
		}
		if r.ErrorMessage == "" {
			t.Error("expected error message")
		}
		if r.Verdict != VerdictUnknown {
			t.Errorf("expected unknown verdict, got %q", r.Verdict)
		}
	})
}

// TestCheckReportSetError tests error recording.
func TestCheckReportSetError(t *testing.T) {
	t.Parallel()

	r := NewCheckReport("https://example.com")
	r.SetError(errors.New("boom"))
	if r.ErrorMessage != "boom" {
		t.Errorf("unexpected error message %q", r.ErrorMessage)
	}
}

// TestVerdictFor tests label conversion.
func TestVerdictFor(t *testing.T) {
	t.Parallel()

	if VerdictFor(classifier.Legitimate) != VerdictLegitimate {
		t.Error("expected legitimate")
	}
	if VerdictFor(classifier.Phishing) != VerdictPhishing {
		t.Error("expected phishing")
	}
	if VerdictFor(classifier.Label(7)) != VerdictUnknown {
		t.Error("expected unknown")
	}
}

// TestNewSimpleReport tests summarizing indicators into findings.
func TestNewSimpleReport(t *testing.T) {
	t.Parallel()

	schema := feature.DefaultSchema()
	v := make(feature.Vector, schema.Len())
	for i := range v {
		v[i] = feature.Legitimate
	}
	ipIdx, _ := schema.IndexOf(feature.NameUsingIP)
	statsIdx, _ := schema.IndexOf(feature.NameStatsReport)
	iframeIdx, _ := schema.IndexOf(feature.NameIframeRedirection)
	rankIdx, _ := schema.IndexOf(feature.NamePageRank)
	v[ipIdx] = feature.Suspicious
	v[statsIdx] = feature.Suspicious
	v[iframeIdx] = feature.Suspicious
	v[rankIdx] = feature.Neutral

	r := NewCheckReport("http://10.0.0.1/")
	r.Indicators = schema.Describe(v)
	r.Verdict = VerdictPhishing
	r.Risk = SeverityHigh

	simple := NewSimpleReport(r)

	if simple.SuspiciousCount != 3 || simple.NeutralCount != 1 || simple.LegitimateCount != 26 {
		t.Errorf("unexpected counts: %d/%d/%d", simple.SuspiciousCount, simple.NeutralCount, simple.LegitimateCount)
	}
	if simple.TotalFindings() != 3 || !simple.HasFindings() {
		t.Fatalf("expected 3 findings, got %d", simple.TotalFindings())
	}
	if simple.Findings[0].Type != feature.NameStatsReport {
		t.Errorf("expected most severe finding first, got %q", simple.Findings[0].Type)
	}
	if simple.Findings[1].Type != feature.NameUsingIP {
		t.Errorf("expected UsingIP second, got %q", simple.Findings[1].Type)
	}
	if simple.Findings[1].Category != "lexical" {
		t.Errorf("unexpected category %q", simple.Findings[1].Category)
	}
	if simple.CriticalCount != 1 || simple.HighCount != 1 || simple.LowCount != 1 {
		t.Errorf("unexpected severity counts: %+v", simple)
	}
	if got := simple.GetFindingsBySeverity(SeverityLow); len(got) != 1 || got[0].Type != feature.NameIframeRedirection {
		t.Errorf("unexpected low findings: %+v", got)
	}
	if simple.RiskText != "HIGH" {
		t.Errorf("unexpected risk text %q", simple.RiskText)
	}
	if got := r.SuspiciousIndicators(); len(got) != 3 {
		t.Errorf("expected 3 suspicious indicators, got %d", len(got))
	}
}
