package model

import (
	"cmp"
	"slices"
	"time"

	"github.com/nao1215/phishscan/internal/feature"
)

// SimpleReport is a summarized, human-readable report.
// It extracts key findings from the full check report for quick review.
//
// Design decision: We create a separate simplified report rather than
// just printing parts of CheckReport because:
// 1. It provides a consistent, curated view of the most important findings
// 2. It can be serialized to JSON for tools that want structured but simple output
// 3. It separates presentation concerns from data collection
type SimpleReport struct {
	// URL is the checked URL.
	URL string `json:"url"`

	// CheckedAt is when the check was performed.
	CheckedAt time.Time `json:"checked_at"`

	// Verdict is the predicted class.
	Verdict Verdict `json:"verdict"`

	// LegitProbability is copied from the check report.
	LegitProbability *float64 `json:"legit_probability,omitempty"`

	// Risk is the verdict severity.
	Risk Severity `json:"risk"`

	// RiskText is the human-readable risk.
	RiskText string `json:"risk_text"`

	// === Indicator Summary ===

	// SuspiciousCount is the number of indicators pointing to phishing.
	SuspiciousCount int `json:"suspicious_count"`

	// NeutralCount is the number of ambiguous or unavailable indicators.
	NeutralCount int `json:"neutral_count"`

	// LegitimateCount is the number of indicators pointing to a legitimate site.
	LegitimateCount int `json:"legitimate_count"`

	// === Severity Summary ===

	CriticalCount int `json:"critical_count"`
	HighCount     int `json:"high_count"`
	MediumCount   int `json:"medium_count"`
	LowCount      int `json:"low_count"`
	InfoCount     int `json:"info_count"`

	// Findings lists the suspicious indicators, most severe first.
	Findings []Finding `json:"findings,omitempty"`

	// Error contains any error message if the check failed.
	Error string `json:"error,omitempty"`
}

// Finding represents a single suspicious indicator in the simple report.
type Finding struct {
	// Type is the indicator name.
	Type string `json:"type"`

	// Category is the indicator category.
	Category string `json:"category"`

	// Severity is the risk level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Impact explains why the indicator matters.
	Impact string `json:"impact,omitempty"`

	// Recommendation provides guidance for the user.
	Recommendation string `json:"recommendation,omitempty"`
}

// NewSimpleReport creates a new SimpleReport from a CheckReport.
func NewSimpleReport(report *CheckReport) *SimpleReport {
	simple := &SimpleReport{
		URL:              report.URL,
		CheckedAt:        report.CheckedAt,
		Verdict:          report.Verdict,
		LegitProbability: report.LegitProbability,
		Risk:             report.Risk,
		RiskText:         report.Risk.String(),
		Error:            report.ErrorMessage,
	}

	for _, ind := range report.Indicators {
		switch ind.Value {
		case feature.Suspicious:
			simple.SuspiciousCount++
			simple.addFinding(ind)
		case feature.Neutral:
			simple.NeutralCount++
		case feature.Legitimate:
			simple.LegitimateCount++
		}
	}

	// Most severe first; equal severities keep schema order.
	slices.SortStableFunc(simple.Findings, func(a, b Finding) int {
		return cmp.Compare(b.Severity, a.Severity)
	})
	simple.countBySeverity()

	return simple
}

// addFinding adds a finding for a suspicious indicator.
func (s *SimpleReport) addFinding(ind feature.Indicator) {
	info := GetFindingInfo(ind.Name)
	s.Findings = append(s.Findings, Finding{
		Type:           ind.Name,
		Category:       ind.Category.String(),
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          info.Title,
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
	})
}

// countBySeverity counts findings by severity level.
func (s *SimpleReport) countBySeverity() {
	for _, f := range s.Findings {
		switch f.Severity {
		case SeverityCritical:
			s.CriticalCount++
		case SeverityHigh:
			s.HighCount++
		case SeverityMedium:
			s.MediumCount++
		case SeverityLow:
			s.LowCount++
		case SeverityInfo:
			s.InfoCount++
		}
	}
}

// TotalFindings returns the total number of findings.
func (s *SimpleReport) TotalFindings() int {
	return len(s.Findings)
}

// HasFindings returns true if there are any findings.
func (s *SimpleReport) HasFindings() bool {
	return len(s.Findings) > 0
}

// GetFindingsBySeverity returns findings filtered by severity.
func (s *SimpleReport) GetFindingsBySeverity(severity Severity) []Finding {
	var result []Finding
	for _, f := range s.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}
