package inference

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/feature"
)

// Status describes the outcome of a scoring request.
type Status string

// Response statuses.
const (
	StatusOK               Status = "ok"
	StatusModelUnavailable Status = "model_unavailable"
	StatusInvalidInput     Status = "invalid_input"
	StatusShapeMismatch    Status = "shape_mismatch"
	StatusProcessingError  Status = "processing_error"
)

// Extractor turns a URL into a feature vector.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (feature.Vector, error)
}

// Response is the result of scoring one URL. Prediction and
// LegitProbability are only set when Status is StatusOK.
type Response struct {
	URL    string         `json:"url"`
	Vector feature.Vector `json:"vector,omitempty"`

	Prediction *classifier.Prediction `json:"prediction,omitempty"`

	// LegitProbability is the probability of the legitimate class rounded
	// to two decimals.
	LegitProbability *float64 `json:"legit_probability,omitempty"`

	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`

	// Err is the failure behind a non-OK Status, for errors.Is checks.
	Err error `json:"-"`
}

// Scorer scores URLs with the model held by a Handle.
type Scorer struct {
	extractor Extractor
	handle    *Handle
	logger    *slog.Logger
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithScorerLogger sets the logger used for failed requests.
func WithScorerLogger(logger *slog.Logger) ScorerOption {
	return func(s *Scorer) {
		s.logger = logger
	}
}

// NewScorer returns a Scorer.
func NewScorer(extractor Extractor, handle *Handle, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		extractor: extractor,
		handle:    handle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Score extracts and scores rawURL. It never returns an error; failures are
// reported through Response.Status.
//
// The model is checked before extraction so that a missing artifact does not
// trigger network lookups, and the same model snapshot scores the vector even
// if a reload happens in between.
func (s *Scorer) Score(ctx context.Context, rawURL string) Response {
	m := s.handle.Current()
	if m == nil {
		return s.failed(Response{URL: rawURL}, classifier.ErrModelUnavailable)
	}

	vector, err := s.extractor.Extract(ctx, rawURL)
	if err != nil {
		return s.failed(Response{URL: rawURL}, err)
	}
	return s.score(m, Response{URL: rawURL, Vector: vector})
}

// ScoreVector scores an already extracted vector.
func (s *Scorer) ScoreVector(rawURL string, vector feature.Vector) Response {
	m := s.handle.Current()
	if m == nil {
		return s.failed(Response{URL: rawURL, Vector: vector}, classifier.ErrModelUnavailable)
	}
	return s.score(m, Response{URL: rawURL, Vector: vector})
}

func (s *Scorer) score(m *classifier.Model, resp Response) Response {
	pred, err := m.Predict(resp.Vector.Float64s())
	if err != nil {
		return s.failed(resp, err)
	}
	legit := math.Round(m.ProbabilityOf(pred, classifier.Legitimate)*100) / 100
	resp.Prediction = &pred
	resp.LegitProbability = &legit
	resp.Status = StatusOK
	return resp
}

func (s *Scorer) failed(resp Response, err error) Response {
	resp.Status = StatusFor(err)
	resp.Error = err.Error()
	resp.Err = err
	s.logger.Debug("scoring failed", "url", resp.URL, "status", resp.Status, "error", err)
	return resp
}

// StatusFor maps an error from extraction or scoring to a Status.
func StatusFor(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, feature.ErrEmptyURL), errors.Is(err, feature.ErrNotString):
		return StatusInvalidInput
	case errors.Is(err, classifier.ErrModelUnavailable):
		return StatusModelUnavailable
	case errors.Is(err, classifier.ErrShapeMismatch), errors.Is(err, feature.ErrVectorLength):
		return StatusShapeMismatch
	default:
		return StatusProcessingError
	}
}
