package inference

import (
	"sync/atomic"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/feature"
)

// Handle holds the model used for inference. The zero value has no model.
// A Handle is safe for concurrent use.
type Handle struct {
	model  atomic.Pointer[classifier.Model]
	schema *feature.Schema
}

// NewHandle returns an empty Handle that only accepts artifacts trained on
// schema. A nil schema skips the schema check.
func NewHandle(schema *feature.Schema) *Handle {
	return &Handle{schema: schema}
}

// Load reads the artifact at path and makes it the current model. On error
// the current model is left untouched.
func (h *Handle) Load(path string) error {
	m, _, err := classifier.LoadArtifact(path, h.schema)
	if err != nil {
		return err
	}
	h.model.Store(m)
	return nil
}

// Swap installs m and returns the previous model.
func (h *Handle) Swap(m *classifier.Model) *classifier.Model {
	return h.model.Swap(m)
}

// Current returns the current model, or nil when none is loaded.
func (h *Handle) Current() *classifier.Model {
	return h.model.Load()
}

// Predict scores v with the current model.
func (h *Handle) Predict(v feature.Vector) (classifier.Prediction, error) {
	m := h.Current()
	if m == nil {
		return classifier.Prediction{}, classifier.ErrModelUnavailable
	}
	return m.Predict(v.Float64s())
}
