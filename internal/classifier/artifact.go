package classifier

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/nao1215/phishscan/internal/feature"
)

// FormatVersion is the artifact layout written by SaveArtifact.
const FormatVersion = 1

// Artifact is the on-disk form of a trained model.
type Artifact struct {
	FormatVersion int              `json:"format_version"`
	CreatedAt     time.Time        `json:"created_at"`
	Params        GradientBoosting `json:"params"`
	Evaluation    *Metrics         `json:"evaluation,omitempty"`

	// Model is the serialized Model. Checksum covers its compact encoding.
	Model    json.RawMessage `json:"model"`
	Checksum string          `json:"checksum"`
}

// NewArtifact serializes m and computes its checksum.
func NewArtifact(m *Model, params GradientBoosting, evaluation *Metrics, createdAt time.Time) (*Artifact, error) {
	if m == nil {
		return nil, ErrModelUnavailable
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	return &Artifact{
		FormatVersion: FormatVersion,
		CreatedAt:     createdAt.UTC(),
		Params:        params,
		Evaluation:    evaluation,
		Model:         payload,
		Checksum:      checksum(payload),
	}, nil
}

func checksum(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// SaveArtifact writes a to path, replacing any existing artifact. The file is
// written to a temporary name in the same directory and renamed into place,
// so readers never observe a partial artifact.
func SaveArtifact(path string, a *Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // already renamed on success

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads the artifact at path and returns its model.
//
// A missing file yields ErrModelUnavailable. When schema is not nil, the
// artifact must have been trained on a schema with the same fingerprint and
// length, otherwise ErrSchemaMismatch is returned.
func LoadArtifact(path string, schema *feature.Schema) (*Model, *Artifact, error) {
	data, err := os.ReadFile(path) //nolint:gosec // model path is provided by the user
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", ErrModelUnavailable, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return DecodeArtifact(data, schema)
}

// DecodeArtifact parses and verifies an artifact document.
func DecodeArtifact(data []byte, schema *feature.Schema) (*Model, *Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	if a.FormatVersion != FormatVersion {
		return nil, nil, fmt.Errorf("%w: version %d", ErrUnsupportedFormat, a.FormatVersion)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, a.Model); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	if checksum(compact.Bytes()) != a.Checksum {
		return nil, nil, ErrChecksumMismatch
	}

	var m Model
	if err := json.Unmarshal(compact.Bytes(), &m); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	if err := m.validate(); err != nil {
		return nil, nil, err
	}

	if schema != nil {
		if m.NumFeatures != schema.Len() || m.SchemaFingerprint != schema.Fingerprint() {
			return nil, nil, fmt.Errorf("%w: artifact has %d features (%s), extractor has %d (%s)",
				ErrSchemaMismatch, m.NumFeatures, short(m.SchemaFingerprint), schema.Len(), short(schema.Fingerprint()))
		}
	}
	return &m, &a, nil
}

func short(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	if fingerprint == "" {
		return "unbound"
	}
	return fingerprint
}
