// Package classifier implements the gradient-boosted tree ensemble that
// scores feature vectors, together with its training, evaluation and
// persistence.
//
// # Model
//
// The model is an additive ensemble of shallow regression trees fitted with
// binary log-loss. Training starts from the prior log-odds of the positive
// class and adds one tree per round, each fitted to the residuals of the
// current ensemble with Newton-step leaf values. The positive class is the
// larger of the two labels, so with the dataset encoding (-1 phishing, 1
// legitimate) probabilities are reported in the order [phishing, legitimate].
//
// # Artifact
//
// A trained model is persisted as a single JSON artifact that records the
// feature names and schema fingerprint it was trained on and a BLAKE2b
// checksum of the model payload. Loading refuses artifacts whose schema
// differs from the running one (ErrSchemaMismatch) or whose payload was
// altered (ErrChecksumMismatch). Saving replaces any previous artifact
// atomically; there is no versioning.
//
// # Concurrency
//
// Training is single-threaded. A fitted Model is immutable, so Predict and
// PredictProba are safe for concurrent use.
package classifier
