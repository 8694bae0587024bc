// Package model defines the result types shared by the pipeline, the history
// database and the report writers.
//
// This package contains the following main types:
//   - CheckReport: The full result of checking one URL
//   - SimpleReport: A summarized, human-readable view of a CheckReport
//   - Severity: The risk level of a finding or of a whole verdict
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The pipeline, database and report packages all need these
// types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
