// Package database provides SQLite-based storage for phishscan.
//
// This package implements the ResultDB, which stores:
//   - Check reports for every URL checked from the CLI
//   - Per-URL statistics (first and last check, latest verdict)
//   - Training runs with their evaluation metrics
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for a local history
// 4. WAL mode lets `phishscan history` read while a batch check writes
package database
