// Package pipeline provides a framework for executing check steps in sequence.
//
// The pipeline pattern is used to process URLs through multiple stages:
// feature extraction, classification, summarization and persistence. Each
// stage is implemented as a Step that receives the current report and can
// modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for slow lookups
// 4. It lets the CLI skip persistence without special cases
//
// The pipeline supports both individual checks and batch processing with
// concurrency control using errgroup.
package pipeline
