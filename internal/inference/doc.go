// Package inference serves predictions from a trained artifact.
//
// A Handle holds the current model behind an atomic pointer. Readers never
// block and always see either the old or the new model in full; a Watcher
// swaps in a freshly written artifact and keeps the previous model when the
// new one fails to load.
//
// A Scorer combines an extractor with a Handle and turns every outcome into a
// Response whose Status distinguishes a real prediction from invalid input,
// a missing model, a vector shape mismatch and other processing errors. A
// missing model is always reported as such and never answered with a default
// probability.
package inference
