// Package dataset loads labeled phishing datasets and splits them for
// training and evaluation.
//
// A dataset is a CSV file with a header row. Feature columns are mapped by
// name onto the feature schema, so their order in the file does not matter,
// but every schema indicator must be present. An optional row index column
// ("Index", "index" or "id") is dropped. The label column is "class"
// ("Result" is accepted for older exports) and holds 1 for legitimate and
// -1 for phishing.
package dataset
