// Package main provides the entry point for the phishscan CLI.
//
// phishscan classifies URLs as phishing or legitimate. It extracts thirty
// indicators from the URL string, the page it serves and reputation sources,
// and scores them with a gradient-boosted model trained by the train command.
//
// Usage:
//
//	phishscan train --dataset phishing.csv
//	phishscan check <url>
//	phishscan check --list <file>
//
// See --help for all available options.
package main

// main is the entry point for phishscan.
func main() {
	Execute()
}
