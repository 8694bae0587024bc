// Package config provides configuration structures and utilities for phishscan.
// It defines the options for checking URLs and training the classifier, the
// .phishscan YAML file that overrides their defaults, and the XDG paths of
// the model artifact, the history database and log files. Secrets such as
// the Open PageRank API key come from the environment or a .env file.
package config
