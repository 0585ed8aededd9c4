// Package config defines the securestore-cli configuration.
//
// The configuration is loaded by confloader from a YAML file, SECURESTORE_
// environment variables and command-line flags, over the values returned by
// Default. Verify rejects inconsistent settings and Sanitize masks secrets
// before the configuration is printed.
package config
