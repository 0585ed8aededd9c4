// Package command provides the securestore-cli command definitions.
//
// It uses urfave/cli/v2 for command parsing. Every command loads the
// configuration (file, SECURESTORE_ environment, flags), and item commands go
// through the persist adapter so keys are rewritten exactly as they are for
// library callers.
package command
