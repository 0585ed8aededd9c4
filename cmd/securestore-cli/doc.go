// Package main provides the entry point for securestore-cli.
//
// securestore-cli reads and writes encrypted items through the persist
// adapter, and manages backups of the underlying backend.
//
// Usage:
//
//	securestore-cli [global flags] command [flags] [args]
//	securestore-cli --key-file store.key set session:42 '{"user":"ada"}'
//	SECURESTORE_PASSPHRASE=... securestore-cli get session:42
//	securestore-cli -o json stats
package main
