// Package logger provides structured logging for the secure store.
//
//   - logger.go: slog handler configuration and the Logger interface
//   - context.go: context-carried loggers and operation IDs
//   - redact.go: attribute redaction for secrets and stored values
//
// Stored values and key material never reach a log line: attributes whose
// name marks them as secret are replaced before the handler writes them.
package logger
