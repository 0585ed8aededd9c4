// Package storage defines the key-value backends that hold sealed
// secure-store records.
//
// Three backends are available:
//
//   - BadgerBackend (this package): Badger v3 LSM store with background
//     value-log GC. The default.
//   - sqlite.Backend: a single-table SQLite database in WAL mode.
//   - memory.Backend: a sharded in-process map, for tests and ephemeral use.
//
// Backends see opaque bytes only; encryption happens above this layer.
package storage
