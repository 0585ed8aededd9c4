// Package metric provides Prometheus metrics for the secure store.
//
//   - prometheus.go: registry construction and text exposition
//   - store.go: facility operation counters and histograms
//   - adapter.go: adapter key-rewrite and settlement counters
//
// All metrics live under the "securestore" namespace. Collector sets are
// nil-safe: methods on a nil *Store or *Adapter do nothing, so callers that
// were not given a registerer need no branches.
package metric
