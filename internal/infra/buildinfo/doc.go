// Package buildinfo exposes the binary's version information.
//
// Release builds inject values via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/persist-securestore/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/persist-securestore/internal/infra/buildinfo.Commit=abc123"
//
// When a value was not injected, Get falls back to the module and VCS data
// the Go toolchain embeds (runtime/debug.ReadBuildInfo).
package buildinfo
