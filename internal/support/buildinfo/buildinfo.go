// Package buildinfo carries version metadata stamped at build time.
package buildinfo

// Version is overridden by the linker:
//
//	go build -ldflags "-X vivarium/internal/support/buildinfo.Version=v1.2.3"
var Version = "dev"
