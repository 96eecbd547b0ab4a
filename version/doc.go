// Package version reports the build version of the ledgerflow binary.
//
// The version and commit are stamped at link time:
//
//	go build -ldflags "-X github.com/kbukum/ledgerflow/version.Version=1.2.0" ./cmd/ledgerflow
//
// Without ldflags the commit falls back to the VCS data the toolchain
// embeds in the binary.
package version
