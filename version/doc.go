// Package version reports the build identity of the influencore binary.
//
// Release builds stamp the values with -ldflags:
//
//	go build -ldflags "-X github.com/influencore/apiclient/version.Version=1.4.0" ./cmd/influencore
//
// Unstamped builds fall back to the VCS data the Go toolchain embeds.
package version
