// Package version carries build metadata set with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/banshee-data/markerpose/internal/version.Version=v0.3.0"
package version

import "fmt"

var (
	Version   = "dev"
	GitSHA    = "unknown"
	BuildTime = "unknown"
)

// String formats the build metadata for -version output and status pages.
func String() string {
	return fmt.Sprintf("markerpose %s (%s, built %s)", Version, GitSHA, BuildTime)
}
