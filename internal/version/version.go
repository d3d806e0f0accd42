// Package version reports the grain release, set at link time:
//
//	go build -ldflags "-X git.home.luguber.info/inful/grain/internal/version.Version=v0.3.0"
package version

import "fmt"

var (
	Version   = "dev"
	GitCommit = ""
)

// String returns the version with the commit appended when known.
func String() string {
	if GitCommit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, GitCommit)
}
