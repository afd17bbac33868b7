// Package buildinfo carries version metadata stamped in at link time:
//
//	-X 'github.com/m3rciful/datepicker/core/buildinfo.Version=v1.0.0'
//	-X 'github.com/m3rciful/datepicker/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/datepicker/core/buildinfo.Date=2025-08-30T12:00:00Z'
package buildinfo

import "fmt"

var (
	// Version is the release tag.
	Version = "dev"
	// Commit is the source revision.
	Commit = "local"
	// Date is the RFC3339 build timestamp.
	Date = ""
)

// String renders the build as "version (commit, date)".
func String() string {
	if Date == "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}
