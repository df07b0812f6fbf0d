// Package buildvars holds the values injected with -ldflags "-X ..." at build time.
package buildvars

import (
	"fmt"
	"strconv"
	"time"
)

var (
	GitCommit       string
	Version         string
	BuildDateString string
	BuildDate       *time.Time
)

func init() {
	unixTS, err := strconv.ParseInt(BuildDateString, 10, 64)
	if err == nil {
		BuildDate = ptr(time.Unix(unixTS, 0))
	}
}

func ptr[T any](in T) *T {
	return &in
}

// Summary is a one-line human-readable description of the build.
func Summary() string {
	version := Version
	if version == "" {
		version = "devel"
	}
	result := version
	if GitCommit != "" {
		result += fmt.Sprintf(" (commit %s)", GitCommit)
	}
	if BuildDate != nil {
		result += fmt.Sprintf(", built at %s", BuildDate.UTC().Format(time.RFC3339))
	}
	return result
}
