// Package version holds build metadata, set at link time:
//
//	go build -ldflags "-X github.com/fbz-tec/dbxport/internal/version.AppVersion=v1.0.0"
package version

import (
	"fmt"
	"runtime"
)

var (
	AppVersion = "dev"
	BuildTime  = "unknown"
	GitCommit  = "none"
)

// String is the one-line summary printed by the version command.
func String() string {
	return fmt.Sprintf("dbxport %s (commit %s, built %s, %s %s/%s)",
		AppVersion, GitCommit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
