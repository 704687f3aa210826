package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the release of the dashboard server and report CLI
	Version = "0.3.0"

	// APIVersion is the version of the HTTP and WebSocket contracts
	APIVersion = "v1"
)

// Stamped at build time:
//
//	go build -ldflags "-X studentpulse/pkg/contracts.GitCommit=$(git rev-parse --short HEAD)"
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
}

// GetVersionInfo returns the version of the running binary
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		APIVersion:   APIVersion,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
}

// String renders the info on one line, e.g. for a --version flag
func (v VersionInfo) String() string {
	return fmt.Sprintf("studentpulse %s (api %s, commit %s, built %s, %s %s/%s)",
		v.Version, v.APIVersion, v.GitCommit, v.BuildTime, v.GoVersion, v.OS, v.Architecture)
}
