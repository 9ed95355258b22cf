package app

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitTag    = ""
	BuildTime = "unknown"
)

// VersionInfo contains version information for the application.
type VersionInfo struct {
	Version   string
	GitCommit string
	GitTag    string
	BuildTime string
	GoVersion string
}

// GetVersionInfo returns the current version information. Values not set
// via ldflags fall back to what the Go toolchain stamped into the binary.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		GitTag:    GitTag,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
	if build, ok := debug.ReadBuildInfo(); ok {
		info.fillFromBuild(build)
	}
	return info
}

func (v *VersionInfo) fillFromBuild(build *debug.BuildInfo) {
	if v.Version == "dev" && build.Main.Version != "" && build.Main.Version != "(devel)" {
		v.Version = build.Main.Version
	}
	for _, s := range build.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.GitCommit == "unknown" && s.Value != "" {
				v.GitCommit = s.Value[:min(len(s.Value), 12)]
			}
		case "vcs.time":
			if v.BuildTime == "unknown" && s.Value != "" {
				v.BuildTime = s.Value
			}
		}
	}
}

// FullString returns a detailed version string for logging.
func (v VersionInfo) FullString() string {
	version := v.Version
	if v.GitTag != "" {
		version = v.GitTag
	}
	return fmt.Sprintf("TuneCast %s (commit: %s, built: %s)", version, v.GitCommit, v.BuildTime)
}
