package build

import (
	"runtime/debug"
	"strings"
)

// Commit and CommitHash are populated via -ldflags at build time
// (e.g. -X github.com/movierun/movie/internal/build.Commit=...). Both are
// left empty in a plain `go build` invocation. Version does not read them;
// it reports only the module version from debug.ReadBuildInfo.
var (
	Commit     string
	CommitHash string
)

// GoVersion is the Go toolchain version this binary was built with.
var GoVersion = goVersionFromBuildInfo()

func goVersionFromBuildInfo() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	return info.GoVersion
}

// Version returns the module version embedded by the Go toolchain, or
// "dev" if this binary wasn't built from a tagged module (e.g. via `go
// run` or a local replace).
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

// Tags returns the build tags this binary was compiled with, parsed from
// the "-tags" build setting debug.ReadBuildInfo exposes.
func Tags() []string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	for _, setting := range info.Settings {
		if setting.Key == "-tags" && setting.Value != "" {
			return strings.Split(setting.Value, ",")
		}
	}
	return nil
}

// RawTags is the unparsed "-tags" build setting string, for display.
var RawTags string
