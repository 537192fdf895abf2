// Package version carries the build identity shown by the CLI and the file server's info page.
package version

import "runtime/debug"

// These variables are populated at build time using -ldflags
var (
	// Version is the semantic version of the application
	Version = "dev"

	// BuildTime is the time the binary was built
	BuildTime = "unknown"
)

// GetVersion returns the current version.  Builds without ldflags fall back to the module version recorded by
// `go install`.
func GetVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// GetBuildTime returns the build time of the binary
func GetBuildTime() string {
	return BuildTime
}

// Banner is the short identification served on the file server's root page
func Banner() string {
	return "kodicast v" + GetVersion()
}

// GetVersionInfo returns a formatted string with version information
func GetVersionInfo() string {
	return Banner() + " (built " + BuildTime + ")"
}
