// SPDX-License-Identifier: MIT
//
// Package build exposes build metadata (name, version, commit, timestamp)
// embedded into the binary at compile time via -ldflags. During development
// builds without ldflags the values fall back to "dev".
package build

type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Populated by -ldflags at compile time; empty during development.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

// GetInfo returns the build information, substituting development
// placeholders for any flag that was not set at link time.
func GetInfo() Info {
	return Info{
		Name:    orDev(buildName, "earshot"),
		Time:    orDev(buildTime, "unknown"),
		Commit:  orDev(buildCommit, "unknown"),
		Version: orDev(buildVersion, "dev"),
	}
}

func orDev(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
