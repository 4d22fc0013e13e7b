// SPDX-License-Identifier: MIT
//
// Package build carries the metadata embedded into the timbre binary at
// compile time through linker flags:
//
//	go build -ldflags "-X timbre/pkg/build.buildName=timbre \
//	  -X timbre/pkg/build.buildVersion=0.3.0 ..."
//
// Development builds run without the flags and report the defaults.
package build

import "fmt"

// Description is the one-line summary shown by the command line help.
const Description = "Synthesize Bessel-modulated timbres to WAV and inspect their spectra"

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultFlags()
)

func defaultFlags() *ldFlags {
	return &ldFlags{
		Name:        "timbre",
		Description: Description,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize validates and copies build information from ldflags variables
// into the buildFlags struct. On error the development defaults are kept, so
// callers may log the error and carry on.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String renders the build information for the version banner.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}
