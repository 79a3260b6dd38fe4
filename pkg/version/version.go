// Package version reports the build version of promptbatch.
package version

// Set at build time with
// -ldflags "-X github.com/rshade/promptbatch/pkg/version.version=v1.2.3 -X ...commit=abc123".
//
//nolint:gochecknoglobals // Populated by the linker.
var (
	version = "dev"
	commit  = "none"
)

// GetVersion returns the release version, "dev" for local builds.
func GetVersion() string {
	return version
}

// GetCommit returns the source commit of the build.
func GetCommit() string {
	return commit
}

// String returns "version (commit)".
func String() string {
	return version + " (" + commit + ")"
}
