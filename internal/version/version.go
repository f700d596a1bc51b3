// Package version exposes build metadata injected via -ldflags.
package version

var (
	// Version is the release version.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = ""
)

// String renders "version (commit)" with the commit shortened.
func String() string {
	if Commit == "" {
		return Version
	}
	c := Commit
	if len(c) > 12 {
		c = c[:12]
	}
	return Version + " (" + c + ")"
}
