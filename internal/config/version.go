package config

import "fmt"

// Build metadata for the takaro-mcp binary, stamped via -ldflags:
//
//	-X github.com/gettakaro/MCP/internal/config.Version=...
//	-X github.com/gettakaro/MCP/internal/config.Build=...
//	-X github.com/gettakaro/MCP/internal/config.GitCommit=...
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the release version, "dev" for unstamped builds.
func GetVersion() string {
	return Version
}

// GetBuild returns the build timestamp.
func GetBuild() string {
	return Build
}

// GetGitCommit returns the git commit hash.
func GetGitCommit() string {
	return GitCommit
}

// GetFullVersion returns the version with build info, as printed by -version.
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", Version, Build, GitCommit)
}
