// Package version resolves the build version string.
package version

import (
	"runtime/debug"
	"strings"
)

// buildVersion is set via -ldflags "-X github.com/stackbyhq/stackby-mcp/internal/version.buildVersion=...".
var buildVersion = ""

// Module returns the short binary name used in version output.
func Module() string {
	return "stackby-mcp"
}

// Current returns the best available version string: the ldflags override,
// then the module version from build info, then a development placeholder.
func Current() string {
	if v := strings.TrimSpace(buildVersion); v != "" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
			return v
		}
	}
	return "v0.0.0-dev"
}
