// Package version holds the build version string.
package version

// Version is overridden at link time via -ldflags.
var Version = "dev"
