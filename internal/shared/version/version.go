// # internal/shared/version/version.go

// Package version carries the build version stamped into health
// responses and trace metadata.
package version

// Value is the fallback for builds without -ldflags stamping.
var Value = "0.4.0-dev"

func Get() string {
	return Value
}
