package core

import (
	_ "embed"
	"strings"
)

//go:embed version
var libraryVersion string

// Version returns the library version, also stamped into generated code and manifests.
func Version() string {
	return strings.TrimSpace(libraryVersion)
}
