package swimlane

import _ "embed"

// Version is the release of this module. Trim it before display.
//
//go:embed VERSION
var Version string
