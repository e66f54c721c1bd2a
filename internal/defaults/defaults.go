// Package defaults provides embedded copies of the example config and
// persona files for use by the init subcommand.
package defaults

import _ "embed"

// ConfigYAML is the example configuration file.
//
//go:embed config.example.yaml
var ConfigYAML []byte

// SummaryTxt is the example persona summary.
//
//go:embed summary.example.txt
var SummaryTxt []byte

// ProfileMD is the example persona profile.
//
//go:embed profile.example.md
var ProfileMD []byte
