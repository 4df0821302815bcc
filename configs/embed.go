// Package configs provides the configuration templates written by spor.
//
// The templates are embedded at build time so every distribution carries them:
//   - user-config.example.yaml is written by `spor config init` to the user config path
//   - project-config.example.yaml is written by `spor init` to .spor/config.yaml
//
// Precedence is documented in internal/config.
package configs

import _ "embed"

// UserConfigTemplate is the template for machine-wide settings.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for repository settings.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
