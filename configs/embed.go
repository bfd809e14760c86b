// Package configs provides the embedded configuration template for dfind.
//
// The template is embedded at build time using Go's //go:embed directive so it
// ships inside the binary regardless of how dfind is installed. It is written
// to ~/.config/dfind/config.yaml by 'dfind config init'.
//
// Configuration hierarchy (see internal/config.Load):
//  1. Hardcoded defaults (internal/config NewConfig())
//  2. User config (~/.config/dfind/config.yaml)
//  3. Environment variables (DFIND_*)
//  4. Command-line flags
//
// To modify the template, edit the .yaml file in this directory and rebuild.
package configs

import _ "embed"

// UserConfigTemplate is the commented starting point for user configuration.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
