// Package config loads and validates streamd configuration.
//
// Configuration is YAML with ${VAR} environment expansion. Load order:
// read file, expand env vars, unmarshal, apply defaults, validate.
package config
