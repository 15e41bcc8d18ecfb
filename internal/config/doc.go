// Package config loads, normalizes, and validates synthkit CLI configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// SYNTHKIT_TOKEN. The library packages never read this configuration
// directly: the CLI translates it into explicit client settings.
package config
