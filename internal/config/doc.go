// Package config loads, normalizes, and validates medley's TOML
// configuration.
//
// Configuration is resolved from an explicit --config flag, the
// MEDLEY_CONFIG environment variable, ~/.config/medley/config.toml, or a
// medley.toml in the working directory, in that order. Loading always
// starts from Default() so a missing file yields a usable configuration
// except for the required library roots. All path fields are expanded
// (~ and relative paths) before validation so downstream code can treat
// them as absolute.
package config
