// Package config loads, normalizes, and validates the medio TOML
// configuration. Loading never requires a file to exist: defaults cover every
// field, and an explicit path that is missing simply yields the defaults.
package config
