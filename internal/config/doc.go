// Package config holds the graphix configuration: CLI options with their
// defaults and validation, and the optional .graphix YAML file with per-host
// cookies, headers and timeouts.
package config
