// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional YAML file. It provides type-safe
// access to the server, storage and scheduler settings while keeping
// configuration details separate from the scheduling engine.
package config
