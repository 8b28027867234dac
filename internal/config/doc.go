// Package config loads and validates the ledgersync TOML configuration.
package config
