// Package config loads, defaults and validates application settings.
//
// Sources, lowest precedence first: built-in defaults, an optional YAML
// config file, and TASKHUB_-prefixed environment variables. A .env file in
// the working directory is exported into the environment before loading and
// never overrides variables that are already set.
package config
