// Package config loads and validates the console-gateway YAML configuration,
// expanding ${VAR} environment references and parsing duration strings.
package config
