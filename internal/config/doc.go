// Package config provides the configuration of accessdoc: defaults, the
// optional YAML file, environment overrides and validation.
package config
