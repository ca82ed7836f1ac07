// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// `loader.go` calls `validateStruct` immediately after unmarshalling the
// merged Koanf tree, so the binary never starts a run with partial or
// malformed configuration.  The rules in use are `required` plus the
// numeric range checks on port, batch size, and pause.

package config

import "github.com/go-playground/validator/v10"

var v = validator.New()

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
