// Package env declares every environment variable the e2e kit reads.
package env

import "github.com/trebent/envparser"

// Parse resolves all registered variables. Call once, before anything
// reads a value.
func Parse() error {
	return envparser.Parse()
}
