// Package modkit builds API modules from shared deps and options
package modkit

import "uwhatgov/internal/modkit/module"

// Module is the contract every API module satisfies
type Module = module.Module
