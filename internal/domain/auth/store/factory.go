package store

import (
	"fmt"

	"gorm.io/gorm"
)

// Driver identifiers supported by the user store.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Dependencies captures external handles required by certain drivers.
type Dependencies struct {
	DB *gorm.DB
}

// New creates a user store based on the provided configuration.
func New(cfg Config, deps Dependencies) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		if deps.DB == nil {
			return nil, fmt.Errorf("sqlite driver requires database handle")
		}
		return NewSQLite(deps.DB)
	default:
		return nil, fmt.Errorf("unsupported user store driver: %s", driver)
	}
}
