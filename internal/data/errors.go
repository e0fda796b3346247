package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrKeyRequired is returned when a delivery key has no interview id or start time.
	ErrKeyRequired = errors.New("delivery key requires interview id and start time")
	// ErrAddressRequired is returned by participant caches for an empty address.
	ErrAddressRequired = errors.New("address is required")
	// ErrDBRequired is returned when a Postgres repository is built without a connection.
	ErrDBRequired = errors.New("database connection is required")
)

func validKey(id string, unix int64) bool { return id != "" && unix > 0 }
