package sensor

import (
	"context"
	"database/sql/driver"
	"errors"

	"github.com/mattn/go-sqlite3"
)

// Domain errors for the sensor package.
//
//	if errors.Is(err, sensor.ErrUnregisteredSensor) {
//	    // drop the message, nobody owns this device
//	}
var (
	// ErrSensorNotFound is returned when no sensor has the given identity or id.
	ErrSensorNotFound = errors.New("sensor: not found")

	// ErrSensorExists is returned when creating a sensor whose device identity
	// is already registered.
	ErrSensorExists = errors.New("sensor: identity already registered")

	// ErrUnregisteredSensor is returned by the resolver for an unknown
	// identity when no fallback owner is configured.
	ErrUnregisteredSensor = errors.New("sensor: unregistered and no fallback owner")

	// ErrInvalidSensor is returned when a sensor lacks a device id or owner.
	ErrInvalidSensor = errors.New("sensor: invalid")
)

// IsTransient reports whether a store error is likely to succeed on a later
// message: lock contention, a dropped connection or a timeout. It only
// decorates log entries; the pipeline drops the message either way.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
