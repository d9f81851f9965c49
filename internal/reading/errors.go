package reading

import "errors"

var (
	// ErrMissingOwner is returned when a reading has no owner snapshot.
	// Such a row would be unattributable, so it is rejected outright.
	ErrMissingOwner = errors.New("reading: missing owner snapshot")

	// ErrMissingSensor is returned when a reading has no sensor id.
	ErrMissingSensor = errors.New("reading: missing sensor id")
)
