package store

import (
	"errors"
	"fmt"
)

// ErrImmutableID is returned when a mutation tries to change a record's id
// or owner.
var ErrImmutableID = errors.New("record id and owner are immutable")

// ReferentialError reports a vehicleId that does not resolve to a live
// vehicle, or a vehicle delete blocked by its remaining entries.
type ReferentialError struct {
	VehicleID string
	Entries   int
}

func (e *ReferentialError) Error() string {
	if e.Entries > 0 {
		return fmt.Sprintf("vehicle %s still has %d maintenance entries", e.VehicleID, e.Entries)
	}
	return fmt.Sprintf("unknown vehicle %s", e.VehicleID)
}

// NotFoundError reports a mutation against an id absent from the collection.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// UploadError reports a failed or cancelled invoice upload. The entry record
// is never written when its upload failed, so the caller can tell "save
// blocked pending invoice" apart from a record-write failure.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("invoice upload %s failed: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
