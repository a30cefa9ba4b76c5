package data

import "errors"

// ErrJobNotFound is returned when a job id does not exist in the store.
var ErrJobNotFound = errors.New("job not found")

// ErrJobExists is returned when creating a job whose id is already present.
// Duplicate creates are rejected rather than overwritten so a collision can
// never silently orphan a running worker's record.
var ErrJobExists = errors.New("job already exists")
