package errs

import "errors"

// Domain-specific sentinel errors shared across usecase layers
var (
	// Reservation errors
	ErrReservationNotFound = errors.New("reservation not found")
	ErrSlotNotFound        = errors.New("slot not found")
	ErrSlotConflict        = errors.New("slot conflict")
	ErrSlotIncompatible    = errors.New("slot incompatible with vehicle type")
	ErrInvalidInterval     = errors.New("invalid reservation interval")
	ErrIllegalTransition   = errors.New("illegal status transition")

	// Verification errors
	ErrCodeMismatch        = errors.New("secret code mismatch")
	ErrCodeNotAssigned     = errors.New("secret code not assigned")
	ErrCodeSpaceExhausted  = errors.New("secret code space exhausted")
	ErrOutsideGeofence     = errors.New("outside facility geofence")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrOutsideVerifyWindow = errors.New("outside gate verification window")

	// Authorization errors
	ErrForbidden = errors.New("operation not permitted for actor")
	ErrNotOwner  = errors.New("actor does not own reservation")

	// Validation errors
	ErrDomainValidation = errors.New("domain validation error")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
