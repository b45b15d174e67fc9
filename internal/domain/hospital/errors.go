package hospital

import "errors"

var (
	// ErrNotFound is returned when a facility does not exist or is inactive.
	ErrNotFound = errors.New("hospital not found")

	// ErrValidation is returned for malformed or incomplete input.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when the caller may not act on the facility.
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicate is returned when the registration number is already taken.
	ErrDuplicate = errors.New("registration number already registered")

	// ErrInsufficientResource is returned when a conditional inventory
	// update would drive a count below zero.
	ErrInsufficientResource = errors.New("insufficient resource")

	// ErrInvalidBedState is returned when a bed write would leave
	// occupied greater than total.
	ErrInvalidBedState = errors.New("invalid bed state")
)
