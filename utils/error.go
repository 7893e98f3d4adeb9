package utils

import (
	"errors"

	"gorm.io/gorm"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrorValidation marks input that fails a business rule (negative rate,
// non-redeemable product, insufficient points). Wrap with fmt.Errorf("%w: ...").
var ErrorValidation = errors.New("validation error")

// ErrorConflict is reserved for concurrent-update conflicts surfaced to clients.
var ErrorConflict = errors.New("conflict")

// ErrorUnauthorized marks missing or bad credentials (wrong password,
// absent session token).
var ErrorUnauthorized = errors.New("unauthorized")

// ErrorForbidden marks a valid identity that is not allowed the operation
// (disabled account, supplier logging into the console).
var ErrorForbidden = errors.New("forbidden")

// NotFoundOr maps gorm's missing-row error to the NotFound kind and lets
// any other persistence error propagate unchanged.
func NotFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorRecordNotFound
	}
	return err
}
