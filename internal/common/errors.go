// Package common defines shared sentinel errors and small helpers used across
// gophmedia components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// Attachment-specific errors.
	ErrorConstraintViolation = errors.New("media constraints not satisfied")
	ErrorEmptyContentType    = errors.New("empty content type")
)
