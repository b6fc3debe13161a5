// Package simerr holds the error taxonomy shared by the pixel driver packages.
package simerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks an invalid configuration: unknown channel order, bad CLI combination.
	ErrConfig = errors.New("config error")

	// ErrValidation marks a shape mismatch in coordinates or pixel data.
	ErrValidation = errors.New("validation error")

	// ErrFormat marks an unreadable or malformed coordinate file.
	ErrFormat = errors.New("format error")

	// ErrIndex marks an out-of-range pixel write.
	ErrIndex = errors.New("index error")
)

func Configf(format string, args ...any) error {
	return wrap(ErrConfig, format, args...)
}

func Validationf(format string, args ...any) error {
	return wrap(ErrValidation, format, args...)
}

func Formatf(format string, args ...any) error {
	return wrap(ErrFormat, format, args...)
}

func Indexf(format string, args ...any) error {
	return wrap(ErrIndex, format, args...)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
