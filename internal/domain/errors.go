package domain

import "errors"

var (
	// ErrTypeConversion is returned when a year or state code is not an integer.
	ErrTypeConversion = errors.New("type conversion")

	// ErrFileNotFound is returned when a dataset file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidState is returned when a state code does not occur in a year's data.
	ErrInvalidState = errors.New("invalid state")

	// ErrMissingColumn is returned when a dataset lacks a required column.
	ErrMissingColumn = errors.New("missing column")
)
