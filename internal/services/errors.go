package services

import "errors"

// Dashboard service errors
var (
	// Query errors
	ErrUnknownSubject  = errors.New("unknown subject")
	ErrInvalidGrade    = errors.New("invalid grade selection")
	ErrInvalidLevel    = errors.New("invalid attendance level selection")
	ErrInvalidChartArg = errors.New("invalid chart option")

	// Dataset errors
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
)
