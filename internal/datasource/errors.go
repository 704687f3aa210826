package datasource

import "errors"

var (
	errNotANumber = errors.New("not a number")
	errNotFinite  = errors.New("number is not finite")
)
