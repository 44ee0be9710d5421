package pap

import "errors"

var (
	ErrEncoding               = errors.New("pap: encoding failed")
	ErrMalformedContainer     = errors.New("pap: malformed container")
	ErrDirectory              = errors.New("pap: output directory unavailable")
	ErrLimitExceeded          = errors.New("pap: limit exceeded")
	ErrInvalidBudget          = errors.New("pap: invalid budget")
	ErrUnsupportedFormat      = errors.New("pap: unsupported image format")
	ErrUnsupportedCompression = errors.New("pap: unsupported compression")
)
