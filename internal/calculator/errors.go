package calculator

import "errors"

var (
	// ErrDivisionByZero is the status of a state whose last resolution divided by zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrNotANumber is the status of a state whose last resolution produced NaN,
	// e.g. Infinity − Infinity.
	ErrNotANumber = errors.New("result is not a number")

	ErrUnknownKey   = errors.New("unknown key")
	ErrInvalidDigit = errors.New("invalid digit")
)

// ErrorDisplay is the text a presenter shows for a state carrying an arithmetic error.
const ErrorDisplay = "Error"
