package calculator

import (
	"fmt"
	"math"
)

// Calculate applies op to a and b with float64 semantics, except that a zero
// divisor is reported as ErrDivisionByZero instead of yielding an infinity.
// Any other NaN result is reported as ErrNotANumber.
func Calculate(a, b float64, op Operator) (float64, error) {
	var result float64

	switch op {
	case Add:
		result = a + b
	case Subtract:
		result = a - b
	case Multiply:
		result = a * b
	case Divide:
		if b == 0 {
			return math.NaN(), fmt.Errorf("%w: %g %s %g", ErrDivisionByZero, a, op, b)
		}
		result = a / b
	default:
		return math.NaN(), fmt.Errorf("%w: operator %d", ErrUnknownKey, op)
	}

	if math.IsNaN(result) {
		return result, fmt.Errorf("%w: %g %s %g", ErrNotANumber, a, op, b)
	}
	return result, nil
}
