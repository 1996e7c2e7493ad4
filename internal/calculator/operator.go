package calculator

import "fmt"

// Operator is one of the four binary operations on the keypad.
type Operator uint8

const (
	Add Operator = iota + 1
	Subtract
	Multiply
	Divide
)

// Symbol returns the glyph shown on the keypad.
func (op Operator) Symbol() string {
	switch op {
	case Add:
		return "+"
	case Subtract:
		return "−"
	case Multiply:
		return "×"
	case Divide:
		return "÷"
	default:
		return ""
	}
}

// Name returns a lower-case identifier suitable for metrics and span attributes.
func (op Operator) Name() string {
	switch op {
	case Add:
		return "add"
	case Subtract:
		return "subtract"
	case Multiply:
		return "multiply"
	case Divide:
		return "divide"
	default:
		return "unknown"
	}
}

func (op Operator) String() string {
	return op.Symbol()
}

func (op Operator) valid() bool {
	return op >= Add && op <= Divide
}

// ParseOperator accepts the keypad glyphs and their ASCII stand-ins.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "+":
		return Add, nil
	case "−", "-":
		return Subtract, nil
	case "×", "*", "x":
		return Multiply, nil
	case "÷", "/":
		return Divide, nil
	}
	return 0, fmt.Errorf("%w: operator %q", ErrUnknownKey, s)
}
