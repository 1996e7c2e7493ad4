package calculator

import "fmt"

// Kind identifies the type of an input event.
type Kind uint8

const (
	KindDigit Kind = iota + 1
	KindDecimal
	KindOperator
	KindEquals
	KindClear
	KindToggleSign
	KindPercent
)

func (k Kind) String() string {
	switch k {
	case KindDigit:
		return "digit"
	case KindDecimal:
		return "decimal"
	case KindOperator:
		return "operator"
	case KindEquals:
		return "equals"
	case KindClear:
		return "clear"
	case KindToggleSign:
		return "toggle_sign"
	case KindPercent:
		return "percent"
	default:
		return "unknown"
	}
}

// Event is one button press. Construct events with the functions below.
type Event struct {
	Kind     Kind
	Digit    byte
	Operator Operator
}

// Digit returns the event for pressing d, which must be '0'..'9'.
func Digit(d byte) (Event, error) {
	if d < '0' || d > '9' {
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidDigit, d)
	}
	return Event{Kind: KindDigit, Digit: d}, nil
}

// MustDigit is like Digit but panics on an invalid digit.
func MustDigit(d byte) Event {
	e, err := Digit(d)
	if err != nil {
		panic(err)
	}
	return e
}

func Decimal() Event { return Event{Kind: KindDecimal} }

func OperatorEvent(op Operator) Event { return Event{Kind: KindOperator, Operator: op} }

func Equals() Event { return Event{Kind: KindEquals} }

func Clear() Event { return Event{Kind: KindClear} }

func ToggleSign() Event { return Event{Kind: KindToggleSign} }

func Percent() Event { return Event{Kind: KindPercent} }

// Label returns the keypad label that produces e.
func (e Event) Label() string {
	switch e.Kind {
	case KindDigit:
		return string(e.Digit)
	case KindDecimal:
		return "."
	case KindOperator:
		return e.Operator.Symbol()
	case KindEquals:
		return "="
	case KindClear:
		return "AC"
	case KindToggleSign:
		return "+/−"
	case KindPercent:
		return "%"
	default:
		return ""
	}
}

func (e Event) String() string {
	return e.Label()
}
