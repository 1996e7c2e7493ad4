package calculator

import (
	"fmt"
	"strings"
)

// ParseKey maps a keypad label to its event. Both clear labels ("AC" and
// "C") reset the calculator.
func ParseKey(label string) (Event, error) {
	label = strings.TrimSpace(label)

	switch label {
	case ".", ",":
		return Decimal(), nil
	case "=":
		return Equals(), nil
	case "AC", "C", "ac", "c":
		return Clear(), nil
	case "+/−", "+/-", "±":
		return ToggleSign(), nil
	case "%":
		return Percent(), nil
	}

	if len(label) == 1 && label[0] >= '0' && label[0] <= '9' {
		return Digit(label[0])
	}

	op, err := ParseOperator(label)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownKey, label)
	}
	return OperatorEvent(op), nil
}

// ParseKeys maps labels in order, stopping at the first unknown one.
func ParseKeys(labels []string) ([]Event, error) {
	events := make([]Event, 0, len(labels))
	for i, label := range labels {
		e, err := ParseKey(label)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		events = append(events, e)
	}
	return events, nil
}

// Button is one key of the on-screen grid.
type Button struct {
	Label     string `json:"label"`
	AriaLabel string `json:"aria_label,omitempty"`
	Kind      string `json:"kind"`
	// Style groups keys that share a color: "operator", "function" or "digit".
	Style string `json:"style"`
	Span  int    `json:"span"`
}

// Keypad returns the four-column grid, row by row. The first button is the
// clear key, whose label follows ClearLabel.
func Keypad(s State) []Button {
	rows := [][]string{
		{ClearLabel(s), "+/−", "%", "÷"},
		{"7", "8", "9", "×"},
		{"4", "5", "6", "−"},
		{"1", "2", "3", "+"},
		{"0", ".", "="},
	}

	buttons := make([]Button, 0, 19)
	for _, row := range rows {
		for _, label := range row {
			e, err := ParseKey(label)
			if err != nil {
				continue
			}
			b := Button{
				Label:     label,
				AriaLabel: ariaLabel(e),
				Kind:      e.Kind.String(),
				Style:     buttonStyle(e),
				Span:      1,
			}
			if label == "0" {
				b.Span = 2
			}
			buttons = append(buttons, b)
		}
	}
	return buttons
}

func ariaLabel(e Event) string {
	switch e.Kind {
	case KindClear:
		return "Clear"
	case KindToggleSign:
		return "Toggle Sign"
	case KindPercent:
		return "Percent"
	case KindDecimal:
		return "Decimal"
	case KindEquals:
		return "Equals"
	case KindOperator:
		switch e.Operator {
		case Add:
			return "Add"
		case Subtract:
			return "Subtract"
		case Multiply:
			return "Multiply"
		case Divide:
			return "Divide"
		}
	}
	return ""
}

func buttonStyle(e Event) string {
	switch e.Kind {
	case KindOperator, KindEquals:
		return "operator"
	case KindClear, KindToggleSign, KindPercent:
		return "function"
	default:
		return "digit"
	}
}
