package calculator

import "strings"

// Apply returns the state that follows s after e. It never fails: arithmetic
// errors are carried in the returned state's Err.
//
// While s carries an error, Digit, Decimal, Operator and Equals start over
// from the initial state; ToggleSign and Percent are ignored.
func Apply(s State, e Event) State {
	if s.err != nil {
		switch e.Kind {
		case KindToggleSign, KindPercent:
			return s
		case KindDigit, KindDecimal, KindOperator, KindEquals:
			s = New()
		}
	}

	switch e.Kind {
	case KindDigit:
		return applyDigit(s, e.Digit)
	case KindDecimal:
		return applyDecimal(s)
	case KindOperator:
		return applyOperator(s, e.Operator)
	case KindEquals:
		return applyEquals(s)
	case KindClear:
		return New()
	case KindToggleSign:
		s.entry = FormatNumber(-s.Value())
		return s
	case KindPercent:
		s.entry = FormatNumber(s.Value() / 100)
		return s
	default:
		return s
	}
}

// ApplyAll folds events over s in order.
func ApplyAll(s State, events ...Event) State {
	for _, e := range events {
		s = Apply(s, e)
	}
	return s
}

func applyDigit(s State, d byte) State {
	if d < '0' || d > '9' {
		return s
	}
	if s.phase == PhasePendingOperator {
		s.entry = string(d)
		s.phase = PhaseEnteringSecond
		return s
	}

	entry := s.Entry()
	if len(entry) >= maxEntryLen {
		return s
	}
	if entry == initialEntry {
		s.entry = string(d)
	} else {
		s.entry = entry + string(d)
	}
	return s
}

func applyDecimal(s State) State {
	if s.phase == PhasePendingOperator {
		s.entry = "0."
		s.phase = PhaseEnteringSecond
		return s
	}

	entry := s.Entry()
	if strings.Contains(entry, ".") {
		return s
	}
	s.entry = entry + "."
	return s
}

func applyOperator(s State, next Operator) State {
	if !next.valid() {
		return s
	}
	input := s.Value()

	if s.phase != PhaseEnteringSecond {
		return s.pending(input, next)
	}

	result, err := Calculate(s.first, input, s.op)
	if err != nil {
		s.err = err
		return s.pending(s.first, next)
	}
	s.entry = FormatNumber(result)
	return s.pending(result, next)
}

func applyEquals(s State) State {
	if s.phase != PhaseEnteringSecond {
		return s
	}

	result, err := Calculate(s.first, s.Value(), s.op)
	if err != nil {
		s.err = err
	} else {
		s.entry = FormatNumber(result)
	}
	return s.idle()
}
