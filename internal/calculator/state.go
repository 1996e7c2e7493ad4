package calculator

// Phase is where the calculator is in a binary operation.
type Phase uint8

const (
	// PhaseIdle has no pending operator.
	PhaseIdle Phase = iota
	// PhasePendingOperator has an operator chosen and no second operand typed yet.
	PhasePendingOperator
	// PhaseEnteringSecond has an operator chosen and the second operand under entry.
	PhaseEnteringSecond
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePendingOperator:
		return "pending_operator"
	case PhaseEnteringSecond:
		return "entering_second"
	default:
		return "unknown"
	}
}

// initialEntry is the entry shown by a fresh or cleared calculator.
const initialEntry = "0"

// maxEntryLen caps how many characters typing may grow the entry to.
const maxEntryLen = 9

// State is an immutable snapshot of the calculator. The zero value is not
// valid; use New.
//
// The first operand and operator only exist outside PhaseIdle, so a state
// cannot wait for a second operand without an operator.
type State struct {
	entry string
	phase Phase
	first float64
	op    Operator
	err   error
}

// New returns the initial state: entry "0", no pending operation.
func New() State {
	return State{entry: initialEntry}
}

// Entry is the raw display string: a numeral under construction or the
// stringified last result. It is never empty. While Err is non-nil the entry
// holds the last value before the failure and presenters show ErrorDisplay.
func (s State) Entry() string {
	if s.entry == "" {
		return initialEntry
	}
	return s.entry
}

func (s State) Phase() Phase {
	return s.phase
}

// FirstOperand returns the left-hand operand of the pending operation.
func (s State) FirstOperand() (float64, bool) {
	if s.phase == PhaseIdle {
		return 0, false
	}
	return s.first, true
}

// Operator returns the pending operator.
func (s State) Operator() (Operator, bool) {
	if s.phase == PhaseIdle {
		return 0, false
	}
	return s.op, true
}

// Waiting reports whether the next digit starts a fresh second operand.
func (s State) Waiting() bool {
	return s.phase == PhasePendingOperator
}

// Err is ErrDivisionByZero or ErrNotANumber after a failed resolution, else nil.
func (s State) Err() error {
	return s.err
}

// IsInitial reports whether s equals New().
func (s State) IsInitial() bool {
	return s.Entry() == initialEntry && s.phase == PhaseIdle && s.err == nil
}

// Value is the entry parsed as a number.
func (s State) Value() float64 {
	return ParseNumber(s.Entry())
}

func (s State) idle() State {
	s.phase = PhaseIdle
	s.first = 0
	s.op = 0
	return s
}

func (s State) pending(first float64, op Operator) State {
	s.phase = PhasePendingOperator
	s.first = first
	s.op = op
	return s
}
