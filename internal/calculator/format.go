package calculator

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// maxDisplayLen is the widest entry shown without shortening.
	maxDisplayLen = 9
	// maxFractionDigits bounds the fraction shown for short entries.
	maxFractionDigits = 8
	// exponentDigits is the fraction length of exponential renderings.
	exponentDigits = 3
	// positionalLimit is the magnitude from which numbers are only written
	// in exponential notation.
	positionalLimit = 1e21
)

// Formatter turns raw entries into display text for one locale.
// It is safe for concurrent use.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatter returns a formatter grouping digits the way tag does.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{
		tag:     tag,
		printer: message.NewPrinter(tag),
	}
}

// Locale returns the formatter's language tag.
func (f *Formatter) Locale() language.Tag {
	return f.tag
}

// Display renders entry for the screen:
//   - exponential notation entries that are too wide, or too large to write
//     positionally, are re-rendered with 3 fraction digits;
//   - entries longer than 9 characters with a decimal point keep the integer
//     part and cut the fraction to fit, unless the integer part alone is too
//     wide, in which case they switch to exponential notation;
//   - other entries longer than 9 characters switch to exponential notation;
//   - everything else is grouped per locale with at most 8 fraction digits.
func (f *Formatter) Display(entry string) string {
	exponential := strings.ContainsAny(entry, "eE")
	if exponential && (len(entry) > maxDisplayLen || math.Abs(ParseNumber(entry)) >= positionalLimit) {
		return formatExponential(ParseNumber(entry), exponentDigits)
	}

	if !exponential && len(entry) > maxDisplayLen {
		intPart, fracPart, hasPoint := strings.Cut(entry, ".")
		if !hasPoint {
			return formatExponential(ParseNumber(entry), exponentDigits)
		}
		if len(intPart) > maxDisplayLen {
			return formatExponential(ParseNumber(intPart), exponentDigits)
		}
		keep := min(len(fracPart), maxDisplayLen-len(intPart))
		return intPart + "." + fracPart[:keep]
	}

	v := ParseNumber(entry)
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	}
	return f.printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(maxFractionDigits)))
}

// View is what a presenter needs to draw the calculator.
type View struct {
	Display    string `json:"display"`
	Entry      string `json:"entry"`
	Error      string `json:"error,omitempty"`
	Operator   string `json:"operator,omitempty"`
	Phase      string `json:"phase"`
	ClearLabel string `json:"clear_label"`
	// Compact asks the presenter for the smaller display font.
	Compact bool `json:"compact"`
}

// View renders s.
func (f *Formatter) View(s State) View {
	v := View{
		Entry:      s.Entry(),
		Phase:      s.Phase().String(),
		ClearLabel: ClearLabel(s),
	}

	if op, ok := s.Operator(); ok {
		v.Operator = op.Symbol()
	}

	raw := v.Entry
	if err := s.Err(); err != nil {
		raw = ErrorDisplay
		v.Display = ErrorDisplay
		v.Error = ErrorCode(err)
	} else {
		v.Display = f.Display(v.Entry)
	}
	v.Compact = len([]rune(raw)) > 6

	return v
}

// ClearLabel is "AC" while the entry is "0" with no first operand and "C"
// otherwise.
func ClearLabel(s State) string {
	_, hasFirst := s.FirstOperand()
	if s.Err() == nil && s.Entry() == initialEntry && !hasFirst {
		return "AC"
	}
	return "C"
}

// ErrorCode maps an arithmetic error to a stable identifier.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, ErrNotANumber):
		return "not_a_number"
	default:
		return fmt.Sprintf("unknown: %v", err)
	}
}
