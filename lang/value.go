package lang

import (
	"math"
	"strconv"
	"strings"

	"github.com/sergev/sbasic/diagnostics"
)

// ValueType enumerates the runtime value categories.
type ValueType int

const (
	TypeString ValueType = iota
	TypeNumber
	TypeArray
)

func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "String"
	case TypeNumber:
		return "Number"
	case TypeArray:
		return "Array"
	default:
		return "unknown"
	}
}

// Value represents any runtime object. The zero Value is the empty string,
// which is also what an unset variable or missing array element reads as.
type Value struct {
	Type    ValueType
	payload interface{}
}

// Boolean results are the strings "True" and "False".
const (
	TrueString  = "True"
	FalseString = "False"
)

// NumberValue constructs a number Value.
func NumberValue(f float64) Value {
	return Value{Type: TypeNumber, payload: f}
}

// StringValue constructs a string Value.
func StringValue(s string) Value {
	return Value{Type: TypeString, payload: s}
}

// ArrayValue wraps an array. A nil array is treated as empty.
func ArrayValue(a *Array) Value {
	if a == nil {
		a = NewArray()
	}
	return Value{Type: TypeArray, payload: a}
}

// BoolValue returns "True" or "False".
func BoolValue(b bool) Value {
	if b {
		return StringValue(TrueString)
	}
	return StringValue(FalseString)
}

// Num returns the payload of a number value.
func (v Value) Num() float64 {
	f, _ := v.payload.(float64)
	return f
}

// Str returns the payload of a string value.
func (v Value) Str() string {
	s, _ := v.payload.(string)
	return s
}

// Arr returns the payload of an array value, or an empty array.
func (v Value) Arr() *Array {
	if a, ok := v.payload.(*Array); ok && a != nil {
		return a
	}
	return NewArray()
}

// ToBoolean reports whether the value is the string "true", ignoring case.
func (v Value) ToBoolean() bool {
	return v.Type == TypeString && strings.EqualFold(v.Str(), TrueString)
}

// ToValueString renders the value the way programs observe it.
func (v Value) ToValueString() string {
	switch v.Type {
	case TypeNumber:
		return FormatNumber(v.Num())
	case TypeArray:
		return v.Arr().String()
	default:
		return v.Str()
	}
}

// ToDebuggerString renders the value for inspection: strings are quoted.
func (v Value) ToDebuggerString() string {
	switch v.Type {
	case TypeNumber:
		return FormatNumber(v.Num())
	case TypeArray:
		return v.Arr().DebugString()
	default:
		return strconv.Quote(v.Str())
	}
}

func (v Value) String() string {
	return v.ToDebuggerString()
}

// ToNumber converts the value to a number. Strings are trimmed and parsed;
// arrays and non-numeric strings report false.
func (v Value) ToNumber() (float64, bool) {
	switch v.Type {
	case TypeNumber:
		return v.Num(), true
	case TypeString:
		return ParseNumber(v.Str())
	default:
		return 0, false
	}
}

// ParseNumber parses trimmed text as a finite number.
func ParseNumber(text string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// FormatNumber renders a number in its canonical form: the shortest
// representation that round-trips, switching to exponent notation outside
// 1e-6 <= |f| < 1e21.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[0]
		digits := strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + string(sign) + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// numeric converts strings that hold numbers; everything else is returned
// unchanged.
func (v Value) numeric() Value {
	if v.Type == TypeString {
		if f, ok := ParseNumber(v.Str()); ok {
			return NumberValue(f)
		}
	}
	return v
}

// IsEqualTo compares structurally. A string equals a number when its trimmed
// text is the number's canonical form.
func (v Value) IsEqualTo(other Value) bool {
	switch v.Type {
	case TypeString:
		switch other.Type {
		case TypeString:
			return v.Str() == other.Str()
		case TypeNumber:
			return strings.TrimSpace(v.Str()) == FormatNumber(other.Num())
		}
		return false
	case TypeNumber:
		switch other.Type {
		case TypeNumber:
			return v.Num() == other.Num()
		case TypeString:
			return other.IsEqualTo(v)
		}
		return false
	case TypeArray:
		return other.Type == TypeArray && v.Arr().Equal(other.Arr())
	}
	return false
}

// RuntimeError is a value operation that cannot proceed. The engine turns it
// into a fatal diagnostic at the instruction's range.
type RuntimeError struct {
	Code diagnostics.ErrorCode
	Args []string
}

func (e *RuntimeError) Error() string {
	return diagnostics.New(e.Code, diagnostics.Range{}, e.Args...).Message()
}

func newRuntimeError(code diagnostics.ErrorCode, args ...string) *RuntimeError {
	return &RuntimeError{Code: code, Args: args}
}

// IsLessThan orders numbers and numeric strings. A non-numeric string on
// either side compares false.
func (v Value) IsLessThan(other Value) (bool, error) {
	a, b, ok, err := orderOperands(v, other, "<")
	if err != nil || !ok {
		return false, err
	}
	return a < b, nil
}

// IsGreaterThan is the mirror of IsLessThan.
func (v Value) IsGreaterThan(other Value) (bool, error) {
	a, b, ok, err := orderOperands(v, other, ">")
	if err != nil || !ok {
		return false, err
	}
	return a > b, nil
}

func orderOperands(left, right Value, op string) (float64, float64, bool, error) {
	if left.Type == TypeArray || right.Type == TypeArray {
		return 0, 0, false, newRuntimeError(diagnostics.CannotUseOperatorWithAnArray, op)
	}
	a, okA := left.ToNumber()
	b, okB := right.ToNumber()
	return a, b, okA && okB, nil
}

// Add sums numbers and concatenates when either operand is a non-numeric
// string.
func (v Value) Add(other Value) (Value, error) {
	if v.Type == TypeArray || other.Type == TypeArray {
		return Value{}, newRuntimeError(diagnostics.CannotUseOperatorWithAnArray, "+")
	}
	a, b := v.numeric(), other.numeric()
	if a.Type == TypeNumber && b.Type == TypeNumber {
		return NumberValue(a.Num() + b.Num()), nil
	}
	return StringValue(a.ToValueString() + b.ToValueString()), nil
}

// Subtract requires numeric operands.
func (v Value) Subtract(other Value) (Value, error) {
	a, b, err := arithmeticOperands(v, other, "-")
	if err != nil {
		return Value{}, err
	}
	return NumberValue(a - b), nil
}

// Multiply requires numeric operands.
func (v Value) Multiply(other Value) (Value, error) {
	a, b, err := arithmeticOperands(v, other, "*")
	if err != nil {
		return Value{}, err
	}
	return NumberValue(a * b), nil
}

// Divide requires numeric operands and a non-zero divisor.
func (v Value) Divide(other Value) (Value, error) {
	a, b, err := arithmeticOperands(v, other, "/")
	if err != nil {
		return Value{}, err
	}
	if b == 0 {
		return Value{}, newRuntimeError(diagnostics.CannotDivideByZero)
	}
	return NumberValue(a / b), nil
}

// Negate flips the sign of a numeric value.
func (v Value) Negate() (Value, error) {
	a, _, err := arithmeticOperands(v, NumberValue(0), "-")
	if err != nil {
		return Value{}, err
	}
	return NumberValue(-a), nil
}

func arithmeticOperands(left, right Value, op string) (float64, float64, error) {
	if left.Type == TypeArray || right.Type == TypeArray {
		return 0, 0, newRuntimeError(diagnostics.CannotUseOperatorWithAnArray, op)
	}
	a, okA := left.ToNumber()
	b, okB := right.ToNumber()
	if !okA || !okB {
		return 0, 0, newRuntimeError(diagnostics.CannotUseOperatorWithAString, op)
	}
	return a, b, nil
}
