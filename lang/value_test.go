package lang

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergev/sbasic/diagnostics"
)

func requireRuntimeError(t *testing.T, err error, code diagnostics.ErrorCode) {
	t.Helper()
	var rerr *RuntimeError
	require.True(t, errors.As(err, &rerr), "expected RuntimeError, got %v", err)
	assert.Equal(t, code, rerr.Code)
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{8, "8"},
		{-2.5, "-2.5"},
		{0.1 + 0.2, "0.30000000000000004"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{0.000001, "0.000001"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddCoercion(t *testing.T) {
	sum, err := StringValue("5").Add(NumberValue(3))
	require.NoError(t, err)
	assert.Equal(t, TypeNumber, sum.Type)
	assert.Equal(t, 8.0, sum.Num())

	cat, err := StringValue("a").Add(StringValue("b"))
	require.NoError(t, err)
	assert.Equal(t, StringValue("ab"), cat)

	mixed, err := StringValue("x").Add(NumberValue(1.5))
	require.NoError(t, err)
	assert.Equal(t, "x1.5", mixed.Str())

	_, err = ArrayValue(NewArray()).Add(NumberValue(1))
	requireRuntimeError(t, err, diagnostics.CannotUseOperatorWithAnArray)
}

func TestArithmeticOnStrings(t *testing.T) {
	_, err := StringValue("a").Subtract(NumberValue(1))
	requireRuntimeError(t, err, diagnostics.CannotUseOperatorWithAString)

	_, err = NumberValue(2).Multiply(StringValue("b"))
	requireRuntimeError(t, err, diagnostics.CannotUseOperatorWithAString)

	v, err := StringValue(" 10 ").Divide(StringValue("4"))
	require.NoError(t, err)
	assert.Equal(t, 2.5, v.Num())

	_, err = NumberValue(1).Divide(NumberValue(0))
	requireRuntimeError(t, err, diagnostics.CannotDivideByZero)

	neg, err := StringValue("3").Negate()
	require.NoError(t, err)
	assert.Equal(t, -3.0, neg.Num())
}

func TestEquality(t *testing.T) {
	assert.True(t, StringValue(" 5 ").IsEqualTo(NumberValue(5)))
	assert.True(t, NumberValue(5).IsEqualTo(StringValue("5")))
	assert.False(t, StringValue("5.0").IsEqualTo(NumberValue(5)))
	assert.False(t, ArrayValue(NewArray()).IsEqualTo(NumberValue(1)))
	assert.False(t, NumberValue(1).IsEqualTo(ArrayValue(NewArray())))
	assert.True(t, StringValue("").IsEqualTo(Value{}))

	a := NewArray().With("1", StringValue("x"))
	b := NewArray().With("1", StringValue("x"))
	assert.True(t, ArrayValue(a).IsEqualTo(ArrayValue(b)))
	assert.False(t, ArrayValue(a).IsEqualTo(ArrayValue(b.With("2", NumberValue(2)))))
}

func TestOrdering(t *testing.T) {
	less, err := StringValue("2").IsLessThan(NumberValue(10))
	require.NoError(t, err)
	assert.True(t, less)

	less, err = StringValue("abc").IsLessThan(NumberValue(10))
	require.NoError(t, err)
	assert.False(t, less)

	greater, err := NumberValue(10).IsGreaterThan(StringValue("abc"))
	require.NoError(t, err)
	assert.False(t, greater)

	_, err = ArrayValue(NewArray()).IsGreaterThan(NumberValue(1))
	requireRuntimeError(t, err, diagnostics.CannotUseOperatorWithAnArray)
}

func TestToBooleanAndStrings(t *testing.T) {
	assert.True(t, StringValue("TRUE").ToBoolean())
	assert.True(t, BoolValue(true).ToBoolean())
	assert.False(t, BoolValue(false).ToBoolean())
	assert.False(t, NumberValue(1).ToBoolean())

	assert.Equal(t, `"hi"`, StringValue("hi").ToDebuggerString())
	assert.Equal(t, "hi", StringValue("hi").ToValueString())

	arr := NewArray().With("b", StringValue("x=y")).With("a", NumberValue(2))
	assert.Equal(t, `b=x\=y;a=2;`, ArrayValue(arr).ToValueString())
	assert.Equal(t, `[b: "x=y", a: 2]`, ArrayValue(arr).ToDebuggerString())
}
