package runtime

import (
	"math"
	"math/rand"

	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/lang"
)

var unaryMath = map[string]func(float64) float64{
	"Abs":        math.Abs,
	"Ceiling":    math.Ceil,
	"Floor":      math.Floor,
	"Round":      func(x float64) float64 { return math.Floor(x + 0.5) },
	"SquareRoot": math.Sqrt,
	"Sin":        math.Sin,
	"Cos":        math.Cos,
	"Tan":        math.Tan,
	"ArcSin":     math.Asin,
	"ArcCos":     math.Acos,
	"ArcTan":     math.Atan,
	"Log":        math.Log10,
	"NaturalLog": math.Log,
}

var binaryMath = map[string]func(float64, float64) float64{
	"Max":   math.Max,
	"Min":   math.Min,
	"Power": math.Pow,
}

func newMath(s *settings) *lang.LibraryInstance {
	methods := make(map[string]lang.Method, len(unaryMath)+len(binaryMath)+2)
	for name, fn := range unaryMath {
		methods[name] = lang.Method{Arity: 1, ReturnsValue: true, Execute: func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
			e.Push(lang.NumberValue(fn(popNumber(e))))
		}}
	}
	for name, fn := range binaryMath {
		methods[name] = lang.Method{Arity: 2, ReturnsValue: true, Execute: func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
			y := popNumber(e)
			x := popNumber(e)
			e.Push(lang.NumberValue(fn(x, y)))
		}}
	}
	methods["Remainder"] = lang.Method{Arity: 2, ReturnsValue: true, Execute: remainder}
	methods["GetRandomNumber"] = lang.Method{Arity: 1, ReturnsValue: true, Execute: randomNumber(s.random)}

	return &lang.LibraryInstance{
		ID:      lang.LibraryMath,
		Methods: methods,
		Properties: map[string]lang.Property{
			"Pi": {Get: func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) { e.Push(lang.NumberValue(math.Pi)) }},
		},
	}
}

func remainder(e *lang.Engine, _ lang.Mode, rng diagnostics.Range) {
	divisor := popNumber(e)
	dividend := popNumber(e)
	if divisor == 0 {
		e.Fatal(diagnostics.New(diagnostics.CannotDivideByZero, rng))
		return
	}
	e.Push(lang.NumberValue(math.Mod(dividend, divisor)))
}

// randomNumber returns an integer between 1 and max inclusive.
func randomNumber(r *rand.Rand) lang.Executable {
	return func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
		n := int(math.Floor(popNumber(e)))
		if n < 1 {
			n = 1
		}
		e.Push(lang.NumberValue(float64(r.Intn(n) + 1)))
	}
}
