package runtime

import (
	"strconv"

	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/lang"
)

// popArray reads an array argument; other values count as an empty array.
func popArray(e *lang.Engine) *lang.Array {
	v := e.Pop()
	if v.Type != lang.TypeArray {
		return lang.NewArray()
	}
	return v.Arr()
}

func newArray(*settings) *lang.LibraryInstance {
	return &lang.LibraryInstance{
		ID: lang.LibraryArray,
		Methods: map[string]lang.Method{
			"ContainsIndex": {Arity: 2, ReturnsValue: true, Execute: func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
				index := popString(e)
				_, ok := popArray(e).Get(index)
				e.Push(lang.BoolValue(ok))
			}},
			"ContainsValue": {Arity: 2, ReturnsValue: true, Execute: func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
				value := e.Pop()
				e.Push(lang.BoolValue(popArray(e).ContainsValue(value)))
			}},
			"GetItemCount": {Arity: 1, ReturnsValue: true, Execute: func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
				e.Push(lang.NumberValue(float64(popArray(e).Len())))
			}},
			// GetAllIndices returns the keys as an array indexed from 1.
			"GetAllIndices": {Arity: 1, ReturnsValue: true, Execute: func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
				out := lang.NewArray()
				for i, key := range popArray(e).Keys() {
					out = out.With(strconv.Itoa(i+1), lang.StringValue(key))
				}
				e.Push(lang.ArrayValue(out))
			}},
		},
	}
}
