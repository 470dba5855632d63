package runtime

import (
	"math"
	"strings"

	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/lang"
)

// Text positions are 1-based and count runes.

func textMethod(arity int, fn func(args []string) lang.Value) lang.Method {
	return lang.Method{Arity: arity, ReturnsValue: true, Execute: func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
		args := make([]string, arity)
		for i := arity - 1; i >= 0; i-- {
			args[i] = popString(e)
		}
		e.Push(fn(args))
	}}
}

func newText(*settings) *lang.LibraryInstance {
	return &lang.LibraryInstance{
		ID: lang.LibraryText,
		Methods: map[string]lang.Method{
			"Append": textMethod(2, func(a []string) lang.Value {
				return lang.StringValue(a[0] + a[1])
			}),
			"GetLength": textMethod(1, func(a []string) lang.Value {
				return lang.NumberValue(float64(len([]rune(a[0]))))
			}),
			"GetSubText": textMethod(3, func(a []string) lang.Value {
				start, _ := lang.ParseNumber(a[1])
				length, _ := lang.ParseNumber(a[2])
				return lang.StringValue(subText(a[0], start, length))
			}),
			"GetSubTextToEnd": textMethod(2, func(a []string) lang.Value {
				start, _ := lang.ParseNumber(a[1])
				return lang.StringValue(subText(a[0], start, math.Inf(1)))
			}),
			"GetIndexOf": textMethod(2, func(a []string) lang.Value {
				return lang.NumberValue(float64(indexOf(a[0], a[1])))
			}),
			"IsSubText": textMethod(2, func(a []string) lang.Value {
				return lang.BoolValue(strings.Contains(a[0], a[1]))
			}),
			"StartsWith": textMethod(2, func(a []string) lang.Value {
				return lang.BoolValue(strings.HasPrefix(a[0], a[1]))
			}),
			"EndsWith": textMethod(2, func(a []string) lang.Value {
				return lang.BoolValue(strings.HasSuffix(a[0], a[1]))
			}),
			"ConvertToUpperCase": textMethod(1, func(a []string) lang.Value {
				return lang.StringValue(strings.ToUpper(a[0]))
			}),
			"ConvertToLowerCase": textMethod(1, func(a []string) lang.Value {
				return lang.StringValue(strings.ToLower(a[0]))
			}),
		},
	}
}

// subText returns up to length runes starting at the 1-based position start.
// Out-of-range positions yield the empty string. Both numbers are bounded
// before conversion, so huge and NaN values are safe.
func subText(text string, start, length float64) string {
	runes := []rune(text)
	if !(start >= 1) || start >= float64(len(runes)+1) || !(length >= 1) {
		return ""
	}
	from := int(start) - 1
	n := len(runes) - from
	if length < float64(n) {
		n = int(length)
	}
	return string(runes[from : from+n])
}

// indexOf returns the 1-based rune position of sub in text, or 0.
func indexOf(text, sub string) int {
	if sub == "" {
		return 0
	}
	idx := strings.Index(text, sub)
	if idx < 0 {
		return 0
	}
	return len([]rune(text[:idx])) + 1
}
