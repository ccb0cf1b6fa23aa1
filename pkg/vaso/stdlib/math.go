package stdlib

import (
	"math/rand/v2"

	"github.com/sambeau/vaso/pkg/vaso/value"
)

var mathFunctions = map[string]builtin{
	"random": mathRandom,
	"abs":    mathAbs,
	"max":    mathMax,
	"min":    mathMin,
}

// mathRandom returns an integer in [0, 100), or in [0, n) when given n.
func mathRandom(l *Library, args []value.Value) value.Value {
	n := int64(100)
	if len(args) > 0 {
		var ok bool
		if n, ok = intArg(args, 0); !ok || n <= 0 {
			return argError("Math.random", "() or (Int > 0)")
		}
	}
	return value.Int{Value: rand.Int64N(n)}
}

func mathAbs(l *Library, args []value.Value) value.Value {
	n, ok := intArg(args, 0)
	if !ok {
		return argError("Math.abs", "(Int)")
	}
	if n < 0 {
		n = -n
	}
	return value.Int{Value: n}
}

func mathMax(l *Library, args []value.Value) value.Value {
	a, aok := intArg(args, 0)
	b, bok := intArg(args, 1)
	if !aok || !bok {
		return argError("Math.max", "(Int, Int)")
	}
	return value.Int{Value: max(a, b)}
}

func mathMin(l *Library, args []value.Value) value.Value {
	a, aok := intArg(args, 0)
	b, bok := intArg(args, 1)
	if !aok || !bok {
		return argError("Math.min", "(Int, Int)")
	}
	return value.Int{Value: min(a, b)}
}
