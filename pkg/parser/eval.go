package parser

import (
	"math"

	"github.com/go-training/mcp-calculator/pkg/calc"
)

// primitive is a function callable from an expression.
type primitive struct {
	minArgs, maxArgs int // maxArgs < 0 means variadic
	fn               func(args []float64) (float64, error)
}

var primitives = map[string]primitive{
	"abs": {1, 1, func(a []float64) (float64, error) { return math.Abs(a[0]), nil }},
	"round": {1, 2, func(a []float64) (float64, error) {
		digits := 0
		if len(a) == 2 {
			if a[1] != math.Trunc(a[1]) {
				return 0, calc.Errorf(calc.KindDomain, "round() digits must be an integer")
			}
			digits = int(math.Max(calc.MinRoundDigits-1, math.Min(a[1], calc.MaxRoundDigits+1)))
		}
		return calc.Round(a[0], digits), nil
	}},
	"max": {1, -1, func(a []float64) (float64, error) {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}
		return m, nil
	}},
	"min": {1, -1, func(a []float64) (float64, error) {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}
		return m, nil
	}},
	"sum": {1, -1, func(a []float64) (float64, error) {
		var s float64
		for _, v := range a {
			s += v
		}
		return s, nil
	}},
	"pow":       {2, 2, func(a []float64) (float64, error) { return calc.Pow(a[0], a[1]) }},
	"sqrt":      {1, 1, func(a []float64) (float64, error) { return calc.Sqrt(a[0]) }},
	"factorial": {1, 1, func(a []float64) (float64, error) { return calc.Factorial(a[0]) }},
}

// evaluator walks an expression tree. It only ever calls functions that the
// configuration exposes.
type evaluator struct {
	functions map[string]string // exposed name -> primitive name
}

func (ev *evaluator) eval(n Node) (float64, error) {
	switch n := n.(type) {
	case *Number:
		return n.Value, nil
	case *Unary:
		x, err := ev.eval(n.X)
		if err != nil {
			return 0, err
		}
		return -x, nil
	case *Binary:
		l, err := ev.eval(n.L)
		if err != nil {
			return 0, err
		}
		r, err := ev.eval(n.R)
		if err != nil {
			return 0, err
		}
		v, err := binary(n.Op, l, r)
		if err != nil {
			return 0, err
		}
		return finite(v)
	case *Call:
		return ev.call(n)
	default:
		return 0, calc.Errorf(calc.KindSyntax, "Unsupported expression node %T", n)
	}
}

func binary(op string, l, r float64) (float64, error) {
	switch op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	case OpDiv:
		if r == 0 {
			return 0, calc.Errorf(calc.KindZeroDivision, "Division by zero")
		}
		return l / r, nil
	case OpMod:
		return calc.Mod(l, r)
	case OpPow:
		return calc.Pow(l, r)
	default:
		return 0, calc.Errorf(calc.KindSyntax, "Unsupported operator %q", op)
	}
}

func (ev *evaluator) call(c *Call) (float64, error) {
	name, ok := ev.functions[c.Name]
	if !ok {
		return 0, calc.Errorf(calc.KindSecurity, "Function not allowed: %s", c.Name)
	}
	prim := primitives[name]
	if len(c.Args) < prim.minArgs || prim.maxArgs >= 0 && len(c.Args) > prim.maxArgs {
		return 0, arityError(c.Name, prim, len(c.Args))
	}
	args := make([]float64, len(c.Args))
	for i, a := range c.Args {
		v, err := ev.eval(a)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	v, err := prim.fn(args)
	if err != nil {
		return 0, err
	}
	return finite(v)
}

func arityError(name string, prim primitive, got int) error {
	switch {
	case prim.maxArgs < 0:
		return calc.Errorf(calc.KindSyntax, "%s() takes at least %d argument(s) (%d given)", name, prim.minArgs, got)
	case prim.minArgs == prim.maxArgs:
		return calc.Errorf(calc.KindSyntax, "%s() takes exactly %d argument(s) (%d given)", name, prim.minArgs, got)
	default:
		return calc.Errorf(calc.KindSyntax, "%s() takes %d to %d arguments (%d given)", name, prim.minArgs, prim.maxArgs, got)
	}
}

// finite rejects intermediate values that left the float64 range.
func finite(v float64) (float64, error) {
	switch {
	case math.IsInf(v, 0):
		return 0, calc.Errorf(calc.KindOverflow, "Mathematical overflow")
	case math.IsNaN(v):
		return 0, calc.Errorf(calc.KindDomain, "Result is not a number")
	}
	return v, nil
}
