// Package calc implements the bounded arithmetic operations exposed by the
// calculator server and the canonical numeric result representation shared
// with the expression parser.
package calc

import (
	"math"
	"strings"
)

const (
	// MaxFactorial is the largest n for which n! is finite in float64.
	MaxFactorial = 170
	// MaxExponent bounds the magnitude of any exponent accepted by Power.
	MaxExponent = 1000
)

// Operation names a calculator operation.
type Operation string

// Supported operations.
const (
	OpAdd       Operation = "add"
	OpSubtract  Operation = "subtract"
	OpMultiply  Operation = "multiply"
	OpDivide    Operation = "divide"
	OpPower     Operation = "power"
	OpSqrt      Operation = "sqrt"
	OpFactorial Operation = "factorial"
	OpModulo    Operation = "modulo"
	OpAbsolute  Operation = "absolute"
)

// Operations lists every supported operation in display order.
var Operations = []Operation{
	OpAdd, OpSubtract, OpMultiply, OpDivide, OpPower,
	OpSqrt, OpFactorial, OpModulo, OpAbsolute,
}

// Engine performs arithmetic bounded by a magnitude limit. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	maxValue  float64
	precision int
}

// NewEngine returns an Engine that rejects any operand or result whose
// absolute value exceeds maxValue and renders fractional results with
// precision digits.
func NewEngine(maxValue float64, precision int) *Engine {
	return &Engine{
		maxValue:  maxValue,
		precision: precision,
	}
}

// MaxValue returns the configured magnitude bound.
func (e *Engine) MaxValue() float64 {
	return e.maxValue
}

// Precision returns the configured number of fractional digits.
func (e *Engine) Precision() int {
	return e.precision
}

// ValidateNumbers checks every operand against the magnitude bound.
func (e *Engine) ValidateNumbers(numbers ...float64) error {
	for _, n := range numbers {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return Errorf(KindValidation, "Invalid number: %g", n)
		}
		if math.Abs(n) > e.maxValue {
			return Errorf(KindValidation, "Number too large: %g (max: %g)", n, e.maxValue)
		}
	}
	return nil
}

// CheckResult verifies a computed value against the magnitude bound.
func (e *Engine) CheckResult(v float64) error {
	if math.IsNaN(v) {
		return Errorf(KindDomain, "Result is not a number")
	}
	if math.IsInf(v, 0) {
		return Errorf(KindOverflow, "Mathematical overflow")
	}
	if math.Abs(v) > e.maxValue {
		return Errorf(KindValidation, "Result too large: %g (max: %g)", v, e.maxValue)
	}
	return nil
}

// Add sums two or more numbers.
func (e *Engine) Add(numbers ...float64) (float64, error) {
	if len(numbers) < 2 {
		return 0, Errorf(KindValidation, "Addition requires at least 2 numbers")
	}
	if err := e.ValidateNumbers(numbers...); err != nil {
		return 0, err
	}
	var sum float64
	for _, n := range numbers {
		sum += n
	}
	if err := e.CheckResult(sum); err != nil {
		return 0, err
	}
	return sum, nil
}

// Subtract subtracts every subtrahend from minuend.
func (e *Engine) Subtract(minuend float64, subtrahends ...float64) (float64, error) {
	if len(subtrahends) == 0 {
		return 0, Errorf(KindValidation, "Subtraction requires at least 2 numbers")
	}
	if err := e.ValidateNumbers(append([]float64{minuend}, subtrahends...)...); err != nil {
		return 0, err
	}
	result := minuend
	for _, n := range subtrahends {
		result -= n
	}
	if err := e.CheckResult(result); err != nil {
		return 0, err
	}
	return result, nil
}

// Multiply multiplies two or more numbers, failing as soon as a running
// product leaves the bound.
func (e *Engine) Multiply(numbers ...float64) (float64, error) {
	if len(numbers) < 2 {
		return 0, Errorf(KindValidation, "Multiplication requires at least 2 numbers")
	}
	if err := e.ValidateNumbers(numbers...); err != nil {
		return 0, err
	}
	result := 1.0
	for _, n := range numbers {
		result *= n
		if math.Abs(result) > e.maxValue {
			return 0, Errorf(KindValidation, "Result too large during multiplication (max: %g)", e.maxValue)
		}
	}
	return result, nil
}

// Divide divides dividend by each divisor in turn.
func (e *Engine) Divide(dividend float64, divisors ...float64) (float64, error) {
	if len(divisors) == 0 {
		return 0, Errorf(KindValidation, "Division requires at least 2 numbers")
	}
	if err := e.ValidateNumbers(append([]float64{dividend}, divisors...)...); err != nil {
		return 0, err
	}
	for _, d := range divisors {
		if d == 0 {
			return 0, Errorf(KindZeroDivision, "Division by zero")
		}
	}
	result := dividend
	for _, d := range divisors {
		result /= d
		if math.Abs(result) > e.maxValue {
			return 0, Errorf(KindValidation, "Result too large during division (max: %g)", e.maxValue)
		}
	}
	return result, nil
}

// Power raises base to exponent. The exponent magnitude is capped at MaxExponent.
func (e *Engine) Power(base, exponent float64) (float64, error) {
	if err := e.ValidateNumbers(base, exponent); err != nil {
		return 0, err
	}
	if math.Abs(exponent) > MaxExponent {
		return 0, Errorf(KindDomain, "Exponent too large (max: %d)", MaxExponent)
	}
	result, err := Pow(base, exponent)
	if err != nil {
		return 0, err
	}
	if math.Abs(result) > e.maxValue {
		return 0, Errorf(KindValidation, "Result too large: %g (max: %g)", result, e.maxValue)
	}
	return result, nil
}

// Sqrt returns the square root of a non-negative number.
func (e *Engine) Sqrt(number float64) (float64, error) {
	if err := e.ValidateNumbers(number); err != nil {
		return 0, err
	}
	return Sqrt(number)
}

// Factorial returns n! for integers 0 <= n <= MaxFactorial whose result fits the bound.
func (e *Engine) Factorial(number float64) (float64, error) {
	if err := e.ValidateNumbers(number); err != nil {
		return 0, err
	}
	result, err := Factorial(number)
	if err != nil {
		return 0, err
	}
	if result > e.maxValue {
		return 0, Errorf(KindValidation, "Result too large: %g (max: %g)", result, e.maxValue)
	}
	return result, nil
}

// Modulo returns the remainder of dividend / divisor with the sign of the divisor.
func (e *Engine) Modulo(dividend, divisor float64) (float64, error) {
	if err := e.ValidateNumbers(dividend, divisor); err != nil {
		return 0, err
	}
	return Mod(dividend, divisor)
}

// Absolute returns |number|.
func (e *Engine) Absolute(number float64) (float64, error) {
	if err := e.ValidateNumbers(number); err != nil {
		return 0, err
	}
	return math.Abs(number), nil
}

// Compute dispatches op over operands. Subtract and divide treat the first
// operand as the minuend or dividend; power and modulo take exactly two
// operands; sqrt, factorial and absolute take exactly one.
func (e *Engine) Compute(op Operation, operands []float64) (float64, error) {
	switch op {
	case OpAdd:
		return e.Add(operands...)
	case OpMultiply:
		return e.Multiply(operands...)
	case OpSubtract:
		if len(operands) == 0 {
			return 0, Errorf(KindValidation, "Subtraction requires at least 2 numbers")
		}
		return e.Subtract(operands[0], operands[1:]...)
	case OpDivide:
		if len(operands) == 0 {
			return 0, Errorf(KindValidation, "Division requires at least 2 numbers")
		}
		return e.Divide(operands[0], operands[1:]...)
	case OpPower:
		if err := arity(op, operands, 2); err != nil {
			return 0, err
		}
		return e.Power(operands[0], operands[1])
	case OpModulo:
		if err := arity(op, operands, 2); err != nil {
			return 0, err
		}
		return e.Modulo(operands[0], operands[1])
	case OpSqrt:
		if err := arity(op, operands, 1); err != nil {
			return 0, err
		}
		return e.Sqrt(operands[0])
	case OpFactorial:
		if err := arity(op, operands, 1); err != nil {
			return 0, err
		}
		return e.Factorial(operands[0])
	case OpAbsolute:
		if err := arity(op, operands, 1); err != nil {
			return 0, err
		}
		return e.Absolute(operands[0])
	default:
		return 0, Errorf(KindValidation, "Unknown operation: %s", op)
	}
}

func arity(op Operation, operands []float64, n int) error {
	if len(operands) == n {
		return nil
	}
	noun := "numbers"
	if n == 1 {
		noun = "number"
	}
	name := string(op)
	return Errorf(KindValidation, "%s requires exactly %d %s", strings.ToUpper(name[:1])+name[1:], n, noun)
}
