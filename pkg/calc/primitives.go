package calc

import (
	"math"
	"strconv"
)

// The primitives below are shared by Engine and the expression evaluator.
// They enforce each function's domain; magnitude checks are left to the caller.

// Pow raises base to exponent without the exponent cap applied by Engine.Power.
func Pow(base, exponent float64) (float64, error) {
	if base == 0 && exponent < 0 {
		return 0, Errorf(KindZeroDivision, "Division by zero in power calculation")
	}
	result := math.Pow(base, exponent)
	if math.IsNaN(result) {
		return 0, Errorf(KindDomain, "Cannot raise negative number to a fractional power")
	}
	if math.IsInf(result, 0) {
		return 0, Errorf(KindOverflow, "Mathematical overflow in power calculation")
	}
	return result, nil
}

// Sqrt returns the square root of a non-negative number.
func Sqrt(number float64) (float64, error) {
	if number < 0 {
		return 0, Errorf(KindDomain, "Cannot calculate square root of negative number")
	}
	return math.Sqrt(number), nil
}

// Factorial returns n! for integers 0 <= n <= MaxFactorial.
func Factorial(number float64) (float64, error) {
	if number < 0 || number != math.Trunc(number) {
		return 0, Errorf(KindDomain, "Factorial requires a non-negative integer")
	}
	if number > MaxFactorial {
		return 0, Errorf(KindDomain, "Number too large for factorial calculation (max: %d)", MaxFactorial)
	}
	result := 1.0
	for i := 2; i <= int(number); i++ {
		result *= float64(i)
	}
	return result, nil
}

// Mod returns the floored remainder: the result takes the sign of the divisor.
func Mod(dividend, divisor float64) (float64, error) {
	if divisor == 0 {
		return 0, Errorf(KindZeroDivision, "Division by zero in modulo operation")
	}
	r := math.Mod(dividend, divisor)
	if r != 0 && (r < 0) != (divisor < 0) {
		r += divisor
	}
	return r, nil
}

// Digit bounds past which rounding no longer changes a float64.
const (
	MaxRoundDigits = 323
	MinRoundDigits = -308
)

// Round rounds x to digits fractional digits, ties to even. Negative digits
// round to tens, hundreds and so on.
func Round(x float64, digits int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || digits > MaxRoundDigits {
		return x
	}
	if digits < MinRoundDigits {
		return math.Copysign(0, x)
	}
	if digits < 0 {
		scale := math.Pow(10, float64(-digits))
		return math.RoundToEven(x/scale) * scale
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', digits, 64), 64)
	if err != nil {
		return x
	}
	return v
}
