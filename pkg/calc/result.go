package calc

import (
	"math"
	"strconv"
)

// maxExactInt is the largest magnitude at which every integer is exactly
// representable as float64.
const maxExactInt = 1 << 53

// Canonical renders v for callers: whole numbers become int64, everything
// else is rounded to the engine's precision. Rounding may itself produce a
// whole number, which is then returned as int64.
func (e *Engine) Canonical(v float64) any {
	if isWhole(v) {
		return int64(v)
	}
	r := Round(v, e.precision)
	if isWhole(r) {
		return int64(r)
	}
	return r
}

// Format renders v as text using the same rules as Canonical.
func (e *Engine) Format(v float64) string {
	switch n := e.Canonical(v).(type) {
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

func isWhole(v float64) bool {
	return v == math.Trunc(v) && math.Abs(v) <= maxExactInt
}

// Response is the payload returned to protocol callers: exactly one of
// Result or Error is set.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// OK builds a successful Response from a raw value.
func (e *Engine) OK(v float64) Response {
	return Response{Result: e.Canonical(v)}
}

// Fail builds an error Response.
func Fail(err error) Response {
	return Response{Error: err.Error()}
}
