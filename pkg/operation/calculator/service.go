// Package calculator binds the arithmetic engine and the expression parser to
// named MCP tools.
package calculator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-training/mcp-calculator/pkg/calc"
	"github.com/go-training/mcp-calculator/pkg/core"
	"github.com/go-training/mcp-calculator/pkg/parser"

	"github.com/spf13/cast"
)

// ErrUnknownTool is returned by Call for a name that is not a calculator tool.
var ErrUnknownTool = errors.New("unknown tool")

// Observer is notified after every tool call with its outcome.
type Observer interface {
	ObserveOperation(ctx context.Context, operation string, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(context.Context, string, time.Duration, error) {}

// Service executes calculator tools. It is safe for concurrent use.
type Service struct {
	engine   *calc.Engine
	parser   *parser.Parser
	observer Observer
}

// NewService returns a Service. A nil observer discards observations.
func NewService(engine *calc.Engine, p *parser.Parser, observer Observer) *Service {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{
		engine:   engine,
		parser:   p,
		observer: observer,
	}
}

// Has reports whether name is a calculator tool.
func (s *Service) Has(name string) bool {
	for _, t := range Tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Call runs the named tool. Calculation failures are reported in the
// returned Response; the error is non-nil only for ErrUnknownTool.
func (s *Service) Call(ctx context.Context, name string, args map[string]any) (calc.Response, error) {
	if !s.Has(name) {
		return calc.Response{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	start := time.Now()
	v, err := s.dispatch(name, args)
	s.observer.ObserveOperation(ctx, name, time.Since(start), err)

	logger := core.LoggerFromCtx(ctx)
	if err != nil {
		logger.Warn("calculation failed",
			"operation", name,
			"kind", calc.KindOf(err).String(),
			"error", err.Error(),
		)
		return calc.Fail(err), nil
	}
	resp := s.engine.OK(v)
	logger.Info("calculation succeeded",
		"operation", name,
		"arguments", args,
		"result", resp.Result,
	)
	return resp, nil
}

func (s *Service) dispatch(name string, args map[string]any) (float64, error) {
	switch name {
	case ToolAdd, ToolMultiply:
		numbers, err := numberList(args, "numbers")
		if err != nil {
			return 0, err
		}
		if name == ToolAdd {
			return s.engine.Add(numbers...)
		}
		return s.engine.Multiply(numbers...)
	case ToolSubtract:
		minuend, rest, err := leadAndList(args, "minuend", "subtrahends")
		if err != nil {
			return 0, err
		}
		return s.engine.Subtract(minuend, rest...)
	case ToolDivide:
		dividend, rest, err := leadAndList(args, "dividend", "divisors")
		if err != nil {
			return 0, err
		}
		return s.engine.Divide(dividend, rest...)
	case ToolPower:
		base, exponent, err := pair(args, "base", "exponent")
		if err != nil {
			return 0, err
		}
		return s.engine.Power(base, exponent)
	case ToolModulo:
		dividend, divisor, err := pair(args, "dividend", "divisor")
		if err != nil {
			return 0, err
		}
		return s.engine.Modulo(dividend, divisor)
	case ToolSqrt, ToolFactorial, ToolAbsolute:
		n, err := number(args, "number")
		if err != nil {
			return 0, err
		}
		return s.engine.Compute(calc.Operation(name), []float64{n})
	case ToolParseExpression:
		return s.parseExpression(args)
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

func (s *Service) parseExpression(args map[string]any) (float64, error) {
	raw, ok := args["expression"]
	if !ok || raw == nil {
		return 0, calc.Errorf(calc.KindValidation, "Missing required argument: expression")
	}
	expr, ok := raw.(string)
	if !ok {
		return 0, calc.Errorf(calc.KindValidation, "Argument expression must be a string")
	}
	v, err := s.parser.ParseAndEvaluate(expr)
	if err != nil {
		var ce *calc.Error
		if errors.As(err, &ce) {
			return 0, calc.Errorf(ce.Kind, "Could not parse expression: %s", ce.Msg)
		}
		return 0, err
	}
	return v, nil
}

// number reads a required numeric argument. Numeric strings are accepted,
// booleans are not.
func number(args map[string]any, key string) (float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, calc.Errorf(calc.KindValidation, "Missing required argument: %s", key)
	}
	return toNumber(key, raw)
}

func toNumber(key string, raw any) (float64, error) {
	if _, isBool := raw.(bool); isBool {
		return 0, calc.Errorf(calc.KindValidation, "Argument %s must be a number", key)
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, calc.Errorf(calc.KindValidation, "Argument %s must be a number", key)
	}
	return f, nil
}

// numberList reads a required array of numbers.
func numberList(args map[string]any, key string) ([]float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, calc.Errorf(calc.KindValidation, "Missing required argument: %s", key)
	}
	switch v := raw.(type) {
	case []float64:
		return v, nil
	case []any:
		out := make([]float64, 0, len(v))
		for i, item := range v {
			f, err := toNumber(fmt.Sprintf("%s[%d]", key, i), item)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	default:
		items, err := cast.ToSliceE(raw)
		if err != nil {
			return nil, calc.Errorf(calc.KindValidation, "Argument %s must be an array of numbers", key)
		}
		return numberList(map[string]any{key: items}, key)
	}
}

func leadAndList(args map[string]any, lead, list string) (float64, []float64, error) {
	first, err := number(args, lead)
	if err != nil {
		return 0, nil, err
	}
	rest, err := numberList(args, list)
	if err != nil {
		return 0, nil, err
	}
	return first, rest, nil
}

func pair(args map[string]any, a, b string) (float64, float64, error) {
	x, err := number(args, a)
	if err != nil {
		return 0, 0, err
	}
	y, err := number(args, b)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
