package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-training/mcp-calculator/pkg/calc"
	"github.com/go-training/mcp-calculator/pkg/parser"

	"github.com/mark3labs/mcp-go/mcp"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
	errs  []error
}

func (o *recordingObserver) ObserveOperation(_ context.Context, op string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, op)
	o.errs = append(o.errs, err)
}

func newTestService(t *testing.T, obs Observer) *Service {
	t.Helper()
	engine := calc.NewEngine(1e15, 10)
	p, err := parser.New(parser.DefaultConfig(), engine)
	if err != nil {
		t.Fatalf("parser.New() error = %v", err)
	}
	return NewService(engine, p, obs)
}

func TestService_Call(t *testing.T) {
	svc := newTestService(t, nil)
	tests := []struct {
		name string
		tool string
		args map[string]any
		want any
	}{
		{"add", ToolAdd, map[string]any{"numbers": []any{1.0, 2.0, 3.0}}, int64(6)},
		{"add float64 slice", ToolAdd, map[string]any{"numbers": []float64{0.1, 0.2}}, 0.3},
		{"add numeric strings", ToolAdd, map[string]any{"numbers": []any{"4", 5}}, int64(9)},
		{"subtract", ToolSubtract, map[string]any{"minuend": 10.0, "subtrahends": []any{3.0, 2.0}}, int64(5)},
		{"multiply", ToolMultiply, map[string]any{"numbers": []any{2.0, 3.0, 4.0}}, int64(24)},
		{"divide", ToolDivide, map[string]any{"dividend": 100.0, "divisors": []any{2.0, 5.0}}, int64(10)},
		{"divide fraction", ToolDivide, map[string]any{"dividend": 1.0, "divisors": []any{3.0}}, 0.3333333333},
		{"power", ToolPower, map[string]any{"base": 2.0, "exponent": 10.0}, int64(1024)},
		{"sqrt", ToolSqrt, map[string]any{"number": 16.0}, int64(4)},
		{"factorial", ToolFactorial, map[string]any{"number": 5.0}, int64(120)},
		{"modulo", ToolModulo, map[string]any{"dividend": 17.0, "divisor": 5.0}, int64(2)},
		{"absolute", ToolAbsolute, map[string]any{"number": -7.5}, 7.5},
		{"parse expression", ToolParseExpression, map[string]any{"expression": "what is four times 2 plus 4"}, int64(12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Call(context.Background(), tt.tool, tt.args)
			if err != nil {
				t.Fatalf("Call() error = %v", err)
			}
			if resp.Error != "" {
				t.Fatalf("Call() response error = %q", resp.Error)
			}
			if resp.Result != tt.want {
				t.Errorf("Call() result = %#v, want %#v", resp.Result, tt.want)
			}
		})
	}
}

func TestService_CallErrors(t *testing.T) {
	svc := newTestService(t, nil)
	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantMsg string
	}{
		{"add single number", ToolAdd, map[string]any{"numbers": []any{1.0}}, "Addition requires at least 2 numbers"},
		{"add missing numbers", ToolAdd, map[string]any{}, "Missing required argument: numbers"},
		{"add not an array", ToolAdd, map[string]any{"numbers": "1,2"}, "Argument numbers must be an array of numbers"},
		{"add boolean item", ToolAdd, map[string]any{"numbers": []any{1.0, true}}, "Argument numbers[1] must be a number"},
		{"subtract missing minuend", ToolSubtract, map[string]any{"subtrahends": []any{1.0}}, "Missing required argument: minuend"},
		{"divide by zero", ToolDivide, map[string]any{"dividend": 1.0, "divisors": []any{0.0}}, "Division by zero"},
		{"sqrt negative", ToolSqrt, map[string]any{"number": -4.0}, "Cannot calculate square root of negative number"},
		{"sqrt non-numeric", ToolSqrt, map[string]any{"number": "four"}, "Argument number must be a number"},
		{"factorial too large", ToolFactorial, map[string]any{"number": 171.0}, "Number too large for factorial calculation (max: 170)"},
		{"modulo by zero", ToolModulo, map[string]any{"dividend": 5.0, "divisor": 0.0}, "Division by zero in modulo operation"},
		{"power exponent too large", ToolPower, map[string]any{"base": 2.0, "exponent": 1001.0}, "Exponent too large (max: 1000)"},
		{"expression not a string", ToolParseExpression, map[string]any{"expression": 5.0}, "Argument expression must be a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Call(context.Background(), tt.tool, tt.args)
			if err != nil {
				t.Fatalf("Call() error = %v", err)
			}
			if resp.Error != tt.wantMsg {
				t.Errorf("Call() error message = %q, want %q", resp.Error, tt.wantMsg)
			}
			if resp.Result != nil {
				t.Errorf("Call() result = %v, want nil", resp.Result)
			}
		})
	}
}

func TestService_ParseExpressionErrors(t *testing.T) {
	svc := newTestService(t, nil)
	for _, expr := range []string{"5 / 0", "__import__('os').system('ls')", "two plus banana"} {
		resp, err := svc.Call(context.Background(), ToolParseExpression, map[string]any{"expression": expr})
		if err != nil {
			t.Fatalf("Call(%q) error = %v", expr, err)
		}
		if !strings.HasPrefix(resp.Error, "Could not parse expression: ") {
			t.Errorf("Call(%q) error = %q, want parse prefix", expr, resp.Error)
		}
	}
}

func TestService_UnknownTool(t *testing.T) {
	obs := &recordingObserver{}
	svc := newTestService(t, obs)
	_, err := svc.Call(context.Background(), "teleport", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("Call() error = %v, want ErrUnknownTool", err)
	}
	if len(obs.calls) != 0 {
		t.Errorf("observer notified for unknown tool: %v", obs.calls)
	}
}

func TestService_Observer(t *testing.T) {
	obs := &recordingObserver{}
	svc := newTestService(t, obs)
	ctx := context.Background()

	_, _ = svc.Call(ctx, ToolAdd, map[string]any{"numbers": []any{1.0, 2.0}})
	_, _ = svc.Call(ctx, ToolDivide, map[string]any{"dividend": 1.0, "divisors": []any{0.0}})

	if len(obs.calls) != 2 || obs.calls[0] != ToolAdd || obs.calls[1] != ToolDivide {
		t.Fatalf("observed calls = %v", obs.calls)
	}
	if obs.errs[0] != nil {
		t.Errorf("add observed error = %v, want nil", obs.errs[0])
	}
	if !errors.Is(obs.errs[1], calc.ErrZeroDivision) {
		t.Errorf("divide observed error = %v, want zero division", obs.errs[1])
	}
}

func TestService_ParseMatchesAdd(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	pairs := [][2]float64{{1, 2}, {0.5, 0.25}, {-7, 3}, {1e6, 2e6}}
	for _, p := range pairs {
		added, _ := svc.Call(ctx, ToolAdd, map[string]any{"numbers": []any{p[0], p[1]}})
		expr := svc.engine.Format(p[0]) + " plus " + svc.engine.Format(p[1])
		parsed, _ := svc.Call(ctx, ToolParseExpression, map[string]any{"expression": expr})
		if added.Result != parsed.Result {
			t.Errorf("%q = %v, add = %v", expr, parsed.Result, added.Result)
		}
	}
}

func TestService_Handler(t *testing.T) {
	svc := newTestService(t, nil)
	handler := svc.Handler(ToolAdd)

	req := mcp.CallToolRequest{}
	req.Params.Name = ToolAdd
	req.Params.Arguments = map[string]any{"numbers": []any{2.0, 3.0}}
	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if res.IsError {
		t.Fatal("handler IsError = true, want false")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want mcp.TextContent", res.Content[0])
	}
	var resp calc.Response
	if err := json.Unmarshal([]byte(text.Text), &resp); err != nil {
		t.Fatalf("unmarshal %q: %v", text.Text, err)
	}
	if resp.Result != float64(5) {
		t.Errorf("result = %v, want 5", resp.Result)
	}

	req.Params.Arguments = map[string]any{"numbers": []any{2.0}}
	res, err = handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !res.IsError {
		t.Error("handler IsError = false, want true")
	}
}

func TestService_ServerTools(t *testing.T) {
	svc := newTestService(t, nil)
	tools := svc.ServerTools()
	if len(tools) != len(Tools) {
		t.Fatalf("ServerTools() len = %d, want %d", len(tools), len(Tools))
	}
	for i, st := range tools {
		if st.Tool.Name != Tools[i].Name || st.Handler == nil {
			t.Errorf("tool %d = %q (handler nil: %v)", i, st.Tool.Name, st.Handler == nil)
		}
		if !svc.Has(st.Tool.Name) {
			t.Errorf("Has(%q) = false", st.Tool.Name)
		}
	}
}
