package calculator

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names.
const (
	ToolAdd             = "add"
	ToolSubtract        = "subtract"
	ToolMultiply        = "multiply"
	ToolDivide          = "divide"
	ToolPower           = "power"
	ToolSqrt            = "sqrt"
	ToolFactorial       = "factorial"
	ToolModulo          = "modulo"
	ToolAbsolute        = "absolute"
	ToolParseExpression = "parse_expression"
)

var numberItems = mcp.Items(map[string]any{"type": "number"})

var AddTool = mcp.NewTool(ToolAdd,
	mcp.WithDescription("Add multiple numbers together. Can handle 2 or more numbers."),
	mcp.WithArray("numbers",
		mcp.Description("List of numbers to add"),
		mcp.Required(),
		numberItems,
	),
)

var SubtractTool = mcp.NewTool(ToolSubtract,
	mcp.WithDescription("Subtract numbers. First number minus all subsequent numbers."),
	mcp.WithNumber("minuend",
		mcp.Description("The number to subtract from"),
		mcp.Required(),
	),
	mcp.WithArray("subtrahends",
		mcp.Description("List of numbers to subtract"),
		mcp.Required(),
		numberItems,
	),
)

var MultiplyTool = mcp.NewTool(ToolMultiply,
	mcp.WithDescription("Multiply multiple numbers together. Can handle 2 or more numbers."),
	mcp.WithArray("numbers",
		mcp.Description("List of numbers to multiply"),
		mcp.Required(),
		numberItems,
	),
)

var DivideTool = mcp.NewTool(ToolDivide,
	mcp.WithDescription("Divide numbers. First number divided by all subsequent numbers."),
	mcp.WithNumber("dividend",
		mcp.Description("The number to be divided"),
		mcp.Required(),
	),
	mcp.WithArray("divisors",
		mcp.Description("List of numbers to divide by"),
		mcp.Required(),
		numberItems,
	),
)

var PowerTool = mcp.NewTool(ToolPower,
	mcp.WithDescription("Calculate exponentiation (base raised to the power of exponent)."),
	mcp.WithNumber("base",
		mcp.Description("The base number"),
		mcp.Required(),
	),
	mcp.WithNumber("exponent",
		mcp.Description("The exponent"),
		mcp.Required(),
	),
)

var SqrtTool = mcp.NewTool(ToolSqrt,
	mcp.WithDescription("Calculate square root of a number."),
	mcp.WithNumber("number",
		mcp.Description("The number to find square root of"),
		mcp.Required(),
	),
)

var FactorialTool = mcp.NewTool(ToolFactorial,
	mcp.WithDescription("Calculate factorial of a number (n!)."),
	mcp.WithNumber("number",
		mcp.Description("The number to calculate factorial of (must be non-negative integer)"),
		mcp.Required(),
	),
)

var ModuloTool = mcp.NewTool(ToolModulo,
	mcp.WithDescription("Calculate modulo (remainder of division)."),
	mcp.WithNumber("dividend",
		mcp.Description("The number to be divided"),
		mcp.Required(),
	),
	mcp.WithNumber("divisor",
		mcp.Description("The number to divide by"),
		mcp.Required(),
	),
)

var AbsoluteTool = mcp.NewTool(ToolAbsolute,
	mcp.WithDescription("Calculate absolute value of a number."),
	mcp.WithNumber("number",
		mcp.Description("The number to find absolute value of"),
		mcp.Required(),
	),
)

var ParseExpressionTool = mcp.NewTool(ToolParseExpression,
	mcp.WithDescription("Parse and evaluate mathematical expressions written in natural language, "+
		"such as \"what is four times 2 plus 4\" or \"square root of 25\"."),
	mcp.WithString("expression",
		mcp.Description("Natural language mathematical expression"),
		mcp.Required(),
	),
)

// Tools lists every calculator tool in display order.
var Tools = []mcp.Tool{
	AddTool, SubtractTool, MultiplyTool, DivideTool, PowerTool,
	SqrtTool, FactorialTool, ModuloTool, AbsoluteTool, ParseExpressionTool,
}
