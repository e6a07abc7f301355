package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Config is the static vocabulary and rule set used by a Parser. It is read
// once at startup and never mutated while requests are served.
type Config struct {
	// WordToNumber maps lowercase number words (or phrases) to their value.
	WordToNumber map[string]float64 `yaml:"word_to_number"`
	// OperationWords maps lowercase operation phrases to an operator symbol
	// ("+", "-", "*", "/", "%", "**"), a postfix power template ("**2"), or
	// the exposed name of a safe function ("sqrt").
	OperationWords map[string]string `yaml:"operation_words"`
	Normalization  Normalization     `yaml:"normalization"`
	Security       Security          `yaml:"security"`
	// SafeFunctions maps exposed function names to evaluator primitives.
	SafeFunctions map[string]string `yaml:"safe_functions"`
	// MaxExpressionLength bounds the normalized input, in bytes.
	MaxExpressionLength int `yaml:"max_expression_length"`
	// MaxDepth bounds nesting of parentheses, unary operators and calls.
	MaxDepth int `yaml:"max_depth"`
}

// Normalization controls input clean-up before tokenizing.
type Normalization struct {
	Prefixes            []string `yaml:"prefixes"`
	RemoveChars         string   `yaml:"remove_chars"`
	NormalizeWhitespace bool     `yaml:"normalize_whitespace"`
}

// Security lists patterns that reject an expression before it is tokenized.
type Security struct {
	DangerousPatterns []string `yaml:"dangerous_patterns"`
}

// DefaultConfig returns the built-in English vocabulary.
func DefaultConfig() Config {
	return Config{
		WordToNumber: map[string]float64{
			"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
			"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
			"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
			"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
			"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
			"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
			"hundred": 100, "thousand": 1e3, "million": 1e6, "billion": 1e9,
		},
		OperationWords: map[string]string{
			"plus":                   "+",
			"add":                    "+",
			"added to":               "+",
			"minus":                  "-",
			"subtract":               "-",
			"less":                   "-",
			"take away":              "-",
			"times":                  "*",
			"multiply":               "*",
			"multiplied by":          "*",
			"divided by":             "/",
			"divide":                 "/",
			"over":                   "/",
			"mod":                    "%",
			"modulo":                 "%",
			"to the power of":        "**",
			"raised to the power of": "**",
			"raised to":              "**",
			"power":                  "**",
			"squared":                "**2",
			"cubed":                  "**3",
			"square root of":         "sqrt",
			"square root":            "sqrt",
			"sqrt of":                "sqrt",
			"root of":                "sqrt",
			"factorial of":           "factorial",
			"absolute value of":      "abs",
		},
		Normalization: Normalization{
			Prefixes:            []string{"what is ", "what's ", "calculate ", "compute ", "find ", "evaluate "},
			RemoveChars:         `[?!]`,
			NormalizeWhitespace: true,
		},
		Security: Security{
			DangerousPatterns: []string{
				`__`,
				`\bimport\b`,
				`\bexec\b`,
				`\beval\b`,
				`\bopen\b`,
				`\binput\b`,
				`\bcompile\b`,
				`\bglobals\b`,
				`\blocals\b`,
				`\bvars\b`,
				`\bdir\b`,
				`\b(get|set|del)attr\b`,
				`\bbreakpoint\b`,
				`\blambda\b`,
				`\b(os|sys|subprocess)\b`,
				`[a-z_)\]]\s*\.\s*[a-z_]`,
			},
		},
		SafeFunctions: map[string]string{
			"abs":       "abs",
			"round":     "round",
			"max":       "max",
			"min":       "min",
			"sum":       "sum",
			"pow":       "pow",
			"sqrt":      "sqrt",
			"factorial": "factorial",
		},
		MaxExpressionLength: 1000,
		MaxDepth:            64,
	}
}

// Validate reports configuration that would make the parser ambiguous or unusable.
func (c Config) Validate() error {
	for name, primitive := range c.SafeFunctions {
		if _, ok := primitives[primitive]; !ok {
			return fmt.Errorf("safe function %q maps to unknown primitive %q", name, primitive)
		}
	}
	for phrase, symbol := range c.OperationWords {
		if _, err := classifySymbol(symbol, c.SafeFunctions); err != nil {
			return fmt.Errorf("operation word %q: %w", phrase, err)
		}
		if _, ok := c.WordToNumber[phrase]; ok {
			return fmt.Errorf("phrase %q is both a number word and an operation word", phrase)
		}
	}
	for _, pattern := range c.Security.DangerousPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("dangerous pattern %q: %w", pattern, err)
		}
	}
	if c.Normalization.RemoveChars != "" {
		if _, err := regexp.Compile(c.Normalization.RemoveChars); err != nil {
			return fmt.Errorf("remove_chars %q: %w", c.Normalization.RemoveChars, err)
		}
	}
	if c.MaxExpressionLength <= 0 {
		return fmt.Errorf("max_expression_length must be positive, got %d", c.MaxExpressionLength)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	return nil
}

// wordSymbol is the decoded form of an OperationWords value.
type wordSymbol struct {
	kind     tokenKind
	exponent float64 // postfix power only
	function string  // function words only
}

func classifySymbol(symbol string, functions map[string]string) (wordSymbol, error) {
	switch symbol {
	case "+":
		return wordSymbol{kind: tokPlus}, nil
	case "-":
		return wordSymbol{kind: tokMinus}, nil
	case "*":
		return wordSymbol{kind: tokStar}, nil
	case "/":
		return wordSymbol{kind: tokSlash}, nil
	case "%":
		return wordSymbol{kind: tokPercent}, nil
	case "**":
		return wordSymbol{kind: tokPow}, nil
	}
	if rest, ok := strings.CutPrefix(symbol, "**"); ok {
		exp, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return wordSymbol{}, fmt.Errorf("invalid power template %q", symbol)
		}
		return wordSymbol{kind: tokPostfixPow, exponent: exp}, nil
	}
	if _, ok := functions[symbol]; ok {
		return wordSymbol{kind: tokFunc, function: symbol}, nil
	}
	return wordSymbol{}, fmt.Errorf("unsupported symbol %q", symbol)
}
