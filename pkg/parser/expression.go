// Package parser turns natural-language arithmetic ("what is four times 2
// plus 4") into an expression tree and evaluates it without ever executing
// input as code. Only the operators and safe functions listed in Config are
// reachable.
package parser

import (
	"fmt"
	"regexp"

	"github.com/go-training/mcp-calculator/pkg/calc"
)

// Parser is immutable after New and safe for concurrent use.
type Parser struct {
	normalizer *normalizer
	lexicon    *lexicon
	dangerous  []*regexp.Regexp
	evaluator  *evaluator
	engine     *calc.Engine
	maxLen     int
	maxDepth   int
}

// New compiles cfg into a Parser whose results are bounded by engine.
func New(cfg Config, engine *calc.Engine) (*Parser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	norm, err := newNormalizer(cfg.Normalization)
	if err != nil {
		return nil, err
	}
	lx, err := newLexicon(cfg)
	if err != nil {
		return nil, err
	}
	p := &Parser{
		normalizer: norm,
		lexicon:    lx,
		evaluator:  &evaluator{functions: cfg.SafeFunctions},
		engine:     engine,
		maxLen:     cfg.MaxExpressionLength,
		maxDepth:   cfg.MaxDepth,
	}
	for _, pattern := range cfg.Security.DangerousPatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("dangerous pattern %q: %w", pattern, err)
		}
		p.dangerous = append(p.dangerous, re)
	}
	return p, nil
}

// Normalize lowercases, trims, drops removable characters, collapses
// whitespace and strips filler prefixes. It is idempotent.
func (p *Parser) Normalize(raw string) string {
	return p.normalizer.normalize(raw)
}

// Canonical rewrites a normalized expression into symbolic form, for
// example "four times 2 plus 4" becomes "4*2+4".
func (p *Parser) Canonical(normalized string) (string, error) {
	n, err := p.compile(normalized)
	if err != nil {
		return "", err
	}
	return String(n), nil
}

// Evaluate computes a normalized or canonical expression.
func (p *Parser) Evaluate(expression string) (float64, error) {
	n, err := p.compile(expression)
	if err != nil {
		return 0, err
	}
	return p.evaluate(n)
}

// ParseAndEvaluate normalizes raw input and evaluates it.
func (p *Parser) ParseAndEvaluate(raw string) (float64, error) {
	return p.Evaluate(p.Normalize(raw))
}

// Parse normalizes raw input and returns its expression tree.
func (p *Parser) Parse(raw string) (Node, error) {
	return p.compile(p.Normalize(raw))
}

func (p *Parser) compile(s string) (Node, error) {
	if len(s) > p.maxLen {
		return nil, calc.Errorf(calc.KindValidation, "Expression too long: %d characters (max: %d)", len(s), p.maxLen)
	}
	if err := p.checkSecurity(s); err != nil {
		return nil, err
	}
	tokens, err := p.lexicon.tokenize(s)
	if err != nil {
		return nil, err
	}
	return parse(tokens, p.maxDepth)
}

// checkSecurity rejects text matching any dangerous pattern.
func (p *Parser) checkSecurity(s string) error {
	for _, re := range p.dangerous {
		if re.MatchString(s) {
			return calc.Errorf(calc.KindSecurity, "Expression contains forbidden content")
		}
	}
	return nil
}

func (p *Parser) evaluate(n Node) (float64, error) {
	v, err := p.evaluator.eval(n)
	if err != nil {
		return 0, err
	}
	if err := p.engine.CheckResult(v); err != nil {
		return 0, err
	}
	return v, nil
}
