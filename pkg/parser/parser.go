package parser

import (
	"github.com/go-training/mcp-calculator/pkg/calc"
)

// parser is a recursive-descent parser over a token slice:
//
//	expr    := term (("+" | "-") term)*
//	term    := unary (("*" | "/" | "%") unary)*
//	unary   := "-" unary | power
//	power   := postfix ("**" unary)?
//	postfix := primary ("squared" | "cubed")*
//	primary := NUMBER | "(" expr ")" | FUNC "(" args ")" | FUNC unary
type parser struct {
	tokens   []token
	pos      int
	depth    int
	maxDepth int
}

func parse(tokens []token, maxDepth int) (Node, error) {
	if len(tokens) == 0 || tokens[0].kind == tokEOF {
		return nil, calc.Errorf(calc.KindSyntax, "Empty expression")
	}
	p := &parser{tokens: tokens, maxDepth: maxDepth}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.unexpected(tok)
	}
	return n, nil
}

func (p *parser) peek() token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return token{kind: tokEOF}
}

func (p *parser) next() token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) error {
	if tok := p.next(); tok.kind != kind {
		return calc.Errorf(calc.KindSyntax, "Expected %s at position %d, found %s", kind, tok.pos, describe(tok))
	}
	return nil
}

func (p *parser) unexpected(tok token) error {
	if tok.kind == tokEOF {
		return calc.Errorf(calc.KindSyntax, "Unexpected end of expression")
	}
	return calc.Errorf(calc.KindSyntax, "Unexpected %s at position %d", describe(tok), tok.pos)
}

func describe(tok token) string {
	switch tok.kind {
	case tokEOF:
		return tok.kind.String()
	case tokNumber, tokFunc, tokPostfixPow:
		return "'" + tok.text + "'"
	default:
		return tok.kind.String()
	}
}

// enter guards recursion depth; callers must defer p.leave().
func (p *parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		return calc.Errorf(calc.KindSyntax, "Expression nested too deeply (max depth: %d)", p.maxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseExpr() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().kind {
		case tokPlus:
			op = OpAdd
		case tokMinus:
			op = OpSub
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right}
	}
}

func (p *parser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().kind {
		case tokStar:
			op = OpMul
		case tokSlash:
			op = OpDiv
		case tokPercent:
			op = OpMod
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right}
	}
}

func (p *parser) parseUnary() (Node, error) {
	if p.peek().kind != tokMinus {
		return p.parsePower()
	}
	p.next()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Unary{X: x}, nil
}

func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokPow {
		return base, nil
	}
	p.next()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: OpPow, L: base, R: exp}, nil
}

func (p *parser) parsePostfix() (Node, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokPostfixPow {
		tok := p.next()
		x = &Binary{Op: OpPow, L: x, R: &Number{Value: tok.value}, Postfix: true}
	}
	return x, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return &Number{Value: tok.value}, nil
	case tokLParen:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return x, nil
	case tokFunc:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		if p.peek().kind == tokLParen {
			p.next()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &Call{Name: tok.text, Args: args}, nil
		}
		// "square root of 25", "sqrt 16"
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Call{Name: tok.text, Args: []Node{x}}, nil
	default:
		return nil, p.unexpected(tok)
	}
}

// parseArgs parses a comma-separated argument list after "(".
func (p *parser) parseArgs() ([]Node, error) {
	if p.peek().kind == tokRParen {
		p.next()
		return nil, nil
	}
	var args []Node
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.peek().kind == tokComma {
			p.next()
			continue
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return args, nil
	}
}
