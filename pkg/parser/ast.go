package parser

import (
	"strconv"
	"strings"
)

// Node is an expression tree node: *Number, *Unary, *Binary or *Call.
type Node interface {
	// precedence is the binding strength used when rendering.
	precedence() int
	render(sb *strings.Builder)
}

// Binary operators.
const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpMod = "%"
	OpPow = "**"
)

const (
	precSum = iota + 1
	precProduct
	precUnary
	precPower
	precAtom
)

// Number is a numeric literal.
type Number struct {
	Value float64
}

// Unary is a negation.
type Unary struct {
	X Node
}

// Binary is an arithmetic operation. Postfix marks powers written as
// "squared" or "cubed", which render with a parenthesized base.
type Binary struct {
	Op      string
	L, R    Node
	Postfix bool
}

// Call is an application of a safe function by its exposed name.
type Call struct {
	Name string
	Args []Node
}

func (*Number) precedence() int { return precAtom }
func (*Unary) precedence() int  { return precUnary }
func (*Call) precedence() int   { return precAtom }

func (b *Binary) precedence() int {
	switch b.Op {
	case OpAdd, OpSub:
		return precSum
	case OpPow:
		return precPower
	default:
		return precProduct
	}
}

func (n *Number) render(sb *strings.Builder) {
	sb.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
}

func (u *Unary) render(sb *strings.Builder) {
	sb.WriteString("-")
	// "--x" would scan as subtraction of a negation, so nest explicitly.
	wrap(sb, u.X, u.X.precedence() < precUnary || isUnary(u.X))
}

func (b *Binary) render(sb *strings.Builder) {
	p := b.precedence()
	if b.Op == OpPow {
		// Right-associative; a negative base must be parenthesized.
		wrap(sb, b.L, b.Postfix || b.L.precedence() <= p)
		sb.WriteString(OpPow)
		wrap(sb, b.R, b.R.precedence() < precUnary)
		return
	}
	wrap(sb, b.L, b.L.precedence() < p)
	sb.WriteString(b.Op)
	wrap(sb, b.R, b.R.precedence() <= p || isUnary(b.R))
}

func (c *Call) render(sb *strings.Builder) {
	sb.WriteString(c.Name)
	sb.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			sb.WriteByte(',')
		}
		a.render(sb)
	}
	sb.WriteByte(')')
}

func wrap(sb *strings.Builder, n Node, parens bool) {
	if parens {
		sb.WriteByte('(')
	}
	n.render(sb)
	if parens {
		sb.WriteByte(')')
	}
}

func isUnary(n Node) bool {
	_, ok := n.(*Unary)
	return ok
}

// String renders n as a symbolic expression that parses back to the same tree.
func String(n Node) string {
	var sb strings.Builder
	n.render(&sb)
	return sb.String()
}
