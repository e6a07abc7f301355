package parser

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-training/mcp-calculator/pkg/calc"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokPow
	tokPostfixPow
	tokLParen
	tokRParen
	tokComma
	tokFunc
)

var tokenNames = map[tokenKind]string{
	tokEOF:        "end of expression",
	tokNumber:     "number",
	tokPlus:       "'+'",
	tokMinus:      "'-'",
	tokStar:       "'*'",
	tokSlash:      "'/'",
	tokPercent:    "'%'",
	tokPow:        "'**'",
	tokPostfixPow: "power",
	tokLParen:     "'('",
	tokRParen:     "')'",
	tokComma:      "','",
	tokFunc:       "function",
}

func (k tokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return "token"
}

type token struct {
	kind  tokenKind
	text  string
	value float64 // number value, or exponent of a postfix power
	pos   int
}

// lexeme is the raw scanner output before vocabulary lookup.
type lexeme struct {
	kind lexKind
	text string
	pos  int
}

type lexKind int

const (
	lexNumber lexKind = iota
	lexSymbol
	lexWord
	// lexJoin is a hyphen directly between two letters, as in "twenty-five".
	lexJoin
)

var symbols = map[string]tokenKind{
	"**": tokPow,
	"+":  tokPlus,
	"-":  tokMinus,
	"*":  tokStar,
	"/":  tokSlash,
	"%":  tokPercent,
	"^":  tokPow,
	"(":  tokLParen,
	")":  tokRParen,
	",":  tokComma,
	"×":  tokStar,
	"÷":  tokSlash,
}

func isLetter(r rune) bool { return r >= 'a' && r <= 'z' || r == '_' }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }

// scan splits normalized text into numbers, symbols and words. Any other
// character is a syntax error.
func scan(s string) ([]lexeme, error) {
	var out []lexeme
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || c == '.' && i+1 < len(s) && isDigit(s[i+1]):
			j := scanNumber(s, i)
			out = append(out, lexeme{kind: lexNumber, text: s[i:j], pos: i})
			i = j
		case c == '-' && i > 0 && i+1 < len(s) && isLetter(rune(s[i-1])) && isLetter(rune(s[i+1])):
			out = append(out, lexeme{kind: lexJoin, text: "-", pos: i})
			i++
		case isLetter(rune(c)):
			j := i
			for j < len(s) && isLetter(rune(s[j])) {
				j++
			}
			out = append(out, lexeme{kind: lexWord, text: s[i:j], pos: i})
			i = j
		case strings.HasPrefix(s[i:], "**"):
			out = append(out, lexeme{kind: lexSymbol, text: "**", pos: i})
			i += 2
		default:
			r, size := utf8.DecodeRuneInString(s[i:])
			if _, ok := symbols[string(r)]; !ok {
				return nil, calc.Errorf(calc.KindSyntax, "Unexpected character %q at position %d", r, i)
			}
			out = append(out, lexeme{kind: lexSymbol, text: string(r), pos: i})
			i += size
		}
	}
	return out, nil
}

// scanNumber returns the end of the numeric literal starting at i:
// digits, an optional fraction and an optional exponent.
func scanNumber(s string, i int) int {
	j := i
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	if j < len(s) && s[j] == '.' {
		j++
		for j < len(s) && isDigit(s[j]) {
			j++
		}
	}
	if j < len(s) && s[j] == 'e' {
		k := j + 1
		if k < len(s) && (s[k] == '+' || s[k] == '-') {
			k++
		}
		if k < len(s) && isDigit(s[k]) {
			for k < len(s) && isDigit(s[k]) {
				k++
			}
			j = k
		}
	}
	return j
}

// entryKind classifies a vocabulary phrase.
type entryKind int

const (
	entryNumber entryKind = iota
	entryOperator
	entryFunction
)

type entry struct {
	kind   entryKind
	value  float64
	symbol wordSymbol
}

// lexicon is the compiled phrase table built from a Config.
type lexicon struct {
	phrases  map[string]entry
	maxWords int
}

func newLexicon(cfg Config) (*lexicon, error) {
	lx := &lexicon{phrases: make(map[string]entry)}
	add := func(phrase string, e entry) {
		key := phraseKey(phrase)
		if key == "" {
			return
		}
		lx.phrases[key] = e
		if n := strings.Count(key, " ") + 1; n > lx.maxWords {
			lx.maxWords = n
		}
	}
	for phrase, v := range cfg.WordToNumber {
		add(phrase, entry{kind: entryNumber, value: v})
	}
	for name := range cfg.SafeFunctions {
		add(name, entry{kind: entryFunction, symbol: wordSymbol{kind: tokFunc, function: name}})
	}
	for phrase, symbol := range cfg.OperationWords {
		ws, err := classifySymbol(symbol, cfg.SafeFunctions)
		if err != nil {
			return nil, err
		}
		kind := entryOperator
		if ws.kind == tokFunc {
			kind = entryFunction
		}
		add(phrase, entry{kind: kind, symbol: ws})
	}
	return lx, nil
}

// phraseKey lowercases a phrase and joins its words with single spaces;
// hyphens count as word separators.
func phraseKey(phrase string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(strings.ToLower(phrase), "-", " ")), " ")
}

// item is a lexeme resolved against the lexicon, before number words are composed.
type item struct {
	kind  itemKind
	tok   token
	value float64
	pos   int
}

type itemKind int

const (
	itemToken itemKind = iota
	itemNumberWord
	itemAnd
	itemJoin
)

// tokenize turns normalized text into parser tokens.
func (lx *lexicon) tokenize(s string) ([]token, error) {
	lexemes, err := scan(s)
	if err != nil {
		return nil, err
	}
	items, err := lx.resolve(lexemes)
	if err != nil {
		return nil, err
	}
	return compose(items)
}

// resolve maps each lexeme, or run of word lexemes, to an item. Multi-word
// phrases are matched longest first so "square root of" wins over "square root".
func (lx *lexicon) resolve(lexemes []lexeme) ([]item, error) {
	var items []item
	for i := 0; i < len(lexemes); {
		lex := lexemes[i]
		switch lex.kind {
		case lexNumber:
			v, err := strconv.ParseFloat(lex.text, 64)
			if errors.Is(err, strconv.ErrRange) {
				if v != 0 {
					return nil, calc.Errorf(calc.KindOverflow, "Number %q at position %d is too large", lex.text, lex.pos)
				}
				err = nil
			}
			if err != nil {
				return nil, calc.Errorf(calc.KindSyntax, "Invalid number %q at position %d", lex.text, lex.pos)
			}
			items = append(items, item{kind: itemToken, tok: token{kind: tokNumber, text: lex.text, value: v, pos: lex.pos}, pos: lex.pos})
			i++
		case lexSymbol:
			items = append(items, item{kind: itemToken, tok: token{kind: symbols[lex.text], text: lex.text, pos: lex.pos}, pos: lex.pos})
			i++
		case lexJoin:
			items = append(items, item{kind: itemJoin, pos: lex.pos})
			i++
		case lexWord:
			it, consumed, err := lx.matchPhrase(lexemes[i:])
			if err != nil {
				return nil, err
			}
			items = append(items, it)
			i += consumed
		}
	}
	return items, nil
}

// matchPhrase resolves the longest phrase starting at lexemes[0], which is a
// word. Words may be separated by joiners, which the phrase then consumes.
func (lx *lexicon) matchPhrase(lexemes []lexeme) (item, int, error) {
	var words []string
	ends := []int{} // ends[n-1] is the lexeme count consumed by an n-word phrase
	for j := 0; j < len(lexemes) && len(words) < lx.maxWords; j++ {
		if lexemes[j].kind == lexJoin && len(words) > 0 && j+1 < len(lexemes) && lexemes[j+1].kind == lexWord {
			continue
		}
		if lexemes[j].kind != lexWord {
			break
		}
		words = append(words, lexemes[j].text)
		ends = append(ends, j+1)
	}

	first := lexemes[0]
	for n := len(words); n > 0; n-- {
		e, ok := lx.phrases[strings.Join(words[:n], " ")]
		if !ok {
			continue
		}
		text := strings.Join(words[:n], " ")
		switch e.kind {
		case entryNumber:
			return item{kind: itemNumberWord, value: e.value, pos: first.pos}, ends[n-1], nil
		default:
			tok := token{kind: e.symbol.kind, text: text, value: e.symbol.exponent, pos: first.pos}
			if e.kind == entryFunction {
				tok.text = e.symbol.function
			}
			return item{kind: itemToken, tok: tok, pos: first.pos}, ends[n-1], nil
		}
	}
	if first.text == "and" {
		return item{kind: itemAnd, pos: first.pos}, 1, nil
	}
	return item{}, 0, calc.Errorf(calc.KindSyntax, "Unrecognized word %q at position %d", first.text, first.pos)
}

// compose folds runs of number words into numeric tokens. A stray "and" is
// a syntax error; a stray joiner is subtraction.
func compose(items []item) ([]token, error) {
	var out []token
	for i := 0; i < len(items); {
		it := items[i]
		switch it.kind {
		case itemToken:
			out = append(out, it.tok)
			i++
		case itemJoin:
			out = append(out, token{kind: tokMinus, text: "-", pos: it.pos})
			i++
		case itemAnd:
			return nil, calc.Errorf(calc.KindSyntax, "Unexpected word \"and\" at position %d", it.pos)
		case itemNumberWord:
			var c numberComposer
			c.accept(it.value)
			j := i + 1
			for j < len(items) {
				next := items[j]
				if next.kind == itemNumberWord && c.accept(next.value) {
					j++
					continue
				}
				// "one hundred and five" and "twenty-five"
				if (next.kind == itemAnd && c.allowsAnd() || next.kind == itemJoin && c.allowsJoin()) &&
					j+1 < len(items) && items[j+1].kind == itemNumberWord &&
					classify(items[j+1].value) < classHundred && c.accept(items[j+1].value) {
					j += 2
					continue
				}
				break
			}
			v := c.value()
			out = append(out, token{kind: tokNumber, text: strconv.FormatFloat(v, 'f', -1, 64), value: v, pos: it.pos})
			i = j
		}
	}
	return append(out, token{kind: tokEOF}), nil
}

type wordClass int

const (
	classNone wordClass = iota
	classZero
	classUnit
	classTeen
	classTens
	classHundred
	classScale
)

// numberComposer accumulates compound number words such as
// "two thousand three hundred and five". A word that cannot extend the
// current number is rejected so the caller can start a new one.
type numberComposer struct {
	total      float64
	group      float64
	last       wordClass
	lastScale  float64
	hasHundred bool
}

func classify(v float64) wordClass {
	switch {
	case v == 0:
		return classZero
	case v != float64(int64(v)) || v < 0:
		return classNone
	case v < 10:
		return classUnit
	case v < 20:
		return classTeen
	case v < 100:
		if int64(v)%10 == 0 {
			return classTens
		}
		return classTeen
	case v == 100:
		return classHundred
	case isScale(v):
		return classScale
	}
	return classNone
}

func isScale(v float64) bool {
	for s := 1e3; s <= 1e15; s *= 1e3 {
		if v == s {
			return true
		}
	}
	return false
}

func (c *numberComposer) accept(v float64) bool {
	class := classify(v)
	fresh := c.last == classNone
	if class == classNone {
		// Non-compositional values (fractions, irregular phrases) stand alone.
		if !fresh {
			return false
		}
		c.group, c.last = v, classZero
		return true
	}
	if c.last == classZero {
		return false
	}

	switch class {
	case classZero:
		if !fresh {
			return false
		}
	case classUnit:
		if !fresh && c.last != classHundred && c.last != classScale && c.last != classTens {
			return false
		}
		c.group += v
	case classTeen, classTens:
		if !fresh && c.last != classHundred && c.last != classScale {
			return false
		}
		c.group += v
	case classHundred:
		if c.hasHundred || c.last == classScale {
			return false
		}
		if c.group == 0 {
			c.group = 1
		}
		c.group *= 100
		c.hasHundred = true
	case classScale:
		if c.last == classScale || c.lastScale != 0 && v >= c.lastScale {
			return false
		}
		if c.group == 0 {
			c.group = 1
		}
		c.total += c.group * v
		c.group = 0
		c.lastScale = v
		c.hasHundred = false
	}
	c.last = class
	return true
}

func (c *numberComposer) allowsAnd() bool {
	return c.last == classHundred || c.last == classScale
}

func (c *numberComposer) allowsJoin() bool {
	return c.last == classTens
}

func (c *numberComposer) value() float64 {
	return c.total + c.group
}
