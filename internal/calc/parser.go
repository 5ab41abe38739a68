package calc

import (
	"fmt"
	"math"
	"strconv"
	"unicode"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp    // + - * /
	tokPower // ** or ^
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

type parser struct {
	tokens []token
	pos    int
}

func newParser(expr string) (*parser, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	return &parser{tokens: tokens}, nil
}

// tokenize splits a lowercased expression into tokens. Commas separate
// function arguments only; thousands separators are not supported.
func tokenize(expr string) ([]token, error) {
	var tokens []token
	runes := []rune(expr)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r >= '0' && r <= '9' || r == '.':
			start := i
			for i < len(runes) && (runes[i] >= '0' && runes[i] <= '9' || runes[i] == '.') {
				i++
			}
			// Scientific notation: e/E only when followed by a digit or a
			// signed digit, so the constant e still tokenizes on its own.
			if i < len(runes) && runes[i] == 'e' {
				j := i + 1
				if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
					j++
				}
				if j < len(runes) && runes[j] >= '0' && runes[j] <= '9' {
					i = j
					for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
						i++
					}
				}
			}
			text := string(runes[start:i])
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &syntaxError{msg: fmt.Sprintf("bad number %q", text)}
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: num})
		case r >= 'a' && r <= 'z':
			start := i
			for i < len(runes) && (runes[i] >= 'a' && runes[i] <= 'z' || runes[i] >= '0' && runes[i] <= '9') {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i])})
		case r == '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				tokens = append(tokens, token{kind: tokPower, text: "**"})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokOp, text: "*"})
				i++
			}
		case r == '^':
			tokens = append(tokens, token{kind: tokPower, text: "^"})
			i++
		case r == '+' || r == '-' || r == '/':
			tokens = append(tokens, token{kind: tokOp, text: string(r)})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
			i++
		case r == ',':
			tokens = append(tokens, token{kind: tokComma, text: ","})
			i++
		default:
			return nil, &syntaxError{msg: fmt.Sprintf("unexpected character %q", string(r))}
		}
	}
	tokens = append(tokens, token{kind: tokEOF})
	return tokens, nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// parse evaluates the full token stream and requires it to be consumed.
func (p *parser) parse() (float64, error) {
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return 0, &syntaxError{msg: fmt.Sprintf("unexpected %q", t.text)}
	}
	return v, nil
}

func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if t.text == "+" {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if t.text == "*" {
			left *= right
		} else {
			if right == 0 {
				return 0, &divisionByZeroError{}
			}
			left /= right
		}
	}
}

func (p *parser) parseUnary() (float64, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "+" || t.text == "-") {
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if t.text == "-" {
			return -v, nil
		}
		return v, nil
	}
	return p.parsePower()
}

// parsePower binds tighter than unary minus and is right-associative, so
// -2**2 is -4 and 2**3**2 is 512.
func (p *parser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if p.peek().kind != tokPower {
		return base, nil
	}
	p.next()
	exp, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exp), nil
}

func (p *parser) parsePrimary() (float64, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.num, nil
	case tokLParen:
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return 0, &syntaxError{msg: "missing closing parenthesis"}
		}
		return v, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.parseCall(t.text)
		}
		if c, ok := constants[t.text]; ok {
			return c, nil
		}
		return 0, &nameError{name: t.text}
	case tokEOF:
		return 0, &syntaxError{msg: "unexpected end of expression"}
	default:
		return 0, &syntaxError{msg: fmt.Sprintf("unexpected %q", t.text)}
	}
}

func (p *parser) parseCall(name string) (float64, error) {
	fn, ok := functions[name]
	if !ok {
		return 0, &nameError{name: name}
	}
	p.next() // consume '('

	var args []float64
	if p.peek().kind != tokRParen {
		for {
			v, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			args = append(args, v)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if closing := p.next(); closing.kind != tokRParen {
		return 0, &syntaxError{msg: fmt.Sprintf("missing closing parenthesis in call to %s", name)}
	}
	return fn(name, args)
}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

type function func(name string, args []float64) (float64, error)

func unary(f func(float64) float64) function {
	return func(name string, args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, &syntaxError{msg: fmt.Sprintf("%s expects 1 argument, got %d", name, len(args))}
		}
		return f(args[0]), nil
	}
}

func variadic(f func(acc, v float64) float64) function {
	return func(name string, args []float64) (float64, error) {
		if len(args) == 0 {
			return 0, &syntaxError{msg: fmt.Sprintf("%s expects at least 1 argument", name)}
		}
		acc := args[0]
		for _, v := range args[1:] {
			acc = f(acc, v)
		}
		return acc, nil
	}
}

var functions = map[string]function{
	"sqrt": func(name string, args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, &syntaxError{msg: "sqrt expects 1 argument"}
		}
		if args[0] < 0 {
			return 0, &domainError{msg: "square root of a negative number"}
		}
		return math.Sqrt(args[0]), nil
	},
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"log":   unary(math.Log),
	"log10": unary(math.Log10),
	"exp":   unary(math.Exp),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"abs":   unary(math.Abs),
	"round": unary(math.Round),
	"min":   variadic(math.Min),
	"max":   variadic(math.Max),
	"sum":   variadic(func(acc, v float64) float64 { return acc + v }),
	"pow": func(name string, args []float64) (float64, error) {
		if len(args) != 2 {
			return 0, &syntaxError{msg: "pow expects 2 arguments"}
		}
		return math.Pow(args[0], args[1]), nil
	},
}
