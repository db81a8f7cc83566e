package parser

import (
	"fmt"
	"strconv"

	"corvid-labs/vigil/pkg/vex/ast"
	"corvid-labs/vigil/pkg/vex/lexer"
)

// ParseError describes a lexical or syntactic violation in an expression.
// Offset is the byte position of the offending token in the input.
type ParseError struct {
	Input    string
	Offset   int
	Message  string
	Expected string
}

// Error returns the error message.
func (e *ParseError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("parse error at offset %d: %s, expected %s", e.Offset, e.Message, e.Expected)
	}
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}

// Parser parses a single expression string.
type Parser struct {
	input string
	lex   *lexer.Lexer
	cur   lexer.Token
	peek  lexer.Token
}

// New creates a parser over input with the first two tokens loaded.
func New(input string) *Parser {
	p := &Parser{input: input, lex: lexer.New(input)}
	p.next()
	p.next()
	return p
}

// Parse parses input as a complete expression.
func Parse(input string) (ast.Expr, error) {
	p := New(input)
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != lexer.EOF {
		if p.cur.Kind.IsComparison() {
			return nil, p.errorAt(p.cur, "comparisons cannot be chained", "'and' or 'or'")
		}
		if p.cur.Kind == lexer.ILLEGAL {
			return nil, p.illegal(p.cur)
		}
		return nil, p.errorAt(p.cur, fmt.Sprintf("unexpected %s after expression", p.describe(p.cur)), "")
	}
	return expr, nil
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

// parseOr parses: and-expr ( 'or' and-expr )*
func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.OR {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

// parseAnd parses: not-expr ( 'and' not-expr )*
func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.AND {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

// parseNot parses: 'not' not-expr | comparison
func (p *Parser) parseNot() (ast.Expr, error) {
	if p.cur.Kind == lexer.NOT {
		p.next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.OpNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

// parseComparison parses: primary ( cmp-op primary )?
// Comparison operators do not chain.
func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if !p.cur.Kind.IsComparison() {
		return left, nil
	}

	opTok := p.cur
	op, err := comparisonOp(opTok.Kind)
	if err != nil {
		return nil, p.errorAt(opTok, err.Error(), "")
	}
	p.next()

	var right ast.Expr
	if op == ast.OpIn {
		right, err = p.parseSequence()
	} else {
		right, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}

	if p.cur.Kind.IsComparison() {
		return nil, p.errorAt(p.cur, "comparisons cannot be chained", "'and' or 'or'")
	}
	return &ast.Binary{Op: op, Left: left, Right: right}, nil
}

// parsePrimary parses a literal, a field reference, or a parenthesized
// expression.
func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur
	switch tok.Kind {
	case lexer.TRUE:
		p.next()
		return &ast.Literal{Value: ast.BoolValue(true)}, nil
	case lexer.FALSE:
		p.next()
		return &ast.Literal{Value: ast.BoolValue(false)}, nil
	case lexer.NULL:
		p.next()
		return &ast.Literal{Value: ast.NullValue()}, nil
	case lexer.STRING:
		p.next()
		return &ast.Literal{Value: ast.StringValue(tok.Text)}, nil
	case lexer.NUMBER:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, p.errorAt(tok, fmt.Sprintf("invalid number literal %q", tok.Text), "")
		}
		p.next()
		return &ast.Literal{Value: ast.NumberValue(f)}, nil
	case lexer.IDENT:
		p.next()
		return &ast.FieldRef{Name: tok.Text}, nil
	case lexer.LPAREN:
		p.next()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur.Kind != lexer.RPAREN {
			return nil, p.errorAt(p.cur, fmt.Sprintf("unexpected %s", p.describe(p.cur)), "')'")
		}
		p.next()
		return expr, nil
	case lexer.LBRACKET:
		return nil, p.errorAt(tok, "sequence literal is only allowed after 'in'", "")
	case lexer.EOF:
		return nil, p.errorAt(tok, "unexpected end of expression", "a value")
	case lexer.ILLEGAL:
		return nil, p.illegal(tok)
	default:
		return nil, p.errorAt(tok, fmt.Sprintf("unexpected %s", p.describe(tok)), "a value")
	}
}

// parseSequence parses the right operand of in: a bracketed or
// parenthesized list of literals. An empty sequence is allowed and never
// matches.
func (p *Parser) parseSequence() (ast.Expr, error) {
	open := p.cur
	var closer lexer.Kind
	switch open.Kind {
	case lexer.LBRACKET:
		closer = lexer.RBRACKET
	case lexer.LPAREN:
		closer = lexer.RPAREN
	case lexer.EOF:
		return nil, p.errorAt(open, "unexpected end of expression", "a sequence of literals after 'in'")
	default:
		return nil, p.errorAt(open, fmt.Sprintf("unexpected %s", p.describe(open)), "a sequence of literals after 'in'")
	}
	p.next()

	var elems []ast.Value
	for p.cur.Kind != closer {
		v, err := p.parseSequenceElem()
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)

		if p.cur.Kind == lexer.COMMA {
			p.next()
			continue
		}
		if p.cur.Kind != closer {
			return nil, p.errorAt(p.cur, fmt.Sprintf("unexpected %s in sequence", p.describe(p.cur)), closer.String())
		}
	}
	p.next() // consume closer
	return &ast.List{Elems: elems}, nil
}

// parseSequenceElem parses a single literal element of a sequence.
func (p *Parser) parseSequenceElem() (ast.Value, error) {
	tok := p.cur
	switch tok.Kind {
	case lexer.TRUE:
		p.next()
		return ast.BoolValue(true), nil
	case lexer.FALSE:
		p.next()
		return ast.BoolValue(false), nil
	case lexer.NULL:
		p.next()
		return ast.NullValue(), nil
	case lexer.STRING:
		p.next()
		return ast.StringValue(tok.Text), nil
	case lexer.NUMBER:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return ast.NullValue(), p.errorAt(tok, fmt.Sprintf("invalid number literal %q", tok.Text), "")
		}
		p.next()
		return ast.NumberValue(f), nil
	case lexer.IDENT:
		return ast.NullValue(), p.errorAt(tok, fmt.Sprintf("sequence elements must be literals, found field reference %q", tok.Text), "")
	case lexer.EOF:
		return ast.NullValue(), p.errorAt(tok, "unexpected end of expression", "a literal")
	case lexer.ILLEGAL:
		return ast.NullValue(), p.illegal(tok)
	default:
		return ast.NullValue(), p.errorAt(tok, fmt.Sprintf("unexpected %s in sequence", p.describe(tok)), "a literal")
	}
}

// comparisonOp maps a comparison token kind to its operator.
func comparisonOp(k lexer.Kind) (ast.Op, error) {
	switch k {
	case lexer.EQ:
		return ast.OpEq, nil
	case lexer.NE:
		return ast.OpNe, nil
	case lexer.LT:
		return ast.OpLt, nil
	case lexer.LE:
		return ast.OpLe, nil
	case lexer.GT:
		return ast.OpGt, nil
	case lexer.GE:
		return ast.OpGe, nil
	case lexer.IN:
		return ast.OpIn, nil
	default:
		return "", fmt.Errorf("not a comparison operator: %s", k)
	}
}

// describe renders a token for an error message.
func (p *Parser) describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.EOF:
		return "end of expression"
	case lexer.IDENT, lexer.NUMBER:
		return fmt.Sprintf("%s %q", tok.Kind, tok.Text)
	case lexer.STRING:
		return fmt.Sprintf("string %q", tok.Text)
	default:
		return tok.Kind.String()
	}
}

// illegal converts an ILLEGAL token into a ParseError, with targeted
// messages for the common near-misses.
func (p *Parser) illegal(tok lexer.Token) error {
	switch tok.Text {
	case "=":
		return p.errorAt(tok, "unexpected '='", "'=='")
	case "!":
		return p.errorAt(tok, "unexpected '!'", "'!='")
	case "'", "\"":
		return p.errorAt(tok, "unterminated string literal", "")
	default:
		return p.errorAt(tok, fmt.Sprintf("unexpected character %q", tok.Text), "")
	}
}

func (p *Parser) errorAt(tok lexer.Token, message, expected string) error {
	return &ParseError{
		Input:    p.input,
		Offset:   tok.Offset,
		Message:  message,
		Expected: expected,
	}
}
