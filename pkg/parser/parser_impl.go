package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandrolain/xlformula/pkg/types"
)

// Parser implements a recursive descent parser for formulas.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence correctly.
//
// A Parser is single-use: create one per formula.
type Parser struct {
	lexer   *Lexer
	current Token
	prev    Token
	errors  types.ParseErrors
	opts    CompileOptions
	arena   *types.NodeArena
	depth   int
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.MaxDepth <= 0 {
		options.MaxDepth = DefaultMaxDepth
	}

	p := &Parser{
		lexer: NewLexer(input),
		opts:  options,
		arena: types.NewNodeArena(),
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire formula. Exactly one of the results is non-nil.
func (p *Parser) Parse() (*types.Expression, error) {
	if p.current.Type == TokenEOF {
		p.error(types.ErrEmptyInput, "empty formula")
		return nil, p.errors
	}

	node, err := p.parseExpression(0)
	if err != nil {
		return nil, p.errors
	}

	switch p.current.Type {
	case TokenEOF:
	case TokenInvalid:
		p.error(types.ErrInvalidCharacter, fmt.Sprintf("invalid character %q", p.current.Value))
		return nil, p.errors
	case TokenUnterminated:
		p.error(types.ErrUnterminatedString, "unterminated string literal")
		return nil, p.errors
	default:
		p.error(types.ErrUnexpectedToken, fmt.Sprintf("unexpected %s after end of expression", p.current.describe()))
		return nil, p.errors
	}

	return types.NewExpression(node, p.lexer.input, p.arena), nil
}

// Binding powers. Higher values bind more tightly.
const (
	precComparison = 10
	precConcat     = 20
	precAdditive   = 30
	precMultiply   = 40
	precPower      = 50
)

// Operator precedence table (binding power)
var precedence = map[TokenType]int{
	TokenEqual:        precComparison,
	TokenNotEqual:     precComparison,
	TokenLess:         precComparison,
	TokenLessEqual:    precComparison,
	TokenGreater:      precComparison,
	TokenGreaterEqual: precComparison,
	TokenConcat:       precConcat,
	TokenPlus:         precAdditive,
	TokenMinus:        precAdditive,
	TokenMult:         precMultiply,
	TokenDiv:          precMultiply,
	TokenPower:        precPower,
}

var binaryOperators = map[TokenType]types.Operator{
	TokenEqual:        types.OpEq,
	TokenNotEqual:     types.OpNe,
	TokenLess:         types.OpLt,
	TokenLessEqual:    types.OpLe,
	TokenGreater:      types.OpGt,
	TokenGreaterEqual: types.OpGe,
	TokenConcat:       types.OpConcat,
	TokenPlus:         types.OpAdd,
	TokenMinus:        types.OpSub,
	TokenMult:         types.OpMul,
	TokenDiv:          types.OpDiv,
	TokenPower:        types.OpPow,
}

// getPrecedence returns the precedence of a token type.
func (p *Parser) getPrecedence(tt TokenType) int {
	if prec, ok := precedence[tt]; ok {
		return prec
	}
	return 0
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	p.current = p.lexer.Next()
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType, context string) error {
	if p.current.Type != tt {
		return p.error(types.ErrExpectedToken, fmt.Sprintf("expected '%s' %s, got %s", tt, context, p.current.describe()))
	}
	p.advance()
	return nil
}

// error records a parse error at the current token.
func (p *Parser) error(code types.ErrorCode, message string) error {
	err := types.NewParseError(code, message, p.current.Position).WithToken(p.current.Value)
	p.errors = append(p.errors, err)
	return err
}

// enter guards recursion depth; every successful call must be paired with leave.
func (p *Parser) enter() error {
	p.depth++
	if p.depth > p.opts.MaxDepth {
		return p.error(types.ErrMaxDepth, fmt.Sprintf("formula nesting exceeds maximum depth of %d", p.opts.MaxDepth))
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseBinaryOp(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parseUnary parses a chain of prefix + and - operators. The operand is
// a primary, so unary minus binds tighter than ^.
func (p *Parser) parseUnary() (*types.Node, error) {
	var op types.Operator
	switch p.current.Type {
	case TokenMinus:
		op = types.OpNeg
	case TokenPlus:
		op = types.OpPos
	default:
		return p.parsePrefix()
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	node := p.arena.Alloc(types.NodeUnary, p.current.Position)
	node.Op = op
	p.advance()

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	node.LHS = operand
	return node, nil
}

// parsePrefix parses a primary expression.
func (p *Parser) parsePrefix() (*types.Node, error) {
	token := p.current

	switch token.Type {
	case TokenNumber:
		return p.parseNumber()
	case TokenString:
		node := p.arena.Alloc(types.NodeLiteral, token.Position)
		node.Value = types.NewText(token.Value)
		p.advance()
		return node, nil
	case TokenBoolean:
		node := p.arena.Alloc(types.NodeLiteral, token.Position)
		node.Value = types.NewBoolean(strings.EqualFold(token.Value, "TRUE"))
		p.advance()
		return node, nil
	case TokenIdentifier:
		p.advance()
		if p.current.Type == TokenParenOpen {
			return p.parseFunctionCall(token)
		}
		node := p.arena.Alloc(types.NodeVariable, token.Position)
		node.Name = token.Value
		return node, nil
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenEOF:
		if p.prev.Type != TokenEOF {
			return nil, p.error(types.ErrMissingOperand, fmt.Sprintf("missing operand after %s", p.prev.describe()))
		}
		return nil, p.error(types.ErrMissingOperand, "unexpected end of input, expected an expression")
	case TokenInvalid:
		return nil, p.error(types.ErrInvalidCharacter, fmt.Sprintf("invalid character %q", token.Value))
	case TokenUnterminated:
		return nil, p.error(types.ErrUnterminatedString, "unterminated string literal")
	default:
		return nil, p.error(types.ErrUnexpectedToken, fmt.Sprintf("unexpected %s, expected an expression", token.describe()))
	}
}

// parseNumber parses a numeric literal.
func (p *Parser) parseNumber() (*types.Node, error) {
	f, err := strconv.ParseFloat(p.current.Value, 64)
	if err != nil {
		return nil, p.error(types.ErrNumberOutOfRange, fmt.Sprintf("number %s is out of range", p.current.Value))
	}
	node := p.arena.Alloc(types.NodeLiteral, p.current.Position)
	node.Value = types.NewNumber(f)
	p.advance()
	return node, nil
}

// parseGrouping parses a parenthesised expression. No node is produced
// for the parentheses themselves.
func (p *Parser) parseGrouping() (*types.Node, error) {
	p.advance() // Skip '('

	if p.current.Type == TokenParenClose {
		return nil, p.error(types.ErrUnexpectedToken, "empty parentheses")
	}

	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenParenClose, "to close parenthesis"); err != nil {
		return nil, err
	}
	return node, nil
}

// parseBinaryOp parses the right operand of an infix operator.
func (p *Parser) parseBinaryOp(left *types.Node) (*types.Node, error) {
	token := p.current
	prec := p.getPrecedence(token.Type)
	p.advance()

	// ^ is right-associative: let an operator of equal precedence bind
	// on the right.
	rbp := prec
	if token.Type == TokenPower {
		rbp = prec - 1
	}

	right, err := p.parseExpression(rbp)
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeBinary, left.Position)
	node.Op = binaryOperators[token.Type]
	node.LHS = left
	node.RHS = right
	return node, nil
}

// parseFunctionCall parses the argument list of NAME(...).
// The current token is the opening parenthesis.
func (p *Parser) parseFunctionCall(name Token) (*types.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.advance() // Skip '('

	node := p.arena.Alloc(types.NodeCall, name.Position)
	node.Name = name.Value

	if p.current.Type == TokenParenClose {
		p.advance()
		return node, nil
	}

	for {
		if p.current.Type == TokenComma || p.current.Type == TokenParenClose {
			return nil, p.error(types.ErrEmptyArgument, fmt.Sprintf("empty argument in call to %s", name.Value))
		}

		arg, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Arguments = append(node.Arguments, arg)

		switch p.current.Type {
		case TokenParenClose:
			p.advance()
			return node, nil
		case TokenComma:
			p.advance()
		case TokenEOF:
			return nil, p.error(types.ErrExpectedToken, fmt.Sprintf("expected ')' to close call to %s", name.Value))
		default:
			return nil, p.error(types.ErrExpectedToken, fmt.Sprintf("expected ',' or ')' in call to %s, got %s", name.Value, p.current.describe()))
		}
	}
}
