package parser

import (
	"unicode"
	"unicode/utf8"
)

const eof = -1

// Lexer converts formula text into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
//
// Lexing never fails: malformed input produces TokenInvalid or
// TokenUnterminated tokens and the parser reports them.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Tokenize returns every token of input. The last token is always TokenEOF.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		t := l.Next()
		tokens = append(tokens, t)
		if t.Type == TokenEOF {
			return tokens
		}
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	// Two-character symbols first (<=, >=, <>, !=)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	if ch == '"' {
		l.ignore()
		return l.scanString(ch)
	}

	if isDigit(ch) || (ch == '.' && isDigit(l.peek())) {
		l.backup()
		return l.scanNumber()
	}

	if isNameStart(ch) {
		l.backup()
		return l.scanName()
	}

	return l.newToken(TokenInvalid)
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed. There are no escape
// sequences; the literal ends at the next quote. The token's position is
// that of the opening quote.
func (l *Lexer) scanString(quote rune) Token {
	for {
		switch l.nextRune() {
		case quote:
			l.backup()
			t := l.newToken(TokenString)
			t.Position--
			l.acceptRune(quote)
			l.ignore()
			return t
		case eof:
			t := l.newToken(TokenUnterminated)
			t.Position--
			return t
		}
	}
}

// scanNumber reads a number literal from the current position.
// Format: [0-9]*(\.[0-9]*)?([eE][+-]?[0-9]+)?
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)

	if l.acceptRune('.') {
		l.acceptAll(isDigit)
	}

	// The exponent is only consumed when digits follow it, so "2e" lexes
	// as a number followed by an identifier.
	mark := l.current
	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigit) {
			l.current = mark
		}
	}

	return l.newToken(TokenNumber)
}

// scanName reads an identifier or boolean keyword.
// TRUE and FALSE are identifiers when a call parenthesis follows.
func (l *Lexer) scanName() Token {
	l.acceptAll(isNameRune)
	t := l.newToken(TokenIdentifier)

	if isBooleanKeyword(t.Value) && l.peekNonBlank() != '(' {
		t.Type = TokenBoolean
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) peek() rune {
	r := l.nextRune()
	l.backup()
	return r
}

// peekNonBlank returns the next rune after any whitespace without
// consuming input.
func (l *Lexer) peekNonBlank() rune {
	for i := l.current; i < l.length; {
		r, w := utf8.DecodeRuneInString(l.input[i:])
		if !isWhitespace(r) {
			return r
		}
		i += w
	}
	return eof
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

func (l *Lexer) skipWhitespace() {
	l.acceptAll(isWhitespace)
	l.ignore()
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
