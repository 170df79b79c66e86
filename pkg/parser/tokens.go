package parser

import "strings"

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenInvalid
	TokenUnterminated // string literal without a closing quote

	// Literals
	TokenNumber     // 123, 3.14, .5, 1e-10
	TokenString     // "hello"
	TokenBoolean    // TRUE, false
	TokenIdentifier // A1, SUM, my_var

	// Delimiters
	TokenParenOpen  // (
	TokenParenClose // )
	TokenComma      // ,
	TokenSemicolon  // ;

	// Arithmetic operators
	TokenPlus   // +
	TokenMinus  // -
	TokenMult   // *
	TokenDiv    // /
	TokenPower  // ^
	TokenConcat // &

	// Comparison operators
	TokenEqual        // =
	TokenNotEqual     // <> or !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenInvalid:
		return "(invalid)"
	case TokenUnterminated:
		return "(unterminated)"
	case TokenNumber:
		return "(number)"
	case TokenString:
		return "(string)"
	case TokenBoolean:
		return "(boolean)"
	case TokenIdentifier:
		return "(identifier)"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenComma:
		return ","
	case TokenSemicolon:
		return ";"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenMult:
		return "*"
	case TokenDiv:
		return "/"
	case TokenPower:
		return "^"
	case TokenConcat:
		return "&"
	case TokenEqual:
		return "="
	case TokenNotEqual:
		return "<>"
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token in a formula.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Source text; string literals exclude their quotes
	Position int       // Byte offset of the token in the input
}

// describe renders the token for error messages.
func (t Token) describe() string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenString:
		return `"` + t.Value + `"`
	case TokenNumber, TokenBoolean, TokenIdentifier:
		return t.Value
	default:
		return "'" + t.Value + "'"
	}
}

// symbols1 maps single-character symbols to token types.
var symbols1 = [...]TokenType{
	'(': TokenParenOpen,
	')': TokenParenClose,
	',': TokenComma,
	';': TokenSemicolon,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMult,
	'/': TokenDiv,
	'^': TokenPower,
	'&': TokenConcat,
	'=': TokenEqual,
	'<': TokenLess,
	'>': TokenGreater,
}

// runeTokenType pairs a rune with its corresponding token type.
type runeTokenType struct {
	r  rune
	tt TokenType
}

// symbols2 maps two-character symbol sequences to token types.
// The key is the first character of the sequence.
var symbols2 = [...][]runeTokenType{
	'!': {{'=', TokenNotEqual}},
	'<': {{'=', TokenLessEqual}, {'>', TokenNotEqual}},
	'>': {{'=', TokenGreaterEqual}},
}

const (
	symbol1Count = rune(len(symbols1))
	symbol2Count = rune(len(symbols2))
)

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns 0 if the rune is not a valid symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return 0
	}
	return symbols1[r]
}

// lookupSymbol2 returns possible two-character symbol completions.
// Returns nil if the rune cannot start a two-character symbol.
func lookupSymbol2(r rune) []runeTokenType {
	if r < 0 || r >= symbol2Count {
		return nil
	}
	return symbols2[r]
}

// isBooleanKeyword reports whether s spells TRUE or FALSE in any case.
func isBooleanKeyword(s string) bool {
	return strings.EqualFold(s, "TRUE") || strings.EqualFold(s, "FALSE")
}
