package types

import (
	"fmt"
	"strings"
)

// ErrorCode classifies a parse failure.
type ErrorCode string

const (
	// S01xx: lexical problems
	ErrEmptyInput         ErrorCode = "S0100"
	ErrUnterminatedString ErrorCode = "S0101"
	ErrInvalidCharacter   ErrorCode = "S0102"
	ErrNumberOutOfRange   ErrorCode = "S0103"

	// S02xx: syntax
	ErrUnexpectedToken ErrorCode = "S0201"
	ErrExpectedToken   ErrorCode = "S0202"
	ErrMissingOperand  ErrorCode = "S0203"
	ErrEmptyArgument   ErrorCode = "S0204"

	// S03xx: limits
	ErrMaxDepth ErrorCode = "S0301"
)

// ParseError describes why a formula could not be parsed.
type ParseError struct {
	Code     ErrorCode
	Message  string
	Position int    // byte offset into the source
	Token    string // offending token text, if any
}

// NewParseError creates a ParseError at the given byte offset.
func NewParseError(code ErrorCode, message string, position int) *ParseError {
	return &ParseError{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithToken records the offending token text.
func (e *ParseError) WithToken(token string) *ParseError {
	e.Token = token
	return e
}

// ParseErrors is the error returned by a failed parse. It always holds
// at least one entry.
type ParseErrors []*ParseError

func (pe ParseErrors) Error() string {
	switch len(pe) {
	case 0:
		return "parse failed"
	case 1:
		return pe[0].Error()
	}
	msgs := make([]string, len(pe))
	for i, e := range pe {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (pe ParseErrors) Unwrap() []error {
	out := make([]error, len(pe))
	for i, e := range pe {
		out[i] = e
	}
	return out
}
