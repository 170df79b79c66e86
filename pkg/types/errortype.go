package types

// ErrorType is the closed set of error codes a Value may carry.
type ErrorType uint8

const (
	ErrNone ErrorType = iota
	ErrDivZero
	ErrValue
	ErrRef
	ErrName
	ErrNum
	ErrNA
	ErrParse
)

var errorLiterals = [...]string{
	ErrNone:    "",
	ErrDivZero: "#DIV/0!",
	ErrValue:   "#VALUE!",
	ErrRef:     "#REF!",
	ErrName:    "#NAME?",
	ErrNum:     "#NUM!",
	ErrNA:      "#N/A",
	ErrParse:   "#PARSE!",
}

// String returns the canonical spreadsheet literal, e.g. "#DIV/0!".
func (e ErrorType) String() string {
	if int(e) < len(errorLiterals) {
		return errorLiterals[e]
	}
	return "#ERROR!"
}

// ParseErrorType maps a literal such as "#N/A" back to its ErrorType.
func ParseErrorType(s string) (ErrorType, bool) {
	for i, lit := range errorLiterals {
		if i > 0 && lit == s {
			return ErrorType(i), true
		}
	}
	return ErrNone, false
}
