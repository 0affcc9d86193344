package report

import (
	"fmt"
	"text/scanner"
)

type Kind int

const (
	SYNTAX Kind = iota + 1
	SEMANTIC
	RUNTIME
)

func (k Kind) String() string {
	switch k {
	case SYNTAX:
		return "SYNTAX"
	case SEMANTIC:
		return "SEMANTIC"
	case RUNTIME:
		return "RUNTIME"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Code is a SQLSTATE-style condition code paired with its symbolic name.
type Code struct {
	State string `json:"state"`
	Name  string `json:"name"`
}

func (c Code) String() string {
	return c.State + ": " + c.Name
}

var (
	SyntaxError           = Code{"42601", "syntax_error"}
	SystemError           = Code{"5800", "system_error"}
	DuplicateDatabase     = Code{"42P04", "duplicate_database"}
	DatabaseDoesNotExist  = Code{"3D000", "database_does_not_exist"}
	NoDatabaseSelected    = Code{"3D000", "no_database_selected"}
	DuplicateTable        = Code{"42P07", "duplicate_table"}
	UndefinedTable        = Code{"42P01", "undefined_table"}
	DuplicateColumn       = Code{"42701", "duplicate_column"}
	UndefinedObject       = Code{"42704", "undefined_object"}
	DuplicateObject       = Code{"42710", "duplicate_object"}
	InvalidParameterValue = Code{"22023", "invalid_parameter_value"}
	FeatureNotSupported   = Code{"0A000", "feature_not_supported"}
)

// Error is a classified failure positioned at the token that triggered it.
// Conditions detected after parsing carry line 0, column 0.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error %s at line %d, column %d: %s", e.Kind, e.Code, e.Line, e.Column, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind and code; a zero kind or zero code in target matches any.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	matchKind := other.Kind == 0 || other.Kind == e.Kind
	matchCode := other.Code == Code{} || other.Code == e.Code
	return matchKind && matchCode
}

func newError(kind Kind, code Code, pos scanner.Position, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Line:    pos.Line,
		Column:  pos.Column,
	}
}

func Syntax(pos scanner.Position, format string, args ...any) *Error {
	return newError(SYNTAX, SyntaxError, pos, format, args...)
}

func Semantic(code Code, pos scanner.Position, format string, args ...any) *Error {
	return newError(SEMANTIC, code, pos, format, args...)
}

func Runtime(code Code, format string, args ...any) *Error {
	return newError(RUNTIME, code, scanner.Position{}, format, args...)
}

// Wrap attaches cause to e and returns e.
func (e *Error) Wrap(cause error) *Error {
	e.Err = cause
	return e
}

// Sentinels for errors.Is.
var (
	ErrSyntax   = &Error{Kind: SYNTAX}
	ErrSemantic = &Error{Kind: SEMANTIC}
	ErrRuntime  = &Error{Kind: RUNTIME}
)

// Matches returns a target for errors.Is that matches any error carrying code.
func Matches(code Code) error {
	return &Error{Code: code}
}
