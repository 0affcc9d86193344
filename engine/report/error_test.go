package report

import (
	"errors"
	"fmt"
	"testing"
	"text/scanner"

	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("executing statement: %w", Runtime(DuplicateDatabase, "database sales already exists"))

	require.ErrorIs(t, err, ErrRuntime)
	require.ErrorIs(t, err, Matches(DuplicateDatabase))
	require.NotErrorIs(t, err, ErrSemantic)
	require.NotErrorIs(t, err, Matches(DuplicateTable))

	var target *Error
	require.True(t, errors.As(err, &target))
	require.Equal(t, 0, target.Line)
	require.Equal(t, 0, target.Column)
}

func TestError_Position(t *testing.T) {
	err := Semantic(UndefinedTable, scanner.Position{Line: 3, Column: 14}, "table %s does not exist", "parent")
	require.Equal(t, "SEMANTIC error 42P01: undefined_table at line 3, column 14: table parent does not exist", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Runtime(SystemError, "create database failed").Wrap(cause)
	require.ErrorIs(t, err, cause)
}
