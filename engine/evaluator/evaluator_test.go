package evaluator

import (
	"math"
	"testing"

	"github.com/aleph-zero/flutterddl/engine/ast"
	"github.com/aleph-zero/flutterddl/engine/parser"
	"github.com/aleph-zero/flutterddl/engine/types"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr     string
		expected types.Value
	}{
		{`'happy'`, types.StringValue("happy")},
		{`sales`, types.StringValue("sales")},
		{`1 + 2 * 3`, types.IntegerValue(7)},
		{`(1 + 2) * 3`, types.IntegerValue(9)},
		{`7 % 4`, types.IntegerValue(3)},
		{`7 / 2`, types.IntegerValue(3)},
		{`7.0 / 2`, types.FloatValue(3.5)},
		{`-5`, types.IntegerValue(-5)},
		{`-(-2.5)`, types.FloatValue(2.5)},
		{`1 < 2 AND NOT FALSE`, types.BooleanValue(true)},
		{`'a' + 'b' = 'ab'`, types.BooleanValue(true)},
		{`1 = 1.0`, types.BooleanValue(true)},
		{`2 >= 3 OR 0`, types.BooleanValue(false)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			v, err := Evaluate(parseExpression(t, tt.expr))
			require.NoError(t, err)
			require.Equal(t, tt.expected, v)
		})
	}
}

func TestEvaluate_NonFiniteLiteral(t *testing.T) {
	_, err := Evaluate(ast.NewFloatLiteralNode(math.Inf(1)))
	require.Error(t, err)
	_, err = Evaluate(ast.NewFloatLiteralNode(math.NaN()))
	require.Error(t, err)
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []string{
		`1 / 0`,
		`'a' * 2`,
		`-'a'`,
		`TRUE > 1`,
		`1.0 / 0`,
		`-1.0 / 0`,
		`0.0 / 0`,
		`1.5 % 0`,
	}

	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := Evaluate(parseExpression(t, expr))
			require.Error(t, err)
		})
	}
}

// parseExpression borrows the MODE clause of CREATE DATABASE to parse a bare
// expression through the public parser.
func parseExpression(t *testing.T, expr string) ast.ExpressionNode {
	t.Helper()
	script, err := parser.Parse("CREATE DATABASE x MODE " + expr)
	require.NoError(t, err)
	stmt, ok := script.Statements[0].(*ast.CreateDatabaseNode)
	require.True(t, ok)
	return stmt.Mode
}
