package evaluator

import (
	"fmt"
	"math"

	"github.com/aleph-zero/flutterddl/engine/ast"
	"github.com/aleph-zero/flutterddl/engine/token"
	"github.com/aleph-zero/flutterddl/engine/types"
	"golang.org/x/exp/constraints"
)

// Evaluate folds a constant expression into a concrete value. Identifiers
// evaluate to their own name, so `sales` and 'sales' are the same literal.
func Evaluate(node ast.ExpressionNode) (types.Value, error) {
	e := &Evaluator{}
	if err := node.Accept(e); err != nil {
		return types.Value{}, err
	}
	return e.Result, nil
}

type Evaluator struct {
	Result types.Value
}

func (e *Evaluator) VisitIdentifierNode(node *ast.IdentifierNode) error {
	e.Result = types.StringValue(node.Value)
	return nil
}

func (e *Evaluator) VisitParenthesizedExpression(node *ast.ParenthesizedExpressionNode) error {
	return node.Node.Accept(e)
}

func (e *Evaluator) VisitLogicalNegationNode(node *ast.LogicalNegationNode) error {
	if err := node.Node.Accept(e); err != nil {
		return err
	}

	switch node.Op.TokenType {
	case token.NOT:
		e.Result = types.BooleanValue(!truth(e.Result))
	default:
		return fmt.Errorf("failed to evaluate operator: %s", node.Op.TokenType.String())
	}
	return nil
}

func (e *Evaluator) VisitUnaryExpressionNode(node *ast.UnaryExpressionNode) error {
	if err := node.Node.Accept(e); err != nil {
		return err
	}

	switch node.Op.TokenType {
	case token.MINUS:
		switch e.Result.Kind() {
		case types.Integer:
			e.Result = types.IntegerValue(-e.Result.AsInt64())
		case types.Float:
			e.Result = types.FloatValue(-e.Result.AsFloat64())
		default:
			return fmt.Errorf("cannot negate %s value '%s'", e.Result.Kind(), e.Result)
		}
	default:
		return fmt.Errorf("failed to evaluate operator: %s", node.Op.TokenType.String())
	}
	return nil
}

func (e *Evaluator) VisitBinaryExpressionNode(node *ast.BinaryExpressionNode) error {
	if err := node.Left.Accept(e); err != nil {
		return err
	}
	left := e.Result
	if err := node.Right.Accept(e); err != nil {
		return err
	}
	right := e.Result

	switch node.Op.TokenType {
	case token.AND:
		e.Result = types.BooleanValue(truth(left) && truth(right))
		return nil
	case token.OR:
		e.Result = types.BooleanValue(truth(left) || truth(right))
		return nil
	case token.EQUAL:
		e.Result = types.BooleanValue(equal(left, right))
		return nil
	case token.NOT_EQUAL:
		e.Result = types.BooleanValue(!equal(left, right))
		return nil
	case token.PLUS:
		if left.Kind() == types.String && right.Kind() == types.String {
			e.Result = types.StringValue(left.AsString() + right.AsString())
			return nil
		}
	}

	if !left.IsNumeric() || !right.IsNumeric() {
		return fmt.Errorf("failed to evaluate binary operator %s on %s and %s",
			node.Op.TokenType.String(), left.Kind(), right.Kind())
	}

	switch node.Op.TokenType {
	case token.GT, token.GTE, token.LT, token.LTE:
		l, _ := left.Numeric()
		r, _ := right.Numeric()
		e.Result = types.BooleanValue(compare(l, r, node.Op.TokenType))
		return nil
	case token.PLUS, token.MINUS, token.ASTERISK, token.DIVIDE, token.MODULO:
	default:
		return fmt.Errorf("failed to evaluate binary operator: %s", node.Op.TokenType.String())
	}

	if left.Kind() == types.Integer && right.Kind() == types.Integer {
		if (node.Op.TokenType == token.DIVIDE || node.Op.TokenType == token.MODULO) && right.AsInt64() == 0 {
			return fmt.Errorf("division by zero")
		}
		e.Result = types.IntegerValue(apply(left.AsInt64(), right.AsInt64(), node.Op.TokenType))
		return nil
	}

	l, _ := left.Numeric()
	r, _ := right.Numeric()
	return e.setFloat(apply(l, r, node.Op.TokenType))
}

// setFloat rejects NaN and infinities, which have no literal form.
func (e *Evaluator) setFloat(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("expression does not evaluate to a finite number")
	}
	e.Result = types.FloatValue(f)
	return nil
}

func (e *Evaluator) VisitStringLiteralNode(node *ast.StringLiteralNode) error {
	e.Result = types.StringValue(node.Value)
	return nil
}

func (e *Evaluator) VisitIntegerLiteralNode(node *ast.IntegerLiteralNode) error {
	e.Result = types.IntegerValue(node.Value)
	return nil
}

func (e *Evaluator) VisitFloatLiteralNode(node *ast.FloatLiteralNode) error {
	return e.setFloat(node.Value)
}

func (e *Evaluator) VisitBooleanLiteralNode(node *ast.BooleanLiteralNode) error {
	e.Result = types.BooleanValue(node.Value)
	return nil
}

type operable interface {
	constraints.Integer | constraints.Float
}

func apply[T operable](left, right T, op token.TokenType) T {
	switch op {
	case token.PLUS:
		return left + right
	case token.MINUS:
		return left - right
	case token.ASTERISK:
		return left * right
	case token.DIVIDE:
		return left / right
	case token.MODULO:
		return T(math.Mod(float64(left), float64(right)))
	default:
		panic(fmt.Sprintf("unsupported arithmetic operator: %s", op.String()))
	}
}

func compare(left, right float64, op token.TokenType) bool {
	switch op {
	case token.GT:
		return left > right
	case token.GTE:
		return left >= right
	case token.LT:
		return left < right
	default:
		return left <= right
	}
}

func equal(left, right types.Value) bool {
	if left.IsNumeric() && right.IsNumeric() {
		l, _ := left.Numeric()
		r, _ := right.Numeric()
		return l == r
	}
	return left.Equal(right)
}

func truth(v types.Value) bool {
	switch v.Kind() {
	case types.Boolean:
		return v.AsBool()
	case types.Integer:
		return v.AsInt64() != 0
	case types.Float:
		return v.AsFloat64() != 0
	case types.String:
		return len(v.AsString()) > 0
	default:
		return false
	}
}
