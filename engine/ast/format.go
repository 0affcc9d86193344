package ast

import (
	"strconv"
	"strings"

	"github.com/aleph-zero/flutterddl/engine/token"
)

var operators = map[token.TokenType]string{
	token.PLUS:      "+",
	token.MINUS:     "-",
	token.DIVIDE:    "/",
	token.ASTERISK:  "*",
	token.MODULO:    "%",
	token.EQUAL:     "=",
	token.NOT_EQUAL: "<>",
	token.GT:        ">",
	token.GTE:       ">=",
	token.LT:        "<",
	token.LTE:       "<=",
	token.AND:       "AND",
	token.OR:        "OR",
	token.NOT:       "NOT",
}

// Binding strength of each operator, loosest first. Binary operators are
// left-associative.
const (
	precedenceOr = iota + 1
	precedenceAnd
	precedenceNot
	precedenceEquality
	precedenceComparison
	precedenceTerm
	precedenceFactor
	precedenceUnary
	precedencePrimary
)

func precedence(node ExpressionNode) int {
	switch n := node.(type) {
	case *BinaryExpressionNode:
		switch n.Op.TokenType {
		case token.OR:
			return precedenceOr
		case token.AND:
			return precedenceAnd
		case token.EQUAL, token.NOT_EQUAL:
			return precedenceEquality
		case token.GT, token.GTE, token.LT, token.LTE:
			return precedenceComparison
		case token.PLUS, token.MINUS:
			return precedenceTerm
		default:
			return precedenceFactor
		}
	case *LogicalNegationNode:
		return precedenceNot
	case *UnaryExpressionNode:
		return precedenceUnary
	default:
		return precedencePrimary
	}
}

// Format renders an expression back to SQL text.
func Format(node ExpressionNode) string {
	if node == nil {
		return ""
	}
	f := &formatter{}
	_ = node.Accept(f)
	return f.sb.String()
}

type formatter struct {
	sb strings.Builder
}

func (f *formatter) op(t token.Token) string {
	if s, ok := operators[t.TokenType]; ok {
		return s
	}
	return t.Lexeme
}

func (f *formatter) VisitIdentifierNode(node *IdentifierNode) error {
	f.sb.WriteString(node.Value)
	return nil
}

func (f *formatter) VisitParenthesizedExpression(node *ParenthesizedExpressionNode) error {
	f.sb.WriteString("(")
	if err := node.Node.Accept(f); err != nil {
		return err
	}
	f.sb.WriteString(")")
	return nil
}

// operand writes node, parenthesised when it binds looser than min.
func (f *formatter) operand(node ExpressionNode, min int) error {
	if precedence(node) >= min {
		return node.Accept(f)
	}
	f.sb.WriteString("(")
	if err := node.Accept(f); err != nil {
		return err
	}
	f.sb.WriteString(")")
	return nil
}

func (f *formatter) VisitLogicalNegationNode(node *LogicalNegationNode) error {
	f.sb.WriteString("NOT ")
	return f.operand(node.Node, precedenceNot)
}

func (f *formatter) VisitUnaryExpressionNode(node *UnaryExpressionNode) error {
	f.sb.WriteString(f.op(node.Op))
	// "--" starts a comment
	if _, ok := node.Node.(*UnaryExpressionNode); ok {
		f.sb.WriteString(" ")
	}
	return f.operand(node.Node, precedenceUnary)
}

func (f *formatter) VisitBinaryExpressionNode(node *BinaryExpressionNode) error {
	p := precedence(node)
	if err := f.operand(node.Left, p); err != nil {
		return err
	}
	f.sb.WriteString(" " + f.op(node.Op) + " ")
	return f.operand(node.Right, p+1)
}

func (f *formatter) VisitStringLiteralNode(node *StringLiteralNode) error {
	f.sb.WriteString("'" + strings.ReplaceAll(node.Value, "'", "''") + "'")
	return nil
}

func (f *formatter) VisitIntegerLiteralNode(node *IntegerLiteralNode) error {
	f.sb.WriteString(strconv.FormatInt(node.Value, 10))
	return nil
}

func (f *formatter) VisitFloatLiteralNode(node *FloatLiteralNode) error {
	f.sb.WriteString(strconv.FormatFloat(node.Value, 'g', -1, 64))
	return nil
}

func (f *formatter) VisitBooleanLiteralNode(node *BooleanLiteralNode) error {
	if node.Value {
		f.sb.WriteString("TRUE")
	} else {
		f.sb.WriteString("FALSE")
	}
	return nil
}
