package ast

import (
	"text/scanner"

	"github.com/aleph-zero/flutterddl/engine/token"
)

type VisitableNode interface {
	Accept(visitor Visitor) error
}

type ExpressionNode interface {
	Expression()
	Pos() scanner.Position
	VisitableNode
}

func IsLiteralNode(n ExpressionNode) bool {
	switch n.(type) {
	case *IntegerLiteralNode, *FloatLiteralNode, *StringLiteralNode, *BooleanLiteralNode:
		return true
	default:
		return false
	}
}

type IdentifierNode struct {
	Value    string
	Position scanner.Position
}

func NewIdentifierNode(tok token.Token) *IdentifierNode {
	return &IdentifierNode{Value: tok.Lexeme, Position: tok.Position}
}

func (n *IdentifierNode) Expression()           {}
func (n *IdentifierNode) Pos() scanner.Position { return n.Position }

func (n *IdentifierNode) Accept(visitor Visitor) error {
	if n != nil {
		return visitor.VisitIdentifierNode(n)
	}
	return nil
}

type ParenthesizedExpressionNode struct {
	Node ExpressionNode
}

func NewParenthesizedExpressionNode(node ExpressionNode) *ParenthesizedExpressionNode {
	return &ParenthesizedExpressionNode{Node: node}
}

func (n *ParenthesizedExpressionNode) Expression()           {}
func (n *ParenthesizedExpressionNode) Pos() scanner.Position { return n.Node.Pos() }

func (n *ParenthesizedExpressionNode) Accept(visitor Visitor) error {
	return visitor.VisitParenthesizedExpression(n)
}

type LogicalNegationNode struct {
	Op   token.Token
	Node ExpressionNode
}

func NewLogicalNegationNode(op token.Token, node ExpressionNode) *LogicalNegationNode {
	return &LogicalNegationNode{
		Op:   op,
		Node: node,
	}
}

func (n *LogicalNegationNode) Expression()           {}
func (n *LogicalNegationNode) Pos() scanner.Position { return n.Op.Position }

func (n *LogicalNegationNode) Accept(visitor Visitor) error {
	return visitor.VisitLogicalNegationNode(n)
}

type UnaryExpressionNode struct {
	Op   token.Token
	Node ExpressionNode
}

func NewUnaryExpressionNode(op token.Token, node ExpressionNode) *UnaryExpressionNode {
	return &UnaryExpressionNode{
		Op:   op,
		Node: node,
	}
}

func (n *UnaryExpressionNode) Expression()           {}
func (n *UnaryExpressionNode) Pos() scanner.Position { return n.Op.Position }

func (n *UnaryExpressionNode) Accept(visitor Visitor) error {
	return visitor.VisitUnaryExpressionNode(n)
}

type BinaryExpressionNode struct {
	Op    token.Token
	Left  ExpressionNode
	Right ExpressionNode
}

func NewBinaryExpressionNode(op token.Token, left, right ExpressionNode) *BinaryExpressionNode {
	return &BinaryExpressionNode{
		Op:    op,
		Left:  left,
		Right: right,
	}
}

func (n *BinaryExpressionNode) Expression()           {}
func (n *BinaryExpressionNode) Pos() scanner.Position { return n.Left.Pos() }

func (n *BinaryExpressionNode) Accept(visitor Visitor) error {
	return visitor.VisitBinaryExpressionNode(n)
}

type StringLiteralNode struct {
	Value    string
	Position scanner.Position
}

func NewStringLiteralNode(value string) *StringLiteralNode {
	return &StringLiteralNode{Value: value}
}

func (n *StringLiteralNode) Expression()           {}
func (n *StringLiteralNode) Pos() scanner.Position { return n.Position }

func (n *StringLiteralNode) Accept(visitor Visitor) error {
	return visitor.VisitStringLiteralNode(n)
}

type IntegerLiteralNode struct {
	Value    int64
	Position scanner.Position
}

func NewIntegerLiteralNode(value int64) *IntegerLiteralNode {
	return &IntegerLiteralNode{Value: value}
}

func (n *IntegerLiteralNode) Expression()           {}
func (n *IntegerLiteralNode) Pos() scanner.Position { return n.Position }

func (n *IntegerLiteralNode) Accept(visitor Visitor) error {
	return visitor.VisitIntegerLiteralNode(n)
}

type FloatLiteralNode struct {
	Value    float64
	Position scanner.Position
}

func NewFloatLiteralNode(value float64) *FloatLiteralNode {
	return &FloatLiteralNode{Value: value}
}

func (n *FloatLiteralNode) Expression()           {}
func (n *FloatLiteralNode) Pos() scanner.Position { return n.Position }

func (n *FloatLiteralNode) Accept(visitor Visitor) error {
	return visitor.VisitFloatLiteralNode(n)
}

type BooleanLiteralNode struct {
	Value    bool
	Position scanner.Position
}

func NewBooleanLiteralNode(value bool) *BooleanLiteralNode {
	return &BooleanLiteralNode{Value: value}
}

func (n *BooleanLiteralNode) Expression()           {}
func (n *BooleanLiteralNode) Pos() scanner.Position { return n.Position }

func (n *BooleanLiteralNode) Accept(visitor Visitor) error {
	return visitor.VisitBooleanLiteralNode(n)
}
