package ast

type Visitor interface {
	VisitIdentifierNode(*IdentifierNode) error

	VisitParenthesizedExpression(*ParenthesizedExpressionNode) error
	VisitLogicalNegationNode(*LogicalNegationNode) error
	VisitUnaryExpressionNode(*UnaryExpressionNode) error
	VisitBinaryExpressionNode(*BinaryExpressionNode) error

	VisitStringLiteralNode(*StringLiteralNode) error
	VisitIntegerLiteralNode(*IntegerLiteralNode) error
	VisitFloatLiteralNode(*FloatLiteralNode) error
	VisitBooleanLiteralNode(*BooleanLiteralNode) error
}
