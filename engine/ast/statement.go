package ast

import "text/scanner"

// Statement is the closed set of DDL statements. Only types in this package
// can satisfy it; executors switch over the concrete types exhaustively.
type Statement interface {
	statement()
	Pos() scanner.Position
}

// Script is a parsed sequence of statements in document order.
type Script struct {
	Statements []Statement
}

func NewScript(statements ...Statement) *Script {
	return &Script{Statements: statements}
}

type CreateEnumNode struct {
	Name     string
	Values   []ExpressionNode
	Position scanner.Position
}

func NewCreateEnumNode(name string, values []ExpressionNode) *CreateEnumNode {
	return &CreateEnumNode{Name: name, Values: values}
}

func (n *CreateEnumNode) statement()            {}
func (n *CreateEnumNode) Pos() scanner.Position { return n.Position }

type CreateDatabaseNode struct {
	Name        ExpressionNode
	Owner       ExpressionNode
	Mode        ExpressionNode
	Replace     bool
	IfNotExists bool
	Position    scanner.Position
}

func NewCreateDatabaseNode(name ExpressionNode, replace, ifNotExists bool) *CreateDatabaseNode {
	return &CreateDatabaseNode{
		Name:        name,
		Replace:     replace,
		IfNotExists: ifNotExists,
	}
}

func (n *CreateDatabaseNode) statement()            {}
func (n *CreateDatabaseNode) Pos() scanner.Position { return n.Position }

type CreateTableNode struct {
	Name     string
	Inherits *IdentifierNode
	Fields   []*TableFieldNode
	// Check is recorded verbatim and never evaluated at creation time.
	Check    ExpressionNode
	Position scanner.Position
}

func NewCreateTableNode(name string, fields []*TableFieldNode, inherits *IdentifierNode, check ExpressionNode) *CreateTableNode {
	return &CreateTableNode{
		Name:     name,
		Fields:   fields,
		Inherits: inherits,
		Check:    check,
	}
}

func (n *CreateTableNode) statement()            {}
func (n *CreateTableNode) Pos() scanner.Position { return n.Position }

// TableFieldNode describes one column. Length is nil when the declaration
// carries no size parameter.
type TableFieldNode struct {
	Name       ExpressionNode
	Type       *IdentifierNode
	Length     ExpressionNode
	Nullable   bool
	PrimaryKey bool
	Position   scanner.Position
}

func NewTableFieldNode(name ExpressionNode, typ *IdentifierNode, length ExpressionNode, nullable, primaryKey bool) *TableFieldNode {
	return &TableFieldNode{
		Name:       name,
		Type:       typ,
		Length:     length,
		Nullable:   nullable,
		PrimaryKey: primaryKey,
	}
}

func (n *TableFieldNode) statement()            {}
func (n *TableFieldNode) Pos() scanner.Position { return n.Position }

type UseDatabaseNode struct {
	Name     ExpressionNode
	Position scanner.Position
}

func NewUseDatabaseNode(name ExpressionNode) *UseDatabaseNode {
	return &UseDatabaseNode{Name: name}
}

func (n *UseDatabaseNode) statement()            {}
func (n *UseDatabaseNode) Pos() scanner.Position { return n.Position }
