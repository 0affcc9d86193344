package parser

import (
	"fmt"
	"strconv"

	"github.com/aleph-zero/flutterddl/engine/ast"
	"github.com/aleph-zero/flutterddl/engine/report"
	"github.com/aleph-zero/flutterddl/engine/token"
)

/*
   script                   -> statement (';' statement)* ';'?
   statement                -> create_database_statement
                            | create_type_statement
                            | create_table_statement
                            | use_statement
   create_database_statement-> 'CREATE' ('OR' 'REPLACE')? 'DATABASE' ('IF' 'NOT' 'EXISTS')? name
                               ('OWNER' '='? name)? ('MODE' '='? disjunction)?
   create_type_statement    -> 'CREATE' 'TYPE' IDENTIFIER 'AS' 'ENUM' '(' disjunction (',' disjunction)* ')'
   create_table_statement   -> 'CREATE' 'TABLE' IDENTIFIER '(' element (',' element)* ')'
                               ('INHERITS' '(' IDENTIFIER ')')?
   element                  -> field_definition
                            | 'CHECK' '(' disjunction ')'
   field_definition         -> name IDENTIFIER ('(' disjunction ')')? ('NOT' 'NULL' | 'NULL')? ('PRIMARY' 'KEY')?
   use_statement            -> 'USE' name
   name                     -> IDENTIFIER | STRING

   disjunction              -> conjunction ('OR' conjunction)*
   conjunction              -> negation ('AND' negation)*
   negation                 -> ('NOT')* equality
   equality                 -> comparison (('!=' | '<>' | '=') comparison)*
   comparison               -> term (('>' | '>=' | '<' | '<=') term)*
   term                     -> factor (('-' | '+') factor)*
   factor                   -> unary (('/' | '*' | '%') unary)*
   unary                    -> ('-')? unary
                            | primary ;
   primary                  -> INTEGER|FLOAT|STRING|IDENTIFIER|TRUE|FALSE
                            | '(' disjunction ')' ;
*/

type Parser struct {
	tokens []token.Token
	index  int
}

func New(tokens []token.Token) *Parser {
	return &Parser{
		tokens: tokens,
		index:  0,
	}
}

// Parse lexes and parses src in one step.
func Parse(src string) (*ast.Script, error) {
	tokens, err := LexicalScan(src)
	if err != nil {
		return nil, err
	}
	return New(tokens).Parse()
}

// Parse returns the statements of the script in document order. Failures are
// reported as *report.Error of kind SYNTAX positioned at the offending token.
func (p *Parser) Parse() (*ast.Script, error) {
	script, err := p.script()
	if err != nil {
		return nil, toSyntaxError(err)
	}
	return script, nil
}

func toSyntaxError(err error) error {
	switch e := err.(type) {
	case ParseError:
		return report.Syntax(e.Received.Position, "%s", e.Error()).Wrap(e)
	case ConversionError:
		return report.Syntax(e.Value.Position, "%s", e.Error()).Wrap(e)
	default:
		return err
	}
}

func (p *Parser) script() (*ast.Script, error) {
	script := ast.NewScript()
	for !p.eof() {
		if p.match(token.SEMICOLON) {
			continue
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		script.Statements = append(script.Statements, stmt)

		if !p.eof() && !p.match(token.SEMICOLON) {
			return nil, ParseError{
				Expected: []token.TokenType{token.SEMICOLON, token.EOF},
				Received: p.peek(),
			}
		}
	}
	return script, nil
}

func (p *Parser) statement() (ast.Statement, error) {
	switch {
	case p.match(token.CREATE):
		start := p.previous()
		replace := false
		if p.match(token.OR) {
			if err := p.expect(token.REPLACE); err != nil {
				return nil, err
			}
			replace = true
		}
		switch {
		case p.match(token.DATABASE):
			return p.createDatabaseStatement(start, replace)
		case !replace && p.match(token.TYPE):
			return p.createTypeStatement(start)
		case !replace && p.match(token.TABLE):
			return p.createTableStatement(start)
		default:
			expected := []token.TokenType{token.DATABASE}
			if !replace {
				expected = append(expected, token.TYPE, token.TABLE)
			}
			return nil, ParseError{
				Expected: expected,
				Received: p.peek(),
			}
		}
	case p.match(token.USE):
		start := p.previous()
		name, err := p.name()
		if err != nil {
			return nil, err
		}
		stmt := ast.NewUseDatabaseNode(name)
		stmt.Position = start.Position
		return stmt, nil
	default:
		return nil, ParseError{
			Expected: []token.TokenType{token.CREATE, token.USE},
			Received: p.peek(),
		}
	}
}

func (p *Parser) createDatabaseStatement(start token.Token, replace bool) (ast.Statement, error) {
	ifNotExists := false
	if p.match(token.IF) {
		if err := p.expect(token.NOT); err != nil {
			return nil, err
		}
		if err := p.expect(token.EXISTS); err != nil {
			return nil, err
		}
		ifNotExists = true
	}

	name, err := p.name()
	if err != nil {
		return nil, err
	}
	stmt := ast.NewCreateDatabaseNode(name, replace, ifNotExists)
	stmt.Position = start.Position

	for {
		switch {
		case p.match(token.OWNER):
			p.match(token.EQUAL)
			owner, err := p.name()
			if err != nil {
				return nil, err
			}
			stmt.Owner = owner
		case p.match(token.MODE):
			p.match(token.EQUAL)
			mode, err := p.disjunction()
			if err != nil {
				return nil, err
			}
			stmt.Mode = mode
		default:
			return stmt, nil
		}
	}
}

func (p *Parser) createTypeStatement(start token.Token) (ast.Statement, error) {
	if err := p.expect(token.IDENTIFIER); err != nil {
		return nil, err
	}
	name := p.previous()
	if err := p.expect(token.AS); err != nil {
		return nil, err
	}
	if err := p.expect(token.ENUM); err != nil {
		return nil, err
	}
	if err := p.expect(token.L_PAREN); err != nil {
		return nil, err
	}

	var values []ast.ExpressionNode
	for ok := true; ok; ok = p.match(token.COMMA) {
		value, err := p.disjunction()
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}

	if err := p.expect(token.R_PAREN); err != nil {
		return nil, err
	}

	stmt := ast.NewCreateEnumNode(name.Lexeme, values)
	stmt.Position = start.Position
	return stmt, nil
}

func (p *Parser) createTableStatement(start token.Token) (ast.Statement, error) {
	if err := p.expect(token.IDENTIFIER); err != nil {
		return nil, err
	}
	name := p.previous()
	if err := p.expect(token.L_PAREN); err != nil {
		return nil, err
	}

	var fields []*ast.TableFieldNode
	var check ast.ExpressionNode
	for ok := true; ok; ok = p.match(token.COMMA) {
		if p.match(token.CHECK) {
			expr, err := p.checkConstraint()
			if err != nil {
				return nil, err
			}
			if check == nil {
				check = expr
			} else {
				and := token.Token{TokenType: token.AND, Lexeme: "AND", Position: expr.Pos()}
				check = ast.NewBinaryExpressionNode(and, check, expr)
			}
			continue
		}
		field, err := p.fieldDefinition()
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	if err := p.expect(token.R_PAREN); err != nil {
		return nil, err
	}

	var inherits *ast.IdentifierNode
	if p.match(token.INHERITS) {
		if err := p.expect(token.L_PAREN); err != nil {
			return nil, err
		}
		if err := p.expect(token.IDENTIFIER); err != nil {
			return nil, err
		}
		inherits = ast.NewIdentifierNode(p.previous())
		if err := p.expect(token.R_PAREN); err != nil {
			return nil, err
		}
	}

	stmt := ast.NewCreateTableNode(name.Lexeme, fields, inherits, check)
	stmt.Position = start.Position
	return stmt, nil
}

func (p *Parser) checkConstraint() (ast.ExpressionNode, error) {
	if err := p.expect(token.L_PAREN); err != nil {
		return nil, err
	}
	expr, err := p.disjunction()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.R_PAREN); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) fieldDefinition() (*ast.TableFieldNode, error) {
	start := p.peek()
	name, err := p.name()
	if err != nil {
		return nil, err
	}

	// enum type names are plain identifiers, so types are not keywords
	if err := p.expect(token.IDENTIFIER); err != nil {
		return nil, err
	}
	typ := ast.NewIdentifierNode(p.previous())

	var length ast.ExpressionNode
	if p.match(token.L_PAREN) {
		length, err = p.disjunction()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.R_PAREN); err != nil {
			return nil, err
		}
	}

	nullable := true
	primaryKey := false
	for {
		switch {
		case p.match(token.NOT):
			if err := p.expect(token.NULL); err != nil {
				return nil, err
			}
			nullable = false
		case p.match(token.NULL):
			nullable = true
		case p.match(token.PRIMARY):
			if err := p.expect(token.KEY); err != nil {
				return nil, err
			}
			primaryKey = true
			nullable = false
		default:
			field := ast.NewTableFieldNode(name, typ, length, nullable, primaryKey)
			field.Position = start.Position
			return field, nil
		}
	}
}

func (p *Parser) name() (ast.ExpressionNode, error) {
	switch {
	case p.match(token.IDENTIFIER):
		return p.identifier()
	case p.match(token.STRING):
		return p.string()
	default:
		return nil, ParseError{
			Expected: []token.TokenType{token.IDENTIFIER, token.STRING},
			Received: p.peek(),
		}
	}
}

func (p *Parser) disjunction() (ast.ExpressionNode, error) {
	expr, err := p.conjunction()
	if err != nil {
		return nil, err
	}

	for p.match(token.OR) {
		op := p.previous()
		right, err := p.conjunction()
		if err != nil {
			return nil, err
		}
		expr = ast.NewBinaryExpressionNode(op, expr, right)
	}

	return expr, nil
}

func (p *Parser) conjunction() (ast.ExpressionNode, error) {
	expr, err := p.negation()
	if err != nil {
		return nil, err
	}

	for p.match(token.AND) {
		op := p.previous()
		right, err := p.negation()
		if err != nil {
			return nil, err
		}
		expr = ast.NewBinaryExpressionNode(op, expr, right)
	}

	return expr, nil
}

func (p *Parser) negation() (ast.ExpressionNode, error) {
	if p.match(token.NOT) {
		op := p.previous()
		node, err := p.negation()
		if err != nil {
			return nil, err
		}
		return ast.NewLogicalNegationNode(op, node), nil
	}

	return p.equality()
}

func (p *Parser) equality() (ast.ExpressionNode, error) {
	expr, err := p.comparison()
	if err != nil {
		return nil, err
	}

	for p.match(token.EQUAL, token.NOT_EQUAL) {
		op := p.previous()
		right, err := p.comparison()
		if err != nil {
			return nil, err
		}
		expr = ast.NewBinaryExpressionNode(op, expr, right)
	}

	return expr, nil
}

func (p *Parser) comparison() (ast.ExpressionNode, error) {
	expr, err := p.term()
	if err != nil {
		return nil, err
	}

	for p.match(token.GT, token.GTE, token.LT, token.LTE) {
		op := p.previous()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		expr = ast.NewBinaryExpressionNode(op, expr, right)
	}

	return expr, nil
}

func (p *Parser) term() (ast.ExpressionNode, error) {
	expr, err := p.factor()
	if err != nil {
		return nil, err
	}

	for p.match(token.PLUS, token.MINUS) {
		op := p.previous()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		expr = ast.NewBinaryExpressionNode(op, expr, right)
	}

	return expr, nil
}

func (p *Parser) factor() (ast.ExpressionNode, error) {
	expr, err := p.unary()
	if err != nil {
		return nil, err
	}

	for p.match(token.DIVIDE, token.ASTERISK, token.MODULO) {
		op := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		expr = ast.NewBinaryExpressionNode(op, expr, right)
	}

	return expr, nil
}

func (p *Parser) unary() (ast.ExpressionNode, error) {
	if p.match(token.MINUS) {
		op := p.previous()
		node, err := p.unary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExpressionNode(op, node), nil
	}

	return p.primary()
}

func (p *Parser) primary() (ast.ExpressionNode, error) {
	switch {
	case p.match(token.INTEGER):
		return p.integer()
	case p.match(token.FLOAT):
		return p.float()
	case p.match(token.IDENTIFIER):
		return p.identifier()
	case p.match(token.STRING):
		return p.string()
	case p.match(token.TRUE, token.FALSE):
		tok := p.previous()
		node := ast.NewBooleanLiteralNode(tok.TokenType == token.TRUE)
		node.Position = tok.Position
		return node, nil
	case p.match(token.L_PAREN):
		expr, err := p.disjunction()
		if err != nil {
			return nil, err
		}
		if !p.check(token.R_PAREN) {
			return nil, ParseError{
				Expected: []token.TokenType{token.R_PAREN},
				Received: p.peek(),
			}
		}
		p.advance()
		return ast.NewParenthesizedExpressionNode(expr), nil
	default:
		return nil, ParseError{
			Expected: []token.TokenType{token.INTEGER, token.FLOAT, token.STRING, token.IDENTIFIER},
			Received: p.peek(),
		}
	}
}

func (p *Parser) integer() (ast.ExpressionNode, error) {
	tok := p.previous()
	value, err := strconv.ParseInt(tok.Lexeme, 10, 64)
	if err != nil {
		return nil, ConversionError{
			Value: tok,
			err:   err,
		}
	}
	node := ast.NewIntegerLiteralNode(value)
	node.Position = tok.Position
	return node, nil
}

func (p *Parser) float() (ast.ExpressionNode, error) {
	tok := p.previous()
	value, err := strconv.ParseFloat(tok.Lexeme, 64)
	if err != nil {
		return nil, ConversionError{
			Value: tok,
			err:   err,
		}
	}
	node := ast.NewFloatLiteralNode(value)
	node.Position = tok.Position
	return node, nil
}

func (p *Parser) identifier() (ast.ExpressionNode, error) {
	return ast.NewIdentifierNode(p.previous()), nil
}

func (p *Parser) string() (ast.ExpressionNode, error) {
	tok := p.previous()
	node := ast.NewStringLiteralNode(tok.Lexeme)
	node.Position = tok.Position
	return node, nil
}

/** Helper Methods **/

func (p *Parser) expect(tokenType token.TokenType) error {
	if !p.match(tokenType) {
		return ParseError{
			Expected: []token.TokenType{tokenType},
			Received: p.peek(),
		}
	}
	return nil
}

func (p *Parser) match(tokenTypes ...token.TokenType) bool {
	for _, tokenType := range tokenTypes {
		if p.check(tokenType) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(tokenType token.TokenType) bool {
	if p.eof() {
		return false
	}
	return p.peek().TokenType == tokenType
}

func (p *Parser) advance() token.Token {
	if !p.eof() {
		p.index++
	}
	return p.previous()
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.index-1]
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.index]
}

func (p *Parser) eof() bool {
	return p.peek().TokenType == token.EOF
}

/** Error Handling **/

type ParseError struct {
	Expected []token.TokenType
	Received token.Token
}

func (e ParseError) Error() string {
	received := e.Received.Lexeme
	if e.Received.TokenType == token.EOF {
		received = "end of input"
	}
	return fmt.Sprintf("parser expected one of '%s' received '%s' at line: %d, column: %d",
		e.Expected, received, e.Received.Position.Line, e.Received.Position.Column)
}

type ConversionError struct {
	Value token.Token
	err   error
}

func (e ConversionError) Error() string {
	return fmt.Sprintf("parser cannot convert token '%s' to concrete type: %s",
		e.Value.Lexeme, e.err)
}

func (e ConversionError) Unwrap() error {
	return e.err
}
