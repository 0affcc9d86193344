package token

import "text/scanner"

type Token struct {
	TokenType
	Lexeme string
	scanner.Position
}

type TokenType int

const (
	IDENTIFIER TokenType = iota
	INTEGER
	FLOAT
	STRING
	COMMA
	SEMICOLON
	L_PAREN
	R_PAREN
	CREATE
	REPLACE
	DATABASE
	TABLE
	TYPE
	AS
	ENUM
	IF
	EXISTS
	OWNER
	MODE
	USE
	INHERITS
	CHECK
	PRIMARY
	KEY
	NULL
	TRUE
	FALSE
	ASTERISK
	PLUS
	MINUS
	DIVIDE
	MODULO
	EQUAL
	NOT_EQUAL
	GT
	GTE
	LT
	LTE
	AND
	OR
	NOT
	EOF
)

func (t TokenType) String() string {
	return [...]string{
		"IDENTIFIER",
		"INTEGER",
		"FLOAT",
		"STRING",
		"COMMA",
		"SEMICOLON",
		"L_PAREN",
		"R_PAREN",
		"CREATE",
		"REPLACE",
		"DATABASE",
		"TABLE",
		"TYPE",
		"AS",
		"ENUM",
		"IF",
		"EXISTS",
		"OWNER",
		"MODE",
		"USE",
		"INHERITS",
		"CHECK",
		"PRIMARY",
		"KEY",
		"NULL",
		"TRUE",
		"FALSE",
		"ASTERISK",
		"PLUS",
		"MINUS",
		"DIVIDE",
		"MODULO",
		"EQUAL",
		"NOT_EQUAL",
		"GT",
		"GTE",
		"LT",
		"LTE",
		"AND",
		"OR",
		"NOT",
		"EOF"}[t]
}
