package parser

import (
	"fmt"
	"regexp"
	"strings"
	"text/scanner"

	"github.com/aleph-zero/flutterddl/engine/report"
	"github.com/aleph-zero/flutterddl/engine/token"
)

type TokenPattern struct {
	regex *regexp.Regexp
	token.TokenType
}

var patterns = []TokenPattern{
	{regex: regexp.MustCompile(`(?i)^CREATE$`), TokenType: token.CREATE},
	{regex: regexp.MustCompile(`(?i)^REPLACE$`), TokenType: token.REPLACE},
	{regex: regexp.MustCompile(`(?i)^DATABASE$`), TokenType: token.DATABASE},
	{regex: regexp.MustCompile(`(?i)^TABLE$`), TokenType: token.TABLE},
	{regex: regexp.MustCompile(`(?i)^TYPE$`), TokenType: token.TYPE},
	{regex: regexp.MustCompile(`(?i)^AS$`), TokenType: token.AS},
	{regex: regexp.MustCompile(`(?i)^ENUM$`), TokenType: token.ENUM},
	{regex: regexp.MustCompile(`(?i)^IF$`), TokenType: token.IF},
	{regex: regexp.MustCompile(`(?i)^EXISTS$`), TokenType: token.EXISTS},
	{regex: regexp.MustCompile(`(?i)^OWNER$`), TokenType: token.OWNER},
	{regex: regexp.MustCompile(`(?i)^MODE$`), TokenType: token.MODE},
	{regex: regexp.MustCompile(`(?i)^USE$`), TokenType: token.USE},
	{regex: regexp.MustCompile(`(?i)^INHERITS$`), TokenType: token.INHERITS},
	{regex: regexp.MustCompile(`(?i)^CHECK$`), TokenType: token.CHECK},
	{regex: regexp.MustCompile(`(?i)^PRIMARY$`), TokenType: token.PRIMARY},
	{regex: regexp.MustCompile(`(?i)^KEY$`), TokenType: token.KEY},
	{regex: regexp.MustCompile(`(?i)^NULL$`), TokenType: token.NULL},
	{regex: regexp.MustCompile(`(?i)^TRUE$`), TokenType: token.TRUE},
	{regex: regexp.MustCompile(`(?i)^FALSE$`), TokenType: token.FALSE},
	{regex: regexp.MustCompile(`(?i)^AND$`), TokenType: token.AND},
	{regex: regexp.MustCompile(`(?i)^OR$`), TokenType: token.OR},
	{regex: regexp.MustCompile(`(?i)^NOT$`), TokenType: token.NOT},
	{regex: regexp.MustCompile(`^[_a-zA-Z][_a-zA-Z0-9]*$`), TokenType: token.IDENTIFIER},
	{regex: regexp.MustCompile(`^[0-9]+\.[0-9]+$`), TokenType: token.FLOAT},
	{regex: regexp.MustCompile(`^\d+$`), TokenType: token.INTEGER},
	{regex: regexp.MustCompile(`^,$`), TokenType: token.COMMA},
	{regex: regexp.MustCompile(`^;$`), TokenType: token.SEMICOLON},
	{regex: regexp.MustCompile(`^\+$`), TokenType: token.PLUS},
	{regex: regexp.MustCompile(`^-$`), TokenType: token.MINUS},
	{regex: regexp.MustCompile(`^/$`), TokenType: token.DIVIDE},
	{regex: regexp.MustCompile(`^\*$`), TokenType: token.ASTERISK},
	{regex: regexp.MustCompile(`^%$`), TokenType: token.MODULO},
	{regex: regexp.MustCompile(`^\($`), TokenType: token.L_PAREN},
	{regex: regexp.MustCompile(`^\)$`), TokenType: token.R_PAREN},
	{regex: regexp.MustCompile(`^(!=|<>)$`), TokenType: token.NOT_EQUAL},
	{regex: regexp.MustCompile(`^>=$`), TokenType: token.GTE},
	{regex: regexp.MustCompile(`^>$`), TokenType: token.GT},
	{regex: regexp.MustCompile(`^<=$`), TokenType: token.LTE},
	{regex: regexp.MustCompile(`^<$`), TokenType: token.LT},
	{regex: regexp.MustCompile(`^=$`), TokenType: token.EQUAL},
}

// LexicalScan splits src into tokens. Single quotes delimit string literals
// ('' escapes a quote), double quotes delimit case-preserving identifiers and
// "--" starts a comment running to the end of the line.
func LexicalScan(src string) ([]token.Token, error) {
	tokens := make([]token.Token, 0, 16)
	var s scanner.Scanner
	s.Init(strings.NewReader(src))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings | scanner.SkipComments | scanner.ScanComments

	var scanErr error
	s.Error = func(s *scanner.Scanner, msg string) {
		if scanErr == nil {
			scanErr = report.Syntax(s.Pos(), "%s", msg)
		}
	}

	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		if scanErr != nil {
			return nil, scanErr
		}
		text := s.TokenText()
		position := s.Position

		switch {
		case tok == '\'':
			lit, err := scanQuoted(&s)
			if err != nil {
				return nil, report.Syntax(position, "%s", err)
			}
			tokens = append(tokens, token.Token{TokenType: token.STRING, Lexeme: lit, Position: position})
			continue
		case tok == scanner.String:
			tokens = append(tokens, token.Token{TokenType: token.IDENTIFIER, Lexeme: strings.Trim(text, "\""), Position: position})
			continue
		case text == "-" && s.Peek() == '-':
			for r := s.Peek(); r != '\n' && r != scanner.EOF; r = s.Peek() {
				s.Next()
			}
			continue
		case text == "!" || text == ">":
			if s.Peek() == '=' {
				s.Next()
				text += "="
			}
		case text == "<":
			if p := s.Peek(); p == '=' || p == '>' {
				s.Next()
				text += string(p)
			}
		}

		matched := false
		for _, pattern := range patterns {
			if pattern.regex.MatchString(text) {
				matched = true
				tokens = append(tokens, token.Token{
					TokenType: pattern.TokenType,
					Lexeme:    text,
					Position:  position,
				})
				break
			}
		}

		if !matched {
			return nil, report.Syntax(position, "unrecognized lexical pattern: %s", text)
		}
	}
	if scanErr != nil {
		return nil, scanErr
	}

	tokens = append(tokens, token.Token{TokenType: token.EOF, Position: s.Pos()})
	return tokens, nil
}

func scanQuoted(s *scanner.Scanner) (string, error) {
	var sb strings.Builder
	for {
		r := s.Next()
		switch r {
		case scanner.EOF:
			return "", fmt.Errorf("unterminated string literal")
		case '\'':
			if s.Peek() != '\'' {
				return sb.String(), nil
			}
			s.Next()
		}
		sb.WriteRune(r)
	}
}
