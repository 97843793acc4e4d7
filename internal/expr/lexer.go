package expr

import (
	"fmt"
	"unicode"
)

// TokenType defines the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenVariable
	TokenNot
	TokenAnd
	TokenOr
	TokenLParen
	TokenRParen
	TokenColon
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenIdent:
		return "Ident"
	case TokenVariable:
		return "Variable"
	case TokenNot:
		return "Not"
	case TokenAnd:
		return "And"
	case TokenOr:
		return "Or"
	case TokenLParen:
		return "LParen"
	case TokenRParen:
		return "RParen"
	case TokenColon:
		return "Colon"
	default:
		return "Unknown"
	}
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

// ParseError describes malformed expression text.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d col %d: %s", e.Line, e.Col, e.Msg)
}

func errorAt(line, col int, format string, args ...any) error {
	return &ParseError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

// Lex performs lexical analysis on the input string
// and returns a sequence of tokens terminated by TokenEOF.
func Lex(input string) ([]Token, error) {
	var tokens []Token

	line, col := 1, 1
	i := 0

	emit := func(typ TokenType, value string, width int) {
		tokens = append(tokens, Token{Type: typ, Value: value, Line: line, Col: col})
		i += width
		col += width
	}

	for i < len(input) {
		c := input[i]

		switch {
		case c == '\n':
			line++
			col = 1
			i++
		case isWhitespace(c):
			i++
			col++
		case c == '(':
			emit(TokenLParen, "(", 1)
		case c == ')':
			emit(TokenRParen, ")", 1)
		case c == ':':
			emit(TokenColon, ":", 1)
		case c == '!':
			emit(TokenNot, TagNot, 1)
		case c == '&':
			if i+1 >= len(input) || input[i+1] != '&' {
				return nil, errorAt(line, col, "expected '&&'")
			}
			emit(TokenAnd, TagAnd, 2)
		case c == '|':
			if i+1 >= len(input) || input[i+1] != '|' {
				return nil, errorAt(line, col, "expected '||'")
			}
			emit(TokenOr, TagOr, 2)
		case c == '$':
			start := i + 1
			j := start
			for j < len(input) && isIdentifierChar(input[j]) {
				j++
			}
			if j == start {
				return nil, errorAt(line, col, "variable name is missing after '$'")
			}
			emit(TokenVariable, input[start:j], j-i)
		case isIdentifierChar(c):
			j := i
			for j < len(input) && isIdentifierChar(input[j]) {
				j++
			}
			emit(TokenIdent, input[i:j], j-i)
		default:
			return nil, errorAt(line, col, "unexpected character %q", c)
		}
	}

	tokens = append(tokens, Token{
		Type: TokenEOF,
		Line: line,
		Col:  col,
	})

	return tokens, nil
}

func isIdentifierChar(c byte) bool {
	return unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)) || c == '_'
}

func isWhitespace(c byte) bool {
	return unicode.IsSpace(rune(c))
}
