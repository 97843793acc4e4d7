package expr

// Parser builds expressions from a token stream.
//
// Grammar:
//
//	expr    := or
//	or      := and ("||" and)*
//	and     := unary ("&&" unary)*
//	unary   := ("!" | "&&" | "||") unary | primary
//	primary := "(" expr ")" | "true" | "True" | "false" | "False"
//	         | ident | "$" ident [":" unary]
//
// A chain of the same binary operator is a single n-ary node, so
// a&&b&&c has three operands while (a&&b)&&c nests. A binary operator in
// prefix position is a single-operand node, the rendering of Op(TagAnd, x).
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser over tokens produced by Lex.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse lexes and parses a single expression.
func Parse(input string) (Expr, error) {
	tokens, err := Lex(input)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// MustParse is like Parse but panics on malformed input.
// It is meant for compiled-in expressions and tests.
func MustParse(input string) Expr {
	e, err := Parse(input)
	if err != nil {
		panic("expr: " + err.Error() + " in " + input)
	}
	return e
}

// Parse parses the whole token stream as one expression.
func (p *Parser) Parse() (Expr, error) {
	e, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, errorAt(tok.Line, tok.Col, "unexpected %s %q after expression", tok.Type, tok.Value)
	}
	return e, nil
}

// binary levels from loosest to tightest binding
var binaryLevels = []TokenType{TokenOr, TokenAnd}

func (p *Parser) parseBinary(level int) (Expr, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	first, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	operands := []Expr{first}
	tag := ""
	for p.peek().Type == binaryLevels[level] {
		tag = p.next().Value
		operand, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	if len(operands) == 1 {
		return first, nil
	}
	return Op(tag, operands...), nil
}

func (p *Parser) parseUnary() (Expr, error) {
	switch p.peek().Type {
	case TokenNot, TokenAnd, TokenOr:
		tag := p.next().Value
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Op(tag, operand), nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.next()
	switch tok.Type {
	case TokenLParen:
		inner, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.Type != TokenRParen {
			return nil, errorAt(closing.Line, closing.Col, "expected ')' but found %s", closing.Type)
		}
		return inner, nil

	case TokenIdent:
		switch tok.Value {
		case "true", "True":
			return True(), nil
		case "false", "False":
			return False(), nil
		}
		return Sym(tok.Value), nil

	case TokenVariable:
		if p.peek().Type != TokenColon {
			return Var(tok.Value), nil
		}
		p.next()
		sig, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return VarWithSignature(tok.Value, sig), nil

	case TokenEOF:
		return nil, errorAt(tok.Line, tok.Col, "unexpected end of input")

	default:
		return nil, errorAt(tok.Line, tok.Col, "unexpected %s %q", tok.Type, tok.Value)
	}
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}
