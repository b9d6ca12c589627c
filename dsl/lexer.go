package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Blank and whitespace-only lines fold into the preceding Newline token.
var folioLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Newline", Pattern: `\n\s*`},
	{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
	{Name: "LineComment", Pattern: `//[^\n]*`},
	{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
	{Name: "HashComment", Pattern: `#[^\n]*`},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?(?:pt|mm|cm|in|%|x)?`},
	{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
	{Name: "Symbol", Pattern: `[][(),.=+\-*/%<>!?;:]`},
	{Name: "LBrace", Pattern: `{`},
	{Name: "RBrace", Pattern: `}`},
})

var (
	kindNames = map[lexer.TokenType]string{}

	newlineToken = symbol("Newline")
	lbraceToken  = symbol("LBrace")
	rbraceToken  = symbol("RBrace")
	symbolToken  = symbol("Symbol")
	stringToken  = symbol("String")
)

func init() {
	for name, tt := range folioLexer.Symbols() {
		kindNames[tt] = name
	}
}

func symbol(name string) lexer.TokenType {
	tt, ok := folioLexer.Symbols()[name]
	if !ok {
		panic(fmt.Sprintf("dsl: token %s not defined", name))
	}
	return tt
}

// Lexeme is a single token kept verbatim for argument lists and expressions.
// Value is unquoted for strings; Raw keeps the source text.
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// Parse implements participle.Parseable: one token up to the end of the statement.
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	if endsStatement(lex.Peek()) {
		return participle.NextMatch
	}
	v, err := toLexeme(lex.Next())
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Expression is an unevaluated run of tokens, eg: `data.meta.currency`.
type Expression struct {
	Parts []*Lexeme
}

// Parse implements participle.Parseable. Brackets and parentheses nest;
// at depth zero the expression ends where a statement or list item ends.
func (e *Expression) Parse(lex *lexer.PeekingLexer) error {
	depth := 0
	for tok := lex.Peek(); !tok.EOF(); tok = lex.Peek() {
		if depth == 0 && endsItem(tok) {
			break
		}
		v, err := toLexeme(lex.Next())
		if err != nil {
			return err
		}
		switch v.Raw {
		case "(", "[":
			depth++
		case ")", "]":
			if depth > 0 {
				depth--
			}
		}
		e.Parts = append(e.Parts, &v)
	}
	if len(e.Parts) == 0 {
		return participle.NextMatch
	}
	return nil
}

// String joins the expression tokens without separators.
func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range e.Parts {
		b.WriteString(p.Value)
	}
	return b.String()
}

func endsStatement(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case newlineToken, lbraceToken, rbraceToken:
		return true
	case symbolToken:
		return tok.Value == ";"
	}
	return false
}

func endsItem(tok *lexer.Token) bool {
	if endsStatement(tok) {
		return true
	}
	return tok.Type == symbolToken && (tok.Value == "," || tok.Value == "]")
}

func toLexeme(tok *lexer.Token) (Lexeme, error) {
	if tok.EOF() {
		return Lexeme{}, participle.NextMatch
	}
	kind, ok := kindNames[tok.Type]
	if !ok {
		kind = fmt.Sprintf("#%d", tok.Type)
	}
	val := tok.Value
	if tok.Type == stringToken {
		s, err := strconv.Unquote(tok.Value)
		if err != nil {
			return Lexeme{}, fmt.Errorf("%s: %w", tok.Pos, err)
		}
		val = s
	}
	return Lexeme{Type: kind, Value: val, Raw: tok.Value, Pos: tok.Pos}, nil
}
