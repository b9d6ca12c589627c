package dsl

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"
)

// Document is the root AST node for a folio document.
type Document struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'doc' @Ident"`
	Version  string         `parser:"@Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section is one top-level section of a document.
type Section struct {
	Meta      *Properties       `parser:"  'meta' @@"`
	Settings  *SettingsSection  `parser:"| @@"`
	Resources *ResourcesSection `parser:"| @@"`
	PageSet   *PageSetSection   `parser:"| @@"`
	Page      *PageSection      `parser:"| @@"`
}

// Kind returns the section keyword.
func (s *Section) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Meta != nil:
		return "meta"
	case s.Settings != nil:
		return "settings"
	case s.Resources != nil:
		return "resources"
	case s.PageSet != nil:
		return "page-set"
	case s.Page != nil:
		return "page"
	default:
		return "unknown"
	}
}

// Properties is a braced list of `key: value` entries.
type Properties struct {
	Entries []*Assignment `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Lookup returns the last entry named key.
func (p *Properties) Lookup(key string) (*Value, bool) {
	if p == nil {
		return nil, false
	}
	var found *Value
	for _, e := range p.Entries {
		if e.Key == key {
			found = e.Value
		}
	}
	return found, found != nil
}

// SettingsSection carries layout defaults. Unknown keys are a parse error.
type SettingsSection struct {
	Entries []*Setting `parser:"'settings' '{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Setting is a single layout default.
type Setting struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@( 'font-size' | 'font' | 'size' | 'line-height' | 'line-spacing' | 'image-fit' | 'image-autofit' | 'image-dpi' | 'dpi' | 'resample' | 'max-pages' )"`
	Value *Value         `parser:"':' Newline* @@"`
}

// ResourcesSection declares named fonts, colors, images and styles.
type ResourcesSection struct {
	Decls []*Resource `parser:"'resources' '{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Resource is a single declaration such as `color Accent = #0F62FE`
// or `style Big extends Base { size: 20pt }`.
type Resource struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Kind    string         `parser:"@( 'font' | 'color' | 'image' | 'style' )"`
	Name    string         `parser:"@Ident"`
	Extends string         `parser:"( 'extends' @Ident )?"`
	Value   *Value         `parser:"( '=' @@ )?"`
	Props   *Properties    `parser:"( Newline* @@ )?"`
}

// PageSetSection is a reusable page template applied with `page A4 use NAME`.
type PageSetSection struct {
	Name  string `parser:"'page-set' @Ident"`
	Block *Block `parser:"@@"`
}

// PageSection describes the page size, its options and its content.
type PageSection struct {
	Spec  PageSpec `parser:"'page' @@"`
	Block *Block   `parser:"@@"`
}

// PageSpec is the page header, eg: `A4 landscape margin 20mm 15mm use Letterhead`.
type PageSpec struct {
	Size    string        `parser:"@Ident"`
	Options []*PageOption `parser:"@@*"`
}

// PageOption is one option of a page header.
type PageOption struct {
	Orientation string   `parser:"  @( 'portrait' | 'landscape' )"`
	Margin      []string `parser:"| 'margin' @Number+"`
	Use         string   `parser:"| 'use' @Ident"`
}

// Block is a braced list of statements.
type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement is one entry of a block.
type Statement struct {
	Assignment *Assignment  `parser:"  @@"`
	Band       *Band        `parser:"| @@"`
	Watermark  *Watermark   `parser:"| @@"`
	Table      *Table       `parser:"| @@"`
	PageBreak  bool         `parser:"| @'page-break'"`
	Command    *Command     `parser:"| @@"`
	Text       *TextLiteral `parser:"| @@"`
}

// Band is a header or footer. `page N` scopes it to one page and
// `skip-first true` omits it on the first page.
type Band struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Kind    string         `parser:"@( 'header' | 'footer' )"`
	Options []*BandOption  `parser:"@@*"`
	Block   *Block         `parser:"Newline* @@"`
}

// BandOption is one option of a header or footer.
type BandOption struct {
	Page      string `parser:"  'page' @Number"`
	SkipFirst string `parser:"| 'skip-first' @( 'true' | 'false' )"`
	Attr      *Attr  `parser:"| @@"`
}

// Watermark is `watermark "TEXT" angle 45 opacity 0.1` or `watermark { "TEXT" }`.
type Watermark struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Label StringLiteral  `parser:"'watermark' @String?"`
	Attrs []*Attr        `parser:"@@*"`
	Block *Block         `parser:"( Newline* @@ )?"`
}

// Table is a list of header and body rows.
type Table struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Attrs []*Attr        `parser:"'table' @@*"`
	Rows  []*Row         `parser:"Newline* '{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Row is a table row. Kind is "header" for rows repeated on continuation pages.
type Row struct {
	Kind  string  `parser:"@( 'header' | 'row' )"`
	Attrs []*Attr `parser:"@@*"`
	Cells []*Cell `parser:"Newline* '{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Cell is a table cell. Its arguments follow the `[style] key value...` form.
type Cell struct {
	Args  []*Lexeme `parser:"'cell' @@*"`
	Block *Block    `parser:"( Newline* @@ )?"`
}

// Attr is a `key value` pair.
type Attr struct {
	Key   string  `parser:"@Ident"`
	Value *Lexeme `parser:"@@"`
}

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Key   string `parser:"@Ident"`
	Value *Value `parser:"':' Newline* @@"`
}

// Command is a content instruction such as `text`, `image` or `flow`.
type Command struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Args  []*Lexeme      `parser:"@@*"`
	Block *Block         `parser:"( Newline* @@ )?"`
}

// TextLiteral is a bare string statement.
type TextLiteral struct {
	Value StringLiteral `parser:"@String"`
}

// Value is the right-hand side of an assignment.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Array  *ArrayValue    `parser:"| @@"`
	Object *InlineObject  `parser:"| @@"`
	Expr   *Expression    `parser:"| @@"`
}

// ArrayValue captures `[ ... ]`; items are separated by commas, semicolons or newlines.
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | ';' | Newline+) Newline* @@ )* )? Newline* ']'"`
}

// InlineObject captures `{ key: value }`.
type InlineObject struct {
	Entries []*Assignment `parser:"'{' Newline* ( @@ Newline* ( (';' | Newline+) Newline* @@ Newline* )* )? Newline* '}'"`
}

// StringLiteral is a string unquoted on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}
