package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/folio/dsl"
)

const sampleDSL = `
doc Invoice v1 {
  meta {
    title: "Invoice"
    keywords: [
      "finance"
      "internal"
    ]
  }

  resources {
    font Body {
      src: "embed:lmroman10regular"
    }

    color Accent = #0F62FE
    style Title extends Base { size: 20pt; color: Accent }
  }

  page A4 portrait margin 18mm {
    flow {
      text Body size 12pt color #333 { "Hello, ${user.name}!" }

      let currency = data.meta.currency
    }
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.Name != "Invoice" {
		t.Fatalf("expected document name Invoice, got %s", doc.Name)
	}
	if doc.Version != "v1" {
		t.Fatalf("expected version v1, got %s", doc.Version)
	}

	if len(doc.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(doc.Sections))
	}

	meta := doc.Sections[0].Meta
	if meta == nil {
		t.Fatalf("meta section missing")
	}
	title, ok := meta.Lookup("title")
	if !ok || title.String == nil || string(*title.String) != "Invoice" {
		t.Fatalf("expected title Invoice, got %+v", meta.Entries)
	}
	keywords, ok := meta.Lookup("keywords")
	if !ok || keywords.Array == nil || len(keywords.Array.Values) != 2 {
		t.Fatalf("expected 2 keywords, got %+v", keywords)
	}

	decls := doc.Sections[1].Resources.Decls
	if len(decls) != 3 {
		t.Fatalf("expected 3 resources, got %d", len(decls))
	}
	if d := decls[0]; d.Kind != "font" || d.Name != "Body" {
		t.Fatalf("unexpected font resource: %+v", d)
	}
	if src, ok := decls[0].Props.Lookup("src"); !ok || string(*src.String) != "embed:lmroman10regular" {
		t.Fatalf("font src missing: %+v", decls[0].Props)
	}
	if d := decls[1]; d.Kind != "color" || d.Value == nil || d.Value.Color == nil || *d.Value.Color != "#0F62FE" {
		t.Fatalf("unexpected color resource: %+v", d)
	}
	if d := decls[2]; d.Kind != "style" || d.Extends != "Base" || len(d.Props.Entries) != 2 {
		t.Fatalf("unexpected style resource: %+v", d)
	}

	page := doc.Sections[2].Page
	if page == nil {
		t.Fatalf("page section missing")
	}
	if page.Spec.Size != "A4" || len(page.Spec.Options) != 2 {
		t.Fatalf("unexpected page spec: %+v", page.Spec)
	}
	if page.Spec.Options[0].Orientation != "portrait" || strings.Join(page.Spec.Options[1].Margin, " ") != "18mm" {
		t.Fatalf("unexpected page options: %+v %+v", page.Spec.Options[0], page.Spec.Options[1])
	}

	pageFlow := page.Block.Statements[0].Command
	if pageFlow == nil || pageFlow.Name != "flow" {
		t.Fatalf("expected flow command, got %+v", page.Block.Statements[0])
	}
	if len(pageFlow.Block.Statements) != 2 {
		t.Fatalf("flow block statements = %d", len(pageFlow.Block.Statements))
	}

	textCmd := pageFlow.Block.Statements[0].Command
	if textCmd == nil || textCmd.Name != "text" {
		t.Fatalf("expected text command, got %+v", pageFlow.Block.Statements[0])
	}
	if len(textCmd.Args) != 5 || textCmd.Args[0].Value != "Body" || textCmd.Args[4].Type != "Color" {
		t.Fatalf("unexpected text args: %s", tokensToString(textCmd.Args))
	}
	if textCmd.Block == nil || len(textCmd.Block.Statements) == 0 || textCmd.Block.Statements[0].Text == nil {
		t.Fatalf("text command missing literal content")
	}
	if got := string(textCmd.Block.Statements[0].Text.Value); !strings.Contains(got, "${user.name}") {
		t.Fatalf("expected interpolation in text literal, got %s", got)
	}

	letCmd := pageFlow.Block.Statements[1].Command
	if letCmd == nil || letCmd.Name != "let" {
		t.Fatalf("expected let command, got %+v", pageFlow.Block.Statements[1])
	}
	if got := tokensToString(letCmd.Args); got != "currency = data . meta . currency" {
		t.Fatalf("unexpected let args: %s", got)
	}
}

func tokensToString(parts []*dsl.Lexeme) string {
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, p.Value)
	}
	return strings.Join(values, " ")
}

const layoutDSL = `
doc Report v2 {
  settings {
    font-size: 11pt
    line-height: 1.4x
    resample: catmull-rom
  }

  page-set Letterhead {
    header margin 6pt skip-first true { "ACME ${page.number}" }
    footer page 2 { "second" }
    watermark "DRAFT" angle 30 opacity 0.1
  }

  page A4 margin 20mm 15mm use Letterhead {
    table padding 4pt header-rows 1 {
      header { cell width 2 { "Item" }; cell width 1 { "Qty" } }
      row min-height 20pt { cell Bold { "Widget" }; cell { "3" } }
    }
    page-break
  }
}
`

func TestParseSettingsAndPageSet(t *testing.T) {
	doc, err := dsl.ParseString(layoutDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(doc.Sections))
	}
	kinds := []string{doc.Sections[0].Kind(), doc.Sections[1].Kind(), doc.Sections[2].Kind()}
	if strings.Join(kinds, ",") != "settings,page-set,page" {
		t.Fatalf("unexpected section kinds: %v", kinds)
	}

	settings := doc.Sections[0].Settings.Entries
	if len(settings) != 3 {
		t.Fatalf("expected 3 settings, got %d", len(settings))
	}
	if s := settings[0]; s.Key != "font-size" || s.Value.Number == nil || *s.Value.Number != "11pt" {
		t.Fatalf("unexpected font-size setting: %+v", s)
	}
	if s := settings[2]; s.Key != "resample" || s.Value.Expr.String() != "catmull-rom" {
		t.Fatalf("unexpected resample setting: %+v", s)
	}

	set := doc.Sections[1].PageSet
	if set.Name != "Letterhead" || len(set.Block.Statements) != 3 {
		t.Fatalf("unexpected page-set: %+v", set)
	}
	header := set.Block.Statements[0].Band
	if header == nil || header.Kind != "header" || len(header.Options) != 2 {
		t.Fatalf("unexpected header: %+v", set.Block.Statements[0])
	}
	if a := header.Options[0].Attr; a == nil || a.Key != "margin" || a.Value.Value != "6pt" {
		t.Fatalf("unexpected header margin: %+v", header.Options[0])
	}
	if header.Options[1].SkipFirst != "true" {
		t.Fatalf("unexpected header skip-first: %+v", header.Options[1])
	}
	footer := set.Block.Statements[1].Band
	if footer == nil || footer.Kind != "footer" || footer.Options[0].Page != "2" {
		t.Fatalf("unexpected footer: %+v", set.Block.Statements[1])
	}
	wm := set.Block.Statements[2].Watermark
	if wm == nil || wm.Label != "DRAFT" || len(wm.Attrs) != 2 || wm.Attrs[1].Key != "opacity" {
		t.Fatalf("unexpected watermark: %+v", set.Block.Statements[2])
	}

	page := doc.Sections[2].Page
	if opts := page.Spec.Options; len(opts) != 2 || strings.Join(opts[0].Margin, " ") != "20mm 15mm" || opts[1].Use != "Letterhead" {
		t.Fatalf("unexpected page options: %+v", page.Spec.Options)
	}
	table := page.Block.Statements[0].Table
	if table == nil || len(table.Attrs) != 2 || len(table.Rows) != 2 {
		t.Fatalf("unexpected table: %+v", page.Block.Statements[0])
	}
	head, body := table.Rows[0], table.Rows[1]
	if head.Kind != "header" || len(head.Cells) != 2 || tokensToString(head.Cells[0].Args) != "width 2" {
		t.Fatalf("header row should hold two cells: %+v", head)
	}
	if body.Kind != "row" || len(body.Attrs) != 1 || body.Attrs[0].Key != "min-height" {
		t.Fatalf("unexpected body row: %+v", body)
	}
	if got := string(body.Cells[0].Block.Statements[0].Text.Value); got != "Widget" {
		t.Fatalf("unexpected cell text: %q", got)
	}
	if !page.Block.Statements[1].PageBreak {
		t.Fatalf("expected page-break, got %+v", page.Block.Statements[1])
	}
}

func TestParseNestedTableInCell(t *testing.T) {
	src := `
doc T v1 {
  page A4 {
    table {
      row {
        cell {
          table { row { cell { "inner" } } }
        }
      }
    }
  }
}
`
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	outer := doc.Sections[0].Page.Block.Statements[0].Table
	inner := outer.Rows[0].Cells[0].Block.Statements[0].Table
	if inner == nil || len(inner.Rows) != 1 {
		t.Fatalf("nested table missing: %+v", outer.Rows[0].Cells[0].Block)
	}
}

func TestParseBlankLinesWithIndentation(t *testing.T) {
	src := "doc T v1 {\n  resources {\n    color A = #112233\n    \n    \n    color B = #445566\n  }\n  page A4 {\n    text { \"a\" }\n    \n    text { \"b\" }\n  }\n}\n"
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if n := len(doc.Sections[0].Resources.Decls); n != 2 {
		t.Fatalf("resources = %d, want 2", n)
	}
	if n := len(doc.Sections[1].Page.Block.Statements); n != 2 {
		t.Fatalf("statements = %d, want 2", n)
	}
}

func TestParseSixDigitColorIsOneToken(t *testing.T) {
	src := "doc T v1 {\n  page A4 {\n    rect height 10pt fill #F2F4F8\n  }\n}\n"
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	args := doc.Sections[0].Page.Block.Statements[0].Command.Args
	if len(args) != 4 || args[3].Type != "Color" || args[3].Value != "#F2F4F8" {
		t.Fatalf("unexpected args: %s", tokensToString(args))
	}
}

func TestParseRejectsUnknownSetting(t *testing.T) {
	src := "doc T v1 {\n  settings {\n    colour: red\n  }\n  page A4 {\n  }\n}\n"
	if _, err := dsl.ParseString(src); err == nil {
		t.Fatalf("unknown settings key should fail to parse")
	}
}
