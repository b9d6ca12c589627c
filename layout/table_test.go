package layout

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func textCell(content string) *Cell {
	return NewCell(0, NewText(content))
}

func TestColumnWidthsSumExactly(t *testing.T) {
	tbl := NewTable(NewRow(NewCell(1), NewCell(1), NewCell(1)))
	widths, err := tbl.ColumnWidths(100)
	if err != nil {
		t.Fatalf("ColumnWidths: %v", err)
	}
	sum := 0.0
	for _, w := range widths {
		sum += w
	}
	if sum != 100 {
		t.Fatalf("sum = %v, want exactly 100", sum)
	}

	tbl = NewTable(NewRow(NewCell(2), NewCell(1), NewCell(1)))
	widths, err = tbl.ColumnWidths(495)
	if err != nil {
		t.Fatalf("ColumnWidths: %v", err)
	}
	if diff := cmp.Diff([]float64{247.5, 123.75, 123.75}, widths); diff != "" {
		t.Fatalf("widths mismatch (-want +got):\n%s", diff)
	}
}

func TestColumnWidthsEvenWithoutDeclaredWidths(t *testing.T) {
	tbl := NewTable(NewRow(NewCell(0), NewCell(0)))
	widths, err := tbl.ColumnWidths(300)
	if err != nil {
		t.Fatalf("ColumnWidths: %v", err)
	}
	if widths[0] != 150 || widths[1] != 150 {
		t.Fatalf("widths = %v", widths)
	}
}

func TestTableCellCountMismatch(t *testing.T) {
	tbl := NewTable(
		NewRow(textCell("a"), textCell("b")),
		NewRow(textCell("c")),
	)
	if _, err := tbl.ColumnWidths(100); !errors.Is(err, ErrCellCount) {
		t.Fatalf("err = %v, want ErrCellCount", err)
	}
	c, err := NewComposer(testConfig(t), Furniture{})
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	if err := c.Add(tbl); !errors.Is(err, ErrCellCount) {
		t.Fatalf("Add err = %v, want ErrCellCount", err)
	}
}

func TestTableNegativeColumnWidth(t *testing.T) {
	tbl := NewTable(NewRow(NewCell(-1), NewCell(1)))
	if _, err := tbl.ColumnWidths(100); !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("err = %v, want ErrInvalidGeometry", err)
	}
}

func TestRowHeightUsesTallestCell(t *testing.T) {
	cfg := testConfig(t)
	row := NewRow(textCell("a"), textCell("a\nb\nc"))
	tbl := NewTable(row)
	sz, err := tbl.Measure(cfg, 495)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if sz.Height != 36 {
		t.Fatalf("height = %g, want 36", sz.Height)
	}
	row.MinHeight = 50
	if sz, _ = tbl.Measure(cfg, 495); sz.Height != 50 {
		t.Fatalf("height with MinHeight = %g, want 50", sz.Height)
	}
}

// 边框由外层的边框色矩形与按边框宽度内缩的背景矩形组成。
func TestCellBorderNestedRects(t *testing.T) {
	cfg := testConfig(t)
	cell := textCell("x")
	cell.Border = true
	res := compose(t, cfg, Furniture{}, NewTable(NewRow(cell)))
	rects := res.Pages[0].Rects(LayerBody)
	if len(rects) != 2 {
		t.Fatalf("rects = %d, want 2", len(rects))
	}
	black, white := Black, White
	want := []RectOp{
		{X: 50, Y: 734, Width: 495, Height: 16, Fill: &black},
		{X: 50.5, Y: 734.5, Width: 494, Height: 15, Fill: &white},
	}
	if diff := cmp.Diff(want, rects); diff != "" {
		t.Fatalf("rects mismatch (-want +got):\n%s", diff)
	}
	texts := res.Pages[0].Texts(LayerBody)
	if len(texts) != 1 || texts[0].X != 53 || texts[0].Y != 737 {
		t.Fatalf("cell text = %+v", texts)
	}
}

func TestCellBackgroundWithoutBorder(t *testing.T) {
	cfg := testConfig(t)
	cell := textCell("x")
	bg := Color{R: 240, G: 240, B: 240}
	cell.Background = &bg
	res := compose(t, cfg, Furniture{}, NewTable(NewRow(cell)))
	rects := res.Pages[0].Rects(LayerBody)
	if len(rects) != 1 || rects[0].Fill == nil || *rects[0].Fill != bg {
		t.Fatalf("rects = %+v", rects)
	}
}

// 一行 100 行文本的单元格在第一页放下 69 行，其余进入第二页的续行。
func TestTableRowSplitsAcrossPages(t *testing.T) {
	cfg := testConfig(t)
	tbl := NewTable(NewRow(textCell(numbered("r", 100))))
	res := compose(t, cfg, Furniture{}, tbl)
	if len(res.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(res.Pages))
	}
	if n := len(res.Pages[0].Texts(LayerBody)); n != 69 {
		t.Fatalf("page 1 lines = %d, want 69", n)
	}
	if n := len(res.Pages[1].Texts(LayerBody)); n != 31 {
		t.Fatalf("page 2 lines = %d, want 31", n)
	}
	want := make([]string, 100)
	for i := range want {
		want[i] = fmt.Sprintf("r%d", i+1)
	}
	if diff := cmp.Diff(want, bodyTexts(res)); diff != "" {
		t.Fatalf("content lost or duplicated (-want +got):\n%s", diff)
	}
}

func TestTableRepeatsHeaderRows(t *testing.T) {
	cfg := testConfig(t)
	rows := []*Row{NewRow(textCell("H"))}
	for i := 1; i <= 100; i++ {
		rows = append(rows, NewRow(textCell(fmt.Sprintf("d%d", i))))
	}
	tbl := NewTable(rows...)
	tbl.HeaderRows = 1
	res := compose(t, cfg, Furniture{}, tbl)
	if len(res.Pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(res.Pages))
	}
	var data []string
	for i, p := range res.Pages {
		texts := p.Texts(LayerBody)
		if texts[0].Content != "H" {
			t.Fatalf("page %d starts with %q, want header", i+1, texts[0].Content)
		}
		for _, op := range texts[1:] {
			data = append(data, op.Content)
		}
	}
	if got := res.Pages[1].Texts(LayerBody)[1].Content; got != "d43" {
		t.Fatalf("page 2 first row = %q, want d43", got)
	}
	want := make([]string, 100)
	for i := range want {
		want[i] = fmt.Sprintf("d%d", i+1)
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("rows lost or duplicated (-want +got):\n%s", diff)
	}
}

func TestTableCursorAfterTable(t *testing.T) {
	cfg := testConfig(t)
	res := compose(t, cfg, Furniture{},
		NewTable(NewRow(textCell("a")), NewRow(textCell("b"))),
		NewText("after"),
	)
	texts := res.Pages[0].Texts(LayerBody)
	last := texts[len(texts)-1]
	if last.Content != "after" || last.Y != 750-32-10 {
		t.Fatalf("text after table = %+v", last)
	}
}

func TestNestedTableInCell(t *testing.T) {
	cfg := testConfig(t)
	inner := NewTable(NewRow(textCell("i1")), NewRow(textCell("i2")))
	outer := NewTable(NewRow(NewCell(1, inner), NewCell(1, NewText("o"))))
	sz, err := outer.Measure(cfg, 495)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if sz.Height != 38 {
		t.Fatalf("height = %g, want 38", sz.Height)
	}
	res := compose(t, cfg, Furniture{}, outer)
	if diff := cmp.Diff([]string{"i1", "i2", "o"}, bodyTexts(res)); diff != "" {
		t.Fatalf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestTableSplitRepeatsHeader(t *testing.T) {
	cfg := testConfig(t)
	tbl := NewTable(NewRow(textCell("H")), NewRow(textCell("a")), NewRow(textCell("b")))
	tbl.HeaderRows = 1
	head, tail, err := tbl.Split(cfg, 495, 40)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if n := len(head.(*Table).Rows); n != 2 {
		t.Fatalf("head rows = %d, want 2", n)
	}
	tr := tail.(*Table).Rows
	if len(tr) != 2 || tr[0] != tbl.Rows[0] || tr[1] != tbl.Rows[2] {
		t.Fatalf("tail rows = %v", tr)
	}

	whole, rest, err := tbl.Split(cfg, 495, 1000)
	if err != nil || whole != Component(tbl) || rest != nil {
		t.Fatalf("Split(1000) = %v, %v, %v", whole, rest, err)
	}
}
