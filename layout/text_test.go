package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// countingMetrics 统计 Measure 的调用次数。
type countingMetrics struct {
	stubMetrics
	calls int
}

func (m *countingMetrics) Measure(text string, font FontResource, size float64) (float64, error) {
	m.calls++
	return m.stubMetrics.Measure(text, font, size)
}

func TestTextLinesCachedPerWidth(t *testing.T) {
	m := &countingMetrics{}
	cfg := testConfig(t, func(b *ConfigBuilder) { b.Metrics(m) })
	txt := NewText("alpha beta gamma")
	if _, err := txt.Measure(cfg, 200); err != nil {
		t.Fatalf("Measure: %v", err)
	}
	calls := m.calls
	if _, err := txt.Measure(cfg, 200); err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if m.calls != calls {
		t.Fatalf("same width re-wrapped: %d -> %d calls", calls, m.calls)
	}
	if _, err := txt.Measure(cfg, 40); err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if m.calls == calls {
		t.Fatalf("new width should re-wrap")
	}
}

func TestTextMeasureHeight(t *testing.T) {
	cfg := testConfig(t, func(b *ConfigBuilder) { b.LineSpacing(1.5) })
	txt := NewText("a\nb\nc")
	txt.Margin = Margin{Top: 2, Bottom: 3}
	sz, err := txt.Measure(cfg, 100)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	// 两个行距 15pt + 末行 10pt + 上下边距
	if sz.Height != 45 {
		t.Fatalf("height = %g, want 45", sz.Height)
	}
	empty, err := NewText("").Measure(cfg, 100)
	if err != nil || empty.Height != 0 {
		t.Fatalf("empty text height = %g, %v", empty.Height, err)
	}
}

func TestTextAlignment(t *testing.T) {
	cfg := testConfig(t)
	center := NewText("abcd") // 20pt 宽
	center.Align = AlignCenter
	right := NewText("abcd")
	right.Align = AlignRight
	res := compose(t, cfg, Furniture{}, center, right)
	texts := res.Pages[0].Texts(LayerBody)
	if texts[0].X != 50+(495-20)/2.0 {
		t.Fatalf("center x = %g", texts[0].X)
	}
	if texts[1].X != 545-20 {
		t.Fatalf("right x = %g", texts[1].X)
	}
}

func TestTextUsesResolvedFont(t *testing.T) {
	reg := NewFontRegistry(FontResource{Name: "Body", Src: "embed:lmroman10regular"}, FontResource{Name: "Mono", Src: "embed:lmmono10regular"})
	cfg := testConfig(t, func(b *ConfigBuilder) { b.Fonts(reg) })
	mono := NewText("x")
	mono.Font = "Mono"
	missing := NewText("y")
	missing.Font = "Nope"
	res := compose(t, cfg, Furniture{}, mono, missing)
	texts := res.Pages[0].Texts(LayerBody)
	if texts[0].Font != "Mono" || texts[1].Font != "Body" {
		t.Fatalf("fonts = %q, %q", texts[0].Font, texts[1].Font)
	}
	if _, ok := res.Fonts["Mono"]; !ok {
		t.Fatalf("result fonts missing Mono: %v", res.Fonts)
	}
}

func TestTextSplit(t *testing.T) {
	cfg := testConfig(t)
	txt := NewText(numbered("l", 5))
	head, tail, err := txt.Split(cfg, 100, 35)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	hl, err := head.(*Text).Lines(cfg, 100)
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	tl, err := tail.(*Text).Lines(cfg, 100)
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if diff := cmp.Diff([]string{"l1", "l2", "l3"}, contents(hl)); diff != "" {
		t.Fatalf("head (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"l4", "l5"}, contents(tl)); diff != "" {
		t.Fatalf("tail (-want +got):\n%s", diff)
	}

	whole, rest, err := txt.Split(cfg, 100, 1000)
	if err != nil || whole != Component(txt) || rest != nil {
		t.Fatalf("everything fits: head=%v tail=%v err=%v", whole, rest, err)
	}
	none, all, err := txt.Split(cfg, 100, 5)
	if err != nil || none != nil || all != Component(txt) {
		t.Fatalf("nothing fits: head=%v tail=%v err=%v", none, all, err)
	}
}

func TestTextBindInterpolatesPageNumber(t *testing.T) {
	txt := NewText("Page ${page.number}")
	bound := txt.bind(pageData(4)).(*Text)
	if bound.Content != "Page 4" {
		t.Fatalf("bound = %q", bound.Content)
	}
	if txt.Content != "Page ${page.number}" {
		t.Fatalf("bind modified the original: %q", txt.Content)
	}
	plain := NewText("static")
	if plain.bind(pageData(1)) != Component(plain) {
		t.Fatalf("text without placeholders should be reused")
	}
}
