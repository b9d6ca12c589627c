package layout

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ByLCY/folio/logging"
)

// stubMetrics 以 0.5em 作为每个字符的宽度，widths 中的词使用固定宽度。
type stubMetrics struct {
	widths map[string]float64
}

func (m stubMetrics) Measure(text string, _ FontResource, size float64) (float64, error) {
	if w, ok := m.widths[text]; ok {
		return w, nil
	}
	return float64(utf8.RuneCountInString(text)) * size * 0.5, nil
}

// testConfig 返回 800pt 高、四边 50pt 边距、10pt 字号、单倍行距的配置。
func testConfig(t *testing.T, edit ...func(*ConfigBuilder)) Config {
	t.Helper()
	b := NewConfigBuilder().
		PageSize(595, 800).
		Margins(Margin{Top: 50, Right: 50, Bottom: 50, Left: 50}).
		Metrics(stubMetrics{}).
		FontSize(10).
		LineSpacing(1)
	for _, fn := range edit {
		fn(b)
	}
	cfg, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return cfg
}

// recordLogs 让配置把日志写入 Recorder。
func recordLogs(rec *logging.Recorder) func(*ConfigBuilder) {
	return func(b *ConfigBuilder) { b.Logger(slog.New(rec)) }
}

func compose(t *testing.T, cfg Config, f Furniture, items ...Flowable) *Result {
	t.Helper()
	c, err := NewComposer(cfg, f)
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	if err := c.Add(items...); err != nil {
		t.Fatalf("Add: %v", err)
	}
	res, err := c.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return res
}

// numbered 返回 "prefix1\nprefix2\n...prefixN"。
func numbered(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return strings.Join(parts, "\n")
}

// bodyTexts 按页序收集正文图层中的文本内容。
func bodyTexts(res *Result) []string {
	var out []string
	for _, p := range res.Pages {
		for _, op := range p.Texts(LayerBody) {
			out = append(out, op.Content)
		}
	}
	return out
}
