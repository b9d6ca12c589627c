package canvasrenderer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdewolff/canvas"

	"github.com/ByLCY/folio/layout"
)

var body = layout.FontResource{Name: "Body", Src: "embed:lmroman10regular"}

func TestMeasureMonotonic(t *testing.T) {
	r := NewRenderer(".")

	short, err := r.Measure("hello", body, 12)
	require.NoError(t, err)
	long, err := r.Measure("hello world", body, 12)
	require.NoError(t, err)
	bigger, err := r.Measure("hello", body, 24)
	require.NoError(t, err)

	assert.Greater(t, short, 0.0)
	assert.Greater(t, long, short)
	assert.InEpsilon(t, 2*short, bigger, 1e-3)

	empty, err := r.Measure("", body, 12)
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestMeasureFallsBackOnUnknownFont(t *testing.T) {
	r := NewRenderer(".")
	w, err := r.Measure("hello", layout.FontResource{Name: "Missing", Src: "embed:nope"}, 12)
	require.NoError(t, err)
	assert.Greater(t, w, 0.0)
}

func TestWrapRespectsWidth(t *testing.T) {
	r := NewRenderer(".")
	lines, err := layout.Wrap(r, "hello world again and again", body, 12, 60, layout.WrapWord)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(lines), 2)
	for _, ln := range lines {
		assert.LessOrEqual(t, ln.Width, 60.0, "line %q", ln.Content)
	}
}

func TestWrapKeepsBlankLines(t *testing.T) {
	r := NewRenderer(".")
	lines, err := layout.Wrap(r, "foo\n\nbar", body, 12, 300, layout.WrapWord)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "", lines[1].Content)
}

// 当第一行宽度与容器宽度恰好相等且后面紧跟一个显式换行时，不应产生额外的空行。
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	r := NewRenderer(".")
	first := "SAMPLE-A"
	limit, err := r.Measure(first, body, 12)
	require.NoError(t, err)

	lines, err := layout.Wrap(r, first+"\nSAMPLE-B", body, 12, limit, layout.WrapWord)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, first, lines[0].Content)
	assert.Equal(t, "SAMPLE-B", lines[1].Content)
}

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer(".")
	fill := layout.Color{R: 240, G: 240, B: 240}
	page := layout.Page{
		Number: 1,
		Width:  595,
		Height: 842,
		Ops: []layout.Op{
			{Text: &layout.TextOp{Content: "Hello", X: 50, Y: 780, Font: "Body", FontSize: 12}},
			{Rect: &layout.RectOp{X: 50, Y: 700, Width: 100, Height: 40, Fill: &fill, Stroke: &layout.Black, StrokeWidth: 0.5}},
			{Line: &layout.LineOp{X1: 50, Y1: 690, X2: 545, Y2: 690, Width: 0.5}},
			{Layer: layout.LayerWatermark, Watermark: &layout.WatermarkOp{Content: "DRAFT", X: 297, Y: 421, Angle: 45, Font: "Body", FontSize: 40, Color: layout.Gray, Opacity: 0.2}},
		},
	}
	result := &layout.Result{
		Pages: []layout.Page{page, {Number: 2, Width: 595, Height: 842}},
		Fonts: map[string]layout.FontResource{"Body": body},
		Meta:  layout.DocumentMeta{Title: "Report", Creator: "folio"},
	}

	pdf, err := r.Render(result)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestRenderRejectsEmptyResult(t *testing.T) {
	r := NewRenderer(".")
	_, err := r.Render(nil)
	assert.Error(t, err)
	_, err = r.Render(&layout.Result{})
	assert.Error(t, err)
}

func TestImageDecodeFailure(t *testing.T) {
	r := NewRendererWithOptions(Options{Images: map[string]Resource{"logo": {Bytes: []byte("not an image")}}})
	_, err := r.decodeImage("built-in:logo")
	assert.ErrorIs(t, err, layout.ErrImageDecode)
}

func TestParseFontStyle(t *testing.T) {
	assert.Equal(t, canvas.FontRegular, parseFontStyle(""))
	assert.Equal(t, canvas.FontBold, parseFontStyle("bold"))
	assert.Equal(t, canvas.FontSemiBold, parseFontStyle("SemiBold"))
	assert.Equal(t, canvas.FontBold|canvas.FontItalic, parseFontStyle("Bold Italic"))
}

func TestResolveFontResourceStableFallback(t *testing.T) {
	known := map[string]layout.FontResource{
		"Zeta":  {Name: "Zeta", Src: "embed:lmroman10bold"},
		"Alpha": {Name: "Alpha", Src: "embed:lmroman10regular"},
		"Mid":   {Name: "Mid", Src: "embed:lmroman10regular"},
	}
	for i := 0; i < 20; i++ {
		assert.Equal(t, "Alpha", resolveFontResource("Missing", known).Name)
	}
	assert.Equal(t, "Zeta", resolveFontResource("Zeta", known).Name)

	known[layout.DefaultFontName] = layout.FontResource{Name: layout.DefaultFontName, Src: "embed:lmroman10italic"}
	assert.Equal(t, "Body", resolveFontResource("Missing", known).Name)

	assert.Equal(t, "embed:lmroman10regular", resolveFontResource("x", nil).Src)
}
