package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/folio/fonts"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/logging"
	"github.com/ByLCY/folio/renderer"
)

// Renderer 通过 github.com/tdewolff/canvas 把排版结果绘制为 PDF，
// 同时作为排版阶段的字体度量后端。
type Renderer struct {
	baseDir string

	fontBlobs  map[string][]byte
	imageBlobs map[string][]byte

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Metrics    = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options 配置渲染器。
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // 通过 built-in:<name> 引用的字体
	Images  map[string]Resource // 通过 built-in:<name> 引用的图片
}

// Resource 以字节或文件路径提供。
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer 创建以 baseDir 解析相对路径资源的渲染器。
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions 创建带注入资源的渲染器。
func NewRendererWithOptions(opts Options) *Renderer {
	return &Renderer{
		baseDir:      opts.BaseDir,
		fontBlobs:    ingest(opts.Fonts),
		imageBlobs:   ingest(opts.Images),
		fontFamilies: map[string]*fontFamilyEntry{},
	}
}

func ingest(resources map[string]Resource) map[string][]byte {
	out := map[string][]byte{}
	for name, res := range resources {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			out[name] = res.Bytes
			continue
		}
		if res.Path == "" {
			continue
		}
		data, err := os.ReadFile(res.Path)
		if err != nil {
			logging.Logger().Warn("读取注入资源失败", "name", name, "path", res.Path, "err", err)
			continue
		}
		out[name] = data
	}
	return out
}

// Measure 实现 layout.Metrics：返回 text 在 size（pt）字号下的宽度（pt）。
func (r *Renderer) Measure(text string, font layout.FontResource, size float64) (float64, error) {
	if text == "" {
		return 0, nil
	}
	face, err := r.fontFace(font, size, color.Black)
	if err != nil {
		return 0, err
	}
	return face.TextWidth(text) * layout.MmToPt, nil
}

// Render 把排版结果输出为 PDF 字节。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	first := result.Pages[0]
	writer := pdf.New(&buf, toMm(first.Width), toMm(first.Height), nil)
	applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(toMm(page.Width), toMm(page.Height))
		}
		c := canvas.New(toMm(page.Width), toMm(page.Height))
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianI) // 与排版坐标一致：左下角为原点，Y 轴向上

		if err := r.drawPage(ctx, page, result.Fonts); err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", page.Number, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	logging.Logger().Debug("PDF 渲染完成", "pages", len(result.Pages), "bytes", buf.Len())
	return buf.Bytes(), nil
}

func applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawPage 按图元顺序绘制，水印在页面收尾时写入，因此位于最上层。
func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, known map[string]layout.FontResource) error {
	for _, op := range page.Ops {
		var err error
		switch {
		case op.Text != nil:
			err = r.drawText(ctx, *op.Text, resolveFontResource(op.Text.Font, known))
		case op.Image != nil:
			err = r.drawImage(ctx, *op.Image)
		case op.Line != nil:
			drawLine(ctx, *op.Line)
		case op.Rect != nil:
			drawRect(ctx, *op.Rect)
		case op.Watermark != nil:
			err = r.drawWatermark(ctx, *op.Watermark, resolveFontResource(op.Watermark.Font, known))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// drawText 以行框顶部减去字体上升高度作为基线。
func (r *Renderer) drawText(ctx *canvas.Context, op layout.TextOp, font layout.FontResource) error {
	if op.Content == "" {
		return nil
	}
	face, err := r.fontFace(font, op.FontSize, colorFromLayout(op.Color))
	if err != nil {
		return err
	}
	line := canvas.NewTextLine(face, op.Content, canvas.Left)
	baseline := toMm(op.Y+op.FontSize) - face.Metrics().Ascent
	ctx.DrawText(toMm(op.X), baseline, line)
	return nil
}

func (r *Renderer) drawWatermark(ctx *canvas.Context, op layout.WatermarkOp, font layout.FontResource) error {
	face, err := r.fontFace(font, op.FontSize, withAlpha(op.Color, op.Opacity))
	if err != nil {
		return err
	}
	line := canvas.NewTextLine(face, op.Content, canvas.Left)

	ctx.Push()
	ctx.ComposeView(canvas.Identity.Translate(toMm(op.X), toMm(op.Y)).Rotate(op.Angle))
	ctx.DrawText(0, 0, line)
	ctx.Pop()
	return nil
}

func (r *Renderer) drawImage(ctx *canvas.Context, op layout.ImageOp) error {
	img := op.Image
	if img == nil {
		if op.Path == "" {
			return nil
		}
		decoded, err := r.decodeImage(op.Path)
		if err != nil {
			return err
		}
		img = decoded
	}
	if op.Opacity > 0 && op.Opacity < 1 {
		img = fade(img, op.Opacity)
	}
	width := toMm(op.Width)
	dpmm := 1.0
	if width > 0 && img.Bounds().Dx() > 0 {
		dpmm = float64(img.Bounds().Dx()) / width
	}
	ctx.DrawImage(toMm(op.X), toMm(op.Y), img, canvas.DPMM(dpmm))
	return nil
}

func (r *Renderer) decodeImage(src string) (image.Image, error) {
	var data []byte
	switch {
	case strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:"):
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		blob, ok := r.imageBlobs[name]
		if !ok {
			return nil, fmt.Errorf("找不到内置图片资源 built-in:%s", name)
		}
		data = blob
	default:
		path := src
		if !filepath.IsAbs(path) && r.baseDir != "" {
			path = filepath.Join(r.baseDir, path)
		}
		blob, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取图片 %s 失败: %w", src, err)
		}
		data = blob
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", layout.ErrImageDecode, src, err)
	}
	return img, nil
}

// fade 把位图整体乘以 opacity。
func fade(img image.Image, opacity float64) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	xdraw.DrawMask(dst, dst.Bounds(), img, b.Min, mask, image.Point{}, xdraw.Over)
	return dst
}

func drawLine(ctx *canvas.Context, ln layout.LineOp) {
	w := ln.Width
	if w <= 0 {
		w = 0.5
	}
	ctx.SetFillColor(color.RGBA{})
	ctx.SetStrokeColor(colorFromLayout(ln.Color))
	ctx.SetStrokeWidth(toMm(w))
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(toMm(ln.X2-ln.X1), toMm(ln.Y2-ln.Y1))
	ctx.DrawPath(toMm(ln.X1), toMm(ln.Y1), p)
}

func drawRect(ctx *canvas.Context, rc layout.RectOp) {
	if rc.Fill != nil {
		ctx.SetFillColor(colorFromLayout(*rc.Fill))
	} else {
		ctx.SetFillColor(color.RGBA{})
	}
	if rc.Stroke != nil && rc.StrokeWidth > 0 {
		ctx.SetStrokeColor(colorFromLayout(*rc.Stroke))
		ctx.SetStrokeWidth(toMm(rc.StrokeWidth))
	} else {
		ctx.SetStrokeColor(color.RGBA{})
		ctx.SetStrokeWidth(0)
	}
	ctx.DrawPath(toMm(rc.X), toMm(rc.Y), canvas.Rectangle(toMm(rc.Width), toMm(rc.Height)))
}

// fontFace 返回 size（pt）字号的字体面。
func (r *Renderer) fontFace(font layout.FontResource, size float64, col color.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(size, col, style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := firstNonEmpty(font.Family, font.Name, layout.DefaultFontName)
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbStyle, fbErr := r.fallback(font)
		if fbErr != nil {
			return nil, canvas.FontRegular, fmt.Errorf("%w: %s: %v", layout.ErrMissingMetrics, font.Name, err)
		}
		logging.Logger().Warn("字体加载失败，使用后备字体", "font", font.Name, "src", font.Src, "err", err)
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font.Name, font.Src)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (r *Renderer) loadFontBytes(name, src string) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", name)
	}
	switch {
	case strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:"):
		key := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[key]; ok {
			return blob, nil
		}
		return nil, fmt.Errorf("找不到内置字体资源 built-in:%s", key)
	case strings.HasPrefix(src, "embed:"):
		return fonts.Load(src)
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 built-in: 或 embed:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

// fallback 优先加载字体声明的 fallback，其次使用内置默认字体。
func (r *Renderer) fallback(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	if font.Fallback != "" {
		if data, err := r.loadFontBytes(font.Name, font.Fallback); err == nil {
			family := canvas.NewFontFamily(font.Name + "-fallback")
			if err := family.LoadFont(data, 0, canvas.FontRegular); err == nil {
				return family, canvas.FontRegular, nil
			}
		}
	}
	if r.fallbackFamily != nil {
		return r.fallbackFamily, canvas.FontRegular, nil
	}
	data, err := fonts.Load(fonts.Default)
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily("folio-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

func resolveFontResource(name string, known map[string]layout.FontResource) layout.FontResource {
	if font, ok := known[name]; ok {
		return font
	}
	reg := layout.NewFontRegistry()
	for _, font := range known {
		reg.Register(font)
	}
	// 与排版阶段相同的回退顺序：Body，然后按名称排序的第一个字体。
	if font, err := reg.Resolve(name); err == nil {
		return font
	}
	return layout.FontResource{Name: layout.DefaultFontName, Src: "embed:" + fonts.Default}
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	var result canvas.FontStyle
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	default:
		result = canvas.FontRegular
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

func withAlpha(c layout.Color, opacity float64) color.Color {
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, opacity)
}

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
