package layout

import (
	"fmt"
	"log/slog"

	"github.com/ByLCY/folio/logging"
)

// 默认排版参数（pt）。
const (
	defaultFontSize    = 12.0
	defaultLineSpacing = 1.2
	defaultImageDPI    = 144.0
	defaultMaxPages    = 10000
)

// Geometry 描述页面尺寸与页边距。
type Geometry struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
}

// ContentWidth 返回左右边距之间的宽度。
func (g Geometry) ContentWidth() float64 { return g.Width - g.Margin.Horizontal() }

// Config 是一次排版使用的不可变配置快照，只能通过 ConfigBuilder 构造。
type Config struct {
	Geometry     Geometry
	Metrics      Metrics
	Fonts        *FontRegistry
	DefaultFont  string
	FontSize     float64
	LineSpacing  float64
	ImageAutoFit bool
	ImageDPI     float64
	Resample     Resample
	BaseDir      string
	MaxPages     int
	Logger       *slog.Logger
}

// font 解析组件声明的字体名，空名使用默认字体。
func (c Config) font(name string) (FontResource, error) {
	if name == "" {
		name = c.DefaultFont
	}
	return c.Fonts.Resolve(name)
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logging.Logger()
}

// ConfigBuilder 逐项收集配置，Build 时统一校验。
type ConfigBuilder struct {
	cfg Config
}

// NewConfigBuilder 返回带默认值的构建器：A4、四边 50pt、12pt、1.2 倍行距。
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{cfg: Config{
		Geometry: Geometry{
			Width:  PageA4.Width,
			Height: PageA4.Height,
			Margin: Margin{Top: 50, Right: 50, Bottom: 50, Left: 50},
		},
		DefaultFont:  DefaultFontName,
		FontSize:     defaultFontSize,
		LineSpacing:  defaultLineSpacing,
		ImageAutoFit: true,
		ImageDPI:     defaultImageDPI,
		Resample:     ResampleBilinear,
		MaxPages:     defaultMaxPages,
	}}
}

func (b *ConfigBuilder) PageSize(width, height float64) *ConfigBuilder {
	b.cfg.Geometry.Width = width
	b.cfg.Geometry.Height = height
	return b
}

func (b *ConfigBuilder) Margins(m Margin) *ConfigBuilder {
	b.cfg.Geometry.Margin = m
	return b
}

func (b *ConfigBuilder) Metrics(m Metrics) *ConfigBuilder {
	b.cfg.Metrics = m
	return b
}

func (b *ConfigBuilder) Fonts(r *FontRegistry) *ConfigBuilder {
	b.cfg.Fonts = r
	return b
}

func (b *ConfigBuilder) DefaultFont(name string) *ConfigBuilder {
	b.cfg.DefaultFont = name
	return b
}

func (b *ConfigBuilder) FontSize(size float64) *ConfigBuilder {
	b.cfg.FontSize = size
	return b
}

func (b *ConfigBuilder) LineSpacing(factor float64) *ConfigBuilder {
	b.cfg.LineSpacing = factor
	return b
}

func (b *ConfigBuilder) ImageAutoFit(on bool) *ConfigBuilder {
	b.cfg.ImageAutoFit = on
	return b
}

func (b *ConfigBuilder) ImageDPI(dpi float64) *ConfigBuilder {
	b.cfg.ImageDPI = dpi
	return b
}

func (b *ConfigBuilder) Resample(r Resample) *ConfigBuilder {
	b.cfg.Resample = r
	return b
}

func (b *ConfigBuilder) BaseDir(dir string) *ConfigBuilder {
	b.cfg.BaseDir = dir
	return b
}

// MaxPages 限制单次排版生成的页数，0 表示使用默认上限。
func (b *ConfigBuilder) MaxPages(n int) *ConfigBuilder {
	b.cfg.MaxPages = n
	return b
}

func (b *ConfigBuilder) Logger(l *slog.Logger) *ConfigBuilder {
	b.cfg.Logger = l
	return b
}

// Build 校验并返回配置快照。缺少几何尺寸或度量后端属于配置错误。
func (b *ConfigBuilder) Build() (Config, error) {
	cfg := b.cfg
	g := cfg.Geometry
	if g.Width <= 0 || g.Height <= 0 {
		return Config{}, fmt.Errorf("%w: 页面尺寸 %gx%g", ErrInvalidGeometry, g.Width, g.Height)
	}
	m := g.Margin
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return Config{}, fmt.Errorf("%w: 页边距不能为负 %+v", ErrInvalidGeometry, m)
	}
	if m.Horizontal() >= g.Width || m.Vertical() >= g.Height {
		return Config{}, fmt.Errorf("%w: 页边距 %+v 超出页面 %gx%g", ErrInvalidGeometry, m, g.Width, g.Height)
	}
	if cfg.Metrics == nil {
		return Config{}, ErrMissingMetrics
	}
	if cfg.FontSize <= 0 {
		return Config{}, fmt.Errorf("%w: 字号 %g", ErrInvalidGeometry, cfg.FontSize)
	}
	if cfg.LineSpacing <= 0 {
		cfg.LineSpacing = defaultLineSpacing
	}
	if cfg.ImageDPI <= 0 {
		cfg.ImageDPI = defaultImageDPI
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.DefaultFont == "" {
		cfg.DefaultFont = DefaultFontName
	}
	if cfg.Fonts == nil {
		cfg.Fonts = NewFontRegistry(FontResource{Name: DefaultFontName, Src: "embed:lmroman10regular"})
	}
	return cfg, nil
}

// PageSize 是常见纸张尺寸（pt）。
type PageSize struct {
	Width  float64
	Height float64
}

var (
	PageA3     = PageSize{Width: 842, Height: 1191}
	PageA4     = PageSize{Width: 595, Height: 842}
	PageA5     = PageSize{Width: 420, Height: 595}
	PageLetter = PageSize{Width: 612, Height: 792}
	PageLegal  = PageSize{Width: 612, Height: 1008}
)

// Landscape 返回横向尺寸。
func (p PageSize) Landscape() PageSize {
	if p.Width < p.Height {
		return PageSize{Width: p.Height, Height: p.Width}
	}
	return p
}
