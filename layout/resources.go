package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/folio/dsl"
)

// ImageResource 是 resources 段中声明的具名图片。
type ImageResource struct {
	Name   string  `json:"name"`
	Src    string  `json:"src"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Style 是一组可继承的属性。
type Style struct {
	Name    string            `json:"name"`
	Extends string            `json:"extends"`
	Props   map[string]string `json:"props"`
}

// ResourceSet 汇总文档声明的字体、颜色、图片与样式。
type ResourceSet struct {
	Fonts  map[string]FontResource  `json:"fonts"`
	Colors map[string]Color         `json:"colors"`
	Images map[string]ImageResource `json:"images"`
	Styles map[string]Style         `json:"styles"`
}

// defaultBodyFont 在文档没有声明任何字体时使用。
var defaultBodyFont = FontResource{
	Name:   DefaultFontName,
	Src:    "embed:lmroman10regular",
	Family: DefaultFontName,
}

func collectResources(doc *dsl.Document) (ResourceSet, error) {
	res := ResourceSet{
		Fonts:  map[string]FontResource{},
		Colors: map[string]Color{},
		Images: map[string]ImageResource{},
		Styles: map[string]Style{},
	}
	rawStyles := map[string]Style{}

	for _, section := range doc.Sections {
		if section.Resources == nil {
			continue
		}
		for _, decl := range section.Resources.Decls {
			switch decl.Kind {
			case "font":
				font := parseFontResource(decl)
				res.Fonts[font.Name] = font
			case "color":
				value := valueToString(decl.Value)
				if value == "" {
					return res, fmt.Errorf("color %s 缺少取值", decl.Name)
				}
				c, err := parseColor(value)
				if err != nil {
					return res, fmt.Errorf("color %s: %w", decl.Name, err)
				}
				res.Colors[decl.Name] = c
			case "image":
				image := parseImageResource(decl)
				res.Images[image.Name] = image
			case "style":
				style := parseStyleResource(decl)
				rawStyles[style.Name] = style
			}
		}
	}

	if len(res.Fonts) == 0 {
		res.Fonts[DefaultFontName] = defaultBodyFont
	}

	resolved, err := resolveStyles(rawStyles)
	if err != nil {
		return res, err
	}
	res.Styles = resolved
	return res, nil
}

// registry 把文档字体转换为调用方持有的字体注册表。
func (r ResourceSet) registry() *FontRegistry {
	reg := NewFontRegistry()
	for _, font := range r.Fonts {
		reg.Register(font)
	}
	return reg
}

func collectMeta(doc *dsl.Document) DocumentMeta {
	meta := DocumentMeta{Creator: "folio"}
	for _, section := range doc.Sections {
		if section.Meta == nil {
			continue
		}
		for _, entry := range section.Meta.Entries {
			switch strings.ToLower(entry.Key) {
			case "title":
				meta.Title = valueToString(entry.Value)
			case "author":
				meta.Author = valueToString(entry.Value)
			case "subject":
				meta.Subject = valueToString(entry.Value)
			case "creator":
				meta.Creator = valueToString(entry.Value)
			case "keywords":
				meta.Keywords = valueToStringSlice(entry.Value)
			}
		}
	}
	return meta
}

// applySettings 把 settings 段中的排版默认值写入构建器。
func applySettings(doc *dsl.Document, b *ConfigBuilder) error {
	for _, section := range doc.Sections {
		if section.Settings == nil {
			continue
		}
		for _, entry := range section.Settings.Entries {
			if err := applySetting(b, entry); err != nil {
				return fmt.Errorf("%s: %w", entry.Pos, err)
			}
		}
	}
	return nil
}

func applySetting(b *ConfigBuilder, entry *dsl.Setting) error {
	key, val := entry.Key, valueToString(entry.Value)
	switch key {
	case "font":
		b.DefaultFont(val)
	case "font-size", "size":
		size := parseLength(val)
		if size <= 0 {
			return fmt.Errorf("%w: settings.%s = %q", ErrInvalidGeometry, key, val)
		}
		b.FontSize(size)
	case "line-height", "line-spacing":
		spec, ok := ParseLineHeight(val)
		if !ok {
			return fmt.Errorf("%w: settings.%s = %q", ErrInvalidGeometry, key, val)
		}
		b.LineSpacing(spec.Spacing(b.cfg.FontSize))
	case "image-fit", "image-autofit":
		on, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("settings.%s: %w", key, err)
		}
		b.ImageAutoFit(on)
	case "image-dpi", "dpi":
		dpi, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("settings.%s: %w", key, err)
		}
		b.ImageDPI(dpi)
	case "resample":
		b.Resample(ParseResample(val))
	case "max-pages":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("settings.%s: %w", key, err)
		}
		b.MaxPages(n)
	}
	return nil
}

func parseFontResource(decl *dsl.Resource) FontResource {
	font := FontResource{Name: decl.Name, Family: decl.Name}
	if decl.Props == nil {
		return font
	}
	for _, entry := range decl.Props.Entries {
		val := valueToString(entry.Value)
		switch entry.Key {
		case "src":
			font.Src = val
		case "style":
			font.Style = val
		case "family":
			font.Family = val
		case "fallback":
			font.Fallback = val
		}
	}
	return font
}

func parseImageResource(decl *dsl.Resource) ImageResource {
	image := ImageResource{Name: decl.Name}
	if v, ok := decl.Props.Lookup("src"); ok {
		image.Src = valueToString(v)
	}
	if v, ok := decl.Props.Lookup("width"); ok {
		image.Width = parseLength(valueToString(v))
	}
	if v, ok := decl.Props.Lookup("height"); ok {
		image.Height = parseLength(valueToString(v))
	}
	return image
}

func parseStyleResource(decl *dsl.Resource) Style {
	style := Style{Name: decl.Name, Extends: decl.Extends, Props: map[string]string{}}
	if decl.Props == nil {
		return style
	}
	for _, entry := range decl.Props.Entries {
		if val := valueToString(entry.Value); val != "" {
			style.Props[entry.Key] = val
		}
	}
	return style
}

// resolveStyles 展开 extends 继承链，检测未定义与循环继承。
func resolveStyles(styles map[string]Style) (map[string]Style, error) {
	resolved := map[string]Style{}
	visiting := map[string]bool{}

	var dfs func(name string) (Style, error)
	dfs = func(name string) (Style, error) {
		if style, ok := resolved[name]; ok {
			return style, nil
		}
		style, ok := styles[name]
		if !ok {
			return Style{}, fmt.Errorf("style %s 未定义", name)
		}
		if visiting[name] {
			return Style{}, fmt.Errorf("style 继承存在循环：%s", name)
		}
		visiting[name] = true

		props := map[string]string{}
		if style.Extends != "" {
			parent, err := dfs(style.Extends)
			if err != nil {
				return Style{}, err
			}
			for k, v := range parent.Props {
				props[k] = v
			}
		}
		for k, v := range style.Props {
			props[k] = v
		}
		style.Props = props
		resolved[name] = style
		delete(visiting, name)
		return style, nil
	}

	for name := range styles {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// resolveColor 先查具名颜色，再按十六进制解析。
func (r ResourceSet) resolveColor(value string) (Color, error) {
	if c, ok := r.Colors[value]; ok {
		return c, nil
	}
	return parseColor(value)
}

func parseColor(value string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6, 8:
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	v, err := strconv.ParseUint(hex[:6], 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Expr != nil:
		return val.Expr.String()
	default:
		return ""
	}
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array != nil {
		out := make([]string, 0, len(val.Array.Values))
		for _, item := range val.Array.Values {
			if s := valueToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := valueToString(val); s != "" {
		return []string{s}
	}
	return nil
}
