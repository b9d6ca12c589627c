package layout

import (
	"fmt"
	"sort"
)

// DefaultFontName 是未指定字体时使用的名称。
const DefaultFontName = "Body"

// FontRegistry 是调用方持有的字体表，通过 Config 显式传递，不存在进程级共享状态。
type FontRegistry struct {
	fonts map[string]FontResource
}

// NewFontRegistry 用给定字体创建注册表。
func NewFontRegistry(fonts ...FontResource) *FontRegistry {
	r := &FontRegistry{fonts: map[string]FontResource{}}
	for _, f := range fonts {
		r.Register(f)
	}
	return r
}

// Register 注册或覆盖一个字体，名称为空的字体会被忽略。
func (r *FontRegistry) Register(font FontResource) {
	if font.Name == "" {
		return
	}
	if font.Family == "" {
		font.Family = font.Name
	}
	r.fonts[font.Name] = font
}

// Resolve 按名称查找字体，找不到时回退到 Body，再回退到任意一个已注册字体。
func (r *FontRegistry) Resolve(name string) (FontResource, error) {
	if r == nil {
		return FontResource{}, fmt.Errorf("%w: %s", ErrUnknownFont, name)
	}
	if font, ok := r.fonts[name]; ok {
		return font, nil
	}
	if font, ok := r.fonts[DefaultFontName]; ok {
		return font, nil
	}
	names := r.Names()
	if len(names) > 0 {
		return r.fonts[names[0]], nil
	}
	return FontResource{}, fmt.Errorf("%w: %s，且没有可用的默认字体", ErrUnknownFont, name)
}

// Names 返回排序后的字体名，保证回退结果稳定。
func (r *FontRegistry) Names() []string {
	names := make([]string, 0, len(r.fonts))
	for name := range r.fonts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All 返回字体表的副本。
func (r *FontRegistry) All() map[string]FontResource {
	out := make(map[string]FontResource, len(r.fonts))
	for k, v := range r.fonts {
		out[k] = v
	}
	return out
}
