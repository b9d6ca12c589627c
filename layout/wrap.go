package layout

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// WrapMode 控制折行策略。
type WrapMode int

const (
	// WrapWord 在空白处折行，超宽的单词独占一行，不截断也不丢弃。
	WrapWord WrapMode = iota
	// WrapAnywhere 在空白处折行，超宽的单词按字符拆开。
	WrapAnywhere
	// WrapNone 只按显式换行拆分。
	WrapNone
)

// ParseWrap 解析折行关键字，未知值返回 WrapWord。
func ParseWrap(v string) WrapMode {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "anywhere", "break-word", "overflow-wrap:anywhere":
		return WrapAnywhere
	case "nowrap", "no-wrap", "none":
		return WrapNone
	default:
		return WrapWord
	}
}

func (w WrapMode) String() string {
	switch w {
	case WrapAnywhere:
		return "anywhere"
	case WrapNone:
		return "nowrap"
	default:
		return "word"
	}
}

// TextLine 是折行后的一行文本及其测量宽度。
type TextLine struct {
	Content string  `json:"content"`
	Width   float64 `json:"width"`
}

// Wrap 用贪心算法把文本折成宽度不超过 width 的行。
// 显式换行总会开始新行，空行被保留；空输入返回零行。
// width <= 0 时不按宽度折行。
func Wrap(m Metrics, text string, font FontResource, size, width float64, mode WrapMode) ([]TextLine, error) {
	if m == nil {
		return nil, ErrMissingMetrics
	}
	text = norm.NFC.String(strings.ReplaceAll(text, "\r", ""))
	if text == "" {
		return nil, nil
	}
	w := &wrapper{m: m, font: font, size: size, limit: width, mode: mode}
	if width <= 0 {
		w.mode = WrapNone
	}
	for _, para := range strings.Split(text, "\n") {
		if err := w.paragraph(para); err != nil {
			return nil, err
		}
	}
	return w.lines, nil
}

type wrapper struct {
	m     Metrics
	font  FontResource
	size  float64
	limit float64
	mode  WrapMode
	lines []TextLine

	current string
	width   float64
}

func (w *wrapper) measure(s string) (float64, error) {
	return w.m.Measure(s, w.font, w.size)
}

func (w *wrapper) flush() {
	w.lines = append(w.lines, TextLine{Content: w.current, Width: w.width})
	w.current = ""
	w.width = 0
}

func (w *wrapper) paragraph(para string) error {
	words := strings.Fields(para)
	if len(words) == 0 {
		w.flush()
		return nil
	}
	if w.mode == WrapNone {
		w.current = strings.Join(words, " ")
		width, err := w.measure(w.current)
		if err != nil {
			return err
		}
		w.width = width
		w.flush()
		return nil
	}
	for _, word := range words {
		if w.mode == WrapAnywhere {
			ww, err := w.measure(word)
			if err != nil {
				return err
			}
			if ww > w.limit {
				chunks, err := w.splitWord(word)
				if err != nil {
					return err
				}
				for _, chunk := range chunks {
					if err := w.add(chunk); err != nil {
						return err
					}
				}
				continue
			}
		}
		if err := w.add(word); err != nil {
			return err
		}
	}
	w.flush()
	return nil
}

// add 把一个词追加到当前行，放不下时先结束当前行。
func (w *wrapper) add(word string) error {
	if w.current == "" {
		width, err := w.measure(word)
		if err != nil {
			return err
		}
		w.current, w.width = word, width
		return nil
	}
	candidate := w.current + " " + word
	cw, err := w.measure(candidate)
	if err != nil {
		return err
	}
	if cw <= w.limit {
		w.current, w.width = candidate, cw
		return nil
	}
	w.flush()
	width, err := w.measure(word)
	if err != nil {
		return err
	}
	w.current, w.width = word, width
	return nil
}

// splitWord 按字符把超宽单词拆成不超过限制的片段，单个字符总会保留。
func (w *wrapper) splitWord(word string) ([]string, error) {
	var parts []string
	var builder strings.Builder
	for _, r := range word {
		prev := builder.String()
		builder.WriteRune(r)
		width, err := w.measure(builder.String())
		if err != nil {
			return nil, err
		}
		if width > w.limit && prev != "" {
			parts = append(parts, prev)
			builder.Reset()
			builder.WriteRune(r)
		}
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts, nil
}

// BlockHeight 返回 n 行文本的高度：最后一行之后不再追加行间距。
func BlockHeight(n int, size, spacing float64) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n-1)*size*spacing + size
}
