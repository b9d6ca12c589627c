package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

func TestParseLength(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"72pt", 72},
		{"1in", 72},
		{"25.4mm", 72},
		{"2.54cm", 72},
		{"12", 12},
		{" 10PT ", 10},
	}
	for _, tc := range cases {
		l, ok := ParseLength(tc.in)
		if !ok {
			t.Fatalf("%q 解析失败", tc.in)
		}
		if got := l.ToPT(); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("%q 转 pt 期望 %g，实际 %g", tc.in, tc.want, got)
		}
	}
	if _, ok := ParseLength("portrait"); ok {
		t.Fatalf("非数字不应被解析为长度")
	}
}

func TestParseDimensionPercent(t *testing.T) {
	if got := parseDimension("50%", 495); got != 247.5 {
		t.Fatalf("50%% of 495 期望 247.5，实际 %g", got)
	}
	if got := parseDimension("bad%", 495); got != 0 {
		t.Fatalf("无效百分比应返回 0，实际 %g", got)
	}
}

// TestLineHeightSpacing 验证倍数与绝对行高都能换算成行距倍数。
func TestLineHeightSpacing(t *testing.T) {
	factor, ok := ParseLineHeight("1.5x")
	if !ok || factor.Kind != LineHeightFactor {
		t.Fatalf("1.5x 应解析为倍数，实际 %#v", factor)
	}
	if got := factor.Spacing(12); got != 1.5 {
		t.Fatalf("1.5x 行距期望 1.5，实际 %g", got)
	}
	abs, ok := ParseLineHeight("18pt")
	if !ok || abs.Kind != LineHeightAbsolute {
		t.Fatalf("18pt 应解析为绝对行高，实际 %#v", abs)
	}
	if got := abs.Spacing(12); math.Abs(got-1.5) > 1e-9 {
		t.Fatalf("18pt/12pt 行距期望 1.5，实际 %g", got)
	}
	bare, ok := ParseLineHeight("1.2")
	if !ok || bare.Kind != LineHeightFactor || bare.Factor != 1.2 {
		t.Fatalf("无单位数字应按倍数处理，实际 %#v", bare)
	}
	if _, ok := ParseLineHeight("-1x"); ok {
		t.Fatalf("负行高应被拒绝")
	}
}
