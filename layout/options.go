package layout

import "log/slog"

// Metrics 是字体度量后端：返回给定字体与字号下字符串的宽度（pt）。
// 同样的输入必须得到同样的结果，否则折行不再幂等。
type Metrics interface {
	Measure(text string, font FontResource, size float64) (float64, error)
}

// MetricsFunc 让普通函数满足 Metrics。
type MetricsFunc func(text string, font FontResource, size float64) (float64, error)

// Measure 实现 Metrics。
func (f MetricsFunc) Measure(text string, font FontResource, size float64) (float64, error) {
	return f(text, font, size)
}

// BuildOptions 配置 DSL 构建阶段所需的依赖，例如度量后端。
type BuildOptions struct {
	Metrics Metrics
	// BaseDir 用于解析相对路径的图片资源。
	BaseDir string
	Logger  *slog.Logger
	// MaxPages 为 0 时使用默认上限。
	MaxPages int
}
