package layout

import (
	"errors"
	"fmt"
)

// 配置类错误立即返回，不做重试；资源类错误只影响当前绘制调用。
var (
	ErrInvalidGeometry = errors.New("layout: 几何尺寸无效")
	ErrCellCount       = errors.New("layout: 表格行的单元格数量与首行不一致")
	ErrImageDecode     = errors.New("layout: 图片无法解码")
	ErrMissingMetrics  = errors.New("layout: 缺少字体度量后端 Metrics")
	ErrUnknownFont     = errors.New("layout: 字体未定义")
	ErrTooManyPages    = errors.New("layout: 页数超过上限")
)

// errorf 用 sentinel 包装带上下文的错误信息。
func errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
