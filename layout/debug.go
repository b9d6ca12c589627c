package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// debugSummary 附在调试 JSON 顶部，便于快速核对分页结果。
type debugSummary struct {
	PageCount int              `json:"pageCount"`
	OpCounts  []map[string]int `json:"opCounts"`
}

type debugDocument struct {
	Summary debugSummary `json:"summary"`
	*Result
}

// WriteDebugJSON 将布局结果连同每页按图层统计的图元数量写为 JSON，必要时创建目录。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	doc := debugDocument{Summary: debugSummary{PageCount: len(res.Pages)}, Result: res}
	for _, page := range res.Pages {
		counts := map[string]int{}
		for _, op := range page.Ops {
			counts[op.Layer.String()]++
		}
		doc.Summary.OpCounts = append(doc.Summary.OpCounts, counts)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
