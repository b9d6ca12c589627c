// Package binding 把文本中的 ${path} 占位符替换为数据中的值。
package binding

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Interpolate 将 text 中的 ${path.to.value} 依次在 scopes 中查找并替换。
// 路径支持 a.b、a[0] 与 a.b[1][2]；在任何 scope 中都找不到时保留原占位符，
// 以便后续阶段（例如页眉页脚中的页码）再次插值。
func Interpolate(text string, scopes ...any) string {
	if len(scopes) == 0 || !strings.Contains(text, "${") {
		return text
	}
	var out strings.Builder
	rest := text
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			out.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			out.WriteString(rest)
			break
		}
		end += start
		out.WriteString(rest[:start])
		placeholder := rest[start : end+1]
		path := strings.TrimSpace(rest[start+2 : end])
		if val, ok := lookupScopes(scopes, path); ok {
			out.WriteString(Format(val))
		} else {
			out.WriteString(placeholder)
		}
		rest = rest[end+1:]
	}
	return out.String()
}

func lookupScopes(scopes []any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	for _, scope := range scopes {
		if scope == nil {
			continue
		}
		if val, ok := Lookup(scope, path); ok {
			return val, true
		}
	}
	return nil, false
}

// Lookup 按路径在 data 中取值，支持以字符串为键的任意 map 与任意切片。
func Lookup(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes, ok := parseSegment(segment)
		if !ok {
			return nil, false
		}
		if name != "" {
			if current, ok = descendMap(current, name); !ok {
				return nil, false
			}
		}
		for _, idx := range indexes {
			if current, ok = descendSlice(current, idx); !ok {
				return nil, false
			}
		}
	}
	return current, true
}

// Format 把取到的值转为文本；浮点数不使用科学计数法。
func Format(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// parseSegment 把 "items[0][1]" 拆为名称与下标。
func parseSegment(segment string) (string, []int, bool) {
	i := strings.IndexByte(segment, '[')
	if i < 0 {
		return segment, nil, segment != ""
	}
	name, rest := segment[:i], segment[i:]
	var indexes []int
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, false
		}
		idx, err := strconv.Atoi(strings.TrimSpace(rest[1:end]))
		if err != nil {
			return "", nil, false
		}
		indexes = append(indexes, idx)
		rest = rest[end+1:]
	}
	return name, indexes, true
}

func descendMap(current any, key string) (any, bool) {
	if m, ok := current.(map[string]any); ok {
		val, ok := m[key]
		return val, ok
	}
	rv := reflect.ValueOf(current)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	val := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
	if !val.IsValid() {
		return nil, false
	}
	return val.Interface(), true
}

func descendSlice(current any, idx int) (any, bool) {
	if s, ok := current.([]any); ok {
		if idx < 0 || idx >= len(s) {
			return nil, false
		}
		return s[idx], true
	}
	rv := reflect.ValueOf(current)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if idx < 0 || idx >= rv.Len() {
		return nil, false
	}
	return rv.Index(idx).Interface(), true
}
