package xmetrics

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// String 创建字符串属性。
func String(key, value string) Attr { return Attr{Key: key, Value: value} }

// Bool 创建布尔属性。
func Bool(key string, value bool) Attr { return Attr{Key: key, Value: value} }

// Int 创建整数属性。
func Int(key string, value int) Attr { return Attr{Key: key, Value: value} }

// Duration 创建时间间隔属性，导出为毫秒浮点数。
func Duration(key string, value time.Duration) Attr { return Attr{Key: key, Value: value} }

func attrsToOTel(attrs []Attr) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "" {
			continue
		}
		out = append(out, attrToOTel(a))
	}
	return out
}

func attrToOTel(a Attr) attribute.KeyValue {
	switch v := a.Value.(type) {
	case string:
		return attribute.String(a.Key, v)
	case bool:
		return attribute.Bool(a.Key, v)
	case int:
		return attribute.Int(a.Key, v)
	case int64:
		return attribute.Int64(a.Key, v)
	case float64:
		return attribute.Float64(a.Key, v)
	case time.Duration:
		return attribute.Float64(a.Key, float64(v)/float64(time.Millisecond))
	case fmt.Stringer:
		return attribute.String(a.Key, v.String())
	case nil:
		return attribute.String(a.Key, "")
	default:
		return attribute.String(a.Key, fmt.Sprint(v))
	}
}
