package schema

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// rawObject 宽松解析的 JSON 对象：字段类型不对时返回默认值，不报错
type rawObject map[string]json.RawMessage

func decodeObject(raw []byte) rawObject {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var obj rawObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

func (o rawObject) has(key string) bool {
	if o == nil {
		return false
	}
	v, ok := o[key]
	return ok && len(v) > 0 && string(v) != "null"
}

func (o rawObject) String(key string) string {
	if !o.has(key) {
		return ""
	}
	var s string
	if err := json.Unmarshal(o[key], &s); err != nil {
		return ""
	}
	return s
}

// Float 数字或数字字符串；非有限值返回 0
func (o rawObject) Float(key string) float64 {
	if !o.has(key) {
		return 0
	}
	raw := o[key]
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Int 超出 ±MaxPoints 的值截断，避免 float 转 int 溢出
func (o rawObject) Int(key string) int {
	f := math.Round(o.Float(key))
	return int(math.Max(-MaxPoints, math.Min(f, MaxPoints)))
}

func (o rawObject) Int64(key string) int64 {
	const limit = 1 << 62
	f := math.Round(o.Float(key))
	return int64(math.Max(-limit, math.Min(f, limit)))
}

func (o rawObject) Bool(key string) bool {
	if !o.has(key) {
		return false
	}
	var b bool
	if err := json.Unmarshal(o[key], &b); err != nil {
		return false
	}
	return b
}

// Array 非数组返回 nil
func (o rawObject) Array(key string) []json.RawMessage {
	if !o.has(key) {
		return nil
	}
	raw := bytes.TrimSpace(o[key])
	if len(raw) == 0 || raw[0] != '[' {
		return nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil
	}
	return arr
}

func (o rawObject) Object(key string) rawObject {
	if !o.has(key) {
		return nil
	}
	return decodeObject(o[key])
}

// Keys 返回对象键（无序）
func (o rawObject) Keys() []string {
	out := make([]string, 0, len(o))
	for k := range o {
		out = append(out, k)
	}
	return out
}
