package service

import (
	"sort"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
	"github.com/yuqie6/LifeRPG/internal/schema"
)

// NormalizeActivityName 防刷计数用的名称键：去首尾空白 + 小写。展示仍用原始名称
func NormalizeActivityName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// normalizeTrackKey 统一赛道 Key 格式（稳定 slug 策略）
func normalizeTrackKey(name string) string {
	if name == "" {
		return ""
	}
	key := strings.ToLower(strings.TrimSpace(name))

	// 空白与下划线转连字符
	key = strings.NewReplacer(" ", "-", "_", "-", "\t", "-").Replace(key)

	// 移除其他特殊字符（保留字母、数字、连字符）
	var result strings.Builder
	for _, r := range key {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			result.WriteRune(r)
		}
	}
	return strings.Trim(result.String(), "-")
}

// KnownActivities 已出现过的行为名：快捷行为、近期记录、标签，按归一化键去重，保持首次出现的写法
func KnownActivities(st *schema.State) []string {
	if st == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		key := NormalizeActivityName(name)
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(name))
	}
	for _, qa := range st.QuickActions {
		add(qa.Name)
	}
	for _, e := range st.Entries {
		if e.Origin == schema.OriginManual {
			add(e.Name)
		}
	}
	tags := make([]string, 0, len(st.ActivityTags))
	for k := range st.ActivityTags {
		tags = append(tags, k)
	}
	sort.Strings(tags)
	for _, k := range tags {
		add(k)
	}
	return out
}

// SuggestActivities 按模糊匹配得分返回最接近 query 的已知行为名
func SuggestActivities(st *schema.State, query string, limit int) []string {
	q := NormalizeActivityName(query)
	names := KnownActivities(st)
	if q == "" || len(names) == 0 || limit <= 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = NormalizeActivityName(n)
	}
	matches := fuzzy.Find(q, keys)
	out := make([]string, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, names[m.Index])
	}
	return out
}
