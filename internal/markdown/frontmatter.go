package markdown

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SplitFrontMatter 把 "---" 包起来的 YAML 头从正文里切出来。
// 内容源的 frontmatter 写法五花八门，这里必须宽容：没有头、
// 头是坏的，都返回空 map 和正文，绝不让一篇文章因此消失。
func SplitFrontMatter(raw []byte) (map[string]any, []byte) {
	empty := map[string]any{}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return empty, nil
	}

	// 统一换行符
	norm := bytes.ReplaceAll(trimmed, []byte("\r\n"), []byte("\n"))
	norm = bytes.ReplaceAll(norm, []byte("\r"), []byte("\n"))

	const sep = "---"

	if !bytes.HasPrefix(norm, []byte(sep+"\n")) {
		return empty, norm
	}
	rest := norm[len(sep)+1:]

	var yamlPart, bodyPart []byte
	if parts := bytes.SplitN(rest, []byte("\n"+sep+"\n"), 2); len(parts) == 2 {
		yamlPart = parts[0]
		bodyPart = parts[1]
	} else if bytes.HasSuffix(rest, []byte("\n"+sep)) {
		// 只有头没有正文
		yamlPart = rest[:len(rest)-len("\n"+sep)]
	} else if bytes.Equal(bytes.TrimSpace(rest), []byte(sep)) {
		// "---\n---"：空头无正文
	} else {
		// 头没闭合，整体当正文
		return empty, norm
	}

	bodyPart = bytes.TrimSpace(bodyPart)

	fm := map[string]any{}
	if len(bytes.TrimSpace(yamlPart)) > 0 {
		if err := yaml.Unmarshal(yamlPart, &fm); err != nil {
			return empty, bodyPart
		}
	}
	return fm, bodyPart
}

// 字段别名表：同一份元数据在不同内容源里键名不统一，
// 按表里的顺序取第一个出现且能解析的。
var (
	tagKeys       = []string{"tags", "tag", "标签", "关键词"}
	wordCountKeys = []string{"wordCount", "字数", "words"}
	readTimeKeys  = []string{"readTime", "readingTime", "阅读时间"}
)

var (
	reTagSep = regexp.MustCompile(`[,，、]`)
	reDigits = regexp.MustCompile(`\d+`)
)

// Tags 解析 frontmatter 里的标签，支持数组和分隔串两种写法。
func Tags(fm map[string]any) []string {
	for _, key := range tagKeys {
		v, ok := fm[key]
		if !ok {
			continue
		}
		if tags := asTags(v); len(tags) > 0 {
			return tags
		}
	}
	return nil
}

func asTags(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s := strings.TrimSpace(asString(item))
			if s == "" {
				continue
			}
			out = append(out, s)
		}
		return out
	case string:
		parts := reTagSep.Split(t, -1)
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
		return out
	}
	return nil
}

// WordCount 取作者标注的字数，没有或解析不出返回 0。
func WordCount(fm map[string]any) int {
	return intField(fm, wordCountKeys)
}

// ReadTime 取作者标注的阅读分钟数，没有或解析不出返回 0。
func ReadTime(fm map[string]any) int {
	return intField(fm, readTimeKeys)
}

func intField(fm map[string]any, keys []string) int {
	for _, key := range keys {
		v, ok := fm[key]
		if !ok {
			continue
		}
		if n := asInt(v); n > 0 {
			return n
		}
	}
	return 0
}

func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		// "约 1200 字" 这类写法只抠数字
		if m := reDigits.FindString(t); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				return n
			}
		}
	}
	return 0
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

// ResolveCount 实现“作者标注优先于计算值”：只有正数才算作者
// 真的标注过，0 或缺失一律落回计算值。
func ResolveCount(explicit, computed int) int {
	if explicit > 0 {
		return explicit
	}
	return computed
}

// StringField 按别名顺序取第一个非空字符串字段。
func StringField(fm map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := fm[key]; ok {
			if s := strings.TrimSpace(asString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}
