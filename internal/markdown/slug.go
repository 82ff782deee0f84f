package markdown

import (
	"strings"
	"unicode"
)

// Slugify 生成 URL slug，同一算法也用于标题锚点 id：
// 小写，丢掉字母/数字/空白/连字符以外的字符（Unicode 字母保留，
// 中文标题不能被剥空），空白折叠成单个连字符，重复连字符合并，
// 去掉首尾连字符。对自身幂等。
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	lastDash := false

	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			lastDash = false
		case unicode.IsSpace(r) || r == '-':
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		default:
			// 标点、emoji 等直接丢弃，不产生连字符
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
