package markdown

import (
	"strings"
	"unicode"
)

const wordsPerMinute = 200

// CountWords 统计正文字数。中日韩文字没有空格分词，每个字算一个；
// 其余按连续的字母/数字串算一个词。
func CountWords(body string) int {
	count := 0
	inWord := false

	for _, r := range body {
		if isCJK(r) {
			count++
			inWord = false
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if !inWord {
				count++
				inWord = true
			}
			continue
		}
		inWord = false
	}
	return count
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

// EstimateReadTime 按每分钟 200 词向上取整，至少 1 分钟。
func EstimateReadTime(words int) int {
	if words <= 0 {
		return 1
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

// FirstHeading 取正文第一个 "# " 一级标题的文本，没有返回空串。
func FirstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

// Excerpt 取第一个非标题段落做摘要，超过 limit 个字符截断并补省略号。
func Excerpt(body string, limit int) string {
	var para []string
	inFence := false

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if trimmed == "" {
			if len(para) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		para = append(para, trimmed)
	}

	text := strings.Join(para, " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
