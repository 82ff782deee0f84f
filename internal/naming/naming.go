// Package naming 解析内容仓库的目录 / 文件名约定。
//
// 约定是对外兼容契约的一部分，必须逐位保持：
//
//	article_{emoji}_{platform}_{model...}_{YYYYMMDD}_{HHMMSS}.md
//	episode_{NNN}
//	series_{N} / ml_series_{N} / {Group}_series/series_{N}_{slug}
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Meta 是从文件名或目录名解出来的结构化字段。
type Meta struct {
	Emoji     string
	Platform  string
	ModelName string
	Date      string // YYYYMMDD
	Timestamp string // HHMMSS
	Title     string
}

var (
	reDateDir   = regexp.MustCompile(`^\d{8}$`)
	reEpisode   = regexp.MustCompile(`episode_(\d+)`)
	reSeries    = regexp.MustCompile(`(?:ml_)?series_(\d+)`)
	reSeriesDir = regexp.MustCompile(`^(?:ml_)?series_\d+`)
)

// IsDateDir 报告 name 是否是 8 位日期目录。
func IsDateDir(name string) bool {
	return reDateDir.MatchString(name)
}

// IsSeriesDir 报告 name 是否是系列目录（series_N / ml_series_N 开头）。
func IsSeriesDir(name string) bool {
	return reSeriesDir.MatchString(name)
}

// IsSeriesGroupDir 报告 name 是否是系列分组目录（LLM_series 这类，
// 下面还有一层 series_N_{slug} 子目录）。
func IsSeriesGroupDir(name string) bool {
	return strings.HasSuffix(name, "_series")
}

// IsEpisodeDir 报告 name 是否是 episode_NNN 目录。
func IsEpisodeDir(name string) bool {
	return reEpisode.MatchString(name)
}

// FromFilename 严格解析文件名约定，不匹配就报格式错误。
// 模型名可以自带下划线，所以日期和时间戳固定取最后两段，
// 中间剩下的全部并回模型名。
func FromFilename(name string) (Meta, error) {
	base := strings.TrimSuffix(name, ".md")
	parts := strings.Split(base, "_")
	if len(parts) < 5 || parts[0] != "article" {
		return Meta{}, fmt.Errorf("naming: %q does not match article filename convention", name)
	}

	m := Meta{
		Emoji:     parts[1],
		Platform:  parts[2],
		Date:      parts[len(parts)-2],
		Timestamp: parts[len(parts)-1],
	}
	m.ModelName = strings.Join(parts[3:len(parts)-2], "_")
	m.Title = Humanize(m.ModelName)
	return m, nil
}

// FromName 是 FromFilename 的宽容版本：不匹配约定时不报错，
// 返回一个只有 Title（由原名转换而来）的 Meta，让排序自然垫底
// 而不是让整页渲染失败。
func FromName(name string) Meta {
	m, err := FromFilename(name)
	if err != nil {
		return Meta{Title: Humanize(strings.TrimSuffix(name, ".md"))}
	}
	return m
}

// EpisodeNumber 从 episode_NNN 形式的目录名取集数，不匹配返回 0。
func EpisodeNumber(name string) int {
	return firstNumber(reEpisode, name)
}

// SeriesNumber 从系列 id 取序号，支持嵌套形式
// （LLM_series/series_1_llm_foundation -> 1），不匹配返回 0。
// 0 表示“排最前”，而不是数据错误。
func SeriesNumber(id string) int {
	return firstNumber(reSeries, id)
}

func firstNumber(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// Humanize 把下划线连接的名字转成可读标题（gpt_4 -> gpt 4）。
func Humanize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
}
