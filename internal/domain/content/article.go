package content

import (
	"strings"
	"time"
)

// Heading 是渲染阶段从正文提取的标题节点，用于 TOC。
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// ArticleMeta 描述远端仓库里一篇 Markdown 文章的元数据。
// Date/Timestamp 保持目录约定里的原始字符串形式（YYYYMMDD / HHMMSS），
// 排序直接按字符串比较即可。
type ArticleMeta struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Emoji string `json:"emoji"`

	Platform  string `json:"platform"`
	ModelName string `json:"modelName"`

	Date      string `json:"date"`      // YYYYMMDD
	Timestamp string `json:"timestamp"` // HHMMSS
	FullPath  string `json:"fullPath"`  // "{dir}/{filename}"

	Excerpt   string `json:"excerpt"`
	WordCount int    `json:"wordCount"`
	ReadTime  int    `json:"readTime"` // 分钟

	Tags []string `json:"tags"`

	PublishedAt time.Time `json:"publishedAt"`
}

// Article = 元数据 + 全文。
type Article struct {
	ArticleMeta

	Content     string    `json:"content"` // 原始 Markdown（去掉 frontmatter）
	HTMLContent string    `json:"htmlContent"`
	Headings    []Heading `json:"headings"`
}

type SeriesMeta struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
	Cover       string `json:"cover"`

	Order         int `json:"order"`
	TotalEpisodes int `json:"totalEpisodes"`

	Tags []string `json:"tags"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SeriesEpisode struct {
	EpisodeNumber int `json:"episodeNumber"`

	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Excerpt string `json:"excerpt"`

	WordCount int `json:"wordCount"`
	ReadTime  int `json:"readTime"`

	Tags []string `json:"tags"`

	PublishedAt time.Time `json:"publishedAt"`
}

type SeriesWithEpisodes struct {
	SeriesMeta

	Episodes []SeriesEpisode `json:"episodes"`
}

func (m *ArticleMeta) Normalize() {
	m.Slug = strings.TrimSpace(m.Slug)
	m.Title = strings.TrimSpace(m.Title)
	m.Platform = strings.TrimSpace(m.Platform)
	m.ModelName = strings.TrimSpace(m.ModelName)

	// tags 保持作者给定的顺序，只去掉空白项，不去重不转小写
	m.Tags = trimStrings(m.Tags)
}

func trimStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// ParseDate 把 8 位日期串转成 time.Time（UTC 零点）。
// 不合法的输入返回零值，由调用方决定是否容忍。
func ParseDate(date string) time.Time {
	if len(date) != 8 {
		return time.Time{}
	}
	t, err := time.Parse("20060102", date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ParseFMTime 解析 frontmatter 里常见的几种日期写法。
func ParseFMTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339,
		time.DateOnly,
		"2006-01-02 15:04",
		time.DateTime,
		"20060102",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
