// Package loader 把内容源、Markdown 处理和命名约定解析编排成
// 页面直接可用的查询接口，带注入式缓存。
//
// 错误语义：枚举失败降级成空/部分结果（记日志），单篇文章解析
// 失败跳过该篇，精确取内容失败才向调用方上抛。
package loader

import (
	"context"
	"log/slog"
	"path"
	"sort"
	"strings"

	"aiwen/internal/cache"
	"aiwen/internal/domain/content"
	"aiwen/internal/markdown"
	"aiwen/internal/naming"
	"aiwen/internal/source"
)

const (
	excerptLimit        = 200
	defaultRelatedLimit = 5
)

type Articles struct {
	src source.Source
	md  *markdown.Renderer

	metaCache    *cache.Cache[content.ArticleMeta]
	listCache    *cache.Cache[[]content.ArticleMeta]
	articleCache *cache.Cache[content.Article]
}

func NewArticles(src source.Source, md *markdown.Renderer, opt cache.Options) *Articles {
	return &Articles{
		src:          src,
		md:           md,
		metaCache:    cache.New[content.ArticleMeta](opt),
		listCache:    cache.New[[]content.ArticleMeta](opt),
		articleCache: cache.New[content.Article](opt),
	}
}

// GetAllArticles 汇总所有日期目录下的文章元数据，按日期倒序。
// 枚举失败只会让结果变少，不会失败。
func (a *Articles) GetAllArticles(ctx context.Context) []content.ArticleMeta {
	if v, ok := a.listCache.Get("all"); ok {
		return v
	}

	dates, err := a.src.ListDataDates(ctx)
	if err != nil {
		slog.Warn("date listing degraded", "got", len(dates), "error", err)
	}

	var all []content.ArticleMeta
	for _, d := range dates {
		all = append(all, a.GetArticlesByDate(ctx, d)...)
	}

	// 日期目录间倒序；同一天内保持目录给的时间戳倒序
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Date > all[j].Date
	})

	a.listCache.Set("all", all)
	return all
}

// GetAllDates 返回所有日期目录名，倒序。
func (a *Articles) GetAllDates(ctx context.Context) []string {
	dates, err := a.src.ListDataDates(ctx)
	if err != nil {
		slog.Warn("date listing degraded", "got", len(dates), "error", err)
	}
	return dates
}

// GetArticlesByDate 取某一天的全部文章元数据。单篇失败跳过，
// 剩下的照常返回并缓存。
func (a *Articles) GetArticlesByDate(ctx context.Context, date string) []content.ArticleMeta {
	key := "date:" + date
	if v, ok := a.listCache.Get(key); ok {
		return v
	}

	names, err := a.src.ListArticlesForDate(ctx, date)
	if err != nil {
		slog.Warn("article listing degraded", "date", date, "error", err)
	}

	arts := make([]content.ArticleMeta, 0, len(names))
	for _, name := range names {
		m, err := a.GetArticleMetadata(ctx, date, name)
		if err != nil {
			slog.Warn("skipping article", "date", date, "file", name, "error", err)
			continue
		}
		arts = append(arts, m)
	}

	a.listCache.Set(key, arts)
	return arts
}

type DateGroup struct {
	Date     string                `json:"date"`
	Articles []content.ArticleMeta `json:"articles"`
}

// GetArticlesGroupedByDate 按日期分组，组间倒序。
func (a *Articles) GetArticlesGroupedByDate(ctx context.Context) []DateGroup {
	all := a.GetAllArticles(ctx)

	var groups []DateGroup
	idx := make(map[string]int)
	for _, m := range all {
		i, ok := idx[m.Date]
		if !ok {
			i = len(groups)
			idx[m.Date] = i
			groups = append(groups, DateGroup{Date: m.Date})
		}
		groups[i].Articles = append(groups[i].Articles, m)
	}
	return groups
}

// GetArticleMetadata 取单篇文章的元数据。取不到原文时报错，
// 由批量调用方决定跳过还是上抛。
func (a *Articles) GetArticleMetadata(ctx context.Context, dir, filename string) (content.ArticleMeta, error) {
	key := dir + ":" + filename
	if v, ok := a.metaCache.Get(key); ok {
		return v, nil
	}

	raw, err := a.src.GetArticleContent(ctx, dir, filename)
	if err != nil {
		return content.ArticleMeta{}, err
	}

	m := buildMeta(dir, filename, raw)
	a.metaCache.Set(key, m)
	return m, nil
}

func buildMeta(dir, filename, raw string) content.ArticleMeta {
	fm, body := markdown.SplitFrontMatter([]byte(raw))
	text := string(body)
	nm := naming.FromName(filename)

	title := markdown.FirstHeading(text)
	if title == "" {
		title = nm.Title
	}
	if title == "" {
		title = naming.Humanize(strings.TrimSuffix(filename, ".md"))
	}

	// 日期目录是权威位置，文件名里的日期只是冗余
	date := nm.Date
	if naming.IsDateDir(dir) {
		date = dir
	}

	m := content.ArticleMeta{
		Slug:        markdown.Slugify(title),
		Title:       title,
		Emoji:       nm.Emoji,
		Platform:    nm.Platform,
		ModelName:   nm.ModelName,
		Date:        date,
		Timestamp:   nm.Timestamp,
		FullPath:    dir + "/" + filename,
		Excerpt:     markdown.Excerpt(text, excerptLimit),
		Tags:        markdown.Tags(fm),
		PublishedAt: content.ParseDate(date),
	}

	// 作者标注优先，缺了再用计算值
	m.WordCount = markdown.ResolveCount(markdown.WordCount(fm), markdown.CountWords(text))
	m.ReadTime = markdown.ResolveCount(markdown.ReadTime(fm), markdown.EstimateReadTime(m.WordCount))

	m.Normalize()
	return m
}

// GetArticle 按 slug 取全文。slug 不是索引键，线性扫当天列表；
// 找不到返回 (nil, nil)，取内容失败返回错误。
func (a *Articles) GetArticle(ctx context.Context, dir, slug string) (*content.Article, error) {
	key := "article:" + dir + ":" + slug
	if v, ok := a.articleCache.Get(key); ok {
		cp := v
		return &cp, nil
	}

	var meta *content.ArticleMeta
	for _, m := range a.GetArticlesByDate(ctx, dir) {
		if m.Slug == slug {
			mm := m
			meta = &mm
			break
		}
	}
	if meta == nil {
		return nil, nil
	}

	raw, err := a.src.GetArticleContent(ctx, dir, path.Base(meta.FullPath))
	if err != nil {
		return nil, err
	}
	_, body := markdown.SplitFrontMatter([]byte(raw))

	res, err := a.md.Render(body)
	if err != nil {
		return nil, err
	}

	art := content.Article{
		ArticleMeta: *meta,
		Content:     string(body),
		HTMLContent: res.HTML,
		Headings:    res.Headings,
	}
	a.articleCache.Set(key, art)
	return &art, nil
}

// GetRelatedArticles 按共享标签和同日加权找相关文章：
// 2 × 共同标签数 + 同日加 1，分数倒序，最多 limit 篇，
// 永远不包含文章自己。
func (a *Articles) GetRelatedArticles(ctx context.Context, art content.ArticleMeta, limit int) []content.ArticleMeta {
	if limit <= 0 {
		limit = defaultRelatedLimit
	}

	tagSet := make(map[string]struct{}, len(art.Tags))
	for _, t := range art.Tags {
		tagSet[strings.ToLower(t)] = struct{}{}
	}

	type scored struct {
		meta  content.ArticleMeta
		score int
	}

	var candidates []scored
	for _, m := range a.GetAllArticles(ctx) {
		if m.FullPath == art.FullPath {
			continue
		}
		score := 0
		for _, t := range m.Tags {
			if _, ok := tagSet[strings.ToLower(t)]; ok {
				score += 2
			}
		}
		if m.Date == art.Date {
			score++
		}
		candidates = append(candidates, scored{meta: m, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]content.ArticleMeta, len(candidates))
	for i, c := range candidates {
		out[i] = c.meta
	}
	return out
}

// SearchArticles 在标题、摘要和标签上做大小写不敏感的子串匹配。
func (a *Articles) SearchArticles(ctx context.Context, query string) []content.ArticleMeta {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []content.ArticleMeta
	for _, m := range a.GetAllArticles(ctx) {
		if strings.Contains(strings.ToLower(m.Title), q) ||
			strings.Contains(strings.ToLower(m.Excerpt), q) ||
			tagsContain(m.Tags, q) {
			out = append(out, m)
		}
	}
	return out
}

func tagsContain(tags []string, q string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// GetArticlesByTag 按标签精确匹配（大小写不敏感）。
func (a *Articles) GetArticlesByTag(ctx context.Context, tag string) []content.ArticleMeta {
	t := strings.ToLower(strings.TrimSpace(tag))
	if t == "" {
		return nil
	}

	var out []content.ArticleMeta
	for _, m := range a.GetAllArticles(ctx) {
		for _, mt := range m.Tags {
			if strings.ToLower(mt) == t {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// GetAllTags 返回去重后的标签，按首次出现的顺序。
func (a *Articles) GetAllTags(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range a.GetAllArticles(ctx) {
		for _, t := range m.Tags {
			key := strings.ToLower(t)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// ClearCache 清空文章侧全部缓存，下次调用会重新拉取远端。
func (a *Articles) ClearCache() {
	a.metaCache.Clear()
	a.listCache.Clear()
	a.articleCache.Clear()
}
