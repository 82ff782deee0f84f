package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"aiwen/internal/cache"
	"aiwen/internal/domain/content"
	"aiwen/internal/markdown"
	"aiwen/internal/naming"
	"aiwen/internal/source"
)

// 分组目录没有任何元数据时兜底用的 emoji。
var defaultSeriesEmoji = map[string]string{
	"LLM_series": "🧠",
	"ML_series":  "📊",
}

const fallbackSeriesEmoji = "📚"

type Series struct {
	src source.Source
	md  *markdown.Renderer

	metaCache    *cache.Cache[content.SeriesMeta]
	listCache    *cache.Cache[[]content.SeriesMeta]
	seriesCache  *cache.Cache[content.SeriesWithEpisodes]
	episodeCache *cache.Cache[content.Article]
}

func NewSeries(src source.Source, md *markdown.Renderer, opt cache.Options) *Series {
	return &Series{
		src:          src,
		md:           md,
		metaCache:    cache.New[content.SeriesMeta](opt),
		listCache:    cache.New[[]content.SeriesMeta](opt),
		seriesCache:  cache.New[content.SeriesWithEpisodes](opt),
		episodeCache: cache.New[content.Article](opt),
	}
}

// GetAllSeries 返回所有系列的元数据，按序号升序。空系列也在列表里
// （序号和标题能解出来），只有单独取详情时才把它们过滤掉。
func (s *Series) GetAllSeries(ctx context.Context) []content.SeriesMeta {
	if v, ok := s.listCache.Get("all"); ok {
		return v
	}

	ids, err := s.src.ListSeries(ctx)
	if err != nil {
		slog.Warn("series listing degraded", "got", len(ids), "error", err)
	}

	metas := make([]content.SeriesMeta, 0, len(ids))
	for _, id := range ids {
		metas = append(metas, s.loadSeriesMeta(ctx, id))
	}
	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].Order < metas[j].Order
	})

	s.listCache.Set("all", metas)
	return metas
}

// loadSeriesMeta 汇集一个系列的三路元数据：series_info.json、
// 首集的 metadata.json、目录名本身。取不到的路径只记日志。
func (s *Series) loadSeriesMeta(ctx context.Context, id string) content.SeriesMeta {
	if v, ok := s.metaCache.Get(id); ok {
		return v
	}

	episodes, err := s.src.ListEpisodesForSeries(ctx, id)
	if err != nil {
		slog.Warn("episode listing degraded", "series", id, "error", err)
	}

	info, err := s.src.GetSeriesInfo(ctx, id)
	if err != nil {
		slog.Warn("series_info unavailable", "series", id, "error", err)
		info = nil
	}

	var epMeta map[string]any
	if len(episodes) > 0 {
		epMeta, err = s.src.GetEpisodeMetadata(ctx, id, episodes[0])
		if err != nil {
			slog.Warn("episode metadata unavailable", "series", id, "episode", episodes[0], "error", err)
		}
	}
	if epMeta == nil {
		epMeta = map[string]any{}
	}

	order := naming.SeriesNumber(id)

	m := content.SeriesMeta{
		ID:            id,
		Order:         order,
		TotalEpisodes: len(episodes),
		Emoji:         seriesEmoji(id, info, epMeta),
		CreatedAt:     content.ParseFMTime(markdown.StringField(epMeta, "created_at", "createdAt")),
		UpdatedAt:     content.ParseFMTime(markdown.StringField(epMeta, "updated_at", "updatedAt")),
	}

	// 标题取值链：series_info > 首集元数据 > 序号兜底
	m.Title = markdown.StringField(epMeta, "series_title", "title")
	if info != nil && info.Name != "" {
		m.Title = info.Name
	}
	if m.Title == "" {
		m.Title = fmt.Sprintf("系列 %d", order)
	}

	m.Description = markdown.StringField(epMeta, "series_description", "description")
	if info != nil && info.Description != "" {
		m.Description = info.Description
	}

	m.Cover = markdown.StringField(epMeta, "series_cover", "cover")
	if info != nil && info.Cover != "" {
		m.Cover = info.Cover
	}

	if info != nil && len(info.Tags) > 0 {
		m.Tags = info.Tags
	} else {
		m.Tags = markdown.Tags(epMeta)
	}

	s.metaCache.Set(id, m)
	return m
}

// seriesEmoji 实现 emoji 取值链：首集元数据 > series_info >
// 分组默认表 > 全局兜底。
func seriesEmoji(id string, info *source.SeriesInfo, epMeta map[string]any) string {
	if e := markdown.StringField(epMeta, "series_emoji", "emoji"); e != "" {
		return e
	}
	if info != nil && info.Emoji != "" {
		return info.Emoji
	}
	if group, _, ok := strings.Cut(id, "/"); ok {
		if e, ok := defaultSeriesEmoji[group]; ok {
			return e
		}
	}
	return fallbackSeriesEmoji
}

// GetSeriesInfo 取单个系列的元数据。不存在或没有任何一集时返回 nil。
func (s *Series) GetSeriesInfo(ctx context.Context, id string) *content.SeriesMeta {
	for _, m := range s.GetAllSeries(ctx) {
		if m.ID == id {
			if m.TotalEpisodes == 0 {
				return nil
			}
			mm := m
			return &mm
		}
	}
	return nil
}

// GetLLMSeries 按 id 前缀过滤出 LLM 分组下的系列。
func (s *Series) GetLLMSeries(ctx context.Context) []content.SeriesMeta {
	return s.filterByGroup(ctx, "LLM_series/", false)
}

// GetMLSeries 按 id 前缀过滤出 ML 分组下的系列，额外丢掉空系列。
func (s *Series) GetMLSeries(ctx context.Context) []content.SeriesMeta {
	return s.filterByGroup(ctx, "ML_series/", true)
}

func (s *Series) filterByGroup(ctx context.Context, prefix string, skipEmpty bool) []content.SeriesMeta {
	var out []content.SeriesMeta
	for _, m := range s.GetAllSeries(ctx) {
		if !strings.HasPrefix(m.ID, prefix) {
			continue
		}
		if skipEmpty && m.TotalEpisodes == 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// GetTotalEpisodes 统计全部系列的集数总和。
func (s *Series) GetTotalEpisodes(ctx context.Context) int {
	total := 0
	for _, m := range s.GetAllSeries(ctx) {
		total += m.TotalEpisodes
	}
	return total
}

// GetSeriesWithEpisodes 取系列详情和每集的元数据（不含全文）。
// 单集取不到内容时跳过，不影响其余集。系列不存在或为空返回 nil。
func (s *Series) GetSeriesWithEpisodes(ctx context.Context, id string) *content.SeriesWithEpisodes {
	key := "series:" + id
	if v, ok := s.seriesCache.Get(key); ok {
		cp := v
		return &cp
	}

	meta := s.GetSeriesInfo(ctx, id)
	if meta == nil {
		return nil
	}

	names, err := s.src.ListEpisodesForSeries(ctx, id)
	if err != nil {
		slog.Warn("episode listing degraded", "series", id, "error", err)
	}

	episodes := make([]content.SeriesEpisode, 0, len(names))
	for _, name := range names {
		ep, err := s.buildEpisode(ctx, id, name)
		if err != nil {
			slog.Warn("skipping episode", "series", id, "episode", name, "error", err)
			continue
		}
		episodes = append(episodes, ep)
	}
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].EpisodeNumber < episodes[j].EpisodeNumber
	})

	sw := content.SeriesWithEpisodes{
		SeriesMeta: *meta,
		Episodes:   episodes,
	}
	s.seriesCache.Set(key, sw)
	return &sw
}

func (s *Series) buildEpisode(ctx context.Context, id, name string) (content.SeriesEpisode, error) {
	raw, err := s.src.GetEpisodeContent(ctx, id, name)
	if err != nil {
		return content.SeriesEpisode{}, err
	}
	fm, body := markdown.SplitFrontMatter([]byte(raw))
	text := string(body)

	n := naming.EpisodeNumber(name)
	title := markdown.StringField(fm, "title")
	if title == "" {
		title = markdown.FirstHeading(text)
	}
	if title == "" {
		title = fmt.Sprintf("第 %d 集", n)
	}

	ep := content.SeriesEpisode{
		EpisodeNumber: n,
		Title:         title,
		Slug:          markdown.Slugify(title),
		Excerpt:       markdown.Excerpt(text, excerptLimit),
		Tags:          markdown.Tags(fm),
		PublishedAt:   content.ParseFMTime(markdown.StringField(fm, "date", "published_at")),
	}
	ep.WordCount = markdown.ResolveCount(markdown.WordCount(fm), markdown.CountWords(text))
	ep.ReadTime = markdown.ResolveCount(markdown.ReadTime(fm), markdown.EstimateReadTime(ep.WordCount))
	return ep, nil
}

// GetSeriesEpisode 取某一集的全文，渲染成 Article 形态复用前端的
// 文章视图。集不存在返回 (nil, nil)，取内容失败返回错误。
func (s *Series) GetSeriesEpisode(ctx context.Context, id string, n int) (*content.Article, error) {
	key := "episode:" + id + ":" + strconv.Itoa(n)
	if v, ok := s.episodeCache.Get(key); ok {
		cp := v
		return &cp, nil
	}

	names, err := s.src.ListEpisodesForSeries(ctx, id)
	if err != nil {
		slog.Warn("episode listing degraded", "series", id, "error", err)
	}
	var epName string
	for _, name := range names {
		if naming.EpisodeNumber(name) == n {
			epName = name
			break
		}
	}
	if epName == "" {
		return nil, nil
	}

	raw, err := s.src.GetEpisodeContent(ctx, id, epName)
	if err != nil {
		return nil, err
	}
	fm, body := markdown.SplitFrontMatter([]byte(raw))
	text := string(body)

	res, err := s.md.Render(body)
	if err != nil {
		return nil, err
	}

	title := markdown.StringField(fm, "title")
	if title == "" {
		title = markdown.FirstHeading(text)
	}
	if title == "" {
		title = fmt.Sprintf("第 %d 集", n)
	}

	art := content.Article{
		ArticleMeta: content.ArticleMeta{
			Slug:  markdown.Slugify(title),
			Title: title,
			// 集没有日期目录，Date 位放系列 id，Timestamp 位放集数，
			// 前端路由靠这两个字段回跳
			Date:        id,
			Timestamp:   strconv.Itoa(n),
			FullPath:    id + "/" + epName,
			Excerpt:     markdown.Excerpt(text, excerptLimit),
			Tags:        markdown.Tags(fm),
			PublishedAt: content.ParseFMTime(markdown.StringField(fm, "date", "published_at")),
		},
		Content:     text,
		HTMLContent: res.HTML,
		Headings:    res.Headings,
	}
	art.WordCount = markdown.ResolveCount(markdown.WordCount(fm), markdown.CountWords(text))
	art.ReadTime = markdown.ResolveCount(markdown.ReadTime(fm), markdown.EstimateReadTime(art.WordCount))
	art.Normalize()

	s.episodeCache.Set(key, art)
	return &art, nil
}

// GetSeriesByTag 按标签精确匹配（大小写不敏感）。
func (s *Series) GetSeriesByTag(ctx context.Context, tag string) []content.SeriesMeta {
	t := strings.ToLower(strings.TrimSpace(tag))
	if t == "" {
		return nil
	}
	var out []content.SeriesMeta
	for _, m := range s.GetAllSeries(ctx) {
		for _, mt := range m.Tags {
			if strings.ToLower(mt) == t {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// SearchSeries 在标题、描述和标签上做大小写不敏感的子串匹配。
func (s *Series) SearchSeries(ctx context.Context, query string) []content.SeriesMeta {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []content.SeriesMeta
	for _, m := range s.GetAllSeries(ctx) {
		if strings.Contains(strings.ToLower(m.Title), q) ||
			strings.Contains(strings.ToLower(m.Description), q) ||
			tagsContain(m.Tags, q) {
			out = append(out, m)
		}
	}
	return out
}

// GetAllSeriesTags 返回系列侧去重后的标签，按首次出现顺序。
func (s *Series) GetAllSeriesTags(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range s.GetAllSeries(ctx) {
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

// ClearSeriesCache 清空系列侧全部缓存。
func (s *Series) ClearSeriesCache() {
	s.metaCache.Clear()
	s.listCache.Clear()
	s.seriesCache.Clear()
	s.episodeCache.Clear()
}
