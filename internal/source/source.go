// Package source 定义内容源接口：按目录约定枚举日期 / 系列 / 集，
// 并取单个文件的原文。远端 GitHub 仓库和本地镜像目录都实现它。
package source

import "context"

// SeriesInfo 对应系列目录下可选的 series_info.json。
type SeriesInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Emoji       string   `json:"emoji"`
	Cover       string   `json:"cover"`
	Tags        []string `json:"tags"`
}

// Source 的错误约定：
//
//   - List* 是尽力而为的枚举，失败时返回已经拿到的部分结果，
//     error 仅供上层记日志，不应中断调用方；
//   - Get* 是内容读取，失败就是硬失败，error 必须向上传。
//   - 缺失的可选元数据（series_info / metadata）返回 (nil, nil)。
type Source interface {
	ListDataDates(ctx context.Context) ([]string, error)
	ListArticlesForDate(ctx context.Context, date string) ([]string, error)
	GetArticleContent(ctx context.Context, date, filename string) (string, error)

	ListSeries(ctx context.Context) ([]string, error)
	ListEpisodesForSeries(ctx context.Context, id string) ([]string, error)
	GetEpisodeContent(ctx context.Context, id, episode string) (string, error)
	GetSeriesInfo(ctx context.Context, id string) (*SeriesInfo, error)
	GetEpisodeMetadata(ctx context.Context, id, episode string) (map[string]any, error)
}
