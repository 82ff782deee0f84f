package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	domainerr "aiwen/internal/domain/errors"
	"aiwen/internal/naming"
)

// FS 是本地镜像模式的内容源：一个与远端仓库目录约定完全一致的
// 本地目录树。配合文件监控可以在内容更新时立刻失效缓存。
type FS struct {
	root string
}

func NewFS(root string) *FS {
	return &FS{root: root}
}

// Root 返回内容根目录，serve 层拿它去挂文件监控。
func (f *FS) Root() string {
	return f.root
}

var _ Source = (*FS)(nil)

func (f *FS) ListDataDates(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, err
	}
	var dates []string
	for _, e := range entries {
		if e.IsDir() && naming.IsDateDir(e.Name()) {
			dates = append(dates, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func (f *FS) ListArticlesForDate(ctx context.Context, date string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.root, date, "longform"))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	// 文件名里嵌着时间戳，倒序字符串排序即按时间倒序
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (f *FS) GetArticleContent(ctx context.Context, date, filename string) (string, error) {
	rel := filepath.Join(date, "longform", filename)
	data, err := os.ReadFile(filepath.Join(f.root, rel))
	if err != nil {
		return "", &domainerr.FetchError{Path: rel, Err: err}
	}
	return string(data), nil
}

func (f *FS) ListSeries(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case naming.IsSeriesDir(name):
			ids = append(ids, name)
		case naming.IsSeriesGroupDir(name):
			children, err := os.ReadDir(filepath.Join(f.root, name))
			if err != nil {
				return ids, err
			}
			for _, c := range children {
				if c.IsDir() && strings.HasPrefix(c.Name(), "series_") {
					ids = append(ids, name+"/"+c.Name())
				}
			}
		}
	}
	return ids, nil
}

func (f *FS) ListEpisodesForSeries(ctx context.Context, id string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.root, filepath.FromSlash(id)))
	if err != nil {
		return nil, err
	}
	var episodes []string
	for _, e := range entries {
		if e.IsDir() && naming.IsEpisodeDir(e.Name()) {
			episodes = append(episodes, e.Name())
		}
	}
	SortEpisodes(episodes)
	return episodes, nil
}

func (f *FS) GetEpisodeContent(ctx context.Context, id, episode string) (string, error) {
	dir := filepath.Join(f.root, filepath.FromSlash(id), episode)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &domainerr.FetchError{Path: id + "/" + episode, Err: err}
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				return "", &domainerr.FetchError{Path: id + "/" + episode + "/" + e.Name(), Err: err}
			}
			return string(data), nil
		}
	}
	return "", &domainerr.FetchError{
		Path: id + "/" + episode,
		Err:  fmt.Errorf("no markdown file in episode directory"),
	}
}

func (f *FS) GetSeriesInfo(ctx context.Context, id string) (*SeriesInfo, error) {
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(id), "series_info.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var info SeriesInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse series_info for %s: %w", id, err)
	}
	return &info, nil
}

func (f *FS) GetEpisodeMetadata(ctx context.Context, id, episode string) (map[string]any, error) {
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(id), episode, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	meta := map[string]any{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata for %s/%s: %w", id, episode, err)
	}
	return meta, nil
}

// SortEpisodes 按集数升序排列 episode 目录名（叙事顺序）。
func SortEpisodes(episodes []string) {
	sort.Slice(episodes, func(i, j int) bool {
		return naming.EpisodeNumber(episodes[i]) < naming.EpisodeNumber(episodes[j])
	})
}
