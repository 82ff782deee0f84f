// Package remote 实现基于 GitHub contents API 的内容源。
//
// 列表接口按 100 条一页翻页，翻页中途失败时记日志并返回已拿到的
// 部分结果；取文件内容失败则包装后上抛。
package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	domainerr "aiwen/internal/domain/errors"
	"aiwen/internal/naming"
	"aiwen/internal/source"
)

const perPage = 100

var errNotFound = errors.New("remote: not found")

type Options struct {
	Owner string
	Repo  string
	Ref   string
	Token string

	// BaseURL 默认 https://api.github.com，测试时指向 httptest
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

type Client struct {
	hc    *http.Client
	base  string
	owner string
	repo  string
	ref   string
	token string
	ua    string
}

func New(opt Options) *Client {
	if opt.BaseURL == "" {
		opt.BaseURL = "https://api.github.com"
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 15 * time.Second
	}
	if opt.UserAgent == "" {
		opt.UserAgent = "aiwen/1.0"
	}
	return &Client{
		hc:    &http.Client{Timeout: opt.Timeout},
		base:  strings.TrimSuffix(opt.BaseURL, "/"),
		owner: opt.Owner,
		repo:  opt.Repo,
		ref:   opt.Ref,
		token: opt.Token,
		ua:    opt.UserAgent,
	}
}

var _ source.Source = (*Client)(nil)

// entry 是 contents API 目录列表里的一项。
type entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // "dir" | "file"
	SHA  string `json:"sha"`
}

// fileContent 是 contents API 单文件响应。
type fileContent struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
	Type     string `json:"type"`
}

func (c *Client) contentsURL(path string, query url.Values) string {
	u := fmt.Sprintf("%s/repos/%s/%s/contents", c.base, c.owner, c.repo)
	if path != "" {
		u += "/" + escapePath(path)
	}
	if c.ref != "" {
		query.Set("ref", c.ref)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func (c *Client) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.ua)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// listPage 取目录的一页，固定 perPage 条。
func (c *Client) listPage(ctx context.Context, path string, page int) ([]entry, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	data, err := c.do(ctx, c.contentsURL(path, q))
	if err != nil {
		return nil, err
	}
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("remote: decode listing of %q: %w", path, err)
	}
	return entries, nil
}

// listAll 翻页到底。出错时返回已累计的条目和错误，调用方自己决定
// 是降级还是放弃。
func (c *Client) listAll(ctx context.Context, path string) ([]entry, error) {
	var all []entry
	for page := 1; ; page++ {
		entries, err := c.listPage(ctx, path, page)
		if err != nil {
			if !errors.Is(err, errNotFound) {
				slog.Warn("remote listing failed", "path", path, "page", page, "error", err)
			}
			return all, err
		}
		all = append(all, entries...)
		if len(entries) < perPage {
			return all, nil
		}
	}
}

// getFile 取单个文件并做 base64 解码。
func (c *Client) getFile(ctx context.Context, path string) (string, error) {
	data, err := c.do(ctx, c.contentsURL(path, url.Values{}))
	if err != nil {
		return "", &domainerr.FetchError{Path: path, Err: err}
	}
	var fc fileContent
	if err := json.Unmarshal(data, &fc); err != nil {
		return "", &domainerr.FetchError{Path: path, Err: err}
	}
	if fc.Encoding != "" && fc.Encoding != "base64" {
		return "", &domainerr.FetchError{Path: path, Err: fmt.Errorf("unsupported encoding %q", fc.Encoding)}
	}
	// API 返回的 base64 带换行
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(fc.Content, "\n", ""))
	if err != nil {
		return "", &domainerr.FetchError{Path: path, Err: err}
	}
	return string(raw), nil
}

func (c *Client) ListDataDates(ctx context.Context) ([]string, error) {
	entries, err := c.listAll(ctx, "")

	var dates []string
	for _, e := range entries {
		if e.Type == "dir" && naming.IsDateDir(e.Name) {
			dates = append(dates, e.Name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	// 部分失败也把已发现的日期还回去
	return dates, err
}

func (c *Client) ListArticlesForDate(ctx context.Context, date string) ([]string, error) {
	entries, err := c.listAll(ctx, date+"/longform")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type == "file" && strings.HasSuffix(e.Name, ".md") {
			names = append(names, e.Name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (c *Client) GetArticleContent(ctx context.Context, date, filename string) (string, error) {
	return c.getFile(ctx, date+"/longform/"+filename)
}

func (c *Client) ListSeries(ctx context.Context) ([]string, error) {
	entries, err := c.listAll(ctx, "")

	var ids []string
	for _, e := range entries {
		if e.Type != "dir" {
			continue
		}
		switch {
		case naming.IsSeriesDir(e.Name):
			ids = append(ids, e.Name)
		case naming.IsSeriesGroupDir(e.Name):
			children, cerr := c.listAll(ctx, e.Name)
			if cerr != nil && err == nil {
				err = cerr
			}
			for _, ch := range children {
				if ch.Type == "dir" && strings.HasPrefix(ch.Name, "series_") {
					ids = append(ids, e.Name+"/"+ch.Name)
				}
			}
		}
	}
	return ids, err
}

func (c *Client) ListEpisodesForSeries(ctx context.Context, id string) ([]string, error) {
	entries, err := c.listAll(ctx, id)

	var episodes []string
	for _, e := range entries {
		if e.Type == "dir" && naming.IsEpisodeDir(e.Name) {
			episodes = append(episodes, e.Name)
		}
	}
	source.SortEpisodes(episodes)
	return episodes, err
}

func (c *Client) GetEpisodeContent(ctx context.Context, id, episode string) (string, error) {
	dir := id + "/" + episode
	entries, err := c.listAll(ctx, dir)
	if err != nil {
		return "", &domainerr.FetchError{Path: dir, Err: err}
	}
	for _, e := range entries {
		if e.Type == "file" && strings.HasSuffix(e.Name, ".md") {
			return c.getFile(ctx, dir+"/"+e.Name)
		}
	}
	return "", &domainerr.FetchError{Path: dir, Err: fmt.Errorf("no markdown file in episode directory")}
}

func (c *Client) GetSeriesInfo(ctx context.Context, id string) (*source.SeriesInfo, error) {
	raw, err := c.getFile(ctx, id+"/series_info.json")
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var info source.SeriesInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, fmt.Errorf("remote: parse series_info for %s: %w", id, err)
	}
	return &info, nil
}

func (c *Client) GetEpisodeMetadata(ctx context.Context, id, episode string) (map[string]any, error) {
	raw, err := c.getFile(ctx, id+"/"+episode+"/metadata.json")
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	meta := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("remote: parse metadata for %s/%s: %w", id, episode, err)
	}
	return meta, nil
}
