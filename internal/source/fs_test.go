package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	domainerr "aiwen/internal/domain/errors"
)

func writeTree(t *testing.T, files map[string]string) *FS {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return NewFS(root)
}

func TestFSListDataDates(t *testing.T) {
	fs := writeTree(t, map[string]string{
		"20240110/longform/a.md":  "# A",
		"20240120/longform/b.md":  "# B",
		"series_1/episode_001/.k": "",
		"notes/readme.md":         "x",
	})

	dates, err := fs.ListDataDates(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 2 || dates[0] != "20240120" || dates[1] != "20240110" {
		t.Errorf("dates = %v", dates)
	}
}

func TestFSListArticlesDescending(t *testing.T) {
	fs := writeTree(t, map[string]string{
		"20240115/longform/article_a_t_m_20240115_090000.md": "# A",
		"20240115/longform/article_b_t_m_20240115_180000.md": "# B",
		"20240115/longform/notes.txt":                        "x",
	})

	names, err := fs.ListArticlesForDate(context.Background(), "20240115")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Fatalf("names = %v", names)
	}
	if !strings.Contains(names[0], "180000") {
		t.Errorf("order = %v", names)
	}
}

func TestFSGetArticleContentWrapsError(t *testing.T) {
	fs := writeTree(t, nil)

	_, err := fs.GetArticleContent(context.Background(), "20240115", "nope.md")
	if err == nil {
		t.Fatal("expected error")
	}
	var fe *domainerr.FetchError
	if !errors.As(err, &fe) {
		t.Errorf("err = %T", err)
	}
}

func TestFSSeriesLayout(t *testing.T) {
	fs := writeTree(t, map[string]string{
		"series_1/episode_002/part.md":           "# Two",
		"series_1/episode_001/part.md":           "# One",
		"series_1/episode_001/metadata.json":     `{"series_title":"基础"}`,
		"series_1/series_info.json":              `{"name":"基础系列","emoji":"📘"}`,
		"LLM_series/series_2_rag/episode_001/.k": "",
	})
	ctx := context.Background()

	ids, err := fs.ListSeries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v", ids)
	}

	eps, err := fs.ListEpisodesForSeries(ctx, "series_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(eps) != 2 || eps[0] != "episode_001" {
		t.Errorf("episodes = %v", eps)
	}

	body, err := fs.GetEpisodeContent(ctx, "series_1", "episode_002")
	if err != nil {
		t.Fatal(err)
	}
	if body != "# Two" {
		t.Errorf("body = %q", body)
	}

	info, err := fs.GetSeriesInfo(ctx, "series_1")
	if err != nil {
		t.Fatal(err)
	}
	if info == nil || info.Name != "基础系列" {
		t.Errorf("info = %+v", info)
	}

	// 没有 series_info.json 的系列返回 (nil, nil)
	missing, err := fs.GetSeriesInfo(ctx, "LLM_series/series_2_rag")
	if err != nil || missing != nil {
		t.Errorf("missing info = %+v err = %v", missing, err)
	}

	meta, err := fs.GetEpisodeMetadata(ctx, "series_1", "episode_001")
	if err != nil {
		t.Fatal(err)
	}
	if meta["series_title"] != "基础" {
		t.Errorf("meta = %v", meta)
	}

	// 集目录里没有 markdown 是硬错误
	if _, err := fs.GetEpisodeContent(ctx, "LLM_series/series_2_rag", "episode_001"); err == nil {
		t.Error("expected error for episode without markdown")
	}
}
