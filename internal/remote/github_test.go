package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{
		Owner:   "o",
		Repo:    "r",
		Ref:     "main",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})
}

func writeEntries(w http.ResponseWriter, entries []entry) {
	_ = json.NewEncoder(w).Encode(entries)
}

func TestListDataDatesPaginates(t *testing.T) {
	// 150 个日期目录：第一页满 100，第二页 50
	var all []entry
	for i := 0; i < 150; i++ {
		all = append(all, entry{
			Name: fmt.Sprintf("202401%02d", i%30+1),
			Type: "dir",
		})
	}
	all[0] = entry{Name: "not_a_date", Type: "dir"}
	all[1] = entry{Name: "README.md", Type: "file"}

	var pagesServed int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/o/r/contents" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("per_page = %q", got)
		}
		pagesServed++
		lo := (page - 1) * 100
		hi := lo + 100
		if hi > len(all) {
			hi = len(all)
		}
		if lo >= len(all) {
			writeEntries(w, nil)
			return
		}
		writeEntries(w, all[lo:hi])
	})

	dates, err := c.ListDataDates(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if pagesServed != 2 {
		t.Errorf("pages served = %d", pagesServed)
	}
	if len(dates) != 148 {
		t.Errorf("dates = %d", len(dates))
	}
	for i := 1; i < len(dates); i++ {
		if dates[i-1] < dates[i] {
			t.Fatalf("dates not descending at %d: %s < %s", i, dates[i-1], dates[i])
		}
	}
}

func TestListDataDatesPartialOnFailure(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var entries []entry
		for i := 1; i <= 100; i++ {
			entries = append(entries, entry{Name: fmt.Sprintf("2024%04d", i), Type: "dir"})
		}
		writeEntries(w, entries)
	})

	dates, err := c.ListDataDates(context.Background())
	if err == nil {
		t.Error("expected error for failed page")
	}
	if len(dates) != 100 {
		t.Errorf("expected 100 accumulated dates, got %d", len(dates))
	}
}

func TestListArticlesForDate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/o/r/contents/20240115/longform" {
			t.Errorf("path = %q", r.URL.Path)
		}
		writeEntries(w, []entry{
			{Name: "article_a_x_m_20240115_090000.md", Type: "file"},
			{Name: "article_b_x_m_20240115_120000.md", Type: "file"},
			{Name: "notes.txt", Type: "file"},
			{Name: "drafts", Type: "dir"},
		})
	})

	names, err := c.ListArticlesForDate(context.Background(), "20240115")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Fatalf("names = %v", names)
	}
	// 时间戳靠后的文件名排前面
	if names[0] != "article_b_x_m_20240115_120000.md" {
		t.Errorf("order = %v", names)
	}
}

func TestListArticlesForDateEmptyOnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	names, err := c.ListArticlesForDate(context.Background(), "20240115")
	if err == nil {
		t.Error("expected error")
	}
	if len(names) != 0 {
		t.Errorf("names = %v", names)
	}
}

func TestGetArticleContent(t *testing.T) {
	body := "---\ntitle: hi\n---\n\n# Hello\n"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/o/r/contents/20240115/longform/a.md" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(fileContent{
			// API 的 base64 内容带换行
			Content:  base64.StdEncoding.EncodeToString([]byte(body))[:10] + "\n" + base64.StdEncoding.EncodeToString([]byte(body))[10:],
			Encoding: "base64",
		})
	})

	got, err := c.GetArticleContent(context.Background(), "20240115", "a.md")
	if err != nil {
		t.Fatal(err)
	}
	if got != body {
		t.Errorf("got %q", got)
	}
}

func TestGetArticleContentWrapsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.GetArticleContent(context.Background(), "20240115", "a.md")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestListSeriesNested(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/o/r/contents":
			writeEntries(w, []entry{
				{Name: "series_1", Type: "dir"},
				{Name: "ml_series_2", Type: "dir"},
				{Name: "LLM_series", Type: "dir"},
				{Name: "20240115", Type: "dir"},
			})
		case "/repos/o/r/contents/LLM_series":
			writeEntries(w, []entry{
				{Name: "series_1_llm_foundation", Type: "dir"},
				{Name: "README.md", Type: "file"},
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	})

	ids, err := c.ListSeries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{
		"series_1":                           true,
		"ml_series_2":                        true,
		"LLM_series/series_1_llm_foundation": true,
	}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v", ids)
	}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected id %q", id)
		}
	}
}

func TestGetSeriesInfoNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	info, err := c.GetSeriesInfo(context.Background(), "series_1")
	if err != nil {
		t.Fatal(err)
	}
	if info != nil {
		t.Errorf("info = %+v", info)
	}
}

func TestListEpisodesSorted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEntries(w, []entry{
			{Name: "episode_010", Type: "dir"},
			{Name: "episode_002", Type: "dir"},
			{Name: "episode_001", Type: "dir"},
			{Name: "series_info.json", Type: "file"},
		})
	})
	eps, err := c.ListEpisodesForSeries(context.Background(), "series_1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"episode_001", "episode_002", "episode_010"}
	for i := range want {
		if eps[i] != want[i] {
			t.Fatalf("eps = %v", eps)
		}
	}
}
