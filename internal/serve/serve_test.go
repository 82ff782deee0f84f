package serve

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"aiwen/internal/cache"
	"aiwen/internal/domain/config"
	"aiwen/internal/domain/content"
	"aiwen/internal/loader"
	"aiwen/internal/markdown"
	"aiwen/internal/source"
)

// writeContentTree 造一棵符合仓库目录约定的本地内容树。
func writeContentTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	mustWrite := func(rel, body string) {
		t.Helper()
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	mustWrite("20240115/longform/article_🎯_twitter_gpt_4_20240115_093000.md",
		"---\ntags: [ai, news]\n---\n\n# Hello World\n\nFirst paragraph.")
	mustWrite("LLM_series/series_1_foundation/episode_001/intro.md",
		"# Intro\n\nEpisode body.")
	mustWrite("LLM_series/series_1_foundation/series_info.json",
		`{"name":"LLM 基础","emoji":"🧠","tags":["llm"]}`)

	return root
}

func newTestServer(t *testing.T, accessKey string) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.Source.Mode = config.SourceLocal
	cfg.Serve.AccessKey = accessKey

	src := source.NewFS(writeContentTree(t))
	md := markdown.NewRenderer(false)
	articles := loader.NewArticles(src, md, cache.Options{})
	series := loader.NewSeries(src, md, cache.Options{})

	return New(cfg, articles, series, nil, "")
}

func do(t *testing.T, s *Server, method, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")
	w := do(t, s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestArticlesEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	w := do(t, s, http.MethodGet, "/articles", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var metas []content.ArticleMeta
	if err := json.Unmarshal(w.Body.Bytes(), &metas); err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 {
		t.Fatalf("metas = %d", len(metas))
	}
	if metas[0].Slug != "hello-world" || metas[0].Date != "20240115" {
		t.Errorf("meta = %+v", metas[0])
	}
}

func TestArticleDetail(t *testing.T) {
	s := newTestServer(t, "")
	w := do(t, s, http.MethodGet, "/articles/20240115/hello-world", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Article content.Article       `json:"article"`
		Related []content.ArticleMeta `json:"related"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Article.Title != "Hello World" {
		t.Errorf("title = %q", resp.Article.Title)
	}
	if resp.Article.HTMLContent == "" || len(resp.Article.Headings) != 1 {
		t.Errorf("rendered = %+v", resp.Article)
	}

	if w := do(t, s, http.MethodGet, "/articles/20240115/no-such", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing article status = %d", w.Code)
	}
}

func TestSeriesDetailRouting(t *testing.T) {
	s := newTestServer(t, "")

	w := do(t, s, http.MethodGet, "/series/detail/LLM_series/series_1_foundation", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("series status = %d body = %s", w.Code, w.Body.String())
	}
	var sw content.SeriesWithEpisodes
	if err := json.Unmarshal(w.Body.Bytes(), &sw); err != nil {
		t.Fatal(err)
	}
	if sw.Title != "LLM 基础" || len(sw.Episodes) != 1 {
		t.Errorf("series = %+v", sw)
	}

	w = do(t, s, http.MethodGet, "/series/detail/LLM_series/series_1_foundation/episode/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("episode status = %d body = %s", w.Code, w.Body.String())
	}
	var art content.Article
	if err := json.Unmarshal(w.Body.Bytes(), &art); err != nil {
		t.Fatal(err)
	}
	if art.Title != "Intro" {
		t.Errorf("episode title = %q", art.Title)
	}

	if w := do(t, s, http.MethodGet, "/series/detail/LLM_series/series_1_foundation/episode/99", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing episode status = %d", w.Code)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	s := newTestServer(t, "")
	if w := do(t, s, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/search?q=hello", nil); w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestRefreshAccessKey(t *testing.T) {
	s := newTestServer(t, "secret")

	if w := do(t, s, http.MethodPost, "/refresh", nil); w.Code != http.StatusForbidden {
		t.Errorf("no key status = %d", w.Code)
	}
	w := do(t, s, http.MethodPost, "/refresh", map[string]string{"X-Access-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Errorf("with key status = %d body = %s", w.Code, w.Body.String())
	}
}
