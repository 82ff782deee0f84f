// Package serve 把 loader 的查询接口挂成 JSON API。
//
// local 模式下还会监控内容目录，文件一变就清缓存重建索引，
// remote 模式靠 TTL 过期和 POST /refresh webhook。
package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"

	"aiwen/internal/domain/config"
	"aiwen/internal/index"
	"aiwen/internal/loader"
)

const requestTimeout = 15 * time.Second

type Server struct {
	cfg config.Config

	articles *loader.Articles
	series   *loader.Series
	idx      *index.Store

	// 非空时对这个目录挂文件监控（local 模式）
	fsRoot string

	engine *gin.Engine

	watcher   *fsnotify.Watcher
	watchOnce sync.Once
}

func New(cfg config.Config, articles *loader.Articles, series *loader.Series, idx *index.Store, fsRoot string) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		articles: articles,
		series:   series,
		idx:      idx,
		fsRoot:   fsRoot,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(cors())
	s.routes(r)
	s.engine = r
	return s
}

// Engine 暴露路由给测试直接打请求。
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Access-Key")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/health", s.handleHealth)

	r.GET("/articles", s.handleArticles)
	r.GET("/articles/grouped", s.handleArticlesGrouped)
	r.GET("/articles/:date", s.handleArticlesByDate)
	r.GET("/articles/:date/:slug", s.handleArticle)
	r.GET("/dates", s.handleDates)
	r.GET("/tags", s.handleTags)
	r.GET("/tags/:tag", s.handleArticlesByTag)
	r.GET("/search", s.handleSearch)

	r.GET("/series", s.handleSeries)
	r.GET("/series/llm", s.handleLLMSeries)
	r.GET("/series/ml", s.handleMLSeries)
	// 系列 id 里带 "/"，只能走 catch-all
	r.GET("/series/detail/*id", s.handleSeriesDetail)

	r.POST("/refresh", s.handleRefresh)
}

// Refresh 清空全部缓存并重建索引，内容仓库推送后由 webhook 调用。
func (s *Server) Refresh(ctx context.Context) error {
	s.articles.ClearCache()
	s.series.ClearSeriesCache()

	metas := s.articles.GetAllArticles(ctx)
	if s.idx != nil {
		if err := s.idx.Rebuild(metas); err != nil {
			return fmt.Errorf("serve: rebuild index: %w", err)
		}
	}
	slog.Info("content refreshed", "articles", len(metas))
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	if s.fsRoot != "" {
		if err := s.startWatch(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) Close() error {
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	if s.idx != nil {
		return s.idx.Close()
	}
	return nil
}

func (s *Server) startWatch(ctx context.Context) (err error) {
	s.watchOnce.Do(func() {
		w, e := fsnotify.NewWatcher()
		if e != nil {
			err = e
			return
		}
		s.watcher = w

		go s.watchLoop(ctx)

		err = filepath.Walk(s.fsRoot, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return w.Add(path)
			}
			return nil
		})
	})
	return err
}

func (s *Server) watchLoop(ctx context.Context) {
	slog.Info("watching content directory", "root", s.fsRoot)
	debounce := time.NewTicker(time.Hour)
	debounce.Stop()

	trigger := func() {
		select {
		case <-debounce.C:
		default:
		}
		debounce.Reset(200 * time.Millisecond)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				trigger()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "error", err)
		case <-debounce.C:
			// Ticker 会一直走，触发一次就停，等下一批事件再 Reset
			debounce.Stop()
			ctx2, cancel := context.WithTimeout(ctx, 30*time.Second)
			if err := s.Refresh(ctx2); err != nil {
				slog.Error("refresh after file change failed", "error", err)
			}
			cancel()
		}
	}
}
