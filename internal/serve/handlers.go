package serve

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"aiwen/internal/index"
)

func reqCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"site":   s.cfg.Site.Title,
	})
}

func (s *Server) handleArticles(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	// 带分页参数时走索引，不用每页都扫全量列表
	if s.idx != nil && (c.Query("page") != "" || c.Query("size") != "") {
		page, _ := strconv.Atoi(c.Query("page"))
		size, _ := strconv.Atoi(c.Query("size"))
		metas, err := s.idx.ListRecent(index.ListOptions{Page: page, Size: size})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "index query failed"})
			return
		}
		c.JSON(http.StatusOK, metas)
		return
	}

	c.JSON(http.StatusOK, s.articles.GetAllArticles(ctx))
}

func (s *Server) handleArticlesGrouped(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	c.JSON(http.StatusOK, s.articles.GetArticlesGroupedByDate(ctx))
}

func (s *Server) handleArticlesByDate(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	c.JSON(http.StatusOK, s.articles.GetArticlesByDate(ctx, c.Param("date")))
}

func (s *Server) handleArticle(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	art, err := s.articles.GetArticle(ctx, c.Param("date"), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch article"})
		return
	}
	if art == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}

	// related 顺带给出，前端文章页一次拿全
	related := s.articles.GetRelatedArticles(ctx, art.ArticleMeta, 0)
	c.JSON(http.StatusOK, gin.H{
		"article": art,
		"related": related,
	})
}

func (s *Server) handleDates(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	c.JSON(http.StatusOK, s.articles.GetAllDates(ctx))
}

func (s *Server) handleTags(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	c.JSON(http.StatusOK, gin.H{
		"articleTags": s.articles.GetAllTags(ctx),
		"seriesTags":  s.series.GetAllSeriesTags(ctx),
	})
}

func (s *Server) handleArticlesByTag(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	tag := c.Param("tag")
	c.JSON(http.StatusOK, gin.H{
		"articles": s.articles.GetArticlesByTag(ctx, tag),
		"series":   s.series.GetSeriesByTag(ctx, tag),
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'q' parameter"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"articles": s.articles.SearchArticles(ctx, q),
		"series":   s.series.SearchSeries(ctx, q),
	})
}

func (s *Server) handleSeries(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	c.JSON(http.StatusOK, gin.H{
		"series":        s.series.GetAllSeries(ctx),
		"totalEpisodes": s.series.GetTotalEpisodes(ctx),
	})
}

func (s *Server) handleLLMSeries(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	c.JSON(http.StatusOK, s.series.GetLLMSeries(ctx))
}

func (s *Server) handleMLSeries(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	c.JSON(http.StatusOK, s.series.GetMLSeries(ctx))
}

// handleSeriesDetail 处理 /series/detail/*id。系列 id 自身带 "/"
// （LLM_series/series_1_xxx），id 末尾再接 /episode/N 表示取单集。
func (s *Server) handleSeriesDetail(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	id := strings.Trim(c.Param("id"), "/")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing series id"})
		return
	}

	if seriesID, epPart, ok := strings.Cut(id, "/episode/"); ok {
		n, err := strconv.Atoi(epPart)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid episode number"})
			return
		}
		art, err := s.series.GetSeriesEpisode(ctx, seriesID, n)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch episode"})
			return
		}
		if art == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "episode not found"})
			return
		}
		c.JSON(http.StatusOK, art)
		return
	}

	sw := s.series.GetSeriesWithEpisodes(ctx, id)
	if sw == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "series not found"})
		return
	}
	c.JSON(http.StatusOK, sw)
}

// handleRefresh 是内容仓库推送后的 webhook 入口。配置了 access_key
// 时要求 X-Access-Key 匹配。
func (s *Server) handleRefresh(c *gin.Context) {
	if key := s.cfg.Serve.AccessKey; key != "" && c.GetHeader("X-Access-Key") != key {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid access key"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	if err := s.Refresh(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}
