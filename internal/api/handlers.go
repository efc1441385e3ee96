package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/avkrylov/searchcore/internal/indexing"
	"github.com/avkrylov/searchcore/internal/lemma"
)

// handleStartIndexing launches a full crawl of every configured site.
// It returns immediately; poll /statistics for progress.
func (s *Server) handleStartIndexing(c *gin.Context) {
	if s.indexing.IsIndexing() {
		respondBadRequest(c, "indexing already in progress")
		return
	}
	// The crawl outlives this request, so it must not inherit the
	// request's context, which is cancelled once the response is sent.
	s.indexing.StartIndexing(context.Background(), 0)
	respondOK(c, http.StatusOK, nil)
}

// handleStopIndexing is GET /stopIndexing.
func (s *Server) handleStopIndexing(c *gin.Context) {
	if !s.indexing.IsIndexing() {
		respondBadRequest(c, "indexing is not currently running")
		return
	}
	s.indexing.StopIndexing()
	respondOK(c, http.StatusOK, nil)
}

// handleStatistics is GET /statistics.
func (s *Server) handleStatistics(c *gin.Context) {
	summary, err := s.statistics.Summary()
	if err != nil {
		respondInternalError(c, err.Error())
		return
	}
	respondOK(c, http.StatusOK, gin.H{"statistics": summary})
}

type indexPageRequest struct {
	URL string `json:"url" form:"url"`
}

// handleIndexPage is POST /indexPage: index one page outside of a
// full site crawl. The URL must fall under one of the configured
// sites; indexing.Service resolves which one by prefix match.
func (s *Server) handleIndexPage(c *gin.Context) {
	var req indexPageRequest
	if err := c.ShouldBind(&req); err != nil || req.URL == "" {
		respondBadRequest(c, "missing required parameter \"url\"")
		return
	}

	if parsed, err := url.Parse(req.URL); err != nil || parsed.Host == "" {
		respondBadRequest(c, "invalid url")
		return
	}

	if err := s.indexing.IndexPage(c.Request.Context(), req.URL); err != nil {
		if errors.Is(err, indexing.ErrSiteNotConfigured) {
			respondBadRequest(c, err.Error())
			return
		}
		respondInternalError(c, err.Error())
		return
	}
	respondOK(c, http.StatusOK, nil)
}

// handleSearch is GET /search?query=...&site=...&offset=...&limit=...
func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		respondBadRequest(c, "missing required parameter \"query\"")
		return
	}
	siteURL := c.Query("site")

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	hits, err := s.lemmaFreq.Search(query, siteURL, s.threshold, offset, limit)
	if err != nil {
		respondInternalError(c, err.Error())
		return
	}

	results, err := s.builder.Build(hits, lemma.AnalyzeQuery(query))
	if err != nil {
		respondInternalError(c, err.Error())
		return
	}

	respondOK(c, http.StatusOK, gin.H{"count": len(results), "results": results})
}
