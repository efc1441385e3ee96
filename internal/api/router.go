package api

import (
	"github.com/gin-gonic/gin"

	"github.com/avkrylov/searchcore/internal/api/middleware"
)

func (s *Server) setupRouter() {
	if s.cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging())
	router.Use(middleware.Timeout(s.cfg.ReadTimeout))
	if s.cfg.EnableCORS {
		router.Use(middleware.CORS(s.cfg.CORSOrigins))
	}
	router.Use(middleware.RateLimit(s.cfg.RateLimit, s.cfg.RateBurst))

	router.GET("/startIndexing", s.handleStartIndexing)
	router.GET("/stopIndexing", s.handleStopIndexing)
	router.GET("/statistics", s.handleStatistics)
	router.POST("/indexPage", s.handleIndexPage)
	router.GET("/search", s.handleSearch)

	s.router = router
}
