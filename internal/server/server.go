// file: internal/server/server.go
// version: 2.0.0
// guid: 1a2b3c4d-5e6f-7a8b-9c0d-1e2f3a4b5c6d

package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdfalk/audibleshelf/internal/config"
	"github.com/jdfalk/audibleshelf/internal/library"
	"github.com/jdfalk/audibleshelf/internal/metrics"
	"github.com/jdfalk/audibleshelf/internal/models"
	"github.com/jdfalk/audibleshelf/internal/server/middleware"
	"github.com/jdfalk/audibleshelf/internal/skiplog"
	"github.com/jdfalk/audibleshelf/internal/tags"
)

// Catalog is the remote lookup surface the review UI needs. Satisfied by
// catalog.Client.
type Catalog interface {
	FetchByASIN(asin string) (*models.MetadataRecord, error)
	Search(title, author string) ([]models.MetadataRecord, error)
	SearchKeywords(keywords string) ([]models.MetadataRecord, error)
}

// Server hosts the local review UI: inspect pending files, search the
// catalog, preview a merge, and accept it into the library.
type Server struct {
	cfg      *config.Config
	catalog  Catalog
	manager  *library.Manager
	log      *skiplog.Log
	readTags func(string) (models.LocalFileInfo, error)
}

// NewServer wires the review server against the shared pipeline pieces.
func NewServer(cfg *config.Config, cat Catalog, manager *library.Manager, processedLog *skiplog.Log) *Server {
	return &Server{
		cfg:      cfg,
		catalog:  cat,
		manager:  manager,
		log:      processedLog,
		readTags: tags.Read,
	}
}

// Router builds the Gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.handleIndex)
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middleware.NewIPRateLimiter(240, 60)
	api := router.Group("/api/v1")
	api.Use(limiter.Middleware())
	{
		api.GET("/pending", s.handlePendingList)
		api.GET("/pending/detail", s.handlePendingDetail)
		api.GET("/search", s.handleSearch)
		api.POST("/preview", s.handlePreview)
		api.POST("/accept", s.handleAccept)
		api.GET("/processed", s.handleProcessed)
	}

	return router
}

// Run serves until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Run(host string, port int) error {
	metrics.Register()

	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] review server listening on http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("[INFO] received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
