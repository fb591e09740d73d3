// file: internal/server/handlers.go
// version: 1.3.0
// guid: 2b3c4d5e-6f7a-8b9c-0d1e-2f3a4b5c6d7e

package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	ulid "github.com/oklog/ulid/v2"

	"github.com/jdfalk/audibleshelf/internal/catalog"
	"github.com/jdfalk/audibleshelf/internal/matcher"
	"github.com/jdfalk/audibleshelf/internal/metrics"
	"github.com/jdfalk/audibleshelf/internal/models"
	"github.com/jdfalk/audibleshelf/internal/scanner"
	"github.com/jdfalk/audibleshelf/internal/tags"
)

// PendingFile summarizes one unprocessed file for the review list.
type PendingFile struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	SizeMB int64  `json:"size_mb"`
}

// PendingDetail adds local tag data and an inline cover preview.
type PendingDetail struct {
	PendingFile
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	ASIN         string `json:"asin,omitempty"`
	CoverDataURI string `json:"cover_data_uri,omitempty"`
	SearchTerm   string `json:"search_term"`
}

type previewRequest struct {
	Path string `json:"path" binding:"required"`
	ASIN string `json:"asin" binding:"required"`
}

type acceptRequest struct {
	Path   string                 `json:"path" binding:"required"`
	Record *models.MetadataRecord `json:"record" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"pending": s.log.Len(),
	})
}

func (s *Server) handlePendingList(c *gin.Context) {
	files, err := scanner.FindFiles(s.cfg, s.log)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]PendingFile, 0, len(files))
	for _, path := range files {
		item := PendingFile{Path: path, Name: filepath.Base(path)}
		if info, err := os.Stat(path); err == nil {
			item.SizeMB = info.Size() / (1024 * 1024)
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (s *Server) handlePendingDetail(c *gin.Context) {
	path, ok := s.pendingPath(c)
	if !ok {
		return
	}

	detail := PendingDetail{
		PendingFile: PendingFile{Path: path, Name: filepath.Base(path)},
		SearchTerm:  tags.CleanSearchTerm(path),
	}
	if info, err := os.Stat(path); err == nil {
		detail.SizeMB = info.Size() / (1024 * 1024)
	}

	local, err := s.readTags(path)
	if err != nil {
		// Still show the file; the user can search manually.
		log.Printf("[WARN] tag read failed for %s: %v", path, err)
	} else {
		detail.Title = local.Title
		detail.Author = local.Author
		detail.ASIN = local.ASIN
		if asin := tags.ASINFromFilename(path); detail.ASIN == "" && asin != "" {
			detail.ASIN = asin
		}
		if len(local.CoverData) > 0 {
			mime := local.CoverMIME
			if mime == "" {
				mime = "image/jpeg"
			}
			detail.CoverDataURI = fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(local.CoverData))
		}
	}

	c.JSON(http.StatusOK, detail)
}

func (s *Server) handleSearch(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	author := strings.TrimSpace(c.Query("author"))
	keywords := strings.TrimSpace(c.Query("keywords"))

	var (
		results []models.MetadataRecord
		err     error
	)
	switch {
	case keywords != "":
		results, err = s.catalog.SearchKeywords(keywords)
	case title != "":
		results, err = s.catalog.Search(title, author)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "title or keywords required"})
		return
	}
	if err != nil {
		metrics.IncCatalogRequest("error")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	metrics.IncCatalogRequest("hit")

	// Annotate each candidate with its distance from the local tags so the
	// UI can highlight likely matches. Order is the catalog's relevance.
	matcher.Rank(results, models.LocalFileInfo{Title: title, Author: author})

	c.JSON(http.StatusOK, gin.H{"items": results, "count": len(results)})
}

func (s *Server) handlePreview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	path, ok := s.validatePending(c, req.Path)
	if !ok {
		return
	}

	local, err := s.readTags(path)
	if err != nil && !errors.Is(err, tags.ErrUnsupportedFile) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	remote, err := s.catalog.FetchByASIN(req.ASIN)
	if err != nil {
		metrics.IncCatalogRequest("error")
		status := http.StatusBadGateway
		if errors.Is(err, catalog.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	metrics.IncCatalogRequest("hit")

	merged := matcher.Merge(local, remote, s.cfg.Precedence)
	dest, err := s.manager.PlanDestination(merged, path)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record":      merged,
		"destination": dest.AudioPath,
	})
}

func (s *Server) handleAccept(c *gin.Context) {
	var req acceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	path, ok := s.validatePending(c, req.Path)
	if !ok {
		return
	}
	if s.log.Contains(path) {
		c.JSON(http.StatusConflict, gin.H{"error": "file already processed"})
		return
	}
	if req.Record.Title == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "record needs a title"})
		return
	}

	opID := ulid.Make().String()
	start := time.Now()
	dest, err := s.manager.Commit(req.Record, path)
	if err != nil {
		metrics.IncFailed("commit")
		log.Printf("[WARN] op %s: commit failed: %v", opID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "operation_id": opID})
		return
	}
	metrics.ObserveCommitDuration(time.Since(start))

	if !s.cfg.DryRun {
		if err := s.log.Append(path, dest.AudioPath, req.Record.Title, req.Record.ASIN); err != nil {
			log.Printf("[WARN] op %s: processed log update failed: %v", opID, err)
		}
	}
	metrics.IncProcessed()
	log.Printf("[INFO] op %s: committed %q -> %s", opID, req.Record.Title, dest.Dir)

	c.JSON(http.StatusOK, gin.H{
		"operation_id": opID,
		"destination":  dest.AudioPath,
	})
}

func (s *Server) handleProcessed(c *gin.Context) {
	entries := s.log.Entries()
	c.JSON(http.StatusOK, gin.H{"items": entries, "count": len(entries)})
}

func (s *Server) pendingPath(c *gin.Context) (string, bool) {
	return s.validatePending(c, c.Query("path"))
}

// validatePending rejects paths outside the configured input directory so
// the HTTP surface cannot be used to read or move arbitrary files.
func (s *Server) validatePending(c *gin.Context, raw string) (string, bool) {
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path required"})
		return "", false
	}
	path := filepath.Clean(raw)
	rel, err := filepath.Rel(s.cfg.InputDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "path outside input directory"})
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return "", false
	}
	return path, true
}
