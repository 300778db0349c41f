// Package server serves the library's JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/amonks/discography/data"
	"github.com/amonks/discography/db"
	"github.com/amonks/discography/library"
)

type server struct {
	lib *library.Library
	log hclog.Logger
}

// New returns the API's routes.
func New(lib *library.Library, log hclog.Logger) http.Handler {
	s := &server{lib: lib, log: log.Named("server")}

	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests)

	api := router.Group("/api")
	{
		api.GET("/search", s.searchCatalog)
		api.GET("/queue", s.listJobs)

		api.GET("/artists", s.listArtists)
		api.POST("/artists", s.importArtist)
		api.GET("/artists/:slug", s.getArtist)
		api.DELETE("/artists/:slug", s.removeArtist)
		api.PUT("/artists/:slug/location", s.setArtistLocation)

		api.GET("/albums/:slug", s.getAlbum)
		api.DELETE("/albums/:slug", s.removeAlbum)
		api.PUT("/albums/status", s.setAlbumsStatus)
		api.POST("/albums/:slug/search", s.searchProviders)

		api.POST("/results/:slug/snatch", s.snatch)
	}
	return router
}

// Run serves handler on addr until ctx is canceled.
func Run(ctx context.Context, handler http.Handler, addr string) error {
	srv := http.Server{Addr: addr, Handler: handler}

	errs := make(chan error)
	go func() { errs <- srv.ListenAndServe() }()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

func (s *server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug("request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "took", time.Since(start))
}

func (s *server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, db.ErrNotFound) {
		status = http.StatusNotFound
	} else if errors.Is(err, library.ErrOutsideLibrary) {
		status = http.StatusBadRequest
	} else {
		s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func id(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("slug"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(n), true
}

func (s *server) searchCatalog(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing q"})
		return
	}
	matches, err := s.lib.SearchCatalog(c.Request.Context(), query)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

func (s *server) listJobs(c *gin.Context) {
	c.JSON(http.StatusOK, s.lib.Jobs())
}

func (s *server) listArtists(c *gin.Context) {
	artists, err := s.lib.ListArtists(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, artists)
}

type importRequest struct {
	ID      string `json:"id" binding:"required"`
	RootDir string `json:"root_dir"`
}

func (s *server) importArtist(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, ok := s.lib.ImportArtist(req.ID, req.RootDir)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "import not accepted"})
		return
	}
	c.JSON(http.StatusAccepted, job.Info())
}

func (s *server) getArtist(c *gin.Context) {
	artist, err := s.lib.ArtistBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, artist)
}

func (s *server) removeArtist(c *gin.Context) {
	artistID, ok := id(c)
	if !ok {
		return
	}
	if err := s.lib.RemoveArtist(c.Request.Context(), artistID); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type locationRequest struct {
	Path string `json:"path" binding:"required"`
}

func (s *server) setArtistLocation(c *gin.Context) {
	artistID, ok := id(c)
	if !ok {
		return
	}
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	artist, err := s.lib.SetArtistLocation(c.Request.Context(), artistID, req.Path)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, artist)
}

func (s *server) getAlbum(c *gin.Context) {
	album, err := s.lib.AlbumBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, album)
}

func (s *server) removeAlbum(c *gin.Context) {
	albumID, ok := id(c)
	if !ok {
		return
	}
	if err := s.lib.RemoveAlbum(c.Request.Context(), albumID); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type statusRequest struct {
	IDs    []uint           `json:"ids" binding:"required"`
	Status data.AlbumStatus `json:"status"`
}

func (s *server) setAlbumsStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	if err := s.lib.SetAlbumsStatus(c.Request.Context(), req.IDs, req.Status); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) searchProviders(c *gin.Context) {
	albumID, ok := id(c)
	if !ok {
		return
	}
	results, err := s.lib.SearchProviders(c.Request.Context(), albumID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *server) snatch(c *gin.Context) {
	resultID, ok := id(c)
	if !ok {
		return
	}
	if !s.lib.Snatch(c.Request.Context(), resultID) {
		c.JSON(http.StatusBadGateway, gin.H{"snatched": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snatched": true})
}
