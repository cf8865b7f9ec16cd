package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tally-dev/tally/internal/backup"
	"github.com/tally-dev/tally/internal/logger"
)

func (s *Server) backup(c *gin.Context) {
	doc, err := s.deps.Backup.Export(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	ok(c, doc)
}

func (s *Server) restore(c *gin.Context) {
	doc, err := backup.Decode(c.Request.Body)
	if err != nil {
		respondError(c, err, "")
		return
	}
	res, err := s.deps.Backup.Restore(c.Request.Context(), doc)
	if err != nil {
		respondError(c, err, "")
		return
	}
	ok(c, res)
}

func (s *Server) cleanup(c *gin.Context) {
	res, err := s.deps.Backup.Cleanup(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	ok(c, res)
}

func (s *Server) health(c *gin.Context) {
	if err := s.deps.Store.Ping(c.Request.Context()); err != nil {
		log := logger.FromContext(c.Request.Context())
		log.Warn().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, envelope{Error: "Database unavailable"})
		return
	}
	ok(c, gin.H{"status": "ok"})
}
