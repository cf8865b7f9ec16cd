package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/tally-dev/tally/internal/logger"
	"github.com/tally-dev/tally/internal/model"
)

const templateNotFound = "Template not found"

func (s *Server) listTemplates(c *gin.Context) {
	ts, err := s.deps.Templates.List(c.Request.Context())
	if err != nil {
		respondError(c, err, templateNotFound)
		return
	}
	ok(c, nonNil(ts))
}

func (s *Server) getTemplate(c *gin.Context) {
	t, err := s.deps.Templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, templateNotFound)
		return
	}
	ok(c, t)
}

func (s *Server) createTemplate(c *gin.Context) {
	// Templates start active unless the body says otherwise.
	t := model.RecurrenceTemplate{IsActive: true}
	if !bindJSON(c, &t) {
		return
	}
	saved, err := s.deps.Templates.Create(c.Request.Context(), t)
	if err != nil {
		respondError(c, err, templateNotFound)
		return
	}
	created(c, saved)
}

// updateTemplate overlays the request body on the stored template, so
// omitted fields keep their values. A supplied recurrencePattern replaces the
// old one whole.
func (s *Server) updateTemplate(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	existing, err := s.deps.Templates.Get(ctx, id)
	if err != nil {
		respondError(c, err, templateNotFound)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Error: "Invalid request body", Errors: []string{err.Error()}})
		return
	}
	if _, ok := fields["recurrencePattern"]; ok {
		existing.RecurrencePattern = nil
	}
	if err := json.Unmarshal(body, &existing); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Error: "Invalid request body", Errors: []string{err.Error()}})
		return
	}
	existing.ID = id

	updated, err := s.deps.Templates.Update(ctx, existing)
	if err != nil {
		respondError(c, err, templateNotFound)
		return
	}
	ok(c, updated)
}

func (s *Server) deleteTemplate(c *gin.Context) {
	if err := s.deps.Templates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, templateNotFound)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Template deleted"})
}

// processTemplates runs the batch processor once. A run with write failures
// still reports what it created.
func (s *Server) processTemplates(c *gin.Context) {
	report, err := s.deps.Processor.Run(c.Request.Context(), s.deps.Now())
	if err != nil {
		log := logger.FromContext(c.Request.Context())
		log.Error().Err(err).Strs("failed_templates", report.Failed).Msg("recurring processing incomplete")
		c.JSON(http.StatusInternalServerError, envelope{
			Data:  report,
			Error: "Some recurring transactions could not be generated",
		})
		return
	}
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    report,
		Message: fmt.Sprintf("Generated %d transactions", report.Generated),
	})
}

func (s *Server) listExceptions(c *gin.Context) {
	exs, err := s.deps.Templates.Exceptions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, templateNotFound)
		return
	}
	ok(c, nonNil(exs))
}

func (s *Server) setException(c *gin.Context) {
	var ex model.TemplateException
	if !bindJSON(c, &ex) {
		return
	}
	ex.ID = ""
	ex.TemplateID = c.Param("id")
	saved, err := s.deps.Templates.SetException(c.Request.Context(), ex)
	if err != nil {
		respondError(c, err, templateNotFound)
		return
	}
	created(c, saved)
}

func (s *Server) clearException(c *gin.Context) {
	d, err := civil.ParseDate(c.Param("date"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid occurrence date")
		return
	}
	if err := s.deps.Templates.ClearException(c.Request.Context(), c.Param("id"), d); err != nil {
		respondError(c, err, "Exception not found")
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Exception removed"})
}
