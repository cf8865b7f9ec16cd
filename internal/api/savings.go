package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tally-dev/tally/internal/savings"
)

const savingsNotFound = "Savings account not found"

func (s *Server) listSavings(c *gin.Context) {
	accts, err := s.deps.Savings.List(c.Request.Context())
	if err != nil {
		respondError(c, err, savingsNotFound)
		return
	}
	ok(c, nonNil(accts))
}

func (s *Server) createSavings(c *gin.Context) {
	var in savings.Input
	if !bindJSON(c, &in) {
		return
	}
	a, err := s.deps.Savings.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, savingsNotFound)
		return
	}
	created(c, a)
}

func (s *Server) updateSavings(c *gin.Context) {
	var in savings.Input
	if !bindJSON(c, &in) {
		return
	}
	a, err := s.deps.Savings.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err, savingsNotFound)
		return
	}
	ok(c, a)
}

func (s *Server) deleteSavings(c *gin.Context) {
	if err := s.deps.Savings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, savingsNotFound)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Savings account deleted"})
}
