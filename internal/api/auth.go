package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type setupRequest struct {
	PIN              string `json:"pin"`
	SecurityQuestion string `json:"securityQuestion"`
	SecurityAnswer   string `json:"securityAnswer"`
}

type verifyRequest struct {
	PIN string `json:"pin"`
}

type resetRequest struct {
	NewPIN         string `json:"newPin"`
	SecurityAnswer string `json:"securityAnswer"`
}

func (s *Server) authStatus(c *gin.Context) {
	set, err := s.deps.Auth.IsSet(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	ok(c, gin.H{"pinSet": set})
}

func (s *Server) authSetup(c *gin.Context) {
	var req setupRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := s.deps.Auth.Setup(c.Request.Context(), req.PIN, req.SecurityQuestion, req.SecurityAnswer); err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, envelope{Success: true, Message: "PIN set"})
}

func (s *Server) authVerify(c *gin.Context) {
	var req verifyRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := s.deps.Auth.Verify(c.Request.Context(), req.PIN); err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true})
}

func (s *Server) authQuestion(c *gin.Context) {
	q, err := s.deps.Auth.SecurityQuestion(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	ok(c, gin.H{"securityQuestion": q})
}

func (s *Server) authReset(c *gin.Context) {
	var req resetRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := s.deps.Auth.Reset(c.Request.Context(), req.NewPIN, req.SecurityAnswer); err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "PIN reset"})
}
