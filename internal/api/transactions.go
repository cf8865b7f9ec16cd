package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tally-dev/tally/internal/ledger"
)

const txNotFound = "Transaction not found"

func (s *Server) listTransactions(c *gin.Context) {
	txs, err := s.deps.Ledger.List(c.Request.Context())
	if err != nil {
		respondError(c, err, txNotFound)
		return
	}
	if c.Query("pending") == "true" {
		txs = ledger.Pending(txs)
	}
	ok(c, nonNil(txs))
}

func (s *Server) getTransaction(c *gin.Context) {
	tx, err := s.deps.Ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, txNotFound)
		return
	}
	ok(c, tx)
}

// createTransaction answers with the stored transaction, or with the whole
// series when the draft repeats.
func (s *Server) createTransaction(c *gin.Context) {
	var d ledger.Draft
	if !bindJSON(c, &d) {
		return
	}
	txs, err := s.deps.Ledger.Create(c.Request.Context(), d)
	if err != nil {
		respondError(c, err, txNotFound)
		return
	}
	if len(txs) == 1 && d.RepeatFrequency == "" && d.RepeatUntil == nil {
		created(c, txs[0])
		return
	}
	c.JSON(http.StatusCreated, envelope{
		Success: true,
		Data:    txs,
		Message: fmt.Sprintf("Created %d transactions", len(txs)),
	})
}

func (s *Server) updateTransaction(c *gin.Context) {
	var p ledger.Patch
	if !bindJSON(c, &p) {
		return
	}
	res, err := s.deps.Ledger.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondError(c, err, txNotFound)
		return
	}
	if res.Transaction != nil {
		ok(c, res.Transaction)
		return
	}
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    gin.H{"updated": res.Updated},
		Message: fmt.Sprintf("Updated %d transactions", res.Updated),
	})
}

func (s *Server) deleteTransaction(c *gin.Context) {
	if err := s.deps.Ledger.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, txNotFound)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Transaction deleted"})
}

func (s *Server) exportTransactions(c *gin.Context) {
	txs, err := s.deps.Ledger.List(c.Request.Context())
	if err != nil {
		respondError(c, err, txNotFound)
		return
	}
	name := fmt.Sprintf("transactions-%s.csv", s.deps.Now().In(s.deps.Location).Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Status(http.StatusOK)
	if err := ledger.WriteTransactions(c.Writer, txs); err != nil {
		_ = c.Error(err)
	}
}
