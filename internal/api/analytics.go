package api

import (
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/tally-dev/tally/internal/ledger"
)

// analytics summarizes the ledger up to endDate.
func (s *Server) analytics(c *gin.Context) {
	v := c.Query("endDate")
	if v == "" {
		fail(c, http.StatusBadRequest, "endDate is required")
		return
	}
	endDate, err := civil.ParseDate(v)
	if err != nil {
		fail(c, http.StatusBadRequest, "endDate must be a date in YYYY-MM-DD form")
		return
	}

	includeUnpaid := false
	if v := c.Query("includeUnpaid"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fail(c, http.StatusBadRequest, "includeUnpaid must be true or false")
			return
		}
		includeUnpaid = b
	}

	txs, err := s.deps.Ledger.List(c.Request.Context())
	if err != nil {
		respondError(c, err, txNotFound)
		return
	}
	ok(c, ledger.Summarize(txs, endDate, includeUnpaid))
}
