package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// TagImported marks rows that came from a bank export.
const TagImported = "imported"

// ChaseParser parses Chase checking CSV exports. Credits become Income,
// debits Expense, and account transfers Transfer. Bank rows have already
// cleared, so they are imported as paid.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
	chaseColType    = 4
)

// Format returns the parser name.
func (ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV.
func (ChaseParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var txs []model.Transaction
	for i, rec := range records[1:] {
		tx, err := parseChaseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func parseChaseRow(rec []string) (model.Transaction, error) {
	t, err := time.Parse(chaseDateFormat, rec[chaseColDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", rec[chaseColDate], err)
	}
	amount, err := decimal.NewFromString(rec[chaseColAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", rec[chaseColAmount], err)
	}
	if amount.IsZero() {
		return model.Transaction{}, errors.New("zero amount")
	}

	typ := model.TypeExpense
	switch {
	case rec[chaseColType] == "ACCT_XFER":
		typ = model.TypeTransfer
	case amount.IsPositive():
		typ = model.TypeIncome
	}

	return model.Transaction{
		Date:    civil.DateOf(t),
		Type:    typ,
		Amount:  typ.Signed(amount),
		Company: strings.Join(strings.Fields(rec[chaseColDesc]), " "),
		Tags:    []string{TagImported},
		Paid:    true,
	}, nil
}
