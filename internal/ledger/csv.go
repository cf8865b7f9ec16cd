package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Header is the CSV header for transaction exports.
const Header = "id,date,type,amount,company,tags,paid,template_id,auto_generated,pending"

const (
	numFields     = 10
	colID         = 0
	colDate       = 1
	colType       = 2
	colAmount     = 3
	colCompany    = 4
	colTags       = 5
	colPaid       = 6
	colTemplateID = 7
	colAuto       = 8
	colPending    = 9
	tagSeparator  = ";"
)

// WriteTransactions writes txs as CSV, including the header.
func WriteTransactions(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txs {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTransactions parses a CSV produced by WriteTransactions.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var txs []model.Transaction
	for i, rec := range records[1:] {
		tx, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// MarshalTransaction converts a transaction to a CSV row.
func MarshalTransaction(tx model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = tx.ID
	row[colDate] = tx.Date.String()
	row[colType] = string(tx.Type)
	row[colAmount] = tx.Amount.StringFixed(2)
	row[colCompany] = tx.Company
	row[colTags] = strings.Join(tx.Tags, tagSeparator)
	row[colPaid] = strconv.FormatBool(tx.Paid)
	row[colTemplateID] = tx.TemplateID
	row[colAuto] = strconv.FormatBool(tx.IsAutoGenerated)
	row[colPending] = strconv.FormatBool(tx.IsPending)
	return row
}

// UnmarshalTransaction converts a CSV row to a transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := civil.ParseDate(record[colDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}
	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	var flags [3]bool
	for i, col := range []int{colPaid, colAuto, colPending} {
		if record[col] == "" {
			continue
		}
		flags[i], err = strconv.ParseBool(record[col])
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing column %d %q: %w", col+1, record[col], err)
		}
	}

	tags := []string{}
	if record[colTags] != "" {
		tags = strings.Split(record[colTags], tagSeparator)
	}

	return model.Transaction{
		ID:              record[colID],
		Date:            date,
		Type:            model.TransactionType(record[colType]),
		Amount:          amount,
		Company:         record[colCompany],
		Tags:            tags,
		Paid:            flags[0],
		TemplateID:      record[colTemplateID],
		IsAutoGenerated: flags[1],
		IsPending:       flags[2],
	}, nil
}
