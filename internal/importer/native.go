package importer

import (
	"io"

	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/model"
)

// NativeParser reads the CSV layout written by ledger.WriteTransactions.
type NativeParser struct{}

// Format returns the parser name.
func (NativeParser) Format() string { return "tally" }

// Parse reads a native CSV. IDs in the file are dropped; the store assigns
// new ones. Rows are detached from their templates, which may not exist in
// the target ledger and whose occurrences the processor owns there.
// IsAutoGenerated is kept so pending placeholders still validate.
func (NativeParser) Parse(r io.Reader) ([]model.Transaction, error) {
	txs, err := ledger.ReadTransactions(r)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		txs[i].ID = ""
		txs[i].TemplateID = ""
	}
	return txs, nil
}
