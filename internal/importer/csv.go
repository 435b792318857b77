// Package importer turns a fixed-layout CSV of bank transactions into
// manual transaction rows. Columns are date,description,amount in that
// order; there is no column guessing here.
package importer

import (
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xeipuuv/gojsonschema"

	"routecrm-go/internal/models"
)

//go:embed row.schema.json
var rowSchema string

// RowError records a row that failed validation. Bad rows are reported, not
// fatal; the rest of the file still imports.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type Importer struct {
	schema *gojsonschema.Schema
}

func New() (*Importer, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(rowSchema))
	if err != nil {
		return nil, fmt.Errorf("compile row schema: %w", err)
	}
	return &Importer{schema: schema}, nil
}

// Parse reads the CSV and returns transactions ready to insert. Imported
// rows carry no external ID, so they are invisible to the sync engine's
// duplicate and tombstone checks. Amount signs follow the provider
// convention used elsewhere: negative = inflow.
func (i *Importer) Parse(r io.Reader, userID, accountID uint) ([]models.Transaction, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3

	var (
		txns    []models.Transaction
		rowErrs []RowError
		line    int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Message: err.Error()})
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "date") {
			// Header row.
			continue
		}

		row := map[string]string{
			"date":        strings.TrimSpace(record[0]),
			"description": strings.TrimSpace(record[1]),
			"amount":      strings.TrimSpace(record[2]),
		}
		if msg, ok := i.validate(row); !ok {
			rowErrs = append(rowErrs, RowError{Line: line, Message: msg})
			continue
		}

		date, _ := time.Parse("2006-01-02", row["date"])
		amount, _ := decimal.NewFromString(row["amount"])

		direction := models.DirectionOutflow
		if amount.IsNegative() {
			direction = models.DirectionInflow
		}
		txns = append(txns, models.Transaction{
			UserID:         userID,
			AccountID:      accountID,
			Date:           date,
			Description:    row["description"],
			Amount:         amount.Abs(),
			Direction:      direction,
			StatementMonth: int(date.Month()),
			StatementYear:  date.Year(),
		})
	}
	return txns, rowErrs, nil
}

func (i *Importer) validate(row map[string]string) (string, bool) {
	payload, err := json.Marshal(row)
	if err != nil {
		return err.Error(), false
	}
	res, err := i.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return err.Error(), false
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return strings.Join(msgs, "; "), false
	}
	return "", true
}
