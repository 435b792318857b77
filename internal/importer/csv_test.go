package importer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routecrm-go/internal/models"
)

func newImporter(t *testing.T) *Importer {
	t.Helper()
	imp, err := New()
	require.NoError(t, err)
	return imp
}

func TestParseImportsRows(t *testing.T) {
	csv := strings.Join([]string{
		"date,description,amount",
		"2026-08-01,Pool chemicals,85.40",
		"2026-08-03,Customer payment,-250.00",
	}, "\n")

	txns, rowErrs, err := newImporter(t).Parse(strings.NewReader(csv), 1, 42)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, txns, 2)

	out := txns[0]
	assert.Equal(t, uint(1), out.UserID)
	assert.Equal(t, uint(42), out.AccountID)
	assert.Nil(t, out.ExternalID, "imported rows carry no provider ID")
	assert.Equal(t, "Pool chemicals", out.Description)
	assert.True(t, out.Amount.Equal(decimal.NewFromFloat(85.40)))
	assert.Equal(t, models.DirectionOutflow, out.Direction)
	assert.Equal(t, 8, out.StatementMonth)
	assert.Equal(t, 2026, out.StatementYear)

	in := txns[1]
	assert.Equal(t, models.DirectionInflow, in.Direction)
	assert.True(t, in.Amount.Equal(decimal.NewFromFloat(250.00)))
}

func TestParseWithoutHeaderRow(t *testing.T) {
	txns, rowErrs, err := newImporter(t).Parse(strings.NewReader("2026-08-01,Mulch,19.99\n"), 1, 1)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	assert.Len(t, txns, 1)
}

func TestParseBadRowsReportedNotFatal(t *testing.T) {
	csv := strings.Join([]string{
		"date,description,amount",
		"not-a-date,Broken,1.00",
		"2026-08-02,,3.00",
		"2026-08-02,Valid row,3.50",
		"2026-08-03,Too many fields,1.00,extra",
	}, "\n")

	txns, rowErrs, err := newImporter(t).Parse(strings.NewReader(csv), 1, 1)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Valid row", txns[0].Description)
	assert.Len(t, rowErrs, 3)
}

func TestParseRejectsOverPreciseAmount(t *testing.T) {
	txns, rowErrs, err := newImporter(t).Parse(strings.NewReader("2026-08-01,Odd,1.999\n"), 1, 1)
	require.NoError(t, err)
	assert.Empty(t, txns)
	assert.Len(t, rowErrs, 1)
}
