package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string          `json:"name" validate:"required"`
	TaxID  string          `json:"tax_id" validate:"required,rut"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Pct    int             `json:"pct" validate:"gte=0,lte=100"`
}

func TestStructOK(t *testing.T) {
	err := Struct(sample{Name: "x", TaxID: "76.002.581-K", Amount: decimal.NewFromInt(1), Pct: 100})
	require.NoError(t, err)
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{TaxID: "12.345.678-4", Amount: decimal.Zero, Pct: 101})
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "required", fe.Fields["name"])
	assert.Equal(t, "rut", fe.Fields["tax_id"])
	assert.Equal(t, "gt", fe.Fields["amount"])
	assert.Equal(t, "lte", fe.Fields["pct"])
}

func TestNegativeDecimalRejected(t *testing.T) {
	err := Struct(sample{Name: "x", TaxID: "76002581K", Amount: decimal.NewFromInt(-5)})
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "gt", fe.Fields["amount"])
}
