package statement

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionItem is an unbilled production entry priced with its activity rate.
type ProductionItem struct {
	ID                  uint            `json:"id"`
	Date                time.Time       `json:"-"`
	ActivityName        string          `json:"activity"`
	WorkerName          string          `json:"worker"`
	Triot               string          `json:"triot"`
	Tramo               string          `json:"tramo"`
	Quantity            decimal.Decimal `json:"quantity"`
	UnitProductionValue decimal.Decimal `json:"unit_production_value"`
	UnitSaleValue       decimal.Decimal `json:"unit_sale_value"`
	ProductionAmount    decimal.Decimal `json:"production_amount"`
	SaleAmount          decimal.Decimal `json:"sale_amount"`
}

// ExpenseItem is an unbilled expense.
type ExpenseItem struct {
	ID          uint            `json:"id"`
	Date        time.Time       `json:"-"`
	Description string          `json:"description"`
	Note        string          `json:"note"`
	Amount      decimal.Decimal `json:"amount"`
}

// EligibleProduction is the result of ListEligibleProduction. UnmatchedRates
// counts rows dropped because no activity rate matched their activity name.
type EligibleProduction struct {
	Items          []ProductionItem
	UnmatchedRates int
}

type Totals struct {
	TotalProduction decimal.Decimal `json:"total_production"`
	TotalSale       decimal.Decimal `json:"total_sale"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	Net             decimal.Decimal `json:"net"`
}

// Add combines the totals of two disjoint selections.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		TotalProduction: t.TotalProduction.Add(o.TotalProduction),
		TotalSale:       t.TotalSale.Add(o.TotalSale),
		TotalExpenses:   t.TotalExpenses.Add(o.TotalExpenses),
		Net:             t.Net.Add(o.Net),
	}
}

func (t Totals) Equal(o Totals) bool {
	return t.TotalProduction.Equal(o.TotalProduction) &&
		t.TotalSale.Equal(o.TotalSale) &&
		t.TotalExpenses.Equal(o.TotalExpenses) &&
		t.Net.Equal(o.Net)
}

// ComputeTotals sums a selection. It does not round.
func ComputeTotals(production []ProductionItem, expenses []ExpenseItem) Totals {
	t := Totals{
		TotalProduction: decimal.Zero,
		TotalSale:       decimal.Zero,
		TotalExpenses:   decimal.Zero,
	}
	for _, p := range production {
		t.TotalProduction = t.TotalProduction.Add(p.ProductionAmount)
		t.TotalSale = t.TotalSale.Add(p.SaleAmount)
	}
	for _, e := range expenses {
		t.TotalExpenses = t.TotalExpenses.Add(e.Amount)
	}
	t.Net = t.TotalProduction.Sub(t.TotalExpenses)
	return t
}
