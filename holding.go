package bankfeed

import (
	"slices"

	"github.com/etnz/bankfeed/date"
	"github.com/shopspring/decimal"
)

// Well-known holding column names.
const (
	ColName            = "name"
	ColISIN            = "isin"
	ColQuantity        = "quantity"
	ColBuyingPrice     = "buyingPrice"
	ColLastPrice       = "lastPrice"
	ColAmountVariation = "amountVariation"
	ColVariation       = "variation"
	ColLastMovement    = "lastMovementDate"
)

// Holding is one position line of a brokerage export.
type Holding struct {
	Name             string
	ISIN             string // security identifier, optional
	Quantity         decimal.Decimal
	BuyingPrice      *decimal.Decimal
	LastPrice        *decimal.Decimal
	Amount           decimal.Decimal // current book value
	AmountVariation  *decimal.Decimal
	VariationPercent *decimal.Decimal
	LastMovement     date.Date // zero when the source has none
}

// Holdings normalizes the table rows into Holdings, sorted by descending
// book value. Rows with neither a name nor an identifier are dropped.
func (t RawTable) Holdings() []Holding {
	holdings := make([]Holding, 0, len(t.Rows))
	for _, row := range t.Rows {
		h := Holding{
			Name: cell(row, ColName),
			ISIN: cell(row, ColISIN),
		}
		if h.Name == "" && h.ISIN == "" {
			continue
		}
		h.Quantity, _ = ParseAmount(cell(row, ColQuantity))
		h.Amount, _ = ParseAmount(cell(row, ColAmount))
		h.BuyingPrice = optAmount(row, ColBuyingPrice)
		h.LastPrice = optAmount(row, ColLastPrice)
		h.AmountVariation = optAmount(row, ColAmountVariation)
		h.VariationPercent = optAmount(row, ColVariation)
		if d, ok := ParseDay(cell(row, ColLastMovement)); ok {
			h.LastMovement = d
		}
		holdings = append(holdings, h)
	}
	slices.SortStableFunc(holdings, func(a, b Holding) int {
		return b.Amount.Cmp(a.Amount)
	})
	return holdings
}

func optAmount(row map[string]string, name string) *decimal.Decimal {
	if d, ok := ParseAmount(cell(row, name)); ok {
		return &d
	}
	return nil
}
