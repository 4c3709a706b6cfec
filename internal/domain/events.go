package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceUpdateEvent - тик цены из CLOB-стрима. AssetID - это token id стороны
// рынка, цена уже готовая (цена именно этой стороны, пересчет не нужен).
type PriceUpdateEvent struct {
	AssetID string
	Price   decimal.Decimal
	Time    time.Time
}
