package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Market - снимок рынка из Gamma API. Read-only, живет один цикл опроса.
type Market struct {
	ID            string
	Question      string
	Slug          string
	Description   string
	OutcomePrices []decimal.Decimal // [0] = YES, [1] = NO (если есть)
	ClobTokenIDs  []string          // Токены CLOB, [0] = YES, [1] = NO
	Volume        decimal.Decimal
	StartDate     string // ISO-даты как отдает API, могут быть пустыми
	EndDate       string
	CreatedAt     string
	Active        bool
	Closed        bool
}

// OutcomePrice возвращает цену запрошенной стороны. Цена YES отдается API
// напрямую; NO - вторая цена в списке, либо 1 - YES, если цена одна.
// Если цен нет вообще, вернет ok=false - такой рынок молча пропускаем.
func (m Market) OutcomePrice(o Outcome) (decimal.Decimal, bool) {
	if len(m.OutcomePrices) == 0 {
		return decimal.Zero, false
	}
	yes := m.OutcomePrices[0]
	if o == OutcomeNo {
		if len(m.OutcomePrices) > 1 {
			return m.OutcomePrices[1], true
		}
		return decimal.NewFromInt(1).Sub(yes), true
	}
	return yes, true
}

func (m Market) URL() string {
	return "https://polymarket.com/market/" + m.Slug
}

// Event - снимок события (группы рынков) из Gamma API.
type Event struct {
	ID           string
	Title        string
	Slug         string
	Description  string
	StartDate    string
	EndDate      string
	CreationDate string
}

func (e Event) URL() string {
	return "https://polymarket.com/event/" + e.Slug
}

// Trade - последняя сделка кошелька из сабграфа.
type Trade struct {
	ID             string // ID сделки в сабграфе, не хеш транзакции
	Type           string // "Buy" / "Sell"
	OutcomeIndex   int    // 0 = YES, 1 = NO
	TokensTraded   decimal.Decimal
	AmountUSD      decimal.Decimal
	TxHash         string
	MarketID       string
	MarketQuestion string
	MarketSlug     string
	Timestamp      time.Time
}

// PricePerShare - цена за акцию. При нулевом объеме токенов считаем ноль.
func (t Trade) PricePerShare() decimal.Decimal {
	if t.TokensTraded.IsZero() {
		return decimal.Zero
	}
	return t.AmountUSD.Div(t.TokensTraded)
}

// Side - сторона рынка, которой коснулась сделка.
func (t Trade) Side() Outcome {
	if t.OutcomeIndex == 0 {
		return OutcomeYes
	}
	return OutcomeNo
}

func (t Trade) IsSell() bool {
	return strings.EqualFold(t.Type, "Sell")
}

// Position - открытая позиция кошелька из data-api.
type Position struct {
	Title        string
	Outcome      string
	Size         decimal.Decimal
	CurrentValue decimal.Decimal
}

// --- Arbitrage ---

var (
	arbSumLower = decimal.NewFromFloat(0.5)   // ниже - скорее всего мусорные данные
	arbSumUpper = decimal.NewFromFloat(0.985) // выше - спред не покрывает комиссии
	hundred     = decimal.NewFromInt(100)
)

// ArbitrageOpportunity - эфемерная находка одного цикла сканера.
type ArbitrageOpportunity struct {
	MarketID  string
	Question  string
	Slug      string
	YesPrice  decimal.Decimal
	NoPrice   decimal.Decimal
	ProfitPct decimal.Decimal
}

func (o ArbitrageOpportunity) URL() string {
	return "https://polymarket.com/market/" + o.Slug
}

// Opportunity проверяет рынок на недооцененность пары YES+NO.
// Рынок подходит, когда 0.5 < yes+no < 0.985 (границы строгие);
// profitPct = (1 - (yes+no)) * 100.
func Opportunity(m Market) (ArbitrageOpportunity, bool) {
	if len(m.OutcomePrices) != 2 {
		return ArbitrageOpportunity{}, false
	}
	yes, no := m.OutcomePrices[0], m.OutcomePrices[1]
	total := yes.Add(no)
	if !total.GreaterThan(arbSumLower) || !total.LessThan(arbSumUpper) {
		return ArbitrageOpportunity{}, false
	}
	return ArbitrageOpportunity{
		MarketID:  m.ID,
		Question:  m.Question,
		Slug:      m.Slug,
		YesPrice:  yes,
		NoPrice:   no,
		ProfitPct: decimal.NewFromInt(1).Sub(total).Mul(hundred),
	}, true
}
