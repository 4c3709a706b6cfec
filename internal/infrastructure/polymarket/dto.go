package polymarket

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polarterminal/polar-bot/internal/domain"
)

// Gamma отдает массивы внутри строки: "[\"0.55\", \"0.45\"]".
// Встречается и обычный массив, поэтому пробуем оба варианта.

type priceList []decimal.Decimal

func (p *priceList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			return nil
		}
		return json.Unmarshal([]byte(s), (*[]decimal.Decimal)(p))
	}
	return json.Unmarshal(data, (*[]decimal.Decimal)(p))
}

type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			return nil
		}
		return json.Unmarshal([]byte(s), (*[]string)(l))
	}
	return json.Unmarshal(data, (*[]string)(l))
}

// marketDTO - рынок из Gamma API
type marketDTO struct {
	ID            string          `json:"id"`
	Question      string          `json:"question"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description"`
	OutcomePrices priceList       `json:"outcomePrices"`
	ClobTokenIDs  stringList      `json:"clobTokenIds"`
	Volume        decimal.Decimal `json:"volumeNum"`
	StartDate     string          `json:"startDate"`
	EndDate       string          `json:"endDate"`
	CreatedAt     string          `json:"createdAt"`
	Active        bool            `json:"active"`
	Closed        bool            `json:"closed"`
}

func (m marketDTO) toDomain() domain.Market {
	return domain.Market{
		ID:            m.ID,
		Question:      m.Question,
		Slug:          m.Slug,
		Description:   m.Description,
		OutcomePrices: m.OutcomePrices,
		ClobTokenIDs:  m.ClobTokenIDs,
		Volume:        m.Volume,
		StartDate:     m.StartDate,
		EndDate:       m.EndDate,
		CreatedAt:     m.CreatedAt,
		Active:        m.Active,
		Closed:        m.Closed,
	}
}

// eventDTO - событие из Gamma API, с вложенными рынками в ответе /events?slug=
type eventDTO struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Slug         string      `json:"slug"`
	Description  string      `json:"description"`
	StartDate    string      `json:"startDate"`
	EndDate      string      `json:"endDate"`
	CreationDate string      `json:"creationDate"`
	Markets      []marketDTO `json:"markets"`
}

func (e eventDTO) toDomain() domain.Event {
	return domain.Event{
		ID:           e.ID,
		Title:        e.Title,
		Slug:         e.Slug,
		Description:  e.Description,
		StartDate:    e.StartDate,
		EndDate:      e.EndDate,
		CreationDate: e.CreationDate,
	}
}

// --- Сабграф (fpmmTrades) ---

type graphResponse struct {
	Data struct {
		FpmmTrades []tradeDTO `json:"fpmmTrades"`
	} `json:"data"`
}

// tradeDTO - сделка из сабграфа. Числа приходят строками.
type tradeDTO struct {
	ID                  string          `json:"id"`
	Type                string          `json:"type"`
	OutcomeIndex        string          `json:"outcomeIndex"`
	OutcomeTokensTraded decimal.Decimal `json:"outcomeTokensTraded"`
	TransactionAmount   decimal.Decimal `json:"transactionAmount"`
	TransactionHash     string          `json:"transactionHash"`
	CreationTimestamp   string          `json:"creationTimestamp"`
	Fpmm                struct {
		ID       string `json:"id"`
		Question string `json:"question"`
		Slug     string `json:"slug"`
	} `json:"fpmm"`
}

func (t tradeDTO) toDomain() domain.Trade {
	idx, _ := strconv.Atoi(t.OutcomeIndex)
	var ts time.Time
	if sec, err := strconv.ParseInt(t.CreationTimestamp, 10, 64); err == nil {
		ts = time.Unix(sec, 0).UTC()
	}
	return domain.Trade{
		ID:             t.ID,
		Type:           t.Type,
		OutcomeIndex:   idx,
		TokensTraded:   t.OutcomeTokensTraded,
		AmountUSD:      t.TransactionAmount,
		TxHash:         t.TransactionHash,
		MarketID:       t.Fpmm.ID,
		MarketQuestion: t.Fpmm.Question,
		MarketSlug:     t.Fpmm.Slug,
		Timestamp:      ts,
	}
}

// positionDTO - позиция из data-api
type positionDTO struct {
	Title        string          `json:"title"`
	Outcome      string          `json:"outcome"`
	Size         decimal.Decimal `json:"size"`
	CurrentValue decimal.Decimal `json:"currentValue"`
}

func (p positionDTO) toDomain() domain.Position {
	return domain.Position{
		Title:        p.Title,
		Outcome:      p.Outcome,
		Size:         p.Size,
		CurrentValue: p.CurrentValue,
	}
}
