package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarket_OutcomePrice(t *testing.T) {
	m := Market{OutcomePrices: []decimal.Decimal{
		decimal.NewFromFloat(0.62),
		decimal.NewFromFloat(0.40),
	}}

	yes, ok := m.OutcomePrice(OutcomeYes)
	require.True(t, ok)
	assert.True(t, yes.Equal(decimal.NewFromFloat(0.62)))

	no, ok := m.OutcomePrice(OutcomeNo)
	require.True(t, ok)
	assert.True(t, no.Equal(decimal.NewFromFloat(0.40)))

	// Одна цена в списке: NO выводится как 1 - YES
	single := Market{OutcomePrices: []decimal.Decimal{decimal.NewFromFloat(0.62)}}
	no, ok = single.OutcomePrice(OutcomeNo)
	require.True(t, ok)
	assert.True(t, no.Equal(decimal.NewFromFloat(0.38)))

	// Цен нет вообще
	empty := Market{}
	_, ok = empty.OutcomePrice(OutcomeYes)
	assert.False(t, ok)
}

func TestTrade_PricePerShare(t *testing.T) {
	trade := Trade{
		AmountUSD:    decimal.NewFromInt(500),
		TokensTraded: decimal.NewFromInt(1000),
	}
	assert.True(t, trade.PricePerShare().Equal(decimal.NewFromFloat(0.5)))

	zero := Trade{AmountUSD: decimal.NewFromInt(500)}
	assert.True(t, zero.PricePerShare().IsZero(), "zero tokens must not divide")
}

func TestOpportunity(t *testing.T) {
	market := func(yes, no float64) Market {
		return Market{
			ID:       "m1",
			Question: "Will it happen?",
			Slug:     "will-it-happen",
			OutcomePrices: []decimal.Decimal{
				decimal.NewFromFloat(yes),
				decimal.NewFromFloat(no),
			},
		}
	}

	opp, ok := Opportunity(market(0.48, 0.49)) // total 0.97
	require.True(t, ok)
	assert.True(t, opp.ProfitPct.Equal(decimal.NewFromInt(3)))

	// Границы строгие
	_, ok = Opportunity(market(0.25, 0.25)) // total 0.5
	assert.False(t, ok)
	_, ok = Opportunity(market(0.485, 0.5)) // total 0.985
	assert.False(t, ok)

	// Честно оцененный рынок
	_, ok = Opportunity(market(0.60, 0.40))
	assert.False(t, ok)

	// Подозрительно дешевая пара - мусорные данные
	_, ok = Opportunity(market(0.10, 0.10))
	assert.False(t, ok)

	// Нужны обе цены
	_, ok = Opportunity(Market{OutcomePrices: []decimal.Decimal{decimal.NewFromFloat(0.4)}})
	assert.False(t, ok)
}
