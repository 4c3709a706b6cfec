package polymarket

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketDTO_DoubleEncodedArrays(t *testing.T) {
	// Gamma заворачивает массивы в строку
	raw := `{
		"id": "12345",
		"question": "Will it rain?",
		"slug": "will-it-rain",
		"outcomePrices": "[\"0.55\", \"0.45\"]",
		"clobTokenIds": "[\"111\", \"222\"]",
		"volumeNum": 10500.5,
		"active": true
	}`

	var dto marketDTO
	require.NoError(t, json.Unmarshal([]byte(raw), &dto))

	m := dto.toDomain()
	require.Len(t, m.OutcomePrices, 2)
	assert.True(t, m.OutcomePrices[0].Equal(decimal.NewFromFloat(0.55)))
	assert.Equal(t, []string{"111", "222"}, []string(dto.ClobTokenIDs))
	assert.True(t, m.Volume.Equal(decimal.NewFromFloat(10500.5)))
}

func TestMarketDTO_PlainArraysAndEmpty(t *testing.T) {
	raw := `{"id": "1", "outcomePrices": ["0.6", "0.4"], "clobTokenIds": ""}`

	var dto marketDTO
	require.NoError(t, json.Unmarshal([]byte(raw), &dto))
	require.Len(t, dto.OutcomePrices, 2)
	assert.Empty(t, dto.ClobTokenIDs, "empty string means no tokens")
}

func TestTradeDTO_ToDomain(t *testing.T) {
	raw := `{
		"id": "0xabc123-5",
		"type": "Sell",
		"outcomeIndex": "1",
		"outcomeTokensTraded": "1000",
		"transactionAmount": "450.50",
		"transactionHash": "0xffff",
		"creationTimestamp": "1756400000",
		"fpmm": {"id": "0xmarket", "question": "Will X?", "slug": "will-x"}
	}`

	var dto tradeDTO
	require.NoError(t, json.Unmarshal([]byte(raw), &dto))

	trade := dto.toDomain()
	assert.Equal(t, "0xabc123-5", trade.ID)
	assert.Equal(t, 1, trade.OutcomeIndex)
	assert.True(t, trade.IsSell())
	assert.True(t, trade.AmountUSD.Equal(decimal.NewFromFloat(450.50)))
	assert.Equal(t, "0xmarket", trade.MarketID)
	assert.Equal(t, int64(1756400000), trade.Timestamp.Unix())
	assert.True(t, trade.PricePerShare().Equal(decimal.NewFromFloat(0.4505)))
}

func TestEventSlugRe(t *testing.T) {
	cases := map[string]string{
		"https://polymarket.com/event/us-election-2028":             "us-election-2028",
		"https://polymarket.com/event/us-election-2028?tid=123":     "us-election-2028",
		"https://polymarket.com/event/us-election-2028/some-market": "us-election-2028",
	}
	for input, want := range cases {
		m := eventSlugRe.FindStringSubmatch(input)
		require.NotNil(t, m, input)
		assert.Equal(t, want, m[1])
	}

	// Голый slug регэкспом не матчится - клиент использует его как есть
	assert.Nil(t, eventSlugRe.FindStringSubmatch("us-election-2028"))
}
