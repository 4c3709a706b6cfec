package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPriceAlert_Triggered(t *testing.T) {
	above := PriceAlert{
		Condition:   ConditionAbove,
		TargetPrice: decimal.NewFromFloat(0.60),
	}
	assert.True(t, above.Triggered(decimal.NewFromFloat(0.61)))
	assert.True(t, above.Triggered(decimal.NewFromFloat(0.60)), "boundary is inclusive")
	assert.False(t, above.Triggered(decimal.NewFromFloat(0.59)))

	below := PriceAlert{
		Condition:   ConditionBelow,
		TargetPrice: decimal.NewFromFloat(0.60),
	}
	assert.True(t, below.Triggered(decimal.NewFromFloat(0.59)))
	assert.True(t, below.Triggered(decimal.NewFromFloat(0.60)), "boundary is inclusive")
	assert.False(t, below.Triggered(decimal.NewFromFloat(0.61)))

	none := PriceAlert{
		Condition:   ConditionNone,
		TargetPrice: decimal.NewFromFloat(0.60),
	}
	assert.False(t, none.Triggered(decimal.NewFromFloat(0.99)))
}

func TestTrackedWallet_ColdStart(t *testing.T) {
	w := TrackedWallet{}
	assert.True(t, w.ColdStart())

	w.LastTradeID = "0xabc-1"
	assert.False(t, w.ColdStart())
}

func TestStringSet(t *testing.T) {
	s := NewStringSet("a", "b")

	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("c"))

	assert.True(t, s.Add("c"), "first add reports new")
	assert.False(t, s.Add("c"), "second add reports known")

	assert.ElementsMatch(t, []string{"a", "b", "c"}, s.Values())
}
