package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestVirtualBalanceOneSecondAtSevenPercent(t *testing.T) {
	principal := decimal.NewFromInt(1_000_000_000)

	// 1e9 * 0.07 / 31_536_000 is about 2.2 units, truncated to 2.
	got := VirtualBalance(principal, 7, 1_000, 1_001)
	assert.True(t, got.Equal(decimal.NewFromInt(1_000_000_002)), "got %s", got)
}

func TestVirtualBalanceScaledSupply(t *testing.T) {
	supply := decimal.RequireFromString("1000000000000000000000000000")

	oneSecond := VirtualBalance(supply, 7, 0, 1)
	tenSeconds := VirtualBalance(supply, 7, 0, 10)

	assert.Equal(t, "1000000002219685438863521055", oneSecond.String())
	assert.Equal(t, "1000000022196854388635210553", tenSeconds.String())
}

func TestVirtualBalanceFullYear(t *testing.T) {
	got := VirtualBalance(decimal.NewFromInt(1_000_000_000), 7, 0, SecondsPerYear)
	assert.Equal(t, "1070000000", got.String())
}

func TestVirtualBalanceNoAccrual(t *testing.T) {
	principal := decimal.NewFromInt(500)

	tests := []struct {
		name      string
		apy       int64
		beginning int64
		now       int64
	}{
		{"zero rate", 0, 0, SecondsPerYear},
		{"now equals beginning", 10, 100, 100},
		{"now before beginning", 10, 100, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VirtualBalance(principal, tt.apy, tt.beginning, tt.now)
			assert.True(t, got.Equal(principal), "got %s", got)
		})
	}

	assert.True(t, VirtualBalance(decimal.Zero, 50, 0, SecondsPerYear).IsZero())
}

func TestVirtualBalanceMonotonicInElapsedTime(t *testing.T) {
	principal := decimal.RequireFromString("123456789012345678901234")

	for _, apy := range []int64{0, 1, 7, 100, 2500} {
		prev := VirtualBalance(principal, apy, 1_000, 0)
		for now := int64(0); now <= 3*SecondsPerYear; now += 86_399 {
			cur := VirtualBalance(principal, apy, 1_000, now)
			if !assert.False(t, cur.LessThan(prev), "apy %d decreased at %d: %s < %s", apy, now, cur, prev) {
				return
			}
			assert.True(t, cur.IsInteger())
			prev = cur
		}
	}
}
