package portfolio

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-backtester/internal/config"
	"options-backtester/internal/models"
	"options-backtester/internal/position"
	"options-backtester/internal/risk"
)

var testLogger = zerolog.Nop()

func floatPtr(v float64) *float64 { return &v }

func testPortfolio(t *testing.T) *Portfolio {
	t.Helper()
	return New(config.PortfolioConfig{
		StartingCapital:     1_000_000,
		MaxFractionToUse:    0.5,
		MaxFractionPerTrade: 0.5,
	}, testLogger)
}

func record(typ models.OptionType, strike, mid, underlying, delta float64, expiration time.Time) *models.OptionRecord {
	m := decimal.NewFromFloat(mid)
	half := decimal.NewFromFloat(0.05)
	return &models.OptionRecord{
		Ticker:          "SPX",
		Type:            typ,
		Style:           models.European,
		Strike:          decimal.NewFromFloat(strike),
		Expiration:      expiration,
		QuoteTime:       time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		UnderlyingPrice: decimal.NewFromFloat(underlying),
		Bid:             m.Sub(half),
		Ask:             m.Add(half),
		Delta:           floatPtr(delta),
	}
}

// testStrangle builds the reference short strangle: BP 64045, delta 0.01.
func testStrangle(t *testing.T) *position.Strangle {
	t.Helper()
	expiration := time.Date(2024, 4, 19, 0, 0, 0, 0, time.UTC)
	put := record(models.Put, 2690, 7.45, 2786.24, -0.16, expiration)
	call := record(models.Call, 2855, 5.20, 2786.24, 0.15, expiration)

	g, err := position.NewStrangle(put, call, models.Sell, nil, 100, testLogger)
	require.NoError(t, err)
	return g
}

func holdManager(t *testing.T) risk.Manager {
	t.Helper()
	mgr, err := risk.New(risk.PolicyHoldToExpiration, 0)
	require.NoError(t, err)
	return mgr
}

// sameChain rebuilds the chain the strangle was composed from, quoted at
// the given time with unchanged mids.
func sameChain(at time.Time) *models.ChainEvent {
	expiration := time.Date(2024, 4, 19, 0, 0, 0, 0, time.UTC)
	put := record(models.Put, 2690, 7.45, 2786.24, -0.16, expiration)
	call := record(models.Call, 2855, 5.20, 2786.24, 0.15, expiration)
	put.QuoteTime = at
	call.QuoteTime = at
	return &models.ChainEvent{Time: at, Records: []*models.OptionRecord{put, call}}
}

func TestAdmitAndUpdate(t *testing.T) {
	p := testPortfolio(t)
	g := testStrangle(t)

	require.True(t, p.Admit(g, holdManager(t)))

	// Unchanged mids on the next tick: one position, full BP, tiny delta,
	// flat net liquidity.
	p.OnChain(sameChain(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)))

	stats := p.Stats()
	assert.Equal(t, 1, stats.NumPositions)
	assert.Equal(t, 2, stats.TotalContracts)
	assert.True(t, stats.BuyingPowerUsed.Equal(decimal.NewFromInt(64045)), "bp = %s", stats.BuyingPowerUsed)
	assert.InDelta(t, 0.01, stats.TotalDelta, 1e-9)
	assert.True(t, stats.NetLiq.Equal(decimal.NewFromInt(1_000_000)), "netliq = %s", stats.NetLiq)
	assert.True(t, stats.RealizedCapital.Equal(decimal.NewFromInt(1_000_000)))
}

func TestAdmitRejectsDuplicateTicker(t *testing.T) {
	p := testPortfolio(t)
	require.True(t, p.Admit(testStrangle(t), holdManager(t)))
	assert.False(t, p.Admit(testStrangle(t), holdManager(t)))
	assert.Equal(t, 1, len(p.Positions()))
}

func TestAdmitRejectsOverPerTradeCap(t *testing.T) {
	p := New(config.PortfolioConfig{
		StartingCapital:     100_000,
		MaxFractionToUse:    0.5,
		MaxFractionPerTrade: 0.5,
	}, testLogger)

	// BP 64045 > 50000 per-trade cap.
	assert.False(t, p.Admit(testStrangle(t), holdManager(t)))
	assert.Equal(t, 0, len(p.Positions()))
}

func TestAdmitDebitsOpenFees(t *testing.T) {
	p := testPortfolio(t)
	fees := &config.OpenClose{
		Open: config.FeeSchedule{CommissionPerContract: 1.0},
	}

	expiration := time.Date(2024, 4, 19, 0, 0, 0, 0, time.UTC)
	put := record(models.Put, 2690, 7.45, 2786.24, -0.16, expiration)
	call := record(models.Call, 2855, 5.20, 2786.24, 0.15, expiration)
	g, err := position.NewStrangle(put, call, models.Sell, fees, 100, testLogger)
	require.NoError(t, err)

	require.True(t, p.Admit(g, holdManager(t)))

	// Two legs at $1 each.
	want := decimal.NewFromInt(999_998)
	assert.True(t, p.RealizedCapital().Equal(want), "realized = %s", p.RealizedCapital())
	assert.True(t, p.NetLiquidity().Equal(want))
}

func TestForcedCloseWhenLegVanishes(t *testing.T) {
	p := testPortfolio(t)
	require.True(t, p.Admit(testStrangle(t), holdManager(t)))

	// The follow-up chain omits the put strike entirely.
	at := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	expiration := time.Date(2024, 4, 19, 0, 0, 0, 0, time.UTC)
	call := record(models.Call, 2855, 5.20, 2786.24, 0.15, expiration)
	call.QuoteTime = at
	p.OnChain(&models.ChainEvent{Time: at, Records: []*models.OptionRecord{call}})

	stats := p.Stats()
	assert.Equal(t, 0, stats.NumPositions)
	assert.True(t, stats.BuyingPowerUsed.IsZero())
	// Frozen P/L was zero, so capital is unchanged and the flat close
	// counts as a loss.
	assert.True(t, stats.RealizedCapital.Equal(decimal.NewFromInt(1_000_000)))
	assert.Equal(t, 0, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
}

func TestRiskManagerCloseRealizesProfit(t *testing.T) {
	p := testPortfolio(t)
	mgr, err := risk.New(risk.PolicyCloseAt50, 0)
	require.NoError(t, err)
	require.True(t, p.Admit(testStrangle(t), mgr))

	// Mids collapse far below half the credit.
	at := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	expiration := time.Date(2024, 4, 19, 0, 0, 0, 0, time.UTC)
	put := record(models.Put, 2690, 1.00, 2786.24, -0.05, expiration)
	call := record(models.Call, 2855, 1.00, 2786.24, 0.05, expiration)
	put.QuoteTime = at
	call.QuoteTime = at
	p.OnChain(&models.ChainEvent{Time: at, Records: []*models.OptionRecord{put, call}})

	stats := p.Stats()
	assert.Equal(t, 0, stats.NumPositions)
	assert.Equal(t, 1, stats.Wins)

	// (7.45-1.00 + 5.20-1.00) * 100 = 1065 realized.
	want := decimal.NewFromInt(1_001_065)
	assert.True(t, stats.RealizedCapital.Equal(want), "realized = %s", stats.RealizedCapital)
	assert.True(t, stats.NetLiq.Equal(want))
}

func TestNetLiqTracksOpenPL(t *testing.T) {
	p := testPortfolio(t)
	require.True(t, p.Admit(testStrangle(t), holdManager(t)))

	// Mids rise against the short position: open loss, realized untouched.
	at := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	expiration := time.Date(2024, 4, 19, 0, 0, 0, 0, time.UTC)
	put := record(models.Put, 2690, 8.45, 2786.24, -0.18, expiration)
	call := record(models.Call, 2855, 6.20, 2786.24, 0.17, expiration)
	put.QuoteTime = at
	call.QuoteTime = at
	p.OnChain(&models.ChainEvent{Time: at, Records: []*models.OptionRecord{put, call}})

	stats := p.Stats()
	assert.Equal(t, 1, stats.NumPositions)
	assert.True(t, stats.RealizedCapital.Equal(decimal.NewFromInt(1_000_000)))
	// Open P/L = -(1.00+1.00)*100
	assert.True(t, stats.NetLiq.Equal(decimal.NewFromInt(999_800)), "netliq = %s", stats.NetLiq)
}

func TestAvailableBuyingPowerNeverNegative(t *testing.T) {
	p := testPortfolio(t)
	require.True(t, p.Admit(testStrangle(t), holdManager(t)))

	// Force netLiq far below the committed buying power.
	p.netLiq = decimal.NewFromInt(100)
	assert.True(t, p.AvailableBuyingPower().IsZero())
}

func TestPerTradeCap(t *testing.T) {
	p := testPortfolio(t)
	assert.True(t, p.PerTradeCap().Equal(decimal.NewFromInt(500_000)))
}
