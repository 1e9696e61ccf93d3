package risk

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/internal/position"
)

// strangleAt builds a short strangle with total credit 5.00 whose legs
// expire dte days after the quote time.
func strangleAt(t *testing.T, dte int) *position.Strangle {
	t.Helper()
	quoteTime := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	expiration := quoteTime.AddDate(0, 0, dte)

	leg := func(typ models.OptionType, strike, mid float64) *models.OptionRecord {
		m := decimal.NewFromFloat(mid)
		half := decimal.NewFromFloat(0.05)
		return &models.OptionRecord{
			Ticker:          "SPX",
			Type:            typ,
			Style:           models.European,
			Strike:          decimal.NewFromFloat(strike),
			Expiration:      expiration,
			QuoteTime:       quoteTime,
			UnderlyingPrice: decimal.NewFromFloat(2786.24),
			Bid:             m.Sub(half),
			Ask:             m.Add(half),
		}
	}

	g, err := position.NewStrangle(
		leg(models.Put, 2690, 2.50),
		leg(models.Call, 2855, 2.50),
		models.Sell, nil, 100, zerolog.Nop())
	require.NoError(t, err)
	return g
}

// moveMids reprices both legs to the given combined mid.
func moveMids(t *testing.T, g *position.Strangle, combined float64) {
	t.Helper()
	per := decimal.NewFromFloat(combined).Div(decimal.NewFromInt(2))
	half := decimal.NewFromFloat(0.05)

	records := make([]*models.OptionRecord, 0, 2)
	for _, leg := range g.Legs() {
		rec := leg.Record.Clone()
		rec.Bid = per.Sub(half)
		rec.Ask = per.Add(half)
		records = append(records, rec)
	}
	require.NoError(t, g.UpdateFrom(&models.ChainEvent{Time: records[0].QuoteTime, Records: records}))
}

func TestNewUnknownPolicy(t *testing.T) {
	_, err := New("martingale", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownRiskPolicy))
}

func TestNewFixedDTEGuard(t *testing.T) {
	_, err := New(PolicyCloseAtFixedDTE, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfigInvalid))

	mgr, err := New(PolicyCloseAtFixedDTE, 30)
	require.NoError(t, err)
	assert.Equal(t, PolicyCloseAtFixedDTE, mgr.Name())
}

func TestHoldToExpiration(t *testing.T) {
	mgr, err := New(PolicyHoldToExpiration, 0)
	require.NoError(t, err)

	assert.False(t, mgr.ShouldClose(strangleAt(t, 45)))
	assert.False(t, mgr.ShouldClose(strangleAt(t, 2)))
	assert.True(t, mgr.ShouldClose(strangleAt(t, 1)))
	assert.True(t, mgr.ShouldClose(strangleAt(t, 0)))
}

func TestCloseAt50(t *testing.T) {
	mgr, err := New(PolicyCloseAt50, 0)
	require.NoError(t, err)

	// Credit 5.00, current combined mid 2.00: 60% of max profit captured.
	g := strangleAt(t, 45)
	moveMids(t, g, 2.00)
	assert.True(t, mgr.ShouldClose(g))

	// Combined mid 3.00: only 40% captured, keep holding.
	g = strangleAt(t, 45)
	moveMids(t, g, 3.00)
	assert.False(t, mgr.ShouldClose(g))

	// Exactly 50% triggers.
	g = strangleAt(t, 45)
	moveMids(t, g, 2.50)
	assert.True(t, mgr.ShouldClose(g))
}

func TestCloseAt50Or21Days(t *testing.T) {
	mgr, err := New(PolicyCloseAt50Or21, 0)
	require.NoError(t, err)

	assert.False(t, mgr.ShouldClose(strangleAt(t, 45)))
	assert.True(t, mgr.ShouldClose(strangleAt(t, 21)))
	// Past the management day without hitting it exactly: holds until the
	// expiration guard.
	assert.False(t, mgr.ShouldClose(strangleAt(t, 20)))
	assert.True(t, mgr.ShouldClose(strangleAt(t, 1)))

	g := strangleAt(t, 45)
	moveMids(t, g, 2.00)
	assert.True(t, mgr.ShouldClose(g))
}

func TestCloseAt50Or21DaysOrHalfLoss(t *testing.T) {
	mgr, err := New(PolicyCloseAt50Or21OrLoss, 0)
	require.NoError(t, err)

	// Combined mid up to 7.50: 50% loss triggers.
	g := strangleAt(t, 45)
	moveMids(t, g, 7.50)
	assert.True(t, mgr.ShouldClose(g))

	// 40% loss holds.
	g = strangleAt(t, 45)
	moveMids(t, g, 7.00)
	assert.False(t, mgr.ShouldClose(g))

	assert.True(t, mgr.ShouldClose(strangleAt(t, 21)))
}

func TestCloseAt21Days(t *testing.T) {
	mgr, err := New(PolicyCloseAt21, 0)
	require.NoError(t, err)

	// Profit alone never closes this policy.
	g := strangleAt(t, 45)
	moveMids(t, g, 0.50)
	assert.False(t, mgr.ShouldClose(g))

	assert.True(t, mgr.ShouldClose(strangleAt(t, 21)))
	assert.True(t, mgr.ShouldClose(strangleAt(t, 1)))
}

func TestCloseAtFixedDTE(t *testing.T) {
	mgr, err := New(PolicyCloseAtFixedDTE, 30)
	require.NoError(t, err)

	assert.False(t, mgr.ShouldClose(strangleAt(t, 31)))
	assert.True(t, mgr.ShouldClose(strangleAt(t, 30)))
	assert.False(t, mgr.ShouldClose(strangleAt(t, 29)))
}

func TestPolicyNames(t *testing.T) {
	for _, name := range []string{
		PolicyHoldToExpiration,
		PolicyCloseAt50,
		PolicyCloseAt50Or21,
		PolicyCloseAt50Or21OrLoss,
		PolicyCloseAt21,
	} {
		mgr, err := New(name, 0)
		require.NoError(t, err)
		assert.Equal(t, name, mgr.Name())
	}
}
