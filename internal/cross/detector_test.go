package cross

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeIdeas/internal/model"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seriesOf(ticker string, closes []float64) *model.PriceSeries {
	s := &model.PriceSeries{Ticker: ticker}
	for i, c := range closes {
		s.Points = append(s.Points, model.PricePoint{Date: start.AddDate(0, 0, i), Close: c, Volume: 1e6})
	}
	return s
}

// stepped builds 150 x a, 50 x b, then tail x c. With a=20, b=10, c=30 MA50
// overtakes MA200 at index 221.
func stepped(a, b, c float64, tail int) []float64 {
	var out []float64
	for i := 0; i < 150; i++ {
		out = append(out, a)
	}
	for i := 0; i < 50; i++ {
		out = append(out, b)
	}
	for i := 0; i < tail; i++ {
		out = append(out, c)
	}
	return out
}

func TestDetect_ConstantPriceHasNoEvents(t *testing.T) {
	for _, price := range []float64{100, 123.456, 0.37} {
		closes := make([]float64, 400)
		for i := range closes {
			closes[i] = price
		}
		events := Detect(seriesOf("FLAT", closes), start.AddDate(0, 0, 399), Config{50, 200, 400})
		assert.Empty(t, events, "price %v", price)
	}
}

func TestDetect_GoldenCrossWithinWindow(t *testing.T) {
	s := seriesOf("GOLD", stepped(20, 10, 30, 60))
	crossDay := start.AddDate(0, 0, 221)

	tests := []struct {
		name string
		asOf time.Time
		want int
	}{
		{"same day", crossDay, 1},
		{"three days later", crossDay.AddDate(0, 0, 3), 1},
		{"window edge inclusive", crossDay.AddDate(0, 0, 7), 1},
		{"outside window", crossDay.AddDate(0, 0, 8), 0},
		{"before the cross", crossDay.AddDate(0, 0, -1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Detect(s, tt.asOf, DefaultConfig())
			require.Len(t, events, tt.want)
			if tt.want == 1 {
				assert.Equal(t, model.Golden, events[0].Direction)
				assert.True(t, events[0].Date.Equal(crossDay))
				assert.Equal(t, "GOLD", events[0].Ticker)
			}
		})
	}
}

func TestDetect_DeathCross(t *testing.T) {
	// mirror of the golden setup around 40
	s := seriesOf("DEAD", stepped(20, 30, 10, 60))
	crossDay := start.AddDate(0, 0, 221)

	events := Detect(s, crossDay.AddDate(0, 0, 2), DefaultConfig())
	require.Len(t, events, 1)
	assert.Equal(t, model.Death, events[0].Direction)
	assert.True(t, events[0].Date.Equal(crossDay))
}

func TestDetect_InsufficientHistory(t *testing.T) {
	closes := stepped(20, 10, 30, 0)[:199]
	assert.Empty(t, Detect(seriesOf("SHORT", closes), start.AddDate(0, 0, 198), DefaultConfig()))

	// gaps reduce the valid count below the long window
	closes = stepped(20, 10, 30, 10)
	for i := 0; i < 20; i++ {
		closes[i*5] = math.NaN()
	}
	_, err := ComputeMovingAverages(seriesOf("GAPPY", closes), DefaultConfig())
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestDetect_GapSkipsUndefinedDates(t *testing.T) {
	closes := stepped(20, 10, 30, 60)
	closes[221] = math.NaN()
	s := seriesOf("GAP", closes)

	ma, err := ComputeMovingAverages(s, DefaultConfig())
	require.NoError(t, err)
	assert.False(t, ma.Defined(221))
	assert.False(t, ma.Defined(259))

	// every date whose window covers the gap is skipped, nothing fires inside it
	events := Detect(s, start.AddDate(0, 0, 259), Config{50, 200, 400})
	for _, e := range events {
		assert.True(t, e.Date.Before(start.AddDate(0, 0, 221)), "unexpected event at %s", e.Date)
	}
}

func TestTransitions_SignSequence(t *testing.T) {
	dates := []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2), start.AddDate(0, 0, 3)}
	ma := &MovingAverages{
		Dates: dates,
		Short: []float64{9, 9, 11, 11},
		Long:  []float64{10, 10, 10, 10},
	}
	events := Transitions("SEQ", ma)
	require.Len(t, events, 1)
	assert.Equal(t, model.Golden, events[0].Direction)
	assert.True(t, events[0].Date.Equal(dates[2]))
}

func TestTransitions_ZeroDiffContinuesSign(t *testing.T) {
	dates := []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2), start.AddDate(0, 0, 3)}
	ma := &MovingAverages{
		Dates: dates,
		Short: []float64{9, 10, 10, 9},
		Long:  []float64{10, 10, 10, 10},
	}
	assert.Empty(t, Transitions("TOUCH", ma))
}

func TestScan_OrdersByDateThenTicker(t *testing.T) {
	golden := stepped(20, 10, 30, 60)
	death := stepped(20, 30, 10, 60)
	later := append([]float64{20}, stepped(20, 10, 30, 59)...)

	events := Scan([]*model.PriceSeries{
		seriesOf("ZZZ", golden),
		seriesOf("MMM", later),
		seriesOf("AAA", death),
	}, start.AddDate(0, 0, 225), DefaultConfig())

	require.Len(t, events, 3)
	assert.Equal(t, "AAA", events[0].Ticker)
	assert.Equal(t, "ZZZ", events[1].Ticker)
	assert.Equal(t, "MMM", events[2].Ticker)
	assert.True(t, events[2].Date.Equal(start.AddDate(0, 0, 222)))
}
