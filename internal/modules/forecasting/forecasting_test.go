package forecasting

import (
	"testing"
	"time"

	"github.com/nexusfarm/nexus/internal/forecast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records() []forecast.HistoricalRecord {
	day := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	return []forecast.HistoricalRecord{
		{Date: day("2024-01-01"), ProductName: "Tomatoes", PricePerKg: 20, QuantitySold: 100},
		{Date: day("2024-01-08"), ProductName: "Tomatoes", PricePerKg: 22, QuantitySold: 90},
		{Date: day("2024-01-02"), ProductName: "Onions", PricePerKg: 30, QuantitySold: 40},
	}
}

func TestNewClock(t *testing.T) {
	c := NewClock(time.Date(2024, 3, 15, 14, 5, 0, 0, time.UTC))
	assert.Equal(t, Clock{Time: "02:05 PM", Date: "15 Mar, 2024", Day: "Friday"}, c)
}

func TestService_Trained(t *testing.T) {
	svc := NewService(forecast.Train(records(), forecast.Options{Trees: 10}))
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }

	assert.Equal(t, forecast.Trained, svc.Status())
	assert.Len(t, svc.Today(""), 2)

	check := svc.CheckProduct("Onions")
	require.NotNil(t, check)
	assert.Equal(t, "Onions", check.Name)
	assert.Equal(t, TrendLabel, check.Trend)
	assert.GreaterOrEqual(t, check.Price, 20.0)
	assert.LessOrEqual(t, check.Price, 30.0)
	assert.GreaterOrEqual(t, check.Quantity, 40)
	assert.LessOrEqual(t, check.Quantity, 100)

	_, ok := svc.History("Tomatoes")
	assert.True(t, ok)
}

func TestService_Untrained(t *testing.T) {
	for _, svc := range []*Service{NewService(nil), NewService(forecast.Train(nil, forecast.DefaultOptions()))} {
		assert.Equal(t, forecast.Untrained, svc.Status())
		assert.NotNil(t, svc.Today("Tomatoes"))
		assert.Empty(t, svc.Today("Tomatoes"))
		assert.Nil(t, svc.CheckProduct("Tomatoes"))
		_, ok := svc.History("Tomatoes")
		assert.False(t, ok)
	}
}
