// Package forecasting exposes the trained forecaster to HTTP handlers and dashboards.
package forecasting

import (
	"time"

	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/forecast"
)

// TrendLabel is attached to every single-product forecast check.
const TrendLabel = "ML Predicted"

// Clock is the wall-clock header shown next to forecasts.
type Clock struct {
	Time string `json:"current_time"`
	Date string `json:"current_date"`
	Day  string `json:"current_day"`
}

// NewClock formats t as "03:04 PM", "02 Jan, 2006" and "Monday".
func NewClock(t time.Time) Clock {
	return Clock{
		Time: t.Format("03:04 PM"),
		Date: t.Format("02 Jan, 2006"),
		Day:  t.Format("Monday"),
	}
}

// Check is the answer to a farmer's forecast check
type Check struct {
	Name     string  `json:"name"`
	Trend    string  `json:"trend"`
	Price    float64 `json:"price"`
	Quantity int     `json:"qty"`
}

// Service answers forecast queries against a fixed provider.
type Service struct {
	provider domain.ForecastProvider
	now      func() time.Time
}

// NewService creates a forecasting service. provider may be nil, which behaves as untrained.
func NewService(provider domain.ForecastProvider) *Service {
	return &Service{provider: provider, now: time.Now}
}

// Now returns the service clock
func (s *Service) Now() time.Time {
	return s.now()
}

// Status reports whether forecasts are available
func (s *Service) Status() forecast.Status {
	if s.provider == nil {
		return forecast.Untrained
	}
	return s.provider.Status()
}

// Today predicts for the current date. An empty product selects the default subset.
func (s *Service) Today(product string) []forecast.Result {
	if s.provider == nil {
		return []forecast.Result{}
	}
	return s.provider.Predict(s.now(), product)
}

// CheckProduct returns the first forecast for product, or nil when nothing can be predicted.
func (s *Service) CheckProduct(product string) *Check {
	results := s.Today(product)
	if len(results) == 0 {
		return nil
	}
	r := results[0]
	return &Check{Name: r.Name, Trend: TrendLabel, Price: r.Price, Quantity: r.Quantity}
}

// History returns the loaded history summary for product.
func (s *Service) History(product string) (forecast.Insight, bool) {
	if s.provider == nil {
		return forecast.Insight{}, false
	}
	return s.provider.History(product)
}
