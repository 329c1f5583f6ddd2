package forecast

import (
	"math"
	"slices"
	"time"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SmoothingWindow is the moving-average length used by History.
const SmoothingWindow = 7

// Insight summarises the loaded history of one product.
type Insight struct {
	Product       string    `json:"product"`
	Observations  int       `json:"observations"`
	FirstDate     time.Time `json:"first_date"`
	LastDate      time.Time `json:"last_date"`
	MinPrice      float64   `json:"min_price"`
	MaxPrice      float64   `json:"max_price"`
	MeanPrice     float64   `json:"mean_price"`
	MeanQuantity  float64   `json:"mean_qty"`
	Window        int       `json:"window"`
	MovingAverage float64   `json:"moving_average"`
	LastPrice     float64   `json:"last_price"`
}

// History summarises the records of product in date order. It reports false for unknown
// products and for untrained forecasters.
func (f *Forecaster) History(product string) (Insight, bool) {
	if f.Status() != Trained {
		return Insight{}, false
	}
	if _, ok := f.index.lookup(product); !ok {
		return Insight{}, false
	}

	var rows []HistoricalRecord
	for _, r := range f.records {
		if r.ProductName == product {
			rows = append(rows, r)
		}
	}
	slices.SortStableFunc(rows, func(a, b HistoricalRecord) int {
		return a.Date.Compare(b.Date)
	})

	prices := make([]float64, len(rows))
	qtys := make([]float64, len(rows))
	for i, r := range rows {
		prices[i] = r.PricePerKg
		qtys[i] = float64(r.QuantitySold)
	}

	window := min(SmoothingWindow, len(prices))
	sma := talib.Sma(prices, window)

	return Insight{
		Product:       product,
		Observations:  len(rows),
		FirstDate:     rows[0].Date,
		LastDate:      rows[len(rows)-1].Date,
		MinPrice:      floats.Min(prices),
		MaxPrice:      floats.Max(prices),
		MeanPrice:     roundPrice(stat.Mean(prices, nil)),
		MeanQuantity:  math.Round(stat.Mean(qtys, nil)*100) / 100,
		Window:        window,
		MovingAverage: roundPrice(sma[len(sma)-1]),
		LastPrice:     prices[len(prices)-1],
	}, true
}
