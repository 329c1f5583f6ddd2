package forecast

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTargetCount is how many products Predict covers when no known product is asked
// for. Products are taken in first-seen order; there is no ranking.
const DefaultTargetCount = 3

// Status reports whether a Forecaster can produce predictions.
type Status int

const (
	// Untrained forecasters always predict nothing.
	Untrained Status = iota
	// Trained forecasters hold both fitted models and a non-empty product mapping.
	Trained
)

func (s Status) String() string {
	if s == Trained {
		return "trained"
	}
	return "untrained"
}

// Result is the prediction for one product.
type Result struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"qty"`
}

// Forecaster holds the trained state. The zero value is Untrained.
type Forecaster struct {
	status  Status
	reason  error
	index   *productIndex
	price   Regressor
	qty     Regressor
	records []HistoricalRecord
}

var errNoRecords = errors.New("no historical records")

func untrained(reason error) *Forecaster {
	return &Forecaster{status: Untrained, reason: reason}
}

// Train fits the price and quantity models. It never fails: any problem, including a
// panic inside a model, yields an Untrained forecaster whose Reason explains why.
func Train(records []HistoricalRecord, opts Options) (f *Forecaster) {
	defer func() {
		if p := recover(); p != nil {
			f = untrained(fmt.Errorf("%w: panic during fit: %v", ErrSourceMalformed, p))
		}
	}()

	if len(records) == 0 {
		return untrained(errNoRecords)
	}

	opts = opts.withDefaults()
	index, x, priceY, qtyY := encode(records)

	priceModel, err := newRegressor(opts, 0)
	if err != nil {
		return untrained(err)
	}
	qtyModel, err := newRegressor(opts, 1)
	if err != nil {
		return untrained(err)
	}

	if err := priceModel.Fit(x, priceY); err != nil {
		return untrained(fmt.Errorf("%w: price model: %v", ErrSourceMalformed, err))
	}
	if err := qtyModel.Fit(x, qtyY); err != nil {
		return untrained(fmt.Errorf("%w: quantity model: %v", ErrSourceMalformed, err))
	}

	return &Forecaster{
		status:  Trained,
		index:   index,
		price:   priceModel,
		qty:     qtyModel,
		records: append([]HistoricalRecord(nil), records...),
	}
}

// TrainFromFile loads path and trains on it. Load errors are logged and produce an
// Untrained forecaster.
func TrainFromFile(path string, opts Options, log zerolog.Logger) *Forecaster {
	log = log.With().Str("component", "forecast").Str("source", path).Logger()
	start := time.Now()

	records, err := LoadFile(path)
	if err != nil {
		log.Warn().Err(err).Msg("Forecasting disabled: could not load historical data")
		return untrained(err)
	}

	f := Train(records, opts)
	if f.Status() != Trained {
		log.Warn().Err(f.Reason()).Int("records", len(records)).Msg("Forecasting disabled: training failed")
		return f
	}

	log.Info().
		Int("records", len(records)).
		Int("products", f.index.len()).
		Str("model", opts.withDefaults().Model).
		Dur("duration_ms", time.Since(start)).
		Msg("Forecast models trained")
	return f
}

// Status reports whether the forecaster is trained.
func (f *Forecaster) Status() Status {
	if f == nil {
		return Untrained
	}
	return f.status
}

// Reason explains why the forecaster is untrained. It is nil when trained.
func (f *Forecaster) Reason() error {
	if f == nil {
		return errNoRecords
	}
	return f.reason
}

// Products returns the known product names in code order.
func (f *Forecaster) Products() []string {
	if f.Status() != Trained {
		return nil
	}
	return append([]string(nil), f.index.names...)
}

// Predict returns today's expected price and quantity. A known product yields exactly one
// result; an empty or unknown product yields the first DefaultTargetCount products.
// Untrained forecasters return an empty, non-nil slice.
func (f *Forecaster) Predict(today time.Time, product string) []Result {
	if f.Status() != Trained || f.index.len() == 0 {
		return []Result{}
	}

	targets := f.targets(product)
	results := make([]Result, 0, len(targets))
	for _, name := range targets {
		code, _ := f.index.lookup(name)
		features := NewFeatureVector(code, today).Slice()

		results = append(results, Result{
			Name:     name,
			Price:    roundPrice(f.price.Predict(features)),
			Quantity: int(math.Trunc(f.qty.Predict(features))),
		})
	}
	return results
}

func (f *Forecaster) targets(product string) []string {
	if product != "" {
		if _, ok := f.index.lookup(product); ok {
			return []string{product}
		}
	}
	n := f.index.len()
	if n > DefaultTargetCount {
		n = DefaultTargetCount
	}
	return f.index.names[:n]
}

// roundPrice rounds the exact binary value to 2 decimals, ties to even,
// so 2.675 (stored as 2.67499...) gives 2.67.
func roundPrice(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
