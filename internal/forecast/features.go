package forecast

import "time"

// FeatureVector is the model input derived from a date and a product.
type FeatureVector struct {
	ProductCode int
	Month       int // 1-12
	DayOfWeek   int // 0-6, Monday = 0
}

// Slice returns the vector in model column order.
func (v FeatureVector) Slice() []float64 {
	return []float64{float64(v.ProductCode), float64(v.Month), float64(v.DayOfWeek)}
}

// NewFeatureVector encodes a date and product code.
func NewFeatureVector(code int, date time.Time) FeatureVector {
	return FeatureVector{
		ProductCode: code,
		Month:       int(date.Month()),
		DayOfWeek:   mondayWeekday(date),
	}
}

// mondayWeekday maps time.Weekday (Sunday = 0) onto a Monday = 0 week.
func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// productIndex assigns stable integer codes to product names in first-seen order.
type productIndex struct {
	names []string
	codes map[string]int
}

func newProductIndex() *productIndex {
	return &productIndex{codes: make(map[string]int)}
}

func (p *productIndex) code(name string) int {
	if c, ok := p.codes[name]; ok {
		return c
	}
	c := len(p.names)
	p.codes[name] = c
	p.names = append(p.names, name)
	return c
}

func (p *productIndex) lookup(name string) (int, bool) {
	c, ok := p.codes[name]
	return c, ok
}

func (p *productIndex) len() int {
	return len(p.names)
}

// encode builds the design matrix and both targets for a record set.
func encode(records []HistoricalRecord) (*productIndex, [][]float64, []float64, []float64) {
	idx := newProductIndex()
	x := make([][]float64, len(records))
	price := make([]float64, len(records))
	qty := make([]float64, len(records))

	for i, r := range records {
		x[i] = NewFeatureVector(idx.code(r.ProductName), r.Date).Slice()
		price[i] = r.PricePerKg
		qty[i] = float64(r.QuantitySold)
	}

	return idx, x, price, qty
}
