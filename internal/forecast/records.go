// Package forecast fits per-product price and quantity models over historical sales and
// predicts today's expected values.
//
// A Forecaster is built once at startup and is read-only afterwards. It is either Trained
// (both models fit, product mapping non-empty) or Untrained, in which case every
// prediction is empty. Load and fit failures never escape this package.
package forecast

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// HistoricalRecord is one row of the historical sales file.
type HistoricalRecord struct {
	Date         time.Time `json:"date"`
	ProductName  string    `json:"product_name"`
	PricePerKg   float64   `json:"price_per_kg"`
	QuantitySold int       `json:"quantity_sold"`
}

// Column names expected in the header row
const (
	ColDate         = "date"
	ColProductName  = "product_name"
	ColPricePerKg   = "price_per_kg"
	ColQuantitySold = "quantity_sold"
)

var (
	// ErrSourceUnavailable is returned when the historical file does not exist.
	ErrSourceUnavailable = errors.New("historical data source unavailable")
	// ErrSourceMalformed wraps any parse failure.
	ErrSourceMalformed = errors.New("historical data source malformed")
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01-02-2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// LoadFile reads historical records from a .csv or .xlsx file.
func LoadFile(path string) ([]HistoricalRecord, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no path configured", ErrSourceUnavailable)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceMalformed, path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return loadXLSX(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		defer f.Close()
		return ReadCSV(f)
	}
}

// ReadCSV parses historical records from CSV with a header row.
func ReadCSV(r io.Reader) ([]HistoricalRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceMalformed, err)
	}
	return parseRows(rows)
}

func loadXLSX(path string) ([]HistoricalRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceMalformed, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceMalformed, err)
	}
	return parseRows(rows)
}

// parseRows converts a header row plus data rows into records. Blank rows are skipped;
// any other bad row fails the whole load.
func parseRows(rows [][]string) ([]HistoricalRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrSourceMalformed)
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{ColDate, ColProductName, ColPricePerKg, ColQuantitySold} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrSourceMalformed, required)
		}
	}

	records := make([]HistoricalRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		line := i + 2

		cell := func(col string) string {
			idx := cols[col]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		date, err := parseDate(cell(ColDate))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSourceMalformed, line, err)
		}

		name := cell(ColProductName)
		if name == "" {
			return nil, fmt.Errorf("%w: line %d: empty product_name", ErrSourceMalformed, line)
		}

		price, err := strconv.ParseFloat(cell(ColPricePerKg), 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, fmt.Errorf("%w: line %d: invalid price_per_kg %q", ErrSourceMalformed, line, cell(ColPricePerKg))
		}

		qty, err := parseQuantity(cell(ColQuantitySold))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSourceMalformed, line, err)
		}

		records = append(records, HistoricalRecord{
			Date:         date,
			ProductName:  name,
			PricePerKg:   price,
			QuantitySold: qty,
		})
	}

	return records, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseQuantity accepts integers and integral floats such as "100.0".
func parseQuantity(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid quantity_sold %q", s)
	}
	if f < math.MinInt || f >= math.MaxInt {
		return 0, fmt.Errorf("quantity_sold %q out of range", s)
	}
	return int(f), nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
