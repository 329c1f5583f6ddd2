package forecast

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func tomatoes() []HistoricalRecord {
	return []HistoricalRecord{
		{Date: day("2024-01-01"), ProductName: "Tomatoes", PricePerKg: 20.0, QuantitySold: 100},
		{Date: day("2024-01-08"), ProductName: "Tomatoes", PricePerKg: 22.0, QuantitySold: 90},
	}
}

func market() []HistoricalRecord {
	names := []string{"Tomatoes", "Onions", "Potatoes", "Brinjal", "Okra"}
	var records []HistoricalRecord
	start := day("2024-01-01")
	for d := 0; d < 60; d++ {
		for i, name := range names {
			records = append(records, HistoricalRecord{
				Date:         start.AddDate(0, 0, d),
				ProductName:  name,
				PricePerKg:   10 + float64(i)*5 + float64(d%7)*0.37,
				QuantitySold: 50 + i*10 + d%5,
			})
		}
	}
	return records
}

func TestTrain_TomatoesExample(t *testing.T) {
	for _, model := range []string{ModelForest, ModelLinear} {
		t.Run(model, func(t *testing.T) {
			f := Train(tomatoes(), Options{Model: model, Trees: 20})
			require.Equal(t, Trained, f.Status())
			require.NoError(t, f.Reason())

			results := f.Predict(day("2024-03-15"), "Tomatoes")
			require.Len(t, results, 1)
			assert.Equal(t, "Tomatoes", results[0].Name)
			assert.GreaterOrEqual(t, results[0].Price, 20.0)
			assert.LessOrEqual(t, results[0].Price, 22.0)
			assert.GreaterOrEqual(t, results[0].Quantity, 90)
			assert.LessOrEqual(t, results[0].Quantity, 100)
		})
	}
}

func TestTrain_ProductMappingMatchesDistinctNames(t *testing.T) {
	f := Train(market(), DefaultOptions())
	require.Equal(t, Trained, f.Status())
	assert.Equal(t, []string{"Tomatoes", "Onions", "Potatoes", "Brinjal", "Okra"}, f.Products())
}

func TestTrain_EmptyRecordsIsUntrained(t *testing.T) {
	f := Train(nil, DefaultOptions())
	assert.Equal(t, Untrained, f.Status())
	assert.Error(t, f.Reason())
	assert.Nil(t, f.Products())
}

func TestTrain_UnknownModelIsUntrained(t *testing.T) {
	f := Train(tomatoes(), Options{Model: "svm"})
	assert.Equal(t, Untrained, f.Status())
	assert.ErrorContains(t, f.Reason(), "unknown model")
}

func TestPredict_Untrained(t *testing.T) {
	var zero Forecaster
	for _, f := range []*Forecaster{nil, &zero, Train(nil, DefaultOptions())} {
		for _, product := range []string{"", "Tomatoes", "Unknown"} {
			results := f.Predict(day("2024-03-15"), product)
			assert.NotNil(t, results)
			assert.Empty(t, results)
		}
	}
}

func TestPredict_TargetSelection(t *testing.T) {
	f := Train(market(), Options{Trees: 25})
	require.Equal(t, Trained, f.Status())
	today := day("2024-03-15")

	t.Run("known product yields one result", func(t *testing.T) {
		results := f.Predict(today, "Okra")
		require.Len(t, results, 1)
		assert.Equal(t, "Okra", results[0].Name)
	})

	t.Run("no filter yields first three products", func(t *testing.T) {
		results := f.Predict(today, "")
		require.Len(t, results, DefaultTargetCount)
		assert.Equal(t, "Tomatoes", results[0].Name)
		assert.Equal(t, "Onions", results[1].Name)
		assert.Equal(t, "Potatoes", results[2].Name)
	})

	t.Run("unknown filter equals no filter", func(t *testing.T) {
		assert.Equal(t, f.Predict(today, ""), f.Predict(today, "Dragonfruit"))
	})

	t.Run("fewer products than the default count", func(t *testing.T) {
		small := Train(tomatoes(), Options{Trees: 5})
		assert.Len(t, small.Predict(today, ""), 1)
	})
}

func TestPredict_Rounding(t *testing.T) {
	f := Train(market(), Options{Trees: 15})
	require.Equal(t, Trained, f.Status())

	for d := 0; d < 14; d++ {
		for _, r := range f.Predict(day("2024-02-01").AddDate(0, 0, d), "") {
			scaled := r.Price * 100
			assert.InDelta(t, math.Round(scaled), scaled, 1e-6, "price %v has more than two decimals", r.Price)
		}
	}
}

func TestPredict_Deterministic(t *testing.T) {
	opts := Options{Trees: 30, Seed: 7}
	a := Train(market(), opts).Predict(day("2024-03-15"), "")
	b := Train(market(), opts).Predict(day("2024-03-15"), "")
	assert.Equal(t, a, b)
}

func TestRoundPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{20.004, 20.0},
		{20.006, 20.01},
		{21.999, 22.0},
		{0.125, 0.12},
		{-0.125, -0.12},
		{2.675, 2.67},
		{20.005, 20.0},
		{1.005, 1.0},
		{0.375, 0.38},
		{0, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, roundPrice(tt.in), 1e-9)
	}
}

func TestTrainFromFile(t *testing.T) {
	dir := t.TempDir()
	log := zerolog.Nop()

	t.Run("missing file", func(t *testing.T) {
		f := TrainFromFile(filepath.Join(dir, "nope.csv"), DefaultOptions(), log)
		assert.Equal(t, Untrained, f.Status())
		assert.ErrorIs(t, f.Reason(), ErrSourceUnavailable)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.csv")
		require.NoError(t, os.WriteFile(path, []byte("date,product_name,price_per_kg,quantity_sold\nyesterday,Tomatoes,abc,1\n"), 0o644))
		f := TrainFromFile(path, DefaultOptions(), log)
		assert.Equal(t, Untrained, f.Status())
		assert.ErrorIs(t, f.Reason(), ErrSourceMalformed)
	})

	t.Run("directory", func(t *testing.T) {
		f := TrainFromFile(dir, DefaultOptions(), log)
		assert.Equal(t, Untrained, f.Status())
	})

	t.Run("valid csv", func(t *testing.T) {
		path := filepath.Join(dir, "sales.csv")
		data := "date,product_name,price_per_kg,quantity_sold\n2024-01-01,Tomatoes,20.0,100\n2024-01-08,Tomatoes,22.0,90\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		f := TrainFromFile(path, Options{Trees: 10}, log)
		require.Equal(t, Trained, f.Status())
		assert.Equal(t, []string{"Tomatoes"}, f.Products())
	})
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "trained", Trained.String())
	assert.Equal(t, "untrained", Untrained.String())
}
