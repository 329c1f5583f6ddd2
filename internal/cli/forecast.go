package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/nexusfarm/nexus/internal/forecast"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type forecastOptions struct {
	data     string
	product  string
	date     string
	model    string
	trees    int
	maxDepth int
	seed     uint64
	history  bool
	json     bool
}

func newForecastCmd(global *globalOptions) *cobra.Command {
	opts := &forecastOptions{}

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Train the forecaster on a sales file and print predictions",
		Long: `Train the demand forecaster on a historical sales file (.csv or .xlsx with
columns date, product_name, price_per_kg, quantity_sold) and print the
predicted price and quantity for one date.`,
		Example: `  nexusctl forecast --data historical_data.csv
  nexusctl forecast --data sales.xlsx --product Tomatoes --date 2024-03-15
  nexusctl forecast --data sales.csv --model linear --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.data == "" {
				cfg, err := global.config()
				if err != nil {
					return err
				}
				opts.data = cfg.Forecast.DataPath
			}
			return runForecast(cmd.OutOrStdout(), opts, global.logger(cmd))
		},
	}

	cmd.Flags().StringVar(&opts.data, "data", "", "historical sales file (default FORECAST_DATA_PATH)")
	cmd.Flags().StringVar(&opts.product, "product", "", "product to predict (default: first three products)")
	cmd.Flags().StringVar(&opts.date, "date", "", "prediction date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.model, "model", forecast.ModelForest, "regressor: forest or linear")
	cmd.Flags().IntVar(&opts.trees, "trees", 100, "number of trees for the forest model")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "maximum tree depth (0 = unlimited)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 42, "random seed")
	cmd.Flags().BoolVar(&opts.history, "history", false, "also print the price history summary")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON instead of a table")

	return cmd
}

type forecastReport struct {
	Date     string             `json:"date"`
	Products []string           `json:"products"`
	Results  []forecast.Result  `json:"forecasts"`
	History  []forecast.Insight `json:"history,omitempty"`
}

func runForecast(out io.Writer, opts *forecastOptions, log zerolog.Logger) error {
	day := time.Now()
	if opts.date != "" {
		parsed, err := time.Parse("2006-01-02", opts.date)
		if err != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", opts.date)
		}
		day = parsed
	}

	f := forecast.TrainFromFile(opts.data, forecast.Options{
		Model:    opts.model,
		Trees:    opts.trees,
		MaxDepth: opts.maxDepth,
		Seed:     opts.seed,
	}, log)
	if f.Status() != forecast.Trained {
		return fmt.Errorf("forecaster not trained: %w", f.Reason())
	}

	report := forecastReport{
		Date:     day.Format("2006-01-02"),
		Products: f.Products(),
		Results:  f.Predict(day, opts.product),
	}
	if opts.history {
		for _, r := range report.Results {
			if in, ok := f.History(r.Name); ok {
				report.History = append(report.History, in)
			}
		}
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "Forecast for %s (%d products known)\n\n", report.Date, len(report.Products))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tPRICE/KG\tQTY")
	for _, r := range report.Results {
		fmt.Fprintf(tw, "%s\t%.2f\t%d\n", r.Name, r.Price, r.Quantity)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.History) > 0 {
		fmt.Fprintln(out)
		tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PRODUCT\tOBS\tMIN\tMAX\tMEAN\tSMA\tLAST")
		for _, in := range report.History {
			fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
				in.Product, in.Observations, in.MinPrice, in.MaxPrice, in.MeanPrice, in.MovingAverage, in.LastPrice)
		}
		return tw.Flush()
	}
	return nil
}
