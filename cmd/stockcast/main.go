// Package main provides the entry point for the stockcast CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/stockcast/internal/backtest"
	"github.com/yourusername/stockcast/internal/config"
	"github.com/yourusername/stockcast/internal/database"
	"github.com/yourusername/stockcast/internal/logger"
	"github.com/yourusername/stockcast/internal/marketdata"
	"github.com/yourusername/stockcast/internal/metrics"
	"github.com/yourusername/stockcast/internal/models"
	"github.com/yourusername/stockcast/internal/scheduler"
	"github.com/yourusername/stockcast/internal/service"
	"github.com/yourusername/stockcast/internal/store"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	csvPath    string
	horizon    int
	atrValue   float64
	appLogger  *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *store.Repositories
	engine     *service.Engine
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&csvPath, "csv", "", "Load bars from a CSV file instead of the market data API")

	forecastCmd.Flags().IntVar(&horizon, "horizon", 0, "Forecast horizon in trading days (defaults to config)")
	sizeCmd.Flags().Float64Var(&atrValue, "atr", 0, "Current ATR, required when the configured stop mode is atr")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(sizeCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "stockcast",
	Short: "Price forecasting and signal generation for equities",
	Long: `Stockcast trains forecast model ensembles on daily bars, projects
future prices with confidence bands, scores trade signals and replays
strategies through a backtest simulator.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return setup(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(ctx, cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLogger = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	metrics.InitRegistry()

	// The database only persists results; commands still work without it.
	db, err = database.NewDB(ctx, &cfg.Database)
	if err != nil {
		appLogger.WithError(err).Warn("Database unavailable, results will not be persisted")
		db = nil
	}
	if db != nil {
		repos, err = store.NewRepositories(db)
		if err != nil {
			return fmt.Errorf("failed to initialize repositories: %w", err)
		}
	}

	engine, err = service.NewEngine(cfg, repos, appLogger)
	return err
}

// loadBars fetches daily bars for the symbol from the CSV override, the
// configured CSV directory, or the market data API, in that order.
func loadBars(ctx context.Context, symbol string) ([]models.Bar, error) {
	if csvPath != "" {
		return marketdata.LoadBarsCSV(csvPath)
	}
	if cfg.MarketData.CSVDirectory != "" {
		return marketdata.LoadBarsCSV(filepath.Join(cfg.MarketData.CSVDirectory, symbol+".csv"))
	}

	start, err := time.Parse(time.DateOnly, cfg.Backtest.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse(time.DateOnly, cfg.Backtest.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}

	client := marketdata.NewClient(&cfg.MarketData, appLogger)
	return client.GetDailyBars(ctx, symbol, start, end)
}

var trainCmd = &cobra.Command{
	Use:   "train [symbol]",
	Short: "Train an ensemble for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := args[0]
		bars, err := loadBars(cmd.Context(), symbol)
		if err != nil {
			return err
		}

		ens, err := engine.TrainEnsemble(cmd.Context(), symbol, bars)
		if err != nil {
			return err
		}

		fmt.Printf("Trained ensemble %s for %s (%d bars)\n", ens.ID(), symbol, len(bars))
		for name, weight := range ens.Weights() {
			fmt.Printf("  %-10s %.4f\n", name, weight)
		}
		return nil
	},
}

var forecastCmd = &cobra.Command{
	Use:   "forecast [symbol]",
	Short: "Project future prices with confidence bands",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := args[0]
		bars, err := loadBars(cmd.Context(), symbol)
		if err != nil {
			return err
		}
		if _, err := engine.TrainEnsemble(cmd.Context(), symbol, bars); err != nil {
			return err
		}

		steps := horizon
		if steps <= 0 {
			steps = cfg.Forecast.Horizon
		}
		fc, err := engine.Forecast(cmd.Context(), symbol, bars, steps)
		if err != nil {
			return err
		}

		fmt.Printf("Forecast for %s (%d steps ahead):\n", symbol, steps)
		for i := range fc.PointEstimates {
			fmt.Printf("  t+%-3d %10.2f  [%10.2f, %10.2f]\n",
				i+1, fc.PointEstimates[i], fc.LowerBand[i], fc.UpperBand[i])
		}
		return nil
	},
}

var signalCmd = &cobra.Command{
	Use:   "signal [symbol]",
	Short: "Score a trade signal for the latest bar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := args[0]
		bars, err := loadBars(cmd.Context(), symbol)
		if err != nil {
			return err
		}
		if _, err := engine.TrainEnsemble(cmd.Context(), symbol, bars); err != nil {
			return err
		}

		sig, err := engine.ScoreSignal(cmd.Context(), symbol, bars, nil)
		if err != nil {
			return err
		}

		fmt.Printf("Signal for %s: %s (score %.1f, confidence %.0f%%)\n",
			symbol, sig.Classification, sig.Score, sig.Confidence)
		for _, reason := range sig.Reasons {
			fmt.Printf("  - %s\n", reason)
		}
		return nil
	},
}

var backtestCmd = &cobra.Command{
	Use:   "backtest [symbol]",
	Short: "Replay the composite signal strategy over historical bars",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := args[0]
		bars, err := loadBars(cmd.Context(), symbol)
		if err != nil {
			return err
		}

		state, report, err := engine.RunBacktest(cmd.Context(), symbol, bars)
		if err != nil {
			return err
		}

		fmt.Print(backtest.GenerateConsoleReport(report))

		if cfg.Backtest.OutputPath != "" {
			if err := os.MkdirAll(cfg.Backtest.OutputPath, 0o755); err != nil {
				return err
			}
			curvePath := filepath.Join(cfg.Backtest.OutputPath, symbol+"_equity.csv")
			if err := backtest.WriteEquityCurveCSV(state.Curve, curvePath); err != nil {
				return err
			}
			metricsPath := filepath.Join(cfg.Backtest.OutputPath, symbol+"_metrics.json")
			if err := backtest.WriteMetricsJSON(report, metricsPath); err != nil {
				return err
			}
			appLogger.WithField("path", cfg.Backtest.OutputPath).Info("Backtest artifacts written")
		}
		return nil
	},
}

var sizeCmd = &cobra.Command{
	Use:   "size [equity] [entry]",
	Short: "Size a position from the configured risk limits",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		equity, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid equity %q: %w", args[0], err)
		}
		entry, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid entry price %q: %w", args[1], err)
		}

		pos, err := engine.SizePosition(equity, entry, atrValue)
		if err != nil {
			return err
		}

		fmt.Printf("Position for %.2f equity at entry %.2f:\n", equity, entry)
		fmt.Printf("  shares      %.0f\n", pos.Shares)
		fmt.Printf("  notional    %.2f\n", pos.Notional())
		fmt.Printf("  stop loss   %.2f\n", pos.StopLoss)
		fmt.Printf("  take profit %.2f\n", pos.TakeProfit)
		return nil
	},
}

var streamCmd = &cobra.Command{
	Use:   "stream [symbols...]",
	Short: "Print live quotes from the market data stream",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client := marketdata.NewStreamClient(cfg.MarketData.StreamURL, cfg.MarketData.APIKey, appLogger)
		client.OnQuote(func(q marketdata.Quote) error {
			fmt.Printf("%s  %-8s %10.2f  vol %.0f\n",
				q.Timestamp.Format(time.RFC3339), q.Symbol, q.Price, q.Volume)
			return nil
		})

		if err := client.Connect(ctx, args); err != nil {
			return err
		}
		defer client.Close()

		return client.Listen(ctx)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled retraining and the metrics endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		retrain := func(ctx context.Context, symbol string) error {
			bars, err := loadBars(ctx, symbol)
			if err != nil {
				return err
			}
			if repos != nil {
				if err := repos.Bar.Upsert(ctx, symbol, bars); err != nil {
					appLogger.WithError(err).WithField("symbol", symbol).Warn("Failed to persist bars")
				}
			}
			_, err = engine.TrainEnsemble(ctx, symbol, bars)
			return err
		}

		timeout := time.Duration(cfg.Forecast.RetrainingIntervalHours) * time.Hour
		sched := scheduler.New(appLogger, timeout)
		if err := sched.ScheduleRetraining(cfg.Scheduler.RetrainingCron, cfg.Scheduler.Symbols, retrain); err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()

		if next, err := sched.GetNextRun(); err == nil {
			appLogger.WithField("next_run", next).Info("Retraining scheduled")
		}

		var srv *http.Server
		if cfg.Metrics.Enabled {
			mux := http.NewServeMux()
			mux.Handle(cfg.Metrics.Path, metrics.Handler())
			srv = &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				appLogger.WithField("port", cfg.Metrics.Port).Info("Metrics endpoint started")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					appLogger.WithError(err).Error("Metrics server failed")
				}
			}()
		}

		<-ctx.Done()
		appLogger.Info("Shutting down")
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				appLogger.WithError(err).Warn("Metrics server shutdown failed")
			}
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stockcast %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}
