package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bybitflow/collector"
	appconfig "bybitflow/config"
	"bybitflow/logger"
	"bybitflow/metrics"
	"bybitflow/models"
	"bybitflow/reader/bybit"
	"bybitflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	collectTime := flag.Int("time", 5, "Time in seconds for which to run the data collector")
	pair := flag.String("pair", "", "Pair to collect data on, e.g. BTCUSD")
	orderBook := flag.Int("order_book", 0, "Collect the level 2 order book (25 levels per side)")
	depth := flag.Int("depth", 3, "Requested order book depth; the v2 book depth is fixed, the value is recorded only")
	candles := flag.Int("candles", 0, "Collect kline buckets")
	granularity := flag.Int("granularity", 0, "Kline interval in minutes; sent to the exchange unvalidated")
	spreads := flag.Int("spreads", 0, "Collect 24h/30d stats (not available on the v2 public API)")
	trades := flag.Int("trades", 0, "Collect the latest trades")
	ticker := flag.Int("ticker", 0, "Collect the latest tick (single kline bucket)")

	flag.Parse()

	cfg, err := appconfig.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	applyFlags(cfg, *collectTime, *pair, *orderBook, *depth, *candles, *granularity, *trades, *ticker)

	if *spreads != 0 {
		log.Error("spreads collection is not supported: the v2 public API has no stats endpoint")
		os.Exit(1)
	}

	if err := appconfig.Validate(cfg); err != nil {
		log.WithError(err).Error("configuration validation failed")
		os.Exit(1)
	}

	if !cfg.AnyEnabled() {
		log.Error("no data types selected; pass at least one of --order_book, --trades, --candles, --ticker")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	if cfg.Logging.CloudWatch {
		logger.InitCloudWatch(cfg.Storage.S3.Region, cfg.Logging.Namespace)
	}

	log.WithFields(logger.Fields{
		"service":  cfg.Bybitflow.Name,
		"version":  cfg.Bybitflow.Version,
		"pair":     cfg.Collect.Pair,
		"duration": cfg.Collect.Duration().String(),
	}).Info("starting bybitflow")

	outputDir := cfg.OutputDir()
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.WithError(err).Error("failed to create output directory")
		os.Exit(1)
	}

	var uploader *writer.S3Uploader
	if cfg.Storage.S3.Enabled {
		uploader, err = writer.NewS3Uploader(cfg)
		if err != nil {
			log.WithError(err).Error("failed to create S3 uploader")
			os.Exit(1)
		}
	}

	client := bybit.NewClient(cfg)
	counters := metrics.NewCounters()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
		cancel()
	}()

	type task struct {
		col *collector.Collector
		out *writer.JSONL
	}

	tasks := make([]task, 0, 4)
	addTask := func(dataType models.DataType, fetch collector.FetchFunc) {
		out, err := writer.NewJSONL(outputDir, dataType)
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"data_type": string(dataType)}).Error("failed to open capture file")
			os.Exit(1)
		}
		col := collector.New(dataType, fetch, cfg.Collect.Duration(), out, counters)
		tasks = append(tasks, task{col: col, out: out})
	}

	pairSym := cfg.Collect.Pair

	if cfg.Collect.Ticker.Enabled {
		interval := cfg.Collect.Ticker.Interval
		from := resolveFrom(cfg.Collect.Ticker.From, interval)
		addTask(models.DataTicker, func(ctx context.Context) (json.RawMessage, error) {
			return client.Ticker(ctx, pairSym, interval, from)
		})
	}

	if cfg.Collect.OrderBook.Enabled {
		log.WithFields(logger.Fields{"depth": cfg.Collect.OrderBook.Depth}).
			Info("order book depth requested; v2 L2 book always returns 25 levels per side")
		addTask(models.DataOrderBook, func(ctx context.Context) (json.RawMessage, error) {
			return client.OrderBook(ctx, pairSym)
		})
	}

	if cfg.Collect.Trades.Enabled {
		limit := cfg.Collect.Trades.Limit
		addTask(models.DataTrades, func(ctx context.Context) (json.RawMessage, error) {
			return client.Trades(ctx, pairSym, limit)
		})
	}

	if cfg.Collect.Candles.Enabled {
		interval := cfg.Collect.Candles.Interval
		from := resolveFrom(cfg.Collect.Candles.From, interval)
		addTask(models.DataCandles, func(ctx context.Context) (json.RawMessage, error) {
			return client.Candles(ctx, pairSym, interval, from)
		})
	}

	var wg sync.WaitGroup
	outcomes := make([]collector.Outcome, len(tasks))

	for i, tk := range tasks {
		wg.Add(1)
		go func(i int, tk task) {
			defer wg.Done()
			outcomes[i] = tk.col.Run(ctx)
			if err := tk.out.Close(); err != nil {
				log.WithError(err).Warn("failed to close capture file")
				if outcomes[i].Err == nil {
					outcomes[i].Err = err
				}
			}
		}(i, tk)
	}

	wg.Wait()

	failed := false
	for i, outcome := range outcomes {
		fields := logger.Fields{
			"data_type":  string(outcome.DataType),
			"run_id":     outcome.RunID,
			"records":    outcome.Records,
			"api_errors": outcome.APIErrors,
			"elapsed":    outcome.Elapsed.String(),
		}
		switch {
		case outcome.Err == nil:
			log.WithFields(fields).Info("collector completed")
		case errors.Is(outcome.Err, context.Canceled):
			log.WithFields(fields).Warn("collector cancelled before its duration elapsed")
		default:
			failed = true
			log.WithError(outcome.Err).WithFields(fields).Error("collector failed")
		}

		if uploader != nil && outcome.Err == nil {
			uploadCtx, uploadCancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := uploader.UploadFile(uploadCtx, tasks[i].out.Path(), pairSym, outcome.RunID, outcome.DataType); err != nil {
				log.WithError(err).WithFields(fields).Warn("failed to archive capture file")
			}
			uploadCancel()
		}
	}

	counters.Report(log, pairSym)
	log.Info("bybitflow stopped")

	if failed {
		os.Exit(1)
	}
}

// applyFlags copies explicitly-set CLI flags over the file configuration.
// The integer data-type flags gate their collectors, matching the original
// command line of this tool.
func applyFlags(cfg *appconfig.Config, collectTime int, pair string, orderBook, depth, candles, granularity, trades, ticker int) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["time"] {
		cfg.Collect.DurationSeconds = collectTime
	}
	if set["pair"] {
		cfg.Collect.Pair = pair
	}
	if set["order_book"] {
		cfg.Collect.OrderBook.Enabled = orderBook != 0
	}
	if set["depth"] {
		cfg.Collect.OrderBook.Depth = depth
	}
	if set["candles"] {
		cfg.Collect.Candles.Enabled = candles != 0
	}
	if set["granularity"] && granularity > 0 {
		cfg.Collect.Candles.Interval = strconv.Itoa(granularity)
		cfg.Collect.Ticker.Interval = strconv.Itoa(granularity)
	}
	if set["trades"] {
		cfg.Collect.Trades.Enabled = trades != 0
	}
	if set["ticker"] {
		cfg.Collect.Ticker.Enabled = ticker != 0
	}
}

// resolveFrom fills the kline window start when the configuration leaves it
// at zero: roughly 200 intervals before now, the endpoint's bucket cap.
func resolveFrom(from int64, interval string) int64 {
	if from > 0 {
		return from
	}
	return time.Now().Unix() - 200*bybit.IntervalSeconds(interval)
}
