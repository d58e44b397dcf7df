package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"InsiderSentinel/internal/collector"
	"InsiderSentinel/internal/config"
	"InsiderSentinel/internal/metrics"
	"InsiderSentinel/internal/notifier"
	"InsiderSentinel/internal/recorder"
	"InsiderSentinel/internal/runstate"
	"InsiderSentinel/internal/scheduler"
	"InsiderSentinel/internal/simulator"
	"InsiderSentinel/internal/strategy"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the YAML config file")
	once := flag.Bool("once", false, "run a single batch and exit")
	flag.Parse()

	log := zap.Must(zap.NewProduction())
	code := run(cfgPath, *once, log)
	log.Sync()
	os.Exit(code)
}

// run owns every resource so deferred cleanup completes before the process exits.
func run(cfgPath string, once bool, log *zap.Logger) int {
	log.Info("InsiderSentinel starting", zap.String("config", cfgPath))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Error("load config", zap.Error(err))
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.Error("config validation", zap.Error(err))
		return 1
	}

	col, closeCache := buildCollector(cfg, log)
	defer closeCache()

	rec := buildRecorder(cfg, log)
	defer rec.Close()

	state, err := runstate.NewManager(cfg.StateFile, log)
	if err != nil {
		log.Error("init run state", zap.Error(err))
		return 1
	}

	m := metrics.New()
	sim := simulator.New(strategy.DefaultPolicy(), log, simulator.WithObserver(m))
	batch := simulator.NewBatch(sim, col, cfg.Simulation.Workers, log)

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, batch, cfg.Tickers, rec, state, log)
	sched.Observer = m
	sched.ReportDir = cfg.Report.Dir

	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sched.Notifier = tn
	}

	if once {
		if _, err := sched.RunNow(); err != nil {
			log.Error("batch", zap.Error(err))
			return 1
		}
		return 0
	}

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, m, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if err := sched.RegisterDaily(cfg.Schedule.DailyCron); err != nil {
		log.Error("register cron tasks", zap.Error(err))
		return 1
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, executing batch now")
		go func() {
			if _, err := sched.RunNow(); err != nil {
				log.Error("startup batch", zap.Error(err))
			}
		}()
	}

	log.Info("InsiderSentinel is running", zap.Int("tickers", len(cfg.Tickers)), zap.String("cron", cfg.Schedule.DailyCron))
	<-ctx.Done()
	log.Info("shutdown signal received, stopping")
	return 0
}

func buildCollector(cfg *config.Config, log *zap.Logger) (*collector.Collector, func()) {
	closeFn := func() {}

	var bars collector.BarFetcher
	switch cfg.DataSource.Provider {
	case config.ProviderREST:
		bars = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case config.ProviderCSV:
		bars = &collector.CSVFetcher{BarsDir: cfg.DataSource.BarsDir}
	default:
		bars = collector.NewYahooFetcher(cfg.Proxy)
	}

	if cfg.Redis.Addr != "" {
		cache, err := collector.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("redis unavailable, fetching without cache", zap.Error(err))
		} else {
			bars = collector.NewCachedBarFetcher(bars, cache, cfg.CacheTTL(), log)
			closeFn = func() { cache.Close() }
		}
	}

	var insiders collector.InsiderFetcher
	switch cfg.Insider.Provider {
	case config.InsiderOpenInsider:
		insiders = collector.NewOpenInsiderFetcher(cfg.Insider.BaseURL)
	case config.InsiderCSV:
		insiders = &collector.CSVFetcher{InsiderDir: cfg.Insider.Dir}
	}

	var history collector.HistoryTable
	if cfg.HistoryPath != "" {
		h, err := collector.LoadHistoryTable(cfg.HistoryPath)
		if err != nil {
			log.Warn("history table unavailable, using cold-start defaults", zap.Error(err))
		} else {
			history = h
		}
	}

	name := "none"
	if insiders != nil {
		name = insiders.Name()
	}
	log.Info("data sources", zap.String("bars", bars.Name()), zap.String("insiders", name))
	return collector.NewCollector(bars, insiders, history, cfg.DataSource.Days, cfg.FetchTimeout(), log), closeFn
}

func buildRecorder(cfg *config.Config, log *zap.Logger) recorder.Recorder {
	if cfg.Database.PostgresDSN != "" {
		pr, err := recorder.NewPostgresRecorder(cfg.Database.PostgresDSN, log)
		if err == nil {
			return pr
		}
		log.Warn("init postgres recorder failed", zap.Error(err))
	}
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err == nil {
			return sr
		}
		log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
	}
	return recorder.NewNoopRecorder()
}

func serveMetrics(addr string, m *metrics.Metrics, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	log.Info("metrics listening", zap.String("addr", addr))
	return srv
}
