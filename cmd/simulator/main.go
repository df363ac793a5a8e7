package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mm-oms-core/internal/config"
	"mm-oms-core/internal/engine"
	"mm-oms-core/internal/logging"
	"mm-oms-core/internal/randsrc"
	"mm-oms-core/internal/sim"

	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (falls back to $CONFIG_FILE, then built-in defaults)")
	seed := flag.Int64("seed", 0, "PRNG seed (0 selects the seed from config)")
	ticks := flag.Int("ticks", 1000, "number of simulation ticks to run")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	runSeed := cfg.Seed
	if *seed != 0 {
		runSeed = *seed
	}

	log := logging.NewLogger(logLevelFromString(cfg.LogLevel))
	defer log.Sync()

	log.Info("starting simulator",
		zap.String("service", cfg.ServiceName),
		zap.Int64("seed", runSeed),
		zap.Int("ticks", *ticks),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("shutting down on signal")
		cancel()
	}()

	eng := engine.New(engine.Config{
		OrderGCThreshold:       cfg.Engine.OrderGCThreshold,
		QuoteHistoryThreshold:  cfg.Engine.QuoteHistoryThreshold,
		QuoteHistoryCheckIndex: cfg.Engine.QuoteHistoryCheckIndex,
		QuoteHistoryTrim:       cfg.Engine.QuoteHistoryTrim,
	}, log)

	src := randsrc.New(runSeed)
	params := sim.Params{
		UpperPrice:                    cfg.Engine.UpperPrice,
		MaxOperationsToGenerate:       cfg.Engine.MaxOperationsToGenerate,
		ThrottleProbability:           cfg.Engine.ThrottleProbability,
		MaxOperationsToClearFromQueue: cfg.Engine.MaxOperationsToClearFromQueue,
		MaxOperationsToAcknowledge:    cfg.Engine.MaxOperationsToAcknowledge,
	}
	driver := sim.NewDriver(eng, src, log, params)

	for i := 0; i < *ticks; i++ {
		select {
		case <-ctx.Done():
			log.Info("simulation run stopped early", zap.Int("ticks_completed", i))
			return
		default:
			driver.Tick()
		}
	}

	sim.PrintOrderBook(os.Stdout, eng, cfg.Engine.UpperPrice)
	log.Info("simulation run complete")
}

func logLevelFromString(level string) logging.LogLevel {
	switch level {
	case "debug":
		return logging.DEBUG
	case "warn":
		return logging.WARN
	case "error":
		return logging.ERROR
	default:
		return logging.INFO
	}
}
