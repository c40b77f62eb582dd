// tradecore demo — wires the simulator, the event-flow pipeline, and a
// resilient WebSocket connection into a small runnable program: it
// connects to a trade feed, replays each trade into the simulator, and
// pushes the resulting order updates through the pipeline to a log sink.
//
// Startup follows the usual config load → validate → logger setup →
// component start → signal handling → graceful stop sequence.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"tradecore/internal/candle"
	"tradecore/internal/config"
	"tradecore/internal/orderbook"
	syncpipeline "tradecore/internal/pipeline/sync"
	"tradecore/internal/simulator"
	"tradecore/internal/wsconn"
	"tradecore/pkg/types"

	"github.com/shopspring/decimal"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("TC_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	market := types.Market{
		Symbol:     cfg.Market.Symbol,
		BaseAsset:  cfg.Market.BaseAsset,
		QuoteAsset: cfg.Market.QuoteAsset,
		Direction:  types.Direction(cfg.Market.Direction),
	}
	makerFee, _ := decimal.NewFromString(cfg.Market.MakerFee)
	takerFee, _ := decimal.NewFromString(cfg.Market.TakerFee)
	sim := simulator.New(market, makerFee, takerFee)

	pipe := syncpipeline.New()
	pipe.AddNode("log-sink", &logSinkNode{logger: logger.With("component", "pipeline")})

	conn := wsconn.New(cfg.Venue.WSURL, nil)
	conn.OnConnectionError(func(err error) {
		logger.Error("websocket connection error", "error", err)
	})

	go func() {
		if err := conn.Run(ctx); err != nil {
			logger.Error("websocket connection stopped", "error", err)
		}
	}()

	chart := candle.New(time.Minute)
	trades := conn.Subscribe("trades")
	go consumeTrades(ctx, trades, sim, chart, pipe, logger)

	book := orderbook.New()
	depth := conn.Subscribe("orderbook")
	go consumeOrderbook(ctx, depth, book, logger)

	logger.Info("tradecore demo started",
		"market", cfg.Market.Symbol,
		"pipeline_mode", cfg.Pipeline.Mode,
		"ws_url", cfg.Venue.WSURL,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	cancel()
}

// logSinkNode is the pipeline's terminal node: it logs every order
// update it receives. A minimal stand-in for whatever downstream
// consumer (dashboard, persistence, alerting) a real deployment wires in.
type logSinkNode struct {
	logger *slog.Logger
}

func (n *logSinkNode) Process(inputPort string, event syncpipeline.Event) []syncpipeline.Output {
	if update, ok := event.(simulator.OrderUpdate); ok {
		n.logger.Info("order update", "order_id", update.OrderID, "status", update.Order.Execution.Status)
	}
	return nil
}

func consumeTrades(ctx context.Context, in <-chan wsconn.Message, sim *simulator.Simulator, chart *candle.Chart, pipe *syncpipeline.Pipeline, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			trade, err := decodeTrade(msg)
			if err != nil {
				logger.Warn("failed to decode trade message", "error", err)
				continue
			}
			chart.IngestTrade(trade)
			updates, err := sim.IngestTrades([]types.Trade{trade})
			if err != nil {
				logger.Warn("failed to ingest trade", "error", err)
				continue
			}
			for _, u := range updates {
				pipe.Ingest("log-sink", "in", u)
			}
			pipe.Drain()
		}
	}
}

func consumeOrderbook(ctx context.Context, in <-chan wsconn.Message, book *orderbook.Book, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			rows, err := decodeOrderbookRows(msg)
			if err != nil {
				logger.Warn("failed to decode orderbook update", "error", err)
				continue
			}
			inverse, err := book.Apply(rows)
			if err != nil {
				logger.Warn("orderbook update rejected, rolling back", "error", err)
				book.Invert(inverse)
			}
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
