package simulator

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"

	"go.uber.org/zap"

	"InsiderSentinel/internal/model"
)

// Source loads the materialised inputs of one ticker.
type Source interface {
	Load(ctx context.Context, symbol string) (model.TickerInput, error)
}

// StaticSource serves inputs already held in memory.
type StaticSource map[string]model.TickerInput

// Load implements Source.
func (s StaticSource) Load(_ context.Context, symbol string) (model.TickerInput, error) {
	in, ok := s[symbol]
	if !ok {
		return model.TickerInput{}, fmt.Errorf("ticker %s: %w", symbol, ErrUnknownTicker)
	}
	return in, nil
}

// Batch runs many tickers on a bounded worker pool. Each ticker owns its
// own state; a failing ticker is reported in its result and never stops
// the others.
type Batch struct {
	sim     *Simulator
	src     Source
	workers int
	log     *zap.Logger
}

// NewBatch creates a batch runner. workers < 1 means one worker.
func NewBatch(sim *Simulator, src Source, workers int, log *zap.Logger) *Batch {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Batch{sim: sim, src: src, workers: workers, log: log}
}

// Run processes symbols and returns one result per symbol, sorted by symbol.
func (b *Batch) Run(ctx context.Context, symbols []string) []model.TickerResult {
	jobs := make(chan string)
	results := make(chan model.TickerResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				results <- b.runOne(ctx, sym)
			}
		}()
	}

	// Symbols never dispatched after cancellation still get a result.
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		for i, sym := range symbols {
			select {
			case jobs <- sym:
			case <-ctx.Done():
				for _, rest := range symbols[i:] {
					results <- model.TickerResult{Symbol: rest, Err: fmt.Errorf("ticker %s: %w", rest, ctx.Err())}
				}
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]model.TickerResult, 0, len(symbols))
	for r := range results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (b *Batch) runOne(ctx context.Context, symbol string) (res model.TickerResult) {
	res.Symbol = symbol
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("ticker panicked",
				zap.String("ticker", symbol),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			res = model.TickerResult{Symbol: symbol, Err: fmt.Errorf("ticker %s: %w: %v", symbol, ErrPanic, r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("ticker %s: %w", symbol, err)
		return res
	}
	in, err := b.src.Load(ctx, symbol)
	if err != nil {
		b.log.Warn("load failed", zap.String("ticker", symbol), zap.Error(err))
		res.Err = err
		return res
	}
	if in.Symbol == "" {
		in.Symbol = symbol
	}
	res = b.sim.Run(in)
	b.log.Info("ticker simulated",
		zap.String("ticker", symbol),
		zap.Int("bars", len(in.Bars)),
		zap.Int("events", len(in.Events)),
		zap.Int("trades", len(res.Trades)),
		zap.Int("trends", len(res.Trends)))
	return res
}
