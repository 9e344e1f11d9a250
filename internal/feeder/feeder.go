// Package feeder drives the periodic collection loop: fan out to every
// exchange adapter, aggregate each asset column, anchor the vector on
// USDT and publish the scaled result for on-chain submission.
package feeder

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tiny-oracle/tinyd/internal/aggregate"
	"github.com/tiny-oracle/tinyd/internal/alarm"
	"github.com/tiny-oracle/tinyd/internal/bus"
	"github.com/tiny-oracle/tinyd/internal/config"
	"github.com/tiny-oracle/tinyd/internal/exchange"
	"github.com/tiny-oracle/tinyd/internal/pricestore"
	"github.com/tiny-oracle/tinyd/pkg/logging"
)

// priceAlarmBody is mailed when a tick fails to produce any price.
const priceAlarmBody = "Failed to obtain currency price!"

// Feeder runs the tick loop.
type Feeder struct {
	cfg      *config.Config
	registry *exchange.Registry
	bus      *bus.Bus
	interval time.Duration
	log      *logging.Logger

	ticks atomic.Uint64
}

// New creates a feeder. interval is the command-line override in
// seconds; the effective period is the larger of it and the configured
// one.
func New(cfg *config.Config, registry *exchange.Registry, b *bus.Bus, interval uint64) *Feeder {
	if cfg.Interval > interval {
		interval = cfg.Interval
	}
	return &Feeder{
		cfg:      cfg,
		registry: registry,
		bus:      b,
		interval: time.Duration(interval) * time.Second,
		log:      logging.GetDefault().Component("feeder"),
	}
}

// Interval returns the effective tick period.
func (f *Feeder) Interval() time.Duration {
	return f.interval
}

// Ticks returns how many envelopes have been published so far.
func (f *Feeder) Ticks() uint64 {
	return f.ticks.Load()
}

// Run ticks until ctx is cancelled. Cancellation is observed between
// ticks only: an in-flight tick completes its publish step, bounded by
// the HTTP client's per-request timeout.
func (f *Feeder) Run(ctx context.Context) {
	f.log.Info("Feeder started",
		"interval", f.interval,
		"coins", f.cfg.Coins,
		"imitations", f.cfg.Imitations,
	)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		f.RunTick(context.WithoutCancel(ctx))

		select {
		case <-ctx.Done():
			f.log.Info("Feeder stopped", "ticks", f.ticks.Load())
			return
		case <-ticker.C:
		}
	}
}

// RunTick performs one full collect-aggregate-publish round.
func (f *Feeder) RunTick(ctx context.Context) {
	round := uuid.NewString()[:8]
	log := f.log.With("round", round)

	store := f.collect(ctx, log)

	result, err := f.reduce(store, log)
	if err != nil {
		log.Error("No prices this tick", "error", err)
		if f.cfg.EnablePriceAlarm {
			f.bus.PublishAlarm(alarm.NewPriceAlarm(priceAlarmBody))
		}
		return
	}
	log.Debug("Aggregated prices", "prices", result)

	indices, prices := f.scale(result)
	f.bus.PublishEnvelope(bus.Envelope{
		Indices:      indices,
		Prices:       prices,
		ProducedAtMs: uint64(time.Now().UnixMilli()),
	})

	n := f.ticks.Add(1)
	log.Info("Published price vector", "indices", indices, "prices", prices, "tick", n)
}

// collect builds a fresh price matrix and fills it from every
// registered adapter concurrently. A failed adapter leaves its row
// zero; the tick goes on with whatever the rest returned.
func (f *Feeder) collect(ctx context.Context, log *logging.Logger) *pricestore.Store {
	store := pricestore.New(f.cfg.Coins)

	var wg sync.WaitGroup
	for _, a := range f.registry.All() {
		wg.Add(1)
		go func(a exchange.Adapter) {
			defer wg.Done()

			prices, volumes, err := a.Fetch(ctx, f.cfg.Coins, a.Quote(), f.cfg.InvalidTime)
			if err != nil {
				log.Warn("Exchange fetch failed", "exchange", a.Name(), "error", err)
				return
			}
			if err := store.WriteRow(a.Slot(), prices, volumes); err != nil {
				log.Error("Failed to record quotes", "exchange", a.Name(), "error", err)
			}
		}(a)
	}
	wg.Wait()

	return store
}

// reduce turns the collected matrix into one price per coin. The USDT
// anchor resolves first; every other asset is quoted in USDT and
// multiplied by the anchor. A failed asset stays zero, a failed anchor
// fails the whole tick.
func (f *Feeder) reduce(store *pricestore.Store, log *logging.Logger) ([]float64, error) {
	usdtIdx := f.cfg.USDTIndex()

	usdtPrice, err := f.resolve(config.UsdtSymbol, usdtIdx, store)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s price: %w", config.UsdtSymbol, err)
	}

	result := make([]float64, len(f.cfg.Coins))
	result[usdtIdx] = usdtPrice

	for i, coin := range f.cfg.Coins {
		if i == usdtIdx {
			continue
		}
		price, err := f.resolve(coin, i, store)
		if err != nil {
			log.Warn("Failed to resolve price", "coin", coin, "error", err)
			continue
		}
		result[i] = price * usdtPrice
	}

	return result, nil
}

// resolve produces one price for the coin at column idx. An imitation
// price bypasses aggregation entirely.
func (f *Feeder) resolve(symbol string, idx int, store *pricestore.Store) (float64, error) {
	if price, ok := f.cfg.Imitations[symbol]; ok {
		return price, nil
	}

	prices, volumes, err := store.Column(idx)
	if err != nil {
		return 0, err
	}
	sanitize(prices, volumes)

	return aggregate.Resolve(f.algorithm(symbol), prices, volumes, f.cfg.Diff(symbol), f.cfg.Ratio)
}

// algorithm picks the configured aggregation for the symbol. The USDT
// anchor has its own selector.
func (f *Feeder) algorithm(symbol string) string {
	selector := f.cfg.Active
	if symbol == config.UsdtSymbol {
		selector = f.cfg.UsdtActive
	}
	return f.cfg.Algorithms[int(selector)%len(f.cfg.Algorithms)]
}

// scale converts positive prices to chain fixed-point integers. An
// asset with a non-positive price is left out of the vector.
func (f *Feeder) scale(result []float64) ([]uint8, []uint64) {
	indices := make([]uint8, 0, len(result))
	prices := make([]uint64, 0, len(result))
	for i, price := range result {
		if price <= 0 {
			continue
		}
		indices = append(indices, uint8(i))
		prices = append(prices, uint64(price*math.Pow10(int(f.cfg.Decimals[i]))))
	}
	return indices, prices
}

// sanitize zeroes cells with a non-positive price so aggregation only
// sees usable quotes. Positions are preserved for the position
// sensitive backwad algorithm.
func sanitize(prices, volumes []float64) {
	for i, p := range prices {
		if p <= 0 {
			prices[i] = 0
			volumes[i] = 0
		}
	}
}
