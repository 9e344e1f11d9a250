package feeder

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tiny-oracle/tinyd/internal/alarm"
	"github.com/tiny-oracle/tinyd/internal/bus"
	"github.com/tiny-oracle/tinyd/internal/config"
	"github.com/tiny-oracle/tinyd/internal/exchange"
)

type fakeAdapter struct {
	name    string
	slot    int
	prices  []float64
	volumes []float64
	err     error
}

func (f *fakeAdapter) Name() string  { return f.name }
func (f *fakeAdapter) Slot() int     { return f.slot }
func (f *fakeAdapter) Quote() string { return exchange.QuoteUSDT }

func (f *fakeAdapter) Fetch(_ context.Context, _ []string, _ string, _ uint64) ([]float64, []float64, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.prices, f.volumes, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Interval:   1,
		Coins:      []string{"BTC", "ETH", "USDT"},
		Decimals:   []uint64{8, 8, 6},
		Algorithms: []string{"average"},
		Ratio:      0.66,
	}
}

func newTestFeeder(cfg *config.Config, b *bus.Bus, adapters ...*fakeAdapter) *Feeder {
	r := exchange.NewRegistry()
	for _, a := range adapters {
		r.Register(a)
	}
	return New(cfg, r, b, 0)
}

func recvEnvelope(t *testing.T, b *bus.Bus) bus.Envelope {
	t.Helper()
	select {
	case env := <-b.Envelopes():
		return env
	default:
		t.Fatal("no envelope published")
		return bus.Envelope{}
	}
}

func TestRunTickPublishesVector(t *testing.T) {
	b := bus.New()
	defer b.Close()

	f := newTestFeeder(testConfig(), b,
		&fakeAdapter{name: "a", slot: 0, prices: []float64{30000, 2000, 1}, volumes: []float64{1, 1, 1}},
		&fakeAdapter{name: "b", slot: 1, prices: []float64{30010, 2001, 1.0005}, volumes: []float64{1, 1, 1}},
		&fakeAdapter{name: "c", slot: 2, prices: []float64{29990, 1999, 0.9995}, volumes: []float64{1, 1, 1}},
	)

	before := uint64(time.Now().UnixMilli())
	f.RunTick(context.Background())

	env := recvEnvelope(t, b)
	if !reflect.DeepEqual(env.Indices, []uint8{0, 1, 2}) {
		t.Errorf("indices = %v, want [0 1 2]", env.Indices)
	}
	want := []uint64{3_000_000_000_000, 200_000_000_000, 1_000_000}
	if !reflect.DeepEqual(env.Prices, want) {
		t.Errorf("prices = %v, want %v", env.Prices, want)
	}
	if env.ProducedAtMs < before {
		t.Errorf("ProducedAtMs = %d, want >= %d", env.ProducedAtMs, before)
	}
	if got := f.Ticks(); got != 1 {
		t.Errorf("Ticks() = %d, want 1", got)
	}
}

func TestRunTickSkipsFailedVenue(t *testing.T) {
	b := bus.New()
	defer b.Close()

	f := newTestFeeder(testConfig(), b,
		&fakeAdapter{name: "a", slot: 0, prices: []float64{30000, 2000, 1}, volumes: []float64{1, 1, 1}},
		&fakeAdapter{name: "b", slot: 1, prices: []float64{30010, 2002, 1}, volumes: []float64{1, 1, 1}},
		&fakeAdapter{name: "c", slot: 2, err: errors.New("http 500")},
	)

	f.RunTick(context.Background())

	env := recvEnvelope(t, b)
	want := []uint64{3_000_500_000_000, 200_100_000_000, 1_000_000}
	if !reflect.DeepEqual(env.Prices, want) {
		t.Errorf("prices = %v, want %v", env.Prices, want)
	}
}

func TestRunTickAbortsWithoutAnchor(t *testing.T) {
	adapters := func() []*fakeAdapter {
		return []*fakeAdapter{
			{name: "a", slot: 0, prices: []float64{30000, 2000, 0}, volumes: []float64{1, 1, 0}},
			{name: "b", slot: 1, prices: []float64{30010, 2001, 0}, volumes: []float64{1, 1, 0}},
		}
	}

	t.Run("alarm enabled", func(t *testing.T) {
		b := bus.New()
		defer b.Close()

		cfg := testConfig()
		cfg.EnablePriceAlarm = true
		f := newTestFeeder(cfg, b, adapters()...)

		f.RunTick(context.Background())

		select {
		case env := <-b.Envelopes():
			t.Fatalf("published %v with no anchor price", env)
		default:
		}

		select {
		case a := <-b.Alarms():
			if a.Kind != alarm.KindPrice {
				t.Errorf("alarm kind = %v, want price", a.Kind)
			}
			if a.Subject != alarm.PriceSubject {
				t.Errorf("alarm subject = %q, want %q", a.Subject, alarm.PriceSubject)
			}
		default:
			t.Fatal("no price alarm published")
		}
	})

	t.Run("alarm disabled", func(t *testing.T) {
		b := bus.New()
		defer b.Close()

		f := newTestFeeder(testConfig(), b, adapters()...)
		f.RunTick(context.Background())

		select {
		case a := <-b.Alarms():
			t.Fatalf("alarm %v published with enable_price_alarm off", a)
		default:
		}
	})
}

func TestRunTickImitationBypass(t *testing.T) {
	b := bus.New()
	defer b.Close()

	cfg := testConfig()
	cfg.Imitations = map[string]float64{"BTC": 42000}
	f := newTestFeeder(cfg, b,
		// No venue quotes BTC at all; only the imitation can price it.
		&fakeAdapter{name: "a", slot: 0, prices: []float64{0, 2000, 1}, volumes: []float64{0, 1, 1}},
	)

	f.RunTick(context.Background())

	env := recvEnvelope(t, b)
	want := []uint64{4_200_000_000_000, 200_000_000_000, 1_000_000}
	if !reflect.DeepEqual(env.Prices, want) {
		t.Errorf("prices = %v, want %v", env.Prices, want)
	}
}

func TestRunTickImitationAnchorsUSDT(t *testing.T) {
	b := bus.New()
	defer b.Close()

	cfg := testConfig()
	cfg.Imitations = map[string]float64{"USDT": 1.0}
	f := newTestFeeder(cfg, b,
		&fakeAdapter{name: "a", slot: 0, err: errors.New("network down")},
	)

	f.RunTick(context.Background())

	env := recvEnvelope(t, b)
	if !reflect.DeepEqual(env.Indices, []uint8{2}) {
		t.Errorf("indices = %v, want [2]", env.Indices)
	}
	if !reflect.DeepEqual(env.Prices, []uint64{1_000_000}) {
		t.Errorf("prices = %v, want [1000000]", env.Prices)
	}
}

func TestScaleDropsNonPositive(t *testing.T) {
	cfg := testConfig()
	cfg.Coins = []string{"A", "B", "C", "USDT"}
	cfg.Decimals = []uint64{2, 1, 8, 6}
	f := newTestFeeder(cfg, bus.New())

	indices, prices := f.scale([]float64{1.005, 2.5, 0, -3})
	if !reflect.DeepEqual(indices, []uint8{0, 1}) {
		t.Errorf("indices = %v, want [0 1]", indices)
	}
	// 1.005 * 100 sits just below 100.5 in floats; the conversion
	// truncates.
	if !reflect.DeepEqual(prices, []uint64{100, 25}) {
		t.Errorf("prices = %v, want [100 25]", prices)
	}
	for _, idx := range indices {
		if int(idx) >= len(cfg.Coins) {
			t.Errorf("index %d out of range for %d coins", idx, len(cfg.Coins))
		}
	}
}

func TestNewIntervalOverride(t *testing.T) {
	cfg := testConfig()
	cfg.Interval = 10

	if got := newTestFeeder(cfg, bus.New()).Interval(); got != 10*time.Second {
		t.Errorf("Interval() = %v, want 10s with zero override", got)
	}

	f := New(cfg, exchange.NewRegistry(), bus.New(), 30)
	if got := f.Interval(); got != 30*time.Second {
		t.Errorf("Interval() = %v, want 30s with larger override", got)
	}

	f = New(cfg, exchange.NewRegistry(), bus.New(), 5)
	if got := f.Interval(); got != 10*time.Second {
		t.Errorf("Interval() = %v, want 10s with smaller override", got)
	}
}

func TestRunStopsBetweenTicks(t *testing.T) {
	b := bus.New()
	defer b.Close()

	cfg := testConfig()
	cfg.Imitations = map[string]float64{"BTC": 1, "ETH": 1, "USDT": 1}
	f := newTestFeeder(cfg, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	// The tick in flight when cancellation landed still publishes.
	if f.Ticks() != 1 {
		t.Errorf("Ticks() = %d, want 1", f.Ticks())
	}
	recvEnvelope(t, b)
}