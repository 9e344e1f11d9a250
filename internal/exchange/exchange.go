// Package exchange implements the venue adapters that pull spot prices
// into the per-tick price store.
//
// Each venue owns a fixed slot index so adapter rows never collide.
// Most venues quote against USDT; the USD tier (Coinbase, Crypto.com,
// Kraken, Binance.US) carries only the USDT to USD anchor and fills a
// single cell. Response shapes and URL layouts are fixed external
// schemas; field lists stay minimal on purpose.
package exchange

import (
	"context"
	"errors"
)

// Venue slot indices into the price store. Slots up to
// pricestore.ExchangeSize stay reserved for venues added later.
const (
	SlotBinance   = 0
	SlotOKX       = 1
	SlotHuobi     = 2
	SlotMEXC      = 3
	SlotBybit     = 4
	SlotBitget    = 5
	SlotGate      = 6
	SlotCoinbase  = 7
	SlotCryptoCom = 8
	SlotKraken    = 9
	SlotBitmart   = 10
	SlotBinanceUS = 11
)

// Quote currencies used by the two venue tiers.
const (
	QuoteUSDT = "USDT"
	QuoteUSD  = "USD"
)

var (
	// ErrUnexpectedStatus reports a non-200 venue response.
	ErrUnexpectedStatus = errors.New("exchange: unexpected http status")
	// ErrBadPayload reports a venue response missing required data.
	ErrBadPayload = errors.New("exchange: malformed venue payload")
)

// Adapter fetches one venue's spot quotes. Implementations hold no
// state between calls and are safe for concurrent use.
type Adapter interface {
	// Name returns the venue name used in logs.
	Name() string
	// Slot returns the venue's reserved row in the price store.
	Slot() int
	// Quote returns the quote currency this venue is launched with.
	Quote() string
	// Fetch returns spot prices and 24h base volumes aligned to the
	// bases order. Cells stay zero for pairs the venue does not list,
	// does not currently quote, or quotes too long ago.
	Fetch(ctx context.Context, bases []string, quote string, maxStalenessMs uint64) (prices, volumes []float64, err error)
}

// Registry holds the venue adapters of one feeder process.
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry wires every production venue with its public API
// endpoint, in slot order.
func NewDefaultRegistry(client *Client) *Registry {
	r := NewRegistry()
	r.Register(NewBinance(client, binanceAPIURL))
	r.Register(NewOKX(client, okxAPIURL))
	r.Register(NewHuobi(client, huobiAPIURL))
	r.Register(NewMEXC(client, mexcAPIURL))
	r.Register(NewBybit(client, bybitAPIURL))
	r.Register(NewBitget(client, bitgetAPIURL))
	r.Register(NewGate(client, gateAPIURL))
	r.Register(NewCoinbase(client, coinbaseAPIURL))
	r.Register(NewCryptoCom(client, cryptoComAPIURL))
	r.Register(NewKraken(client, krakenAPIURL))
	r.Register(NewBitmart(client, bitmartAPIURL))
	r.Register(NewBinanceUS(client, binanceUSAPIURL))
	return r
}

// Register appends an adapter in call order.
func (r *Registry) Register(a Adapter) {
	r.adapters = append(r.adapters, a)
}

// Get returns an adapter by venue name.
func (r *Registry) Get(name string) (Adapter, bool) {
	for _, a := range r.adapters {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

// List returns the registered venue names in registration order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	return names
}

// All returns every registered adapter in registration order.
func (r *Registry) All() []Adapter {
	return r.adapters
}

// pairKeyFunc formats one venue's pair symbol for a base/quote pair.
type pairKeyFunc func(base, quote string) string

// pairIndex maps each venue pair symbol back to its position in bases.
func pairIndex(bases []string, quote string, key pairKeyFunc) map[string]int {
	m := make(map[string]int, len(bases))
	for i, base := range bases {
		m[key(base, quote)] = i
	}
	return m
}

// stale reports whether a venue timestamp has aged out of the window.
// A zero window disables the check.
func stale(nowMs, tsMs int64, maxStalenessMs uint64) bool {
	if maxStalenessMs == 0 {
		return false
	}
	return nowMs > tsMs+int64(maxStalenessMs)
}
