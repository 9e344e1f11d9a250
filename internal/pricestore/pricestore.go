// Package pricestore holds the per-tick price matrix the venue
// adapters write into and the aggregator reads from.
//
// The matrix is assets x venue slots. Each venue owns a fixed slot so
// concurrent adapters never contend on the same cell, and a cell left
// at zero means the venue produced nothing usable this tick.
package pricestore

import (
	"errors"
	"sync"
)

// ExchangeSize is the fixed number of venue slots per asset. Slots
// beyond the launched venues stay zero and are filtered out during
// aggregation.
const ExchangeSize = 20

var (
	// ErrSlotOutOfRange reports a venue slot outside [0, ExchangeSize).
	ErrSlotOutOfRange = errors.New("pricestore: venue slot out of range")
	// ErrSizeMismatch reports a write whose vectors are not aligned
	// with the store's asset list.
	ErrSizeMismatch = errors.New("pricestore: vector length does not match asset count")
	// ErrAssetOutOfRange reports an asset index outside the store.
	ErrAssetOutOfRange = errors.New("pricestore: asset index out of range")
)

// Store is one tick's worth of venue observations. A fresh Store is
// created for every tick; values are never carried over.
type Store struct {
	mu      sync.Mutex
	assets  []string
	prices  [][]float64
	volumes [][]float64
}

// New returns an empty store sized for the given assets.
func New(assets []string) *Store {
	s := &Store{
		assets:  assets,
		prices:  make([][]float64, len(assets)),
		volumes: make([][]float64, len(assets)),
	}
	for i := range assets {
		s.prices[i] = make([]float64, ExchangeSize)
		s.volumes[i] = make([]float64, ExchangeSize)
	}
	return s
}

// WriteRow records one venue's observations for every asset. The
// price and volume vectors must be index-aligned with the asset list
// passed to New; assets the venue does not trade stay zero.
func (s *Store) WriteRow(slot int, prices, volumes []float64) error {
	if slot < 0 || slot >= ExchangeSize {
		return ErrSlotOutOfRange
	}
	if len(prices) != len(s.assets) || len(volumes) != len(s.assets) {
		return ErrSizeMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.assets {
		s.prices[i][slot] = prices[i]
		s.volumes[i][slot] = volumes[i]
	}
	return nil
}

// Column returns copies of one asset's venue cells, ExchangeSize wide.
func (s *Store) Column(asset int) (prices, volumes []float64, err error) {
	if asset < 0 || asset >= len(s.assets) {
		return nil, nil, ErrAssetOutOfRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prices = make([]float64, ExchangeSize)
	volumes = make([]float64, ExchangeSize)
	copy(prices, s.prices[asset])
	copy(volumes, s.volumes[asset])
	return prices, volumes, nil
}

// Reset zeroes every cell, returning the store to its post-New state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.assets {
		clear(s.prices[i])
		clear(s.volumes[i])
	}
}

// Assets returns the asset symbols the store was sized for.
func (s *Store) Assets() []string {
	return s.assets
}
