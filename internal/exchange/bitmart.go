package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const bitmartAPIURL = "https://api-cloud.bitmart.com/spot"

// Bitmart fetches the v2 spot tickers. Pair symbols use an underscore
// separator and every row carries its own timestamp.
type Bitmart struct {
	client  *Client
	baseURL string
}

var _ Adapter = (*Bitmart)(nil)

// NewBitmart returns the Bitmart adapter.
func NewBitmart(client *Client, baseURL string) *Bitmart {
	return &Bitmart{client: client, baseURL: baseURL}
}

func (b *Bitmart) Name() string { return "bitmart" }

func (b *Bitmart) Slot() int { return SlotBitmart }

func (b *Bitmart) Quote() string { return QuoteUSDT }

type bitmartResponse struct {
	Data bitmartTickers `json:"data"`
}

type bitmartTickers struct {
	Tickers []bitmartTicker `json:"tickers"`
}

type bitmartTicker struct {
	Symbol        string `json:"symbol"`
	LastPrice     string `json:"last_price"`
	Timestamp     int64  `json:"timestamp"`
	BaseVolume24h string `json:"base_volume_24h"`
}

func (b *Bitmart) Fetch(ctx context.Context, bases []string, quote string, maxStalenessMs uint64) ([]float64, []float64, error) {
	prices := make([]float64, len(bases))
	volumes := make([]float64, len(bases))

	reqURL := fmt.Sprintf("%s/v2/ticker", b.baseURL)

	var resp bitmartResponse
	if err := b.client.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, nil, err
	}

	index := pairIndex(bases, quote, func(base, quote string) string { return base + "_" + quote })
	for _, t := range resp.Data.Tickers {
		i, ok := index[t.Symbol]
		if !ok {
			continue
		}
		if stale(time.Now().UnixMilli(), t.Timestamp, maxStalenessMs) {
			continue
		}
		price, err := strconv.ParseFloat(t.LastPrice, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s price: %w", t.Symbol, err)
		}
		volume, err := strconv.ParseFloat(t.BaseVolume24h, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s volume: %w", t.Symbol, err)
		}
		prices[i] = price
		volumes[i] = volume
	}
	return prices, volumes, nil
}
