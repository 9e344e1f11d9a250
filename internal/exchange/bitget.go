package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const bitgetAPIURL = "https://api.bitget.com"

// Bitget fetches the v1 spot tickers. Every row carries its own
// timestamp, so staleness is checked per row.
type Bitget struct {
	client  *Client
	baseURL string
}

var _ Adapter = (*Bitget)(nil)

// NewBitget returns the Bitget adapter.
func NewBitget(client *Client, baseURL string) *Bitget {
	return &Bitget{client: client, baseURL: baseURL}
}

func (b *Bitget) Name() string { return "bitget" }

func (b *Bitget) Slot() int { return SlotBitget }

func (b *Bitget) Quote() string { return QuoteUSDT }

type bitgetResponse struct {
	Data []bitgetTicker `json:"data"`
}

type bitgetTicker struct {
	Symbol  string `json:"symbol"`
	Close   string `json:"close"`
	TS      string `json:"ts"`
	BaseVol string `json:"baseVol"`
}

func (b *Bitget) Fetch(ctx context.Context, bases []string, quote string, maxStalenessMs uint64) ([]float64, []float64, error) {
	prices := make([]float64, len(bases))
	volumes := make([]float64, len(bases))

	reqURL := fmt.Sprintf("%s/api/spot/v1/market/tickers", b.baseURL)

	var resp bitgetResponse
	if err := b.client.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, nil, err
	}

	index := pairIndex(bases, quote, func(base, quote string) string { return base + quote })
	for _, t := range resp.Data {
		i, ok := index[t.Symbol]
		if !ok {
			continue
		}
		ts, err := strconv.ParseInt(t.TS, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s timestamp: %w", t.Symbol, err)
		}
		if stale(time.Now().UnixMilli(), ts, maxStalenessMs) {
			continue
		}
		price, err := strconv.ParseFloat(t.Close, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s price: %w", t.Symbol, err)
		}
		volume, err := strconv.ParseFloat(t.BaseVol, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s volume: %w", t.Symbol, err)
		}
		prices[i] = price
		volumes[i] = volume
	}
	return prices, volumes, nil
}
