package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const bybitAPIURL = "https://api.bybit.com"

// Bybit fetches the v5 spot tickers. The response carries one
// timestamp for all rows; a stale response zeroes the whole row.
type Bybit struct {
	client  *Client
	baseURL string
}

var _ Adapter = (*Bybit)(nil)

// NewBybit returns the Bybit adapter.
func NewBybit(client *Client, baseURL string) *Bybit {
	return &Bybit{client: client, baseURL: baseURL}
}

func (b *Bybit) Name() string { return "bybit" }

func (b *Bybit) Slot() int { return SlotBybit }

func (b *Bybit) Quote() string { return QuoteUSDT }

type bybitResponse struct {
	Result bybitResult `json:"result"`
	Time   int64       `json:"time"`
}

type bybitResult struct {
	List []bybitTicker `json:"list"`
}

type bybitTicker struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
	Volume24h string `json:"volume24h"`
}

func (b *Bybit) Fetch(ctx context.Context, bases []string, quote string, maxStalenessMs uint64) ([]float64, []float64, error) {
	prices := make([]float64, len(bases))
	volumes := make([]float64, len(bases))

	reqURL := fmt.Sprintf("%s/v5/market/tickers?category=spot", b.baseURL)

	var resp bybitResponse
	if err := b.client.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, nil, err
	}

	if stale(time.Now().UnixMilli(), resp.Time, maxStalenessMs) {
		return prices, volumes, nil
	}

	index := pairIndex(bases, quote, func(base, quote string) string { return base + quote })
	for _, t := range resp.Result.List {
		i, ok := index[t.Symbol]
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(t.LastPrice, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s price: %w", t.Symbol, err)
		}
		volume, err := strconv.ParseFloat(t.Volume24h, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s volume: %w", t.Symbol, err)
		}
		prices[i] = price
		volumes[i] = volume
	}
	return prices, volumes, nil
}
