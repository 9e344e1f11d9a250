package exchange

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const huobiAPIURL = "https://api.huobi.pro"

// Huobi fetches the merged market tickers. Pair symbols are lowercase
// and the response carries a single timestamp, so a stale response
// zeroes the whole row.
type Huobi struct {
	client  *Client
	baseURL string
}

var _ Adapter = (*Huobi)(nil)

// NewHuobi returns the Huobi adapter.
func NewHuobi(client *Client, baseURL string) *Huobi {
	return &Huobi{client: client, baseURL: baseURL}
}

func (h *Huobi) Name() string { return "huobi" }

func (h *Huobi) Slot() int { return SlotHuobi }

func (h *Huobi) Quote() string { return QuoteUSDT }

type huobiResponse struct {
	Data []huobiTicker `json:"data"`
	TS   int64         `json:"ts"`
}

type huobiTicker struct {
	Symbol string  `json:"symbol"`
	Close  float64 `json:"close"`
	Amount float64 `json:"amount"`
}

func (h *Huobi) Fetch(ctx context.Context, bases []string, quote string, maxStalenessMs uint64) ([]float64, []float64, error) {
	prices := make([]float64, len(bases))
	volumes := make([]float64, len(bases))

	reqURL := fmt.Sprintf("%s/market/tickers", h.baseURL)

	var resp huobiResponse
	if err := h.client.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, nil, err
	}

	if stale(time.Now().UnixMilli(), resp.TS, maxStalenessMs) {
		return prices, volumes, nil
	}

	index := pairIndex(bases, quote, func(base, quote string) string {
		return strings.ToLower(base + quote)
	})
	for _, t := range resp.Data {
		i, ok := index[t.Symbol]
		if !ok {
			continue
		}
		prices[i] = t.Close
		volumes[i] = t.Amount
	}
	return prices, volumes, nil
}
