package exchange

import (
	"context"
	"fmt"
	"strconv"
)

const gateAPIURL = "https://api.gateio.ws/api"

// Gate fetches the v4 spot tickers. Pair symbols use an underscore
// separator and no timestamp is available.
type Gate struct {
	client  *Client
	baseURL string
}

var _ Adapter = (*Gate)(nil)

// NewGate returns the Gate adapter.
func NewGate(client *Client, baseURL string) *Gate {
	return &Gate{client: client, baseURL: baseURL}
}

func (g *Gate) Name() string { return "gate" }

func (g *Gate) Slot() int { return SlotGate }

func (g *Gate) Quote() string { return QuoteUSDT }

type gateTicker struct {
	CurrencyPair string `json:"currency_pair"`
	Last         string `json:"last"`
	BaseVolume   string `json:"base_volume"`
}

func (g *Gate) Fetch(ctx context.Context, bases []string, quote string, _ uint64) ([]float64, []float64, error) {
	prices := make([]float64, len(bases))
	volumes := make([]float64, len(bases))

	reqURL := fmt.Sprintf("%s/v4/spot/tickers", g.baseURL)

	var tickers []gateTicker
	if err := g.client.getJSON(ctx, reqURL, &tickers); err != nil {
		return nil, nil, err
	}

	index := pairIndex(bases, quote, func(base, quote string) string { return base + "_" + quote })
	for _, t := range tickers {
		i, ok := index[t.CurrencyPair]
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(t.Last, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s price: %w", t.CurrencyPair, err)
		}
		volume, err := strconv.ParseFloat(t.BaseVolume, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s volume: %w", t.CurrencyPair, err)
		}
		prices[i] = price
		volumes[i] = volume
	}
	return prices, volumes, nil
}
