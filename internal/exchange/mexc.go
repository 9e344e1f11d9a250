package exchange

import (
	"context"
	"fmt"
	"strconv"
)

const mexcAPIURL = "https://api.mexc.com/api"

// MEXC fetches the 24h spot tickers. The response has no usable
// timestamp, so quotes are never dropped for staleness.
type MEXC struct {
	client  *Client
	baseURL string
}

var _ Adapter = (*MEXC)(nil)

// NewMEXC returns the MEXC adapter.
func NewMEXC(client *Client, baseURL string) *MEXC {
	return &MEXC{client: client, baseURL: baseURL}
}

func (m *MEXC) Name() string { return "mexc" }

func (m *MEXC) Slot() int { return SlotMEXC }

func (m *MEXC) Quote() string { return QuoteUSDT }

type mexcTicker struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
	Volume    string `json:"volume"`
}

func (m *MEXC) Fetch(ctx context.Context, bases []string, quote string, _ uint64) ([]float64, []float64, error) {
	prices := make([]float64, len(bases))
	volumes := make([]float64, len(bases))

	reqURL := fmt.Sprintf("%s/v3/ticker/24hr", m.baseURL)

	var tickers []mexcTicker
	if err := m.client.getJSON(ctx, reqURL, &tickers); err != nil {
		return nil, nil, err
	}

	index := pairIndex(bases, quote, func(base, quote string) string { return base + quote })
	for _, t := range tickers {
		i, ok := index[t.Symbol]
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(t.LastPrice, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s price: %w", t.Symbol, err)
		}
		volume, err := strconv.ParseFloat(t.Volume, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s volume: %w", t.Symbol, err)
		}
		prices[i] = price
		volumes[i] = volume
	}
	return prices, volumes, nil
}
