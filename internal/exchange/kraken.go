package exchange

import (
	"context"
	"fmt"
	"strconv"
)

const krakenAPIURL = "https://api.kraken.com"

// Kraken fetches the USDT/ZUSD ticker. USD tier: only the USDT cell is
// filled. Kraken names USD with its legacy Z prefix, so the pair key
// is USDTZUSD regardless of the launched quote.
type Kraken struct {
	client  *Client
	baseURL string
}

var _ Adapter = (*Kraken)(nil)

// NewKraken returns the Kraken anchor adapter.
func NewKraken(client *Client, baseURL string) *Kraken {
	return &Kraken{client: client, baseURL: baseURL}
}

func (k *Kraken) Name() string { return "kraken" }

func (k *Kraken) Slot() int { return SlotKraken }

func (k *Kraken) Quote() string { return QuoteUSD }

const krakenUSDTPair = "USDTZUSD"

type krakenResponse struct {
	Result map[string]krakenTicker `json:"result"`
}

type krakenTicker struct {
	// C holds the last trade [price, lot volume].
	C []string `json:"c"`
}

func (k *Kraken) Fetch(ctx context.Context, bases []string, _ string, _ uint64) ([]float64, []float64, error) {
	prices := make([]float64, len(bases))
	volumes := make([]float64, len(bases))

	reqURL := fmt.Sprintf("%s/0/public/Ticker?pair=%sZUSD", k.baseURL, QuoteUSDT)

	var resp krakenResponse
	if err := k.client.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, nil, err
	}
	if len(resp.Result) == 0 {
		return nil, nil, fmt.Errorf("%w: missing ticker data", ErrBadPayload)
	}

	ticker, ok := resp.Result[krakenUSDTPair]
	if !ok {
		return nil, nil, fmt.Errorf("%w: pair %s not in result", ErrBadPayload, krakenUSDTPair)
	}
	if len(ticker.C) != 2 {
		return nil, nil, fmt.Errorf("%w: last trade field has %d entries", ErrBadPayload, len(ticker.C))
	}

	index := pairIndex(bases, "", func(base, _ string) string { return base + "ZUSD" })
	i, ok := index[krakenUSDTPair]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s not among bases", ErrBadPayload, QuoteUSDT)
	}
	price, err := strconv.ParseFloat(ticker.C[0], 64)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s price: %w", krakenUSDTPair, err)
	}
	prices[i] = price
	return prices, volumes, nil
}
