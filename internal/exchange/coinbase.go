package exchange

import (
	"context"
	"fmt"
	"strconv"
)

const coinbaseAPIURL = "https://api.coinbase.com"

// Coinbase fetches the USDT/USD spot price. USD tier: only the USDT
// cell is filled and no volume is reported.
type Coinbase struct {
	client  *Client
	baseURL string
}

var _ Adapter = (*Coinbase)(nil)

// NewCoinbase returns the Coinbase anchor adapter.
func NewCoinbase(client *Client, baseURL string) *Coinbase {
	return &Coinbase{client: client, baseURL: baseURL}
}

func (c *Coinbase) Name() string { return "coinbase" }

func (c *Coinbase) Slot() int { return SlotCoinbase }

func (c *Coinbase) Quote() string { return QuoteUSD }

type coinbaseResponse struct {
	Data coinbasePrice `json:"data"`
}

type coinbasePrice struct {
	Base     string `json:"base"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

func (c *Coinbase) Fetch(ctx context.Context, bases []string, _ string, _ uint64) ([]float64, []float64, error) {
	prices := make([]float64, len(bases))
	volumes := make([]float64, len(bases))

	reqURL := fmt.Sprintf("%s/v2/prices/%s-%s/spot", c.baseURL, QuoteUSDT, QuoteUSD)

	var resp coinbaseResponse
	if err := c.client.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, nil, err
	}

	// Coinbase keys plain base symbols, not pair strings.
	index := pairIndex(bases, "", func(base, _ string) string { return base })
	i, ok := index[resp.Data.Base]
	if !ok {
		return nil, nil, fmt.Errorf("%w: unexpected base %q", ErrBadPayload, resp.Data.Base)
	}
	price, err := strconv.ParseFloat(resp.Data.Amount, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s price: %w", resp.Data.Base, err)
	}
	prices[i] = price
	return prices, volumes, nil
}
