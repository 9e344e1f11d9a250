package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const cryptoComAPIURL = "https://api.crypto.com"

// CryptoCom fetches the USDT/USD ticker from the Crypto.com v2 API.
// USD tier: only the USDT cell is filled. The single returned row
// carries a timestamp; a stale row zeroes the cell.
type CryptoCom struct {
	client  *Client
	baseURL string
}

var _ Adapter = (*CryptoCom)(nil)

// NewCryptoCom returns the Crypto.com anchor adapter.
func NewCryptoCom(client *Client, baseURL string) *CryptoCom {
	return &CryptoCom{client: client, baseURL: baseURL}
}

func (c *CryptoCom) Name() string { return "crypto.com" }

func (c *CryptoCom) Slot() int { return SlotCryptoCom }

func (c *CryptoCom) Quote() string { return QuoteUSD }

type cryptoComResponse struct {
	Code   int64           `json:"code"`
	Result cryptoComResult `json:"result"`
}

type cryptoComResult struct {
	Data []cryptoComTicker `json:"data"`
}

type cryptoComTicker struct {
	I string `json:"i"`
	A string `json:"a"`
	T int64  `json:"t"`
}

func (c *CryptoCom) Fetch(ctx context.Context, bases []string, quote string, maxStalenessMs uint64) ([]float64, []float64, error) {
	prices := make([]float64, len(bases))
	volumes := make([]float64, len(bases))

	reqURL := fmt.Sprintf("%s/v2/public/get-ticker?instrument_name=%s_%s", c.baseURL, QuoteUSDT, QuoteUSD)

	var resp cryptoComResponse
	if err := c.client.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, nil, err
	}
	if len(resp.Result.Data) == 0 {
		return nil, nil, fmt.Errorf("%w: missing ticker data", ErrBadPayload)
	}

	ticker := resp.Result.Data[0]
	if stale(time.Now().UnixMilli(), ticker.T, maxStalenessMs) {
		return prices, volumes, nil
	}

	index := pairIndex(bases, quote, func(base, quote string) string { return base + "_" + quote })
	i, ok := index[ticker.I]
	if !ok {
		return nil, nil, fmt.Errorf("%w: unexpected instrument %q", ErrBadPayload, ticker.I)
	}
	price, err := strconv.ParseFloat(ticker.A, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s price: %w", ticker.I, err)
	}
	prices[i] = price
	return prices, volumes, nil
}
