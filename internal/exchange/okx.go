package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const okxAPIURL = "https://www.okx.com/api"

// OKX fetches every SPOT ticker in one call and filters the pairs it
// was asked for. Tickers carry their own timestamp, so staleness is
// checked per row.
type OKX struct {
	client  *Client
	baseURL string
}

var _ Adapter = (*OKX)(nil)

// NewOKX returns the OKX adapter.
func NewOKX(client *Client, baseURL string) *OKX {
	return &OKX{client: client, baseURL: baseURL}
}

func (o *OKX) Name() string { return "okx" }

func (o *OKX) Slot() int { return SlotOKX }

func (o *OKX) Quote() string { return QuoteUSDT }

type okxResponse struct {
	Data []okxTicker `json:"data"`
}

type okxTicker struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
	Vol24h string `json:"vol24h"`
	TS     string `json:"ts"`
}

func (o *OKX) Fetch(ctx context.Context, bases []string, quote string, maxStalenessMs uint64) ([]float64, []float64, error) {
	prices := make([]float64, len(bases))
	volumes := make([]float64, len(bases))

	reqURL := fmt.Sprintf("%s/v5/market/tickers?instType=SPOT", o.baseURL)

	var resp okxResponse
	if err := o.client.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, nil, err
	}

	index := pairIndex(bases, quote, func(base, quote string) string { return base + "-" + quote })
	for _, t := range resp.Data {
		i, ok := index[t.InstID]
		if !ok {
			continue
		}
		ts, err := strconv.ParseInt(t.TS, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s timestamp: %w", t.InstID, err)
		}
		if stale(time.Now().UnixMilli(), ts, maxStalenessMs) {
			continue
		}
		price, err := strconv.ParseFloat(t.Last, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s price: %w", t.InstID, err)
		}
		volume, err := strconv.ParseFloat(t.Vol24h, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s volume: %w", t.InstID, err)
		}
		prices[i] = price
		volumes[i] = volume
	}
	return prices, volumes, nil
}
