package exchange

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	binanceAPIURL   = "https://api.binance.com"
	binanceUSAPIURL = "https://api.binance.us"
)

// Binance fetches the MINI spot tickers from the Binance global API.
// The symbol list is passed in the query, so the response only holds
// requested pairs.
type Binance struct {
	client  *Client
	baseURL string
}

var _ Adapter = (*Binance)(nil)

// NewBinance returns the Binance global adapter.
func NewBinance(client *Client, baseURL string) *Binance {
	return &Binance{client: client, baseURL: baseURL}
}

func (b *Binance) Name() string { return "binance" }

func (b *Binance) Slot() int { return SlotBinance }

func (b *Binance) Quote() string { return QuoteUSDT }

type binanceTicker struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
	Volume    string `json:"volume"`
}

// Fetch requests all base/quote pairs at once. USDT itself is left out
// of the symbol list; the anchor comes from the USD tier. No ticker
// timestamp is available, so quotes are never dropped for staleness.
func (b *Binance) Fetch(ctx context.Context, bases []string, quote string, _ uint64) ([]float64, []float64, error) {
	prices := make([]float64, len(bases))
	volumes := make([]float64, len(bases))

	symbols := make([]string, 0, len(bases))
	for _, base := range bases {
		if base == QuoteUSDT {
			continue
		}
		symbols = append(symbols, base+quote)
	}
	payload := `["` + strings.Join(symbols, `","`) + `"]`
	reqURL := fmt.Sprintf("%s/api/v3/ticker?type=MINI&symbols=%s", b.baseURL, url.QueryEscape(payload))

	var tickers []binanceTicker
	if err := b.client.getJSON(ctx, reqURL, &tickers); err != nil {
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

// BinanceUS fetches the single USDT/USD ticker from the Binance.US
// API. It belongs to the USD tier and fills only the USDT cell.
type BinanceUS struct {
	client  *Client
	baseURL string
}

var _ Adapter = (*BinanceUS)(nil)

// NewBinanceUS returns the Binance.US anchor adapter.
func NewBinanceUS(client *Client, baseURL string) *BinanceUS {
	return &BinanceUS{client: client, baseURL: baseURL}
}

func (b *BinanceUS) Name() string { return "binance.us" }

func (b *BinanceUS) Slot() int { return SlotBinanceUS }

func (b *BinanceUS) Quote() string { return QuoteUSD }

func (b *BinanceUS) Fetch(ctx context.Context, bases []string, quote string, _ uint64) ([]float64, []float64, error) {
	prices := make([]float64, len(bases))
	volumes := make([]float64, len(bases))

	reqURL := fmt.Sprintf("%s/api/v3/ticker?symbol=%s%s", b.baseURL, QuoteUSDT, QuoteUSD)

	var ticker binanceTicker
	if err := b.client.getJSON(ctx, reqURL, &ticker); err != nil {
		return nil, nil, err
	}

	index := pairIndex(bases, quote, func(base, quote string) string { return base + quote })
	i, ok := index[ticker.Symbol]
	if !ok {
		return nil, nil, fmt.Errorf("%w: unexpected symbol %q", ErrBadPayload, ticker.Symbol)
	}
	price, err := strconv.ParseFloat(ticker.LastPrice, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s price: %w", ticker.Symbol, err)
	}
	prices[i] = price
	return prices, volumes, nil
}
