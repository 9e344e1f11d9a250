// Package sui implements the slice of the Sui fullnode surface the
// oracle feeder needs: building move calls, signing and executing
// transaction blocks as a single signer or a weighted multisig
// committee, and reading gas coin balances.
package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tiny-oracle/tinyd/pkg/helpers"
)

// ClockObjectID is the well-known shared clock object every Sui
// network exposes.
const ClockObjectID = "0x6"

// coinPageLimit caps one suix_getCoins page.
const coinPageLimit = 50

// Client is a JSON-RPC 2.0 client for one Sui fullnode. The endpoint
// can be swapped at runtime for fail-over.
type Client struct {
	mu         sync.RWMutex
	endpoint   string
	httpClient *http.Client
	requestID  atomic.Uint64
}

// NewClient creates a client for the given fullnode URL.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Endpoint returns the current fullnode URL.
func (c *Client) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoint
}

// SetEndpoint swaps the fullnode URL used by subsequent calls.
func (c *Client) SetEndpoint(endpoint string) {
	c.mu.Lock()
	c.endpoint = endpoint
	c.mu.Unlock()
}

// MoveCall builds an unsigned move call through the fullnode and
// returns the BCS transaction bytes, base64 encoded. gas may be empty
// to let the node pick a gas coin for the signer.
func (c *Client) MoveCall(ctx context.Context, signer, packageID, module, function string, args []interface{}, gas string, gasBudget uint64) (string, error) {
	var gasArg interface{}
	if gas != "" {
		gasArg = gas
	}

	result, err := c.call(ctx, "unsafe_moveCall", []interface{}{
		signer,
		packageID,
		module,
		function,
		[]interface{}{}, // no type arguments
		args,
		gasArg,
		strconv.FormatUint(gasBudget, 10),
	})
	if err != nil {
		return "", err
	}

	var built struct {
		TxBytes string `json:"txBytes"`
	}
	if err := json.Unmarshal(result, &built); err != nil {
		return "", fmt.Errorf("failed to parse move call result: %w", err)
	}
	if built.TxBytes == "" {
		return "", fmt.Errorf("fullnode returned no transaction bytes")
	}
	return built.TxBytes, nil
}

// ExecuteTransactionBlock submits a signed transaction and waits for
// local execution. It returns the transaction digest and fails when
// the on-chain effects report anything but success.
func (c *Client) ExecuteTransactionBlock(ctx context.Context, txBytes string, sigs []string) (string, error) {
	result, err := c.call(ctx, "sui_executeTransactionBlock", []interface{}{
		txBytes,
		sigs,
		map[string]interface{}{"showEffects": true},
		"WaitForLocalExecution",
	})
	if err != nil {
		return "", err
	}

	var executed struct {
		Digest  string `json:"digest"`
		Effects struct {
			Status struct {
				Status string `json:"status"`
				Error  string `json:"error"`
			} `json:"status"`
		} `json:"effects"`
	}
	if err := json.Unmarshal(result, &executed); err != nil {
		return "", fmt.Errorf("failed to parse execution result: %w", err)
	}
	if executed.Effects.Status.Status != "success" {
		return "", fmt.Errorf("transaction %s failed: %s", executed.Digest, executed.Effects.Status.Error)
	}
	return executed.Digest, nil
}

// Balance sums the SUI coins owned by the address. A non-empty gasID
// restricts the sum to that one coin object, which is how a shared
// multisig gas object is watched.
func (c *Client) Balance(ctx context.Context, owner, gasID string) (uint64, error) {
	if gasID != "" {
		normalized, err := helpers.NormalizeObjectID(gasID)
		if err != nil {
			return 0, fmt.Errorf("invalid gas object id: %w", err)
		}
		gasID = normalized
	}

	var total uint64
	var cursor interface{}
	for {
		result, err := c.call(ctx, "suix_getCoins", []interface{}{owner, nil, cursor, coinPageLimit})
		if err != nil {
			return 0, err
		}

		var page struct {
			Data []struct {
				CoinObjectID string `json:"coinObjectId"`
				Balance      string `json:"balance"`
			} `json:"data"`
			NextCursor  *string `json:"nextCursor"`
			HasNextPage bool    `json:"hasNextPage"`
		}
		if err := json.Unmarshal(result, &page); err != nil {
			return 0, fmt.Errorf("failed to parse coin page: %w", err)
		}

		for _, coin := range page.Data {
			if gasID != "" {
				id, err := helpers.NormalizeObjectID(coin.CoinObjectID)
				if err != nil || id != gasID {
					continue
				}
			}
			v, err := strconv.ParseUint(coin.Balance, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("failed to parse coin balance %q: %w", coin.Balance, err)
			}
			total += v
		}

		if !page.HasNextPage || page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	return total, nil
}

func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	id := c.requestID.Add(1)

	request := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}

	data, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.Endpoint(), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var response struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      uint64          `json:"id"`
		Result  json.RawMessage `json:"result"`
		Error   *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", response.Error.Code, response.Error.Message)
	}

	return response.Result, nil
}
