// Package submitter drains aggregated price vectors from the bus and
// posts them on chain, rotating through the configured fullnodes when
// one misbehaves.
package submitter

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tiny-oracle/tinyd/internal/sui"
	"github.com/tiny-oracle/tinyd/pkg/helpers"
)

// Move entry point updated by every feed transaction.
const (
	OracleModule   = "oracle"
	UpdateFunction = "update_token_price_batch"
)

// ErrLengthMismatch reports a price vector whose indices and prices
// disagree in length.
var ErrLengthMismatch = errors.New("indices and prices length mismatch")

// PackParams lays out the move call arguments for one price vector:
// capability, oracle state, the shared clock, then the index, price
// and timestamp vectors. Prices ride as decimal strings because u256
// does not fit JSON numbers; every timestamp is the same pack-time
// wall clock in milliseconds.
func PackParams(oracleCap, priceOracle string, indices []uint8, prices []uint64) ([]interface{}, error) {
	if len(indices) != len(prices) {
		return nil, ErrLengthMismatch
	}

	capID, err := helpers.NormalizeObjectID(oracleCap)
	if err != nil {
		return nil, fmt.Errorf("bad oracle cap: %w", err)
	}
	oracleID, err := helpers.NormalizeObjectID(priceOracle)
	if err != nil {
		return nil, fmt.Errorf("bad price oracle: %w", err)
	}

	nowMs := strconv.FormatInt(time.Now().UnixMilli(), 10)
	idxs := make([]interface{}, len(indices))
	vals := make([]interface{}, len(prices))
	stamps := make([]interface{}, len(prices))
	for i := range indices {
		idxs[i] = indices[i]
		vals[i] = strconv.FormatUint(prices[i], 10)
		stamps[i] = nowMs
	}

	return []interface{}{capID, oracleID, sui.ClockObjectID, idxs, vals, stamps}, nil
}
