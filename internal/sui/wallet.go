package sui

import (
	"context"
	"fmt"

	"github.com/tiny-oracle/tinyd/pkg/helpers"
	"github.com/tiny-oracle/tinyd/pkg/logging"
)

// Wallet couples one signing key with a fullnode client. It covers
// what the feeder needs from a wallet: building, signing and executing
// a move call as a single signer or on behalf of a multisig committee,
// and watching gas balances.
type Wallet struct {
	client *Client
	keys   *KeyPair
	log    *logging.Logger
}

// NewWallet builds a wallet around an imported key pair.
func NewWallet(client *Client, keys *KeyPair) *Wallet {
	return &Wallet{
		client: client,
		keys:   keys,
		log:    logging.GetDefault().Component("wallet"),
	}
}

// Address returns the single-signer address of the wallet key.
func (w *Wallet) Address() string {
	return w.keys.Address()
}

// PublicKeyBase64 returns the wallet's canonical base64 public key.
func (w *Wallet) PublicKeyBase64() string {
	return w.keys.PublicKeyBase64()
}

// SetEndpoint rotates the fullnode endpoint used for every later call.
func (w *Wallet) SetEndpoint(url string) {
	w.log.Info("Switching fullnode endpoint", "url", url)
	w.client.SetEndpoint(url)
}

// Endpoint returns the current fullnode endpoint.
func (w *Wallet) Endpoint() string {
	return w.client.Endpoint()
}

// Call builds, signs and executes a single-signer move call. The node
// picks a gas coin owned by the wallet address.
func (w *Wallet) Call(ctx context.Context, packageID, module, function string, gasBudget uint64, args []interface{}) (string, error) {
	txBytes, err := w.client.MoveCall(ctx, w.Address(), packageID, module, function, args, "", gasBudget)
	if err != nil {
		return "", fmt.Errorf("failed to build move call: %w", err)
	}

	sig, err := w.keys.SignTransaction(txBytes)
	if err != nil {
		return "", err
	}

	return w.client.ExecuteTransactionBlock(ctx, txBytes, []string{sig})
}

// MultiCall executes the same move call on behalf of a multisig
// committee: the transaction is built from the committee address and
// paid by the configured gas object, signed locally and wrapped into
// a committee envelope.
func (w *Wallet) MultiCall(ctx context.Context, packageID, module, function, gas string, gasBudget uint64, args []interface{}, pubkeys []string, weights []uint8, threshold uint16) (string, error) {
	sender, err := MultiSigAddress(pubkeys, weights, threshold)
	if err != nil {
		return "", fmt.Errorf("failed to derive committee address: %w", err)
	}

	txBytes, err := w.client.MoveCall(ctx, sender, packageID, module, function, args, gas, gasBudget)
	if err != nil {
		return "", fmt.Errorf("failed to build move call: %w", err)
	}

	partial, err := w.keys.SignTransaction(txBytes)
	if err != nil {
		return "", err
	}
	combined, err := CombinePartialSignatures([]string{partial}, pubkeys, weights, threshold)
	if err != nil {
		return "", fmt.Errorf("failed to combine signatures: %w", err)
	}

	return w.client.ExecuteTransactionBlock(ctx, txBytes, []string{combined})
}

// Balance sums the gas coins owned by the wallet address, in MIST.
func (w *Wallet) Balance(ctx context.Context) (uint64, error) {
	return w.client.Balance(ctx, w.Address(), "")
}

// MultiBalance reports how much of the committee's configured gas
// object remains, in MIST.
func (w *Wallet) MultiBalance(ctx context.Context, multiAddress, gasID string) (uint64, error) {
	if !helpers.IsObjectID(gasID) {
		return 0, fmt.Errorf("invalid gas object id %q", gasID)
	}
	return w.client.Balance(ctx, multiAddress, gasID)
}
