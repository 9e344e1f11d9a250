package sui

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"
)

// Scheme flag bytes prefixing serialized Sui key and signature
// material.
const (
	flagED25519  = 0x00
	flagMultiSig = 0x03
)

// derivationPath is the default Sui ed25519 account path.
const derivationPath = "m/44'/784'/0'/0'/0'"

// hardenedOffset marks a hardened child index. Ed25519 derivation
// supports hardened children only.
const hardenedOffset uint32 = 1 << 31

// intentTransactionData scopes a signature to raw transaction data:
// scope, version, app id.
var intentTransactionData = []byte{0, 0, 0}

// KeyPair is one ed25519 signer with its Sui address.
type KeyPair struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

// IsValidBase64Key reports whether key decodes to the 33-byte
// flag-prefixed ed25519 private key form.
func IsValidBase64Key(key string) bool {
	if key == "" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return false
	}
	return len(decoded) == 1+ed25519.SeedSize && decoded[0] == flagED25519
}

// IsValidMnemonic reports whether mne is a BIP-39 English phrase with
// a valid checksum.
func IsValidMnemonic(mne string) bool {
	return mne != "" && bip39.IsMnemonicValid(mne)
}

// KeyPairFromBase64 parses a 33-byte flag-prefixed private key.
func KeyPairFromBase64(key string) (*KeyPair, error) {
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}
	if len(decoded) != 1+ed25519.SeedSize || decoded[0] != flagED25519 {
		return nil, errors.New("key must decode to 33 bytes with a leading ed25519 flag")
	}
	return newKeyPair(decoded[1:]), nil
}

// KeyPairFromMnemonic derives the default Sui account key from a
// BIP-39 English mnemonic.
func KeyPairFromMnemonic(mnemonic string) (*KeyPair, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")
	key, err := deriveED25519(seed, derivationPath)
	if err != nil {
		return nil, err
	}
	return newKeyPair(key), nil
}

func newKeyPair(seed []byte) *KeyPair {
	private := ed25519.NewKeyFromSeed(seed)
	return &KeyPair{
		private: private,
		public:  private.Public().(ed25519.PublicKey),
	}
}

// Address returns the Sui address of the key: the blake2b-256 digest
// of the flag-prefixed public key.
func (kp *KeyPair) Address() string {
	material := make([]byte, 0, 1+ed25519.PublicKeySize)
	material = append(material, flagED25519)
	material = append(material, kp.public...)
	digest := blake2b.Sum256(material)
	return "0x" + hex.EncodeToString(digest[:])
}

// PublicKey returns the raw 32-byte public key.
func (kp *KeyPair) PublicKey() ed25519.PublicKey {
	return kp.public
}

// PublicKeyBase64 returns the flag-prefixed public key in the
// canonical base64 form used in multisig committee configuration.
func (kp *KeyPair) PublicKeyBase64() string {
	material := make([]byte, 0, 1+ed25519.PublicKeySize)
	material = append(material, flagED25519)
	material = append(material, kp.public...)
	return base64.StdEncoding.EncodeToString(material)
}

// SignTransaction signs base64 BCS transaction bytes under the
// transaction intent and returns the serialized signature
// base64(flag ‖ signature ‖ public key).
func (kp *KeyPair) SignTransaction(txBytes string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(txBytes)
	if err != nil {
		return "", fmt.Errorf("failed to decode transaction bytes: %w", err)
	}

	msg := make([]byte, 0, len(intentTransactionData)+len(raw))
	msg = append(msg, intentTransactionData...)
	msg = append(msg, raw...)
	digest := blake2b.Sum256(msg)

	sig := ed25519.Sign(kp.private, digest[:])

	serialized := make([]byte, 0, 1+len(sig)+ed25519.PublicKeySize)
	serialized = append(serialized, flagED25519)
	serialized = append(serialized, sig...)
	serialized = append(serialized, kp.public...)
	return base64.StdEncoding.EncodeToString(serialized), nil
}

// deriveED25519 walks a fully hardened SLIP-10 path over the seed.
func deriveED25519(seed []byte, path string) ([]byte, error) {
	indices, err := parseDerivationPath(path)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha512.New, []byte("ed25519 seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)
	key, chain := sum[:32], sum[32:]

	for _, index := range indices {
		data := make([]byte, 0, 1+len(key)+4)
		data = append(data, 0x00)
		data = append(data, key...)
		data = binary.BigEndian.AppendUint32(data, hardenedOffset|index)

		mac = hmac.New(sha512.New, chain)
		mac.Write(data)
		sum = mac.Sum(nil)
		key, chain = sum[:32], sum[32:]
	}

	return key, nil
}

func parseDerivationPath(path string) ([]uint32, error) {
	segments := strings.Split(path, "/")
	if len(segments) < 2 || segments[0] != "m" {
		return nil, fmt.Errorf("malformed derivation path %q", path)
	}

	indices := make([]uint32, 0, len(segments)-1)
	for _, segment := range segments[1:] {
		raw, hardened := strings.CutSuffix(segment, "'")
		if !hardened {
			return nil, fmt.Errorf("ed25519 derivation requires hardened segments, got %q", segment)
		}
		index, err := strconv.ParseUint(raw, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("bad path segment %q: %w", segment, err)
		}
		indices = append(indices, uint32(index))
	}
	return indices, nil
}
