package sui

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"golang.org/x/crypto/blake2b"
)

// Test mnemonic (DO NOT USE FOR REAL FUNDS)
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// Key material derived from fixed 32-byte seeds, so every expected
// value below is reproducible.
func testKeyBase64(b byte) string {
	seed := bytes.Repeat([]byte{b}, ed25519.SeedSize)
	return base64.StdEncoding.EncodeToString(append([]byte{flagED25519}, seed...))
}

func mustKeyPair(t *testing.T, b byte) *KeyPair {
	t.Helper()
	kp, err := KeyPairFromBase64(testKeyBase64(b))
	if err != nil {
		t.Fatalf("KeyPairFromBase64() error = %v", err)
	}
	return kp
}

func TestIsValidBase64Key(t *testing.T) {
	raw33 := append([]byte{flagED25519}, bytes.Repeat([]byte{7}, 32)...)

	tests := []struct {
		name  string
		key   string
		valid bool
	}{
		{"flagged seed", base64.StdEncoding.EncodeToString(raw33), true},
		{"empty", "", false},
		{"not base64", "!!!not-base64!!!", false},
		{"wrong flag", base64.StdEncoding.EncodeToString(append([]byte{0x01}, raw33[1:]...)), false},
		{"no flag byte", base64.StdEncoding.EncodeToString(raw33[1:]), false},
		{"too long", base64.StdEncoding.EncodeToString(append(raw33, 0x00)), false},
	}

	for _, tc := range tests {
		if got := IsValidBase64Key(tc.key); got != tc.valid {
			t.Errorf("IsValidBase64Key(%s) = %v, want %v", tc.name, got, tc.valid)
		}
	}
}

func TestIsValidMnemonic(t *testing.T) {
	tests := []struct {
		mnemonic string
		valid    bool
	}{
		{testMnemonic, true},
		{"invalid mnemonic words", false},
		{"", false},
		{"abandon", false}, // Too short
	}

	for _, tc := range tests {
		if got := IsValidMnemonic(tc.mnemonic); got != tc.valid {
			t.Errorf("IsValidMnemonic(%q) = %v, want %v", tc.mnemonic, got, tc.valid)
		}
	}
}

func TestKeyPairFromBase64(t *testing.T) {
	kp := mustKeyPair(t, 1)

	if got := kp.Address(); got != "0x29dfbf688abce7ab43bb8e70cae158ae961196e721440f515482f8ba1684390f" {
		t.Errorf("Address() = %s", got)
	}
	if got := kp.PublicKeyBase64(); got != "AIqI4910CfGV/VLbLTy6XXLKZwm/HZQSG/N0iAG0D29c" {
		t.Errorf("PublicKeyBase64() = %s", got)
	}
}

func TestKeyPairFromBase64Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"garbage", "%%%"},
		{"wrong flag", base64.StdEncoding.EncodeToString(append([]byte{0x02}, bytes.Repeat([]byte{1}, 32)...))},
		{"truncated", base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 16))},
	}

	for _, tc := range tests {
		if _, err := KeyPairFromBase64(tc.key); err == nil {
			t.Errorf("KeyPairFromBase64(%s) expected error", tc.name)
		}
	}
}

func TestKeyPairFromMnemonic(t *testing.T) {
	kp, err := KeyPairFromMnemonic(testMnemonic)
	if err != nil {
		t.Fatalf("KeyPairFromMnemonic() error = %v", err)
	}

	// m/44'/784'/0'/0'/0' over the reference seed.
	if got := kp.Address(); got != "0x5e93a736d04fbb25737aa40bee40171ef79f65fae833749e3c089fe7cc2161f1" {
		t.Errorf("Address() = %s", got)
	}
	if got := kp.PublicKeyBase64(); got != "AJALTYHuzqPfL3SxQgDE9M8/Sa+sp6Y0/9LPb/gr2uzy" {
		t.Errorf("PublicKeyBase64() = %s", got)
	}
}

func TestKeyPairFromMnemonicInvalid(t *testing.T) {
	if _, err := KeyPairFromMnemonic("invalid mnemonic"); err == nil {
		t.Error("expected error for invalid mnemonic")
	}
}

func TestDeterministicDerivation(t *testing.T) {
	kp1, err := KeyPairFromMnemonic(testMnemonic)
	if err != nil {
		t.Fatalf("KeyPairFromMnemonic() error = %v", err)
	}
	kp2, err := KeyPairFromMnemonic(testMnemonic)
	if err != nil {
		t.Fatalf("KeyPairFromMnemonic() error = %v", err)
	}

	if kp1.Address() != kp2.Address() {
		t.Error("same mnemonic should produce same address")
	}
}

func TestAddressFormat(t *testing.T) {
	addr := mustKeyPair(t, 2).Address()

	if !strings.HasPrefix(addr, "0x") {
		t.Errorf("address should start with 0x, got %s", addr)
	}
	if len(addr) != 66 {
		t.Errorf("address should be 66 chars, got %d", len(addr))
	}
	if _, err := hex.DecodeString(addr[2:]); err != nil {
		t.Errorf("address is not hex: %v", err)
	}
}

func TestSignTransaction(t *testing.T) {
	kp := mustKeyPair(t, 1)
	raw := []byte("transaction payload")
	txBytes := base64.StdEncoding.EncodeToString(raw)

	serialized, err := kp.SignTransaction(txBytes)
	if err != nil {
		t.Fatalf("SignTransaction() error = %v", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(serialized)
	if err != nil {
		t.Fatalf("signature is not base64: %v", err)
	}
	if len(decoded) != 1+ed25519.SignatureSize+ed25519.PublicKeySize {
		t.Fatalf("signature length = %d, want 97", len(decoded))
	}
	if decoded[0] != flagED25519 {
		t.Errorf("signature flag = %#x, want %#x", decoded[0], flagED25519)
	}

	sig := decoded[1 : 1+ed25519.SignatureSize]
	pub := decoded[1+ed25519.SignatureSize:]
	if !bytes.Equal(pub, kp.PublicKey()) {
		t.Error("serialized signature should embed the signer public key")
	}

	// The signature covers the blake2b digest of the intent-prefixed
	// transaction bytes, not the bytes themselves.
	digest := blake2b.Sum256(append([]byte{0, 0, 0}, raw...))
	if !ed25519.Verify(ed25519.PublicKey(pub), digest[:], sig) {
		t.Error("signature does not verify against the intent digest")
	}
}

func TestSignTransactionBadInput(t *testing.T) {
	kp := mustKeyPair(t, 1)
	if _, err := kp.SignTransaction("%%%not-base64"); err == nil {
		t.Error("expected error for malformed transaction bytes")
	}
}

func TestParseDerivationPath(t *testing.T) {
	indices, err := parseDerivationPath("m/44'/784'/0'/0'/0'")
	if err != nil {
		t.Fatalf("parseDerivationPath() error = %v", err)
	}
	want := []uint32{44, 784, 0, 0, 0}
	if len(indices) != len(want) {
		t.Fatalf("got %d indices, want %d", len(indices), len(want))
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Errorf("index %d = %d, want %d", i, indices[i], want[i])
		}
	}

	bad := []string{
		"44'/784'/0'",   // missing m
		"m/44/784'/0'",  // unhardened segment
		"m/44'/x'/0'",   // not a number
		"m",             // no segments
	}
	for _, path := range bad {
		if _, err := parseDerivationPath(path); err == nil {
			t.Errorf("parseDerivationPath(%q) expected error", path)
		}
	}
}
