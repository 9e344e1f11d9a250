package sui

import (
	"bytes"
	"encoding/base64"
	"testing"
)

// offCurveKey is a flagged 33-byte encoding whose y coordinate has no
// matching x on the ed25519 curve.
const offCurveKey = "AAIAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func testCommittee(t *testing.T) (pubkeys []string, weights []uint8, threshold uint16) {
	t.Helper()
	return []string{
		mustKeyPair(t, 1).PublicKeyBase64(),
		mustKeyPair(t, 2).PublicKeyBase64(),
	}, []uint8{1, 2}, 2
}

func TestMultiSigAddress(t *testing.T) {
	pubkeys, weights, threshold := testCommittee(t)

	addr, err := MultiSigAddress(pubkeys, weights, threshold)
	if err != nil {
		t.Fatalf("MultiSigAddress() error = %v", err)
	}
	if addr != "0x6124c2113012e44a5b4fd4dcec3320d9743a870895da757e6a74bf8da4914285" {
		t.Errorf("MultiSigAddress() = %s", addr)
	}
}

func TestMultiSigAddressChangesWithCommittee(t *testing.T) {
	pubkeys, weights, threshold := testCommittee(t)

	base, err := MultiSigAddress(pubkeys, weights, threshold)
	if err != nil {
		t.Fatalf("MultiSigAddress() error = %v", err)
	}

	reweighted, err := MultiSigAddress(pubkeys, []uint8{2, 2}, threshold)
	if err != nil {
		t.Fatalf("MultiSigAddress(reweighted) error = %v", err)
	}
	if base == reweighted {
		t.Error("changing a weight should change the address")
	}

	rethresholded, err := MultiSigAddress(pubkeys, weights, 3)
	if err != nil {
		t.Fatalf("MultiSigAddress(rethresholded) error = %v", err)
	}
	if base == rethresholded {
		t.Error("changing the threshold should change the address")
	}
}

func TestMultiSigAddressValidation(t *testing.T) {
	pk := mustKeyPair(t, 1).PublicKeyBase64()
	eleven := make([]string, 11)
	elevenWeights := make([]uint8, 11)
	for i := range eleven {
		eleven[i] = pk
		elevenWeights[i] = 1
	}

	tests := []struct {
		name      string
		pubkeys   []string
		weights   []uint8
		threshold uint16
	}{
		{"empty committee", nil, nil, 1},
		{"too many keys", eleven, elevenWeights, 1},
		{"weight count mismatch", []string{pk}, []uint8{1, 1}, 1},
		{"zero threshold", []string{pk}, []uint8{1}, 0},
		{"zero weight", []string{pk}, []uint8{0}, 1},
		{"unreachable threshold", []string{pk}, []uint8{1}, 2},
		{"malformed key", []string{"%%%"}, []uint8{1}, 1},
		{"off-curve key", []string{offCurveKey}, []uint8{1}, 1},
	}

	for _, tc := range tests {
		if _, err := MultiSigAddress(tc.pubkeys, tc.weights, tc.threshold); err == nil {
			t.Errorf("MultiSigAddress(%s) expected error", tc.name)
		}
	}
}

func TestCombinePartialSignatures(t *testing.T) {
	pubkeys, weights, threshold := testCommittee(t)
	signer := mustKeyPair(t, 2)

	txBytes := base64.StdEncoding.EncodeToString([]byte("payload"))
	partial, err := signer.SignTransaction(txBytes)
	if err != nil {
		t.Fatalf("SignTransaction() error = %v", err)
	}

	combined, err := CombinePartialSignatures([]string{partial}, pubkeys, weights, threshold)
	if err != nil {
		t.Fatalf("CombinePartialSignatures() error = %v", err)
	}

	envelope, err := base64.StdEncoding.DecodeString(combined)
	if err != nil {
		t.Fatalf("envelope is not base64: %v", err)
	}

	// flag ‖ uleb(1) ‖ [uleb(0) uleb(64) sig] ‖ bitmap u16 ‖ uleb(2) ‖
	// 2×[uleb(0) uleb(32) pk weight] ‖ threshold u16
	if len(envelope) != 143 {
		t.Fatalf("envelope length = %d, want 143", len(envelope))
	}
	if envelope[0] != flagMultiSig {
		t.Errorf("envelope flag = %#x, want %#x", envelope[0], flagMultiSig)
	}
	if envelope[1] != 1 {
		t.Errorf("signature count = %d, want 1", envelope[1])
	}

	rawPartial, _ := base64.StdEncoding.DecodeString(partial)
	if !bytes.Equal(envelope[4:68], rawPartial[1:65]) {
		t.Error("envelope should embed the partial signature bytes")
	}

	// The signer is committee member 1, so only bit 1 is set.
	if envelope[68] != 0x02 || envelope[69] != 0x00 {
		t.Errorf("bitmap = %#x %#x, want 0x02 0x00", envelope[68], envelope[69])
	}
	if envelope[70] != 2 {
		t.Errorf("committee size = %d, want 2", envelope[70])
	}
	if envelope[141] != 0x02 || envelope[142] != 0x00 {
		t.Errorf("threshold bytes = %#x %#x, want 0x02 0x00", envelope[141], envelope[142])
	}
}

func TestCombinePartialSignaturesRejectsNonMember(t *testing.T) {
	pubkeys, weights, threshold := testCommittee(t)
	outsider := mustKeyPair(t, 3)

	partial, err := outsider.SignTransaction(base64.StdEncoding.EncodeToString([]byte("payload")))
	if err != nil {
		t.Fatalf("SignTransaction() error = %v", err)
	}

	if _, err := CombinePartialSignatures([]string{partial}, pubkeys, weights, threshold); err == nil {
		t.Error("expected error for a signer outside the committee")
	}
}

func TestCombinePartialSignaturesRejectsEmpty(t *testing.T) {
	pubkeys, weights, threshold := testCommittee(t)
	if _, err := CombinePartialSignatures(nil, pubkeys, weights, threshold); err == nil {
		t.Error("expected error for empty signature set")
	}
}

func TestCombinePartialSignaturesRejectsMalformed(t *testing.T) {
	pubkeys, weights, threshold := testCommittee(t)

	for _, partial := range []string{"%%%", base64.StdEncoding.EncodeToString([]byte("short"))} {
		if _, err := CombinePartialSignatures([]string{partial}, pubkeys, weights, threshold); err == nil {
			t.Errorf("CombinePartialSignatures(%q) expected error", partial)
		}
	}
}
