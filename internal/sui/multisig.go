package sui

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/blake2b"
)

// maxCommitteeSize is the largest multisig committee the chain
// accepts.
const maxCommitteeSize = 10

// MultiSigAddress derives the address of a weighted multisig
// committee: the blake2b-256 digest of the multisig flag, the
// little-endian threshold and every flag-prefixed public key followed
// by its weight.
func MultiSigAddress(pubkeys []string, weights []uint8, threshold uint16) (string, error) {
	committee, err := decodeCommittee(pubkeys, weights, threshold)
	if err != nil {
		return "", err
	}

	material := make([]byte, 0, 3+len(committee)*(2+ed25519.PublicKeySize))
	material = append(material, flagMultiSig)
	material = binary.LittleEndian.AppendUint16(material, threshold)
	for i, pk := range committee {
		material = append(material, flagED25519)
		material = append(material, pk...)
		material = append(material, weights[i])
	}

	digest := blake2b.Sum256(material)
	return "0x" + hex.EncodeToString(digest[:]), nil
}

// CombinePartialSignatures folds serialized single-signer signatures
// into the BCS multisig envelope the fullnode accepts. Every signer
// must be a committee member; the bitmap records which members signed.
func CombinePartialSignatures(sigs, pubkeys []string, weights []uint8, threshold uint16) (string, error) {
	if len(sigs) == 0 {
		return "", errors.New("no signatures to combine")
	}
	committee, err := decodeCommittee(pubkeys, weights, threshold)
	if err != nil {
		return "", err
	}

	var bitmap uint16
	raw := make([][]byte, 0, len(sigs))
	for _, s := range sigs {
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return "", fmt.Errorf("failed to decode partial signature: %w", err)
		}
		if len(decoded) != 1+ed25519.SignatureSize+ed25519.PublicKeySize || decoded[0] != flagED25519 {
			return "", errors.New("partial signature must be a serialized ed25519 signature")
		}
		sig := decoded[1 : 1+ed25519.SignatureSize]
		pub := decoded[1+ed25519.SignatureSize:]

		member := -1
		for i, pk := range committee {
			if bytes.Equal(pk, pub) {
				member = i
				break
			}
		}
		if member < 0 {
			return "", errors.New("signer is not a committee member")
		}
		bitmap |= 1 << member
		raw = append(raw, sig)
	}

	var w bcsWriter
	w.uleb(uint64(len(raw)))
	for _, sig := range raw {
		w.uleb(0) // ed25519 compressed signature variant
		w.bytes(sig)
	}
	w.u16(bitmap)
	w.uleb(uint64(len(committee)))
	for i, pk := range committee {
		w.uleb(0) // ed25519 public key variant
		w.bytes(pk)
		w.u8(weights[i])
	}
	w.u16(threshold)

	envelope := make([]byte, 0, 1+w.buf.Len())
	envelope = append(envelope, flagMultiSig)
	envelope = append(envelope, w.buf.Bytes()...)
	return base64.StdEncoding.EncodeToString(envelope), nil
}

// decodeCommittee validates the committee shape and returns the raw
// public keys.
func decodeCommittee(pubkeys []string, weights []uint8, threshold uint16) ([][]byte, error) {
	if len(pubkeys) == 0 || len(pubkeys) > maxCommitteeSize {
		return nil, fmt.Errorf("committee must have between 1 and %d keys, got %d", maxCommitteeSize, len(pubkeys))
	}
	if len(weights) != len(pubkeys) {
		return nil, fmt.Errorf("%d weights for %d keys", len(weights), len(pubkeys))
	}
	if threshold == 0 {
		return nil, errors.New("threshold must be positive")
	}

	var total uint16
	for _, weight := range weights {
		if weight == 0 {
			return nil, errors.New("weights must be positive")
		}
		total += uint16(weight)
	}
	if total < threshold {
		return nil, fmt.Errorf("total weight %d below threshold %d", total, threshold)
	}

	committee := make([][]byte, len(pubkeys))
	for i, key := range pubkeys {
		pk, err := decodePublicKey(key)
		if err != nil {
			return nil, fmt.Errorf("public key %d: %w", i, err)
		}
		committee[i] = pk
	}
	return committee, nil
}

// decodePublicKey parses a canonical base64 public key and rejects
// byte strings that are not points on the ed25519 curve.
func decodePublicKey(key string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	if len(decoded) != 1+ed25519.PublicKeySize || decoded[0] != flagED25519 {
		return nil, errors.New("must decode to 33 bytes with a leading ed25519 flag")
	}
	if _, err := new(edwards25519.Point).SetBytes(decoded[1:]); err != nil {
		return nil, fmt.Errorf("not a curve point: %w", err)
	}
	return decoded[1:], nil
}

// bcsWriter builds the small BCS fragment a multisig envelope needs:
// ULEB128 lengths and fixed-width little-endian integers.
type bcsWriter struct {
	buf bytes.Buffer
}

func (w *bcsWriter) uleb(v uint64) {
	for v >= 0x80 {
		w.buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	w.buf.WriteByte(byte(v))
}

func (w *bcsWriter) bytes(b []byte) {
	w.uleb(uint64(len(b)))
	w.buf.Write(b)
}

func (w *bcsWriter) u8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *bcsWriter) u16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	w.buf.Write(tmp[:])
}
