package chain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainState   = "mintgate/state/v1"
	DomainMessage = "mintgate/message/v1"
	DomainCode    = "mintgate/code/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateDigest hashes every key/value of a component's storage in key order.
// Two digests are equal iff the storage is byte-for-byte identical.
func StateDigest(ctx context.Context, s Storage) (string, error) {
	kvs, err := s.Range(ctx, nil, nil, Ascending, 0)
	if err != nil {
		return "", fmt.Errorf("state digest: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainState))
	h.Write([]byte{0x00})
	for _, kv := range kvs {
		writeLengthPrefixed(h, kv.Key)
		writeLengthPrefixed(h, kv.Value)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type byteWriter interface {
	Write(p []byte) (int, error)
}

func writeLengthPrefixed(w byteWriter, b []byte) {
	n := uint32(len(b))
	w.Write([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	w.Write(b)
}

// MessageDigest computes the digest of a message's canonical JSON form.
func MessageDigest(msg any) (string, error) {
	canonical, err := MarshalCanonical(msg)
	if err != nil {
		return "", fmt.Errorf("message digest: %w", err)
	}
	return hashWithDomain(DomainMessage, canonical), nil
}

// CodeChecksum identifies stored code by name.
func CodeChecksum(name string) string {
	return hashWithDomain(DomainCode, []byte(name))
}
