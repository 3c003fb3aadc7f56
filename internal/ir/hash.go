package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprints. The version suffix allows the layout of
// the hashed data to change without colliding with older fingerprints.
const (
	DomainDocument  = "spine/document/v1"
	DomainChangeSet = "spine/changeset/v1"
	DomainOperation = "spine/operation/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint hashes raw bytes under a domain.
func Fingerprint(domain string, data []byte) string {
	return hashWithDomain(domain, data)
}

// FingerprintValue hashes the canonical JSON form of v under a domain.
func FingerprintValue(domain string, v any) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return hashWithDomain(domain, data), nil
}

// OperationID identifies one applied edit: the operation name, its
// canonical arguments and the document it was applied to.
func OperationID(operation string, args map[string]any, before string) (string, error) {
	return FingerprintValue(DomainOperation, map[string]any{
		"operation": operation,
		"args":      args,
		"before":    before,
	})
}
