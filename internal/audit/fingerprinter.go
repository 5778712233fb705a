package audit

import (
	"crypto/sha256"
	"encoding/base64"
	"sort"
)

const (
	DefaultFingerprintType = "default"
	BearerFingerprintType  = "bearer"
)

// Fingerprinter derives a non-reversible identifier from a token value.
type Fingerprinter func(token string) string

var fingerprintRegistry = map[string]Fingerprinter{
	DefaultFingerprintType: func(_ string) string {
		return "(n/a)"
	},
}

func RegisterFingerprinter(tokenType string, fn Fingerprinter) {
	fingerprintRegistry[tokenType] = fn
}

// RegisteredFingerprinterTypes returns the known token types, sorted.
func RegisteredFingerprinterTypes() []string {
	types := make([]string, 0, len(fingerprintRegistry))
	for t := range fingerprintRegistry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// CalculateFingerprint looks up the fingerprinter for tokenType, falling back to the default one.
func CalculateFingerprint(tokenType, token string) string {
	if token == "" {
		return ""
	}
	fn, ok := fingerprintRegistry[tokenType]
	if !ok {
		fn = fingerprintRegistry[DefaultFingerprintType]
	}
	return fn(token)
}

func init() {
	RegisterFingerprinter(BearerFingerprintType, sha256Fingerprint)
}

func sha256Fingerprint(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(hash[:])
}
