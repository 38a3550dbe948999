package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainScript = "wodwiki/script/v1"
	DomainForest = "wodwiki/forest/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ScriptHash identifies a script by its NFC-normalized source text.
// Journal sessions are keyed by it so a replay can detect an edited script.
func ScriptHash(source string) string {
	return hashWithDomain(DomainScript, []byte(norm.NFC.String(source)))
}

// ForestHash identifies a compiled forest by its canonical JSON.
func ForestHash(nodes []StatementNode) (string, error) {
	canonical, err := MarshalCanonical(nodes)
	if err != nil {
		return "", fmt.Errorf("ForestHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainForest, canonical), nil
}
