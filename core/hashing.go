package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// hashUUID computes the transaction id as SHA-256(hex) of a UUID, per spec
// §3. Lowercase, matching the teacher's hex.EncodeToString convention
// elsewhere (e.g. core/contracts.go's CodeHash).
func hashUUID(id uuid.UUID) string {
	sum := sha256.Sum256(id[:])
	return hex.EncodeToString(sum[:])
}

// TxSignatureHexLen and SampleSignatureHexLen are the lengths (in hex
// characters) an opaque signature predicate requires. A real deployment
// substitutes an ECDSA verifier behind the same predicate (spec §4.1); the
// core never inspects the bytes beyond shape.
const (
	TxSignatureHexLen     = 128
	SampleSignatureHexLen = 64
)

// VerifyTransactionSignature is the opaque signature predicate for
// transactions. It only checks that the signature is well-formed hex of the
// expected length.
func VerifyTransactionSignature(sig string) bool {
	return isHexOfLen(sig, TxSignatureHexLen)
}

// VerifySampleSignature is the opaque signature predicate for inverter
// telemetry.
func VerifySampleSignature(sig string) bool {
	return isHexOfLen(sig, SampleSignatureHexLen)
}

func isHexOfLen(s string, n int) bool {
	if len(s) != n {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// payloadDigest concatenates per-item identifiers for hashing: txid for
// transactions, inverter_id||energy_generated for samples.
func payloadDigest(b *Block) string {
	var sb strings.Builder
	switch b.Kind {
	case PayloadTransactions:
		for _, tx := range b.Transactions {
			sb.WriteString(tx.TxID)
		}
	case PayloadSamples:
		for _, s := range b.Samples {
			sb.WriteString(s.InverterID)
			sb.WriteString(strconv.FormatFloat(s.EnergyGeneratedKwh, 'f', -1, 64))
		}
	}
	return sb.String()
}

// ComputeHash recomputes the block hash per the hashing scheme:
// hex(SHA-256(index || ISO-8601 timestamp || previous_hash || nonce ||
// total_reduction || payload_digest)), uppercase, hyphenless.
func ComputeHash(b *Block) string {
	var buf strings.Builder
	buf.WriteString(strconv.FormatUint(b.Index, 10))
	buf.WriteString(b.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"))
	buf.WriteString(b.PreviousHash)
	buf.WriteString(strconv.FormatUint(b.Nonce, 10))
	buf.WriteString(strconv.FormatFloat(b.TotalCarbonReduction, 'f', -1, 64))
	buf.WriteString(payloadDigest(b))
	sum := sha256.Sum256([]byte(buf.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// hasLeadingZeros reports whether hash has at least n leading hex '0'
// characters.
func hasLeadingZeros(hash string, n int) bool {
	if n <= 0 {
		return true
	}
	if len(hash) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if hash[i] != '0' {
			return false
		}
	}
	return true
}
