// internal/webhook/signature.go
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const signatureVersion = "v1"

// ComputeSignature signs "timestamp.payload" with HMAC-SHA256 and returns
// the versioned hex form, e.g. "v1=ab12...".
func ComputeSignature(secret, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a caller-provided signature in constant time. A
// bare hex digest without the "v1=" prefix is accepted too.
func VerifySignature(secret, timestamp string, payload []byte, signature string) bool {
	provided := signature
	if idx := strings.Index(signature, "="); idx >= 0 {
		provided = signature[idx+1:]
	}
	expected := strings.TrimPrefix(ComputeSignature(secret, timestamp, payload), signatureVersion+"=")
	return hmac.Equal([]byte(provided), []byte(expected))
}

// VerifyTimestamp rejects unix timestamps outside maxSkew of now.
func VerifyTimestamp(timestamp string, maxSkew time.Duration, now time.Time) bool {
	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	sent := time.Unix(unix, 0)
	diff := now.Sub(sent)
	if diff < 0 {
		diff = -diff
	}
	return diff <= maxSkew
}
