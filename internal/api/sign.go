package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// signQuery appends the HMAC-SHA256 signature Binance requires on signed
// endpoints: the hex-encoded MAC of the already-encoded query string,
// keyed by the account's secret.
func signQuery(encodedQuery, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(encodedQuery))
	sig := hex.EncodeToString(mac.Sum(nil))

	if encodedQuery == "" {
		return "signature=" + sig
	}
	return encodedQuery + "&signature=" + sig
}
