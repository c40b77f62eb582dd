package facade

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// Signer produces HMAC-SHA256 request headers for a generic REST venue:
// message = timestamp + method + path [+ body], secret is base64.
//
// On-chain EIP-712 wallet signing is out of scope (see DESIGN.md); only
// the venue-agnostic HMAC signer is implemented, with key/secret
// configurable per venue and fixed X-TC-* header names.
type Signer struct {
	APIKey string
	Secret string // base64-encoded
}

// Headers returns the signed header set for one request.
func (s Signer) Headers(method, path, body string) (map[string]string, error) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	sig, err := s.sign(timestamp, method, path, body)
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}
	return map[string]string{
		"X-TC-API-KEY":   s.APIKey,
		"X-TC-SIGNATURE": sig,
		"X-TC-TIMESTAMP": timestamp,
	}, nil
}

func (s Signer) sign(timestamp, method, path, body string) (string, error) {
	secretBytes, err := base64.StdEncoding.DecodeString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("decode secret: %w", err)
	}

	message := timestamp + method + path + body
	mac := hmac.New(sha256.New, secretBytes)
	mac.Write([]byte(message))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil)), nil
}
