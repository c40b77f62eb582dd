package facade

import (
	"encoding/base64"
	"testing"
)

func TestSignerHeadersDeterministicGivenTimestamp(t *testing.T) {
	t.Parallel()
	secret := base64.StdEncoding.EncodeToString([]byte("super-secret"))
	s := Signer{APIKey: "key1", Secret: secret}

	sig1, err := s.sign("1700000000", "GET", "/orders/1", "")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sig2, err := s.sign("1700000000", "GET", "/orders/1", "")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if sig1 != sig2 {
		t.Error("same inputs should produce the same signature")
	}

	sig3, _ := s.sign("1700000000", "GET", "/orders/2", "")
	if sig1 == sig3 {
		t.Error("different path should change the signature")
	}
}

func TestSignerHeadersIncludesKey(t *testing.T) {
	t.Parallel()
	s := Signer{APIKey: "key1", Secret: base64.StdEncoding.EncodeToString([]byte("s"))}
	h, err := s.Headers("GET", "/orders", "")
	if err != nil {
		t.Fatalf("Headers: %v", err)
	}
	if h["X-TC-API-KEY"] != "key1" {
		t.Errorf("api key header = %s, want key1", h["X-TC-API-KEY"])
	}
	if h["X-TC-SIGNATURE"] == "" {
		t.Error("signature header should not be empty")
	}
}

func TestSignerRejectsInvalidSecret(t *testing.T) {
	t.Parallel()
	s := Signer{APIKey: "k", Secret: "not-valid-base64!!!"}
	if _, err := s.Headers("GET", "/x", ""); err == nil {
		t.Error("expected error for non-base64 secret")
	}
}
