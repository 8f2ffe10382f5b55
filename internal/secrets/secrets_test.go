package secrets

import (
	"strings"
	"testing"
)

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher("test-passphrase")
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	plaintext := "ya29.a0AfB_refresh_token_value"
	sealed, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if sealed == plaintext || strings.Contains(sealed, "refresh_token") {
		t.Fatalf("ciphertext leaks plaintext: %q", sealed)
	}

	got, err := c.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != plaintext {
		t.Fatalf("expected %q, got %q", plaintext, got)
	}
}

func TestCipherNonceVaries(t *testing.T) {
	c, err := NewCipher("test-passphrase")
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	a, _ := c.Encrypt("same input")
	b, _ := c.Encrypt("same input")
	if a == b {
		t.Fatalf("expected distinct ciphertexts for the same plaintext")
	}
}

func TestCipherWrongKey(t *testing.T) {
	c1, _ := NewCipher("passphrase-one")
	c2, _ := NewCipher("passphrase-two")

	sealed, err := c1.Encrypt("secret")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := c2.Decrypt(sealed); err == nil {
		t.Fatalf("expected decrypt with wrong key to fail")
	}
}

func TestCipherRejectsGarbage(t *testing.T) {
	c, _ := NewCipher("passphrase")
	if _, err := c.Decrypt("not base64!!!"); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
	if _, err := c.Decrypt("aGVsbG8="); err == nil {
		t.Fatalf("expected error for ciphertext shorter than nonce")
	}
}

func TestNewCipherRequiresPassphrase(t *testing.T) {
	if _, err := NewCipher(""); err == nil {
		t.Fatalf("expected error for empty passphrase")
	}
}
