package secrets

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

func TestEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewEncryptor([]byte("01234567890123456789012345678901"))
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	expires := int64(1736676000000)
	original := &domain.TokenData{
		AccessToken:  "ya29.access",
		RefreshToken: "1//refresh",
		ExpiresAt:    &expires,
		TokenType:    "Bearer",
	}

	blob, err := enc.Encrypt(original)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if blob[0] != blobVersion {
		t.Errorf("version byte: got %d, want %d", blob[0], blobVersion)
	}
	if bytes.Contains(blob, []byte("ya29.access")) {
		t.Error("blob contains the plaintext access token")
	}

	var decrypted domain.TokenData
	if err := enc.Decrypt(blob, &decrypted); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if decrypted.AccessToken != original.AccessToken || decrypted.RefreshToken != original.RefreshToken {
		t.Errorf("got %+v, want %+v", decrypted, original)
	}
	if decrypted.ExpiresAt == nil || *decrypted.ExpiresAt != expires {
		t.Errorf("ExpiresAt: got %v, want %d", decrypted.ExpiresAt, expires)
	}
}

func TestEncryptor_NonceIsRandom(t *testing.T) {
	enc, _ := NewEncryptor([]byte("01234567890123456789012345678901"))
	a, _ := enc.Encrypt("same")
	b, _ := enc.Encrypt("same")
	if bytes.Equal(a, b) {
		t.Error("expected different ciphertexts for the same value")
	}
}

func TestEncryptor_InvalidKeySize(t *testing.T) {
	if _, err := NewEncryptor([]byte("short")); !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestEncryptor_FromPassphrase(t *testing.T) {
	if _, err := NewEncryptorFromPassphrase(""); !errors.Is(err, ErrEmptyPassphrase) {
		t.Errorf("expected ErrEmptyPassphrase, got %v", err)
	}

	a, err := NewEncryptorFromPassphrase("session-secret")
	if err != nil {
		t.Fatalf("NewEncryptorFromPassphrase: %v", err)
	}
	b, _ := NewEncryptorFromPassphrase("session-secret")
	other, _ := NewEncryptorFromPassphrase("another-secret")

	blob, _ := a.Encrypt("token")
	var s string
	if err := b.Decrypt(blob, &s); err != nil || s != "token" {
		t.Errorf("same passphrase should decrypt: %q, %v", s, err)
	}
	if err := other.Decrypt(blob, &s); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestEncryptor_CorruptBlobs(t *testing.T) {
	enc, _ := NewEncryptor([]byte("01234567890123456789012345678901"))
	blob, _ := enc.Encrypt("token")

	var s string
	if err := enc.Decrypt(blob[:5], &s); !errors.Is(err, ErrInvalidBlobSize) {
		t.Errorf("expected ErrInvalidBlobSize, got %v", err)
	}

	wrongVersion := append([]byte{}, blob...)
	wrongVersion[0] = 0x02
	if err := enc.Decrypt(wrongVersion, &s); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}

	tampered := append([]byte{}, blob...)
	tampered[len(tampered)-1] ^= 0xff
	if err := enc.Decrypt(tampered, &s); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}
