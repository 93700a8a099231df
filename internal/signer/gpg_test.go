package signer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

func writePrivateKey(t *testing.T) string {
	t.Helper()

	entity, err := openpgp.NewEntity("Toltec", "test", "toltec@example.com", nil)
	if err != nil {
		t.Fatalf("NewEntity failed: %v", err)
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := entity.SerializePrivate(w, nil); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "key.asc")
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSignDetached(t *testing.T) {
	s, err := NewGPGSigner(writePrivateKey(t), "")
	if err != nil {
		t.Fatalf("NewGPGSigner failed: %v", err)
	}

	data := []byte("Package: hello\nVersion: 1.0.0-1\n\n")
	sig, err := s.SignDetached(data)
	if err != nil {
		t.Fatalf("SignDetached failed: %v", err)
	}
	if !strings.HasPrefix(string(sig), "-----BEGIN PGP SIGNATURE-----") {
		t.Errorf("Expected an armored signature, got %q", sig)
	}

	if err := s.Verify(data, sig); err != nil {
		t.Errorf("Signature should verify: %v", err)
	}
	if err := s.Verify([]byte("Package: evil\n"), sig); err == nil {
		t.Error("Signature should not verify tampered data")
	}

	pub, err := s.GetPublicKey()
	if err != nil {
		t.Fatalf("GetPublicKey failed: %v", err)
	}
	if !strings.HasPrefix(string(pub), "-----BEGIN PGP PUBLIC KEY BLOCK-----") {
		t.Errorf("Expected an armored public key, got %q", pub)
	}
}

func TestNewGPGSignerErrors(t *testing.T) {
	if _, err := NewGPGSigner("", ""); err == nil {
		t.Error("Expected an error for an empty key path")
	}

	garbage := filepath.Join(t.TempDir(), "garbage")
	os.WriteFile(garbage, []byte("not a key"), 0600)
	if _, err := NewGPGSigner(garbage, ""); err == nil {
		t.Error("Expected an error for an invalid key file")
	}
}
