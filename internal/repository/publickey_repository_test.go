package repository

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"license-entitlement-service/internal/domain"
)

func writePublicKeyPEM(t *testing.T, dir string, key any) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		t.Fatalf("encoding public key: %v", err)
	}
	data := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	path := filepath.Join(dir, "public_key.pem")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing key file: %v", err)
	}
	return path
}

func TestPublicKeyLoad_ValidKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating keypair: %v", err)
	}
	path := writePublicKeyPEM(t, t.TempDir(), pub)

	got, err := NewPublicKeyRepository(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != string(pub) {
		t.Error("loaded key does not match generated key")
	}
}

func TestPublicKeyLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does_not_exist.pem")

	_, err := NewPublicKeyRepository(path).Load(context.Background())
	if !errors.Is(err, domain.ErrPublicKeyLoad) {
		t.Errorf("err = %v, want ErrPublicKeyLoad", err)
	}
}

func TestPublicKeyLoad_PlaceholderMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public_key.pem")
	content := "-----BEGIN PUBLIC KEY-----\nREPLACE_WITH_YOUR_ED25519_PUBLIC_KEY\n-----END PUBLIC KEY-----\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing key file: %v", err)
	}

	_, err := NewPublicKeyRepository(path).Load(context.Background())
	if !errors.Is(err, domain.ErrPublicKeyLoad) {
		t.Errorf("err = %v, want ErrPublicKeyLoad", err)
	}
}

func TestPublicKeyLoad_NotPEM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public_key.pem")
	if err := os.WriteFile(path, []byte("not a pem file"), 0o644); err != nil {
		t.Fatalf("writing key file: %v", err)
	}

	_, err := NewPublicKeyRepository(path).Load(context.Background())
	if !errors.Is(err, domain.ErrPublicKeyLoad) {
		t.Errorf("err = %v, want ErrPublicKeyLoad", err)
	}
}

func TestPublicKeyLoad_CorruptDER(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public_key.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: []byte("garbage")})
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing key file: %v", err)
	}

	_, err := NewPublicKeyRepository(path).Load(context.Background())
	if !errors.Is(err, domain.ErrPublicKeyLoad) {
		t.Errorf("err = %v, want ErrPublicKeyLoad", err)
	}
}

func TestPublicKeyLoad_WrongKeyType(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating RSA key: %v", err)
	}
	path := writePublicKeyPEM(t, t.TempDir(), &rsaKey.PublicKey)

	_, err = NewPublicKeyRepository(path).Load(context.Background())
	if !errors.Is(err, domain.ErrPublicKeyLoad) {
		t.Errorf("err = %v, want ErrPublicKeyLoad", err)
	}
}
