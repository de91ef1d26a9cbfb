package usecase

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"license-entitlement-service/internal/domain"
)

// mockLicenseRepository はテスト用のモック発行台帳。
type mockLicenseRepository struct {
	createErr        error
	created          []*domain.IssuedLicense
	findByIDResult   *domain.IssuedLicense
	findByIDErr      error
	findAllResult    []*domain.IssuedLicense
	findAllErr       error
	findRevokedRes   []*domain.IssuedLicense
	findRevokedErr   error
	markRevokedErr   error
	markRevokedCalls []string
}

func (m *mockLicenseRepository) Create(ctx context.Context, license *domain.IssuedLicense) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, license)
	return nil
}

func (m *mockLicenseRepository) FindByTokenID(ctx context.Context, tokenID string) (*domain.IssuedLicense, error) {
	return m.findByIDResult, m.findByIDErr
}

func (m *mockLicenseRepository) FindAll(ctx context.Context) ([]*domain.IssuedLicense, error) {
	return m.findAllResult, m.findAllErr
}

func (m *mockLicenseRepository) FindRevoked(ctx context.Context) ([]*domain.IssuedLicense, error) {
	return m.findRevokedRes, m.findRevokedErr
}

func (m *mockLicenseRepository) MarkRevoked(ctx context.Context, tokenID string, reason string, revokedAt time.Time) error {
	m.markRevokedCalls = append(m.markRevokedCalls, tokenID)
	return m.markRevokedErr
}

// newTestIssuer は固定時刻・固定IDのissuerを生成する。
func newTestIssuer(signer TokenSigner, registry LicenseRepository) *LicenseIssuer {
	issuer := NewLicenseIssuer(signer, registry)
	issuer.Now = func() time.Time { return testNow }
	issuer.NewTokenID = func() string { return "fixed-jti-0001" }
	return issuer
}

// localTestSigner はテスト用のEd25519ローカル署名。
type localTestSigner struct {
	key ed25519.PrivateKey
}

func (s *localTestSigner) Algorithm() string { return "ed25519" }

func (s *localTestSigner) Sign(ctx context.Context, payload []byte) ([]byte, error) {
	return ed25519.Sign(s.key, payload), nil
}

func TestIssue_RoundTripThroughValidator(t *testing.T) {
	pub, priv := testKeypair(t)
	registry := &mockLicenseRepository{}
	issuer := newTestIssuer(&localTestSigner{key: priv}, registry)

	result, err := issuer.Issue(context.Background(), IssueRequest{
		Plan:     domain.TierEnterprise,
		Customer: "acme-corp",
		Days:     30,
		Features: []string{"sso", "audit"},
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// 発行したトークンが検証エンジンをそのまま通過すること
	v := newTestValidator(&mockSnapshotRepository{publicKey: pub}, false, domain.TierPro)
	got := v.Validate(context.Background(), result.Token)
	want := domain.ValidationResult{
		Valid:  true,
		Tier:   domain.TierEnterprise,
		Reason: domain.ReasonValid,
	}
	if got != want {
		t.Errorf("Validate(issued token) = %+v, want %+v", got, want)
	}

	if result.Claims.TokenID != "fixed-jti-0001" {
		t.Errorf("jti = %s", result.Claims.TokenID)
	}
	if result.Claims.ExpiresAt != testNow.Add(30*24*time.Hour).Unix() {
		t.Errorf("exp = %d", result.Claims.ExpiresAt)
	}
	if len(registry.created) != 1 {
		t.Fatalf("want 1 registry record, got %d", len(registry.created))
	}
	if registry.created[0].Status != domain.LicenseStatusActive {
		t.Errorf("registry status = %s", registry.created[0].Status)
	}
}

func TestIssue_CanonicalPayload(t *testing.T) {
	_, priv := testKeypair(t)
	issuer := newTestIssuer(&localTestSigner{key: priv}, nil)

	result, err := issuer.Issue(context.Background(), IssueRequest{
		Plan:     domain.TierPro,
		Customer: "acme-corp",
		Days:     1,
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// ペイロードはキー昇順・空白なしの正規形式であること
	parts := strings.Split(result.Token, ".")
	if len(parts) != 3 || parts[0] != domain.SignedTokenPrefix {
		t.Fatalf("unexpected token shape: %s", result.Token)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	s := string(payload)
	if strings.Contains(s, " ") {
		t.Errorf("payload contains whitespace: %s", s)
	}
	keys := []string{`"exp"`, `"iat"`, `"jti"`, `"nbf"`, `"plan"`, `"sub"`, `"v"`}
	last := -1
	for _, k := range keys {
		idx := strings.Index(s, k)
		if idx < 0 {
			t.Fatalf("payload missing %s: %s", k, s)
		}
		if idx < last {
			t.Errorf("payload keys not sorted: %s", s)
		}
		last = idx
	}
}

func TestIssue_RejectsUnpaidPlan(t *testing.T) {
	_, priv := testKeypair(t)
	issuer := newTestIssuer(&localTestSigner{key: priv}, nil)

	for _, plan := range []domain.Tier{domain.TierFree, domain.Tier("gold")} {
		_, err := issuer.Issue(context.Background(), IssueRequest{Plan: plan, Customer: "x"})
		if !errors.Is(err, domain.ErrInvalidPlan) {
			t.Errorf("plan %s: err = %v, want ErrInvalidPlan", plan, err)
		}
	}
}

func TestIssue_RequiresCustomer(t *testing.T) {
	_, priv := testKeypair(t)
	issuer := newTestIssuer(&localTestSigner{key: priv}, nil)

	if _, err := issuer.Issue(context.Background(), IssueRequest{Plan: domain.TierPro}); err == nil {
		t.Error("Issue without customer should fail")
	}
}

func TestIssue_WithoutRegistry(t *testing.T) {
	_, priv := testKeypair(t)
	issuer := newTestIssuer(&localTestSigner{key: priv}, nil)

	result, err := issuer.Issue(context.Background(), IssueRequest{
		Plan:     domain.TierPro,
		Customer: "standalone",
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if result.Token == "" {
		t.Error("empty token")
	}
}

func TestIssue_DefaultValidityWindow(t *testing.T) {
	_, priv := testKeypair(t)
	issuer := newTestIssuer(&localTestSigner{key: priv}, nil)

	result, err := issuer.Issue(context.Background(), IssueRequest{
		Plan:     domain.TierPro,
		Customer: "acme-corp",
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if result.Claims.ExpiresAt != testNow.Add(365*24*time.Hour).Unix() {
		t.Errorf("exp = %d, want 365 days", result.Claims.ExpiresAt)
	}
}
