package grant

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/gen-dot-art/legacy-contracts/internal/platform/errors"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv(EnvOperatorGrantIssuer, "")
	t.Setenv(EnvOperatorGrantAudience, "")
	t.Setenv(EnvOperatorGrantPublicKey, "")

	if _, err := LoadConfigFromEnv(nil); err == nil {
		t.Fatal("expected error when env vars are missing")
	}

	pubKey, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	t.Setenv(EnvOperatorGrantIssuer, "issuer")
	t.Setenv(EnvOperatorGrantAudience, "mint-service")
	t.Setenv(EnvOperatorGrantPublicKey, base64.RawStdEncoding.EncodeToString(pubKey))

	cfg, err := LoadConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load operator grant config: %v", err)
	}
	if cfg.Issuer != "issuer" || cfg.Audience != "mint-service" {
		t.Fatal("expected issuer and audience to be loaded")
	}
	if len(cfg.Key) != ed25519.PublicKeySize {
		t.Fatalf("expected public key size %d", ed25519.PublicKeySize)
	}
}

func TestValidateSuccess(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	token := signGrant(t, priv, map[string]any{
		"alg": "EdDSA",
		"typ": "JWT",
	}, map[string]any{
		"iss":      "issuer",
		"aud":      []string{"mint-service", "secondary"},
		"exp":      now.Add(2 * time.Hour).Unix(),
		"iat":      now.Add(-time.Minute).Unix(),
		"jti":      "jti-1",
		"operator": "operator-1",
		"scope":    ScopeAdmin,
	})

	cfg := Config{Issuer: "issuer", Audience: "mint-service", Key: pub, Now: func() time.Time { return now }}
	claims, err := Validate(token, ScopeAdmin, cfg)
	if err != nil {
		t.Fatalf("validate operator grant: %v", err)
	}
	if claims.Operator != "operator-1" || claims.Scope != ScopeAdmin {
		t.Fatal("expected operator and scope claims to match")
	}
	if !claims.ExpiresAt.Equal(time.Unix(now.Add(2*time.Hour).Unix(), 0).UTC()) {
		t.Fatal("expected expires at to match exp")
	}
}

func TestValidateExpired(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	token := signGrant(t, priv, map[string]any{"alg": "EdDSA"}, map[string]any{
		"iss":      "issuer",
		"aud":      "mint-service",
		"exp":      now.Add(-time.Minute).Unix(),
		"jti":      "jti-1",
		"operator": "operator-1",
		"scope":    ScopeAdmin,
	})

	cfg := Config{Issuer: "issuer", Audience: "mint-service", Key: pub, Now: func() time.Time { return now }}
	_, err = Validate(token, ScopeAdmin, cfg)
	if apperrors.CodeOf(err) != apperrors.CodeGrantExpired {
		t.Fatalf("code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeGrantExpired)
	}
}

func TestValidateScopeMismatch(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	token := signGrant(t, priv, map[string]any{"alg": "EdDSA"}, map[string]any{
		"iss":      "issuer",
		"aud":      "mint-service",
		"exp":      now.Add(time.Hour).Unix(),
		"jti":      "jti-1",
		"operator": "operator-1",
		"scope":    "read-only",
	})

	cfg := Config{Issuer: "issuer", Audience: "mint-service", Key: pub, Now: func() time.Time { return now }}
	_, err = Validate(token, ScopeAdmin, cfg)
	if err == nil || !strings.Contains(err.Error(), "scope mismatch") {
		t.Fatalf("expected scope mismatch error, got %v", err)
	}
}

func TestValidateIssuerMismatch(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	token := signGrant(t, priv, map[string]any{"alg": "EdDSA"}, map[string]any{
		"iss":      "someone-else",
		"aud":      "mint-service",
		"exp":      now.Add(time.Hour).Unix(),
		"jti":      "jti-1",
		"operator": "operator-1",
		"scope":    ScopeAdmin,
	})

	cfg := Config{Issuer: "issuer", Audience: "mint-service", Key: pub, Now: func() time.Time { return now }}
	_, err = Validate(token, ScopeAdmin, cfg)
	if err == nil || !strings.Contains(err.Error(), "issuer mismatch") {
		t.Fatalf("expected issuer mismatch error, got %v", err)
	}
}

func TestValidateInvalidSignature(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	cfg := Config{Issuer: "issuer", Audience: "mint-service", Key: pub, Now: time.Now}
	_, err = Validate("invalid.token.parts", ScopeAdmin, cfg)
	if err == nil {
		t.Fatal("expected error for invalid operator grant")
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeGrantInvalid {
		t.Fatalf("err = %v, want code %s", err, apperrors.CodeGrantInvalid)
	}
}

func signGrant(t *testing.T, privateKey ed25519.PrivateKey, header, payload map[string]any) string {
	t.Helper()

	headerJSON, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	encodedHeader := base64.RawURLEncoding.EncodeToString(headerJSON)
	encodedPayload := base64.RawURLEncoding.EncodeToString(payloadJSON)
	signingInput := encodedHeader + "." + encodedPayload
	signature := ed25519.Sign(privateKey, []byte(signingInput))
	encodedSig := base64.RawURLEncoding.EncodeToString(signature)
	return signingInput + "." + encodedSig
}
