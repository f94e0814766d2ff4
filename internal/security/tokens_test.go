package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenCodec_IssueAndVerify(t *testing.T) {
	codec, _, err := NewTestAccessTokenCodec()
	if err != nil {
		t.Fatalf("NewTestAccessTokenCodec: %v", err)
	}
	token, exp, err := codec.Issue("u1", "a@example.com", []string{"b1", "b2"}, "b1", "", "viewer")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "u1" || claims.Email != "a@example.com" || claims.Role != "viewer" {
		t.Errorf("claims sub=%q email=%q role=%q", claims.Subject, claims.Email, claims.Role)
	}
	if len(claims.BrandIDs) != 2 || claims.BrandIDs[0] != "b1" {
		t.Errorf("brand_ids = %v", claims.BrandIDs)
	}
	if claims.PrimaryBrandID != "b1" {
		t.Errorf("primary_brand_id = %q, want b1", claims.PrimaryBrandID)
	}
}

func TestAccessTokenCodec_ContextBrandOverride(t *testing.T) {
	codec, _, err := NewTestAccessTokenCodec()
	if err != nil {
		t.Fatalf("NewTestAccessTokenCodec: %v", err)
	}
	token, _, err := codec.Issue("u1", "a@example.com", []string{"b1", "b2"}, "b1", "b2", "viewer")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.PrimaryBrandID != "b2" {
		t.Errorf("primary_brand_id = %q, want context override b2", claims.PrimaryBrandID)
	}
}

func TestAccessTokenCodec_KidHeader(t *testing.T) {
	codec, reg, err := NewTestAccessTokenCodec()
	if err != nil {
		t.Fatalf("NewTestAccessTokenCodec: %v", err)
	}
	token, _, err := codec.Issue("u1", "a@example.com", nil, "b1", "", "author")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, &AccessClaims{})
	if err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	active, _ := reg.ActiveKey()
	if kid, _ := parsed.Header["kid"].(string); kid != active.Kid {
		t.Errorf("header kid = %q, want %q", kid, active.Kid)
	}
}

func TestAccessTokenCodec_VerifyFailuresNormalized(t *testing.T) {
	codec, _, err := NewTestAccessTokenCodec()
	if err != nil {
		t.Fatalf("NewTestAccessTokenCodec: %v", err)
	}

	if _, err := codec.Verify("not-a-token"); err != ErrInvalidToken {
		t.Errorf("malformed: want ErrInvalidToken, got %v", err)
	}

	token, _, err := codec.Issue("u1", "a@example.com", nil, "b1", "", "viewer")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Tampered payload.
	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := codec.Verify(tampered); err != ErrInvalidToken {
		t.Errorf("tampered: want ErrInvalidToken, got %v", err)
	}

	// Signed with a key the registry does not hold under this kid.
	otherReg, err := LoadKeyRegistry("stranger", []KeyDef{
		{Kid: "stranger", PrivateKey: TestPrivateKeyPEM, PublicKey: TestPublicKeyPEM},
	})
	if err != nil {
		t.Fatalf("LoadKeyRegistry: %v", err)
	}
	otherCodec := NewAccessTokenCodec(otherReg, "test-issuer", "test-audience", time.Minute)
	foreign, _, err := otherCodec.Issue("u1", "a@example.com", nil, "b1", "", "viewer")
	if err != nil {
		t.Fatalf("Issue foreign: %v", err)
	}
	if _, err := codec.Verify(foreign); err != ErrInvalidToken {
		t.Errorf("unknown kid: want ErrInvalidToken, got %v", err)
	}
}

func TestAccessTokenCodec_Expired(t *testing.T) {
	reg, err := NewTestKeyRegistry()
	if err != nil {
		t.Fatalf("NewTestKeyRegistry: %v", err)
	}
	codec := NewAccessTokenCodec(reg, "test-issuer", "test-audience", -time.Minute)
	token, _, err := codec.Issue("u1", "a@example.com", nil, "b1", "", "viewer")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := codec.Verify(token); err != ErrInvalidToken {
		t.Errorf("expired: want ErrInvalidToken, got %v", err)
	}
}

func TestAccessTokenCodec_RejectsNoneAlgorithm(t *testing.T) {
	codec, _, err := NewTestAccessTokenCodec()
	if err != nil {
		t.Fatalf("NewTestAccessTokenCodec: %v", err)
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "test-issuer",
			Audience:  jwt.ClaimStrings{"test-audience"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	unsigned.Header["kid"] = "test-2025"
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := codec.Verify(raw); err != ErrInvalidToken {
		t.Errorf("alg=none: want ErrInvalidToken, got %v", err)
	}
}
