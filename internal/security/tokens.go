package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single error surfaced for any access-token
// verification failure. Malformed token, unknown kid, wrong algorithm, bad
// signature, and expiry all collapse into it so callers cannot use the codec
// as a verification oracle.
var ErrInvalidToken = errors.New("invalid token")

var allowedAlgs = []string{"RS256", "ES256"}

// AccessClaims is the claim set carried by access tokens. Downstream services
// verify the token against the published JWKS and read these fields directly.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email          string   `json:"email"`
	BrandIDs       []string `json:"brand_ids"`
	PrimaryBrandID string   `json:"primary_brand_id"`
	Role           string   `json:"role"`
}

// AccessTokenCodec issues and verifies short-lived signed access tokens using
// the registry's key set. Stateless: nothing is persisted per token.
type AccessTokenCodec struct {
	registry *KeyRegistry
	issuer   string
	audience string
	ttl      time.Duration
}

// NewAccessTokenCodec returns a codec signing with registry's active key.
// issuer and audience are set on claims and validated on verify.
func NewAccessTokenCodec(registry *KeyRegistry, issuer, audience string, ttl time.Duration) *AccessTokenCodec {
	return &AccessTokenCodec{registry: registry, issuer: issuer, audience: audience, ttl: ttl}
}

// Issue signs a new access token for the given subject. contextBrandID, when
// non-empty, overrides primaryBrandID as the primary_brand_id claim. The
// active key's kid is embedded in the header so verifiers can pick the right
// public key during a rotation overlap.
func (c *AccessTokenCodec) Issue(subject, email string, brandIDs []string, primaryBrandID, contextBrandID, role string) (string, time.Time, error) {
	key, err := c.registry.ActiveKey()
	if err != nil {
		return "", time.Time{}, err
	}
	primary := primaryBrandID
	if contextBrandID != "" {
		primary = contextBrandID
	}
	now := time.Now().UTC()
	expiresAt := now.Add(c.ttl)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:          email,
		BrandIDs:       brandIDs,
		PrimaryBrandID: primary,
		Role:           role,
	}
	t := jwt.NewWithClaims(jwt.GetSigningMethod(key.Alg), claims)
	t.Header["kid"] = key.Kid
	signed, err := t.SignedString(key.Private)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses and validates an access token. The kid is read from the
// header before any claim is trusted, the matching key is looked up in the
// registry, and the signature is checked with that key and its fixed
// algorithm only. Every failure is reported as ErrInvalidToken.
func (c *AccessTokenCodec) Verify(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrInvalidToken
		}
		key, err := c.registry.KeyFor(kid)
		if err != nil {
			return nil, ErrInvalidToken
		}
		if t.Method.Alg() != key.Alg {
			return nil, ErrInvalidToken
		}
		return key.Public, nil
	},
		jwt.WithValidMethods(allowedAlgs),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
