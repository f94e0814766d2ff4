package security

import (
	"crypto"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

var (
	// ErrUnknownKid is returned when a token names a kid the registry does not hold.
	ErrUnknownKid = errors.New("unknown signing key id")
	// ErrNoActiveKey is returned when signing is attempted on an empty registry.
	ErrNoActiveKey = errors.New("no active signing key")
)

// KeyDef is one signing key description handed to LoadKeyRegistry.
// PrivateKey and PublicKey are inline PEM or paths to PEM files.
type KeyDef struct {
	Kid        string
	PrivateKey string
	PublicKey  string
}

// SigningKey is a loaded, validated key pair. Immutable after load.
type SigningKey struct {
	Kid     string
	Alg     string // RS256 or ES256, fixed by the key type
	Private crypto.Signer
	Public  crypto.PublicKey
}

// KeyRegistry holds the signing key set. All loaded keys verify; exactly one
// signs. The set never changes after LoadKeyRegistry, so rotation is a config
// change plus restart and old-key retirement is dropping the entry.
type KeyRegistry struct {
	keys      map[string]*SigningKey
	activeKid string
	jwksJSON  []byte
}

// LoadKeyRegistry parses and validates every key definition and builds the
// registry. Errors here are startup-fatal for the caller: an empty list, a
// missing field, an unparseable key, a duplicate kid, or an activeKid that
// matches no entry all mean the process must not come up.
func LoadKeyRegistry(activeKid string, defs []KeyDef) (*KeyRegistry, error) {
	if len(defs) == 0 {
		return nil, errors.New("key registry: no signing keys configured")
	}
	if activeKid == "" {
		return nil, errors.New("key registry: active kid is empty")
	}

	keys := make(map[string]*SigningKey, len(defs))
	set := jwk.NewSet()
	for i, def := range defs {
		if def.Kid == "" || def.PrivateKey == "" || def.PublicKey == "" {
			return nil, fmt.Errorf("key registry: entry %d is missing kid, private key, or public key", i)
		}
		if _, dup := keys[def.Kid]; dup {
			return nil, fmt.Errorf("key registry: duplicate kid %q", def.Kid)
		}
		signer, pub, alg, err := ParseKeyPair(def.PrivateKey, def.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("key registry: kid %q: %w", def.Kid, err)
		}
		keys[def.Kid] = &SigningKey{Kid: def.Kid, Alg: alg, Private: signer, Public: pub}

		pubJWK, err := jwk.Import(pub)
		if err != nil {
			return nil, fmt.Errorf("key registry: kid %q: derive JWK: %w", def.Kid, err)
		}
		// kid, use, and alg are set explicitly so JWKS consumers never have to
		// infer them from the key material.
		if err := pubJWK.Set(jwk.KeyIDKey, def.Kid); err != nil {
			return nil, fmt.Errorf("key registry: kid %q: %w", def.Kid, err)
		}
		if err := pubJWK.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
			return nil, fmt.Errorf("key registry: kid %q: %w", def.Kid, err)
		}
		sigAlg := jwa.RS256()
		if alg == "ES256" {
			sigAlg = jwa.ES256()
		}
		if err := pubJWK.Set(jwk.AlgorithmKey, sigAlg); err != nil {
			return nil, fmt.Errorf("key registry: kid %q: %w", def.Kid, err)
		}
		if err := set.AddKey(pubJWK); err != nil {
			return nil, fmt.Errorf("key registry: kid %q: %w", def.Kid, err)
		}
	}

	if _, ok := keys[activeKid]; !ok {
		return nil, fmt.Errorf("key registry: active kid %q matches no configured key", activeKid)
	}

	jwksJSON, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("key registry: marshal JWKS: %w", err)
	}

	return &KeyRegistry{keys: keys, activeKid: activeKid, jwksJSON: jwksJSON}, nil
}

// ActiveKey returns the key used for new signatures.
func (r *KeyRegistry) ActiveKey() (*SigningKey, error) {
	if r == nil || len(r.keys) == 0 {
		return nil, ErrNoActiveKey
	}
	return r.keys[r.activeKid], nil
}

// KeyFor returns the key for kid, for verification. An unknown kid is an
// error; it never falls back to the active key.
func (r *KeyRegistry) KeyFor(kid string) (*SigningKey, error) {
	if r == nil {
		return nil, ErrUnknownKid
	}
	k, ok := r.keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKid, kid)
	}
	return k, nil
}

// PublicKeySet returns the JWKS document ({"keys":[...]}) as JSON. The
// returned slice is a copy; callers cannot mutate registry state through it.
func (r *KeyRegistry) PublicKeySet() []byte {
	if r == nil {
		return nil
	}
	out := make([]byte, len(r.jwksJSON))
	copy(out, r.jwksJSON)
	return out
}
