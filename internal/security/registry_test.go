package security

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestLoadKeyRegistry_Empty(t *testing.T) {
	if _, err := LoadKeyRegistry("k1", nil); err == nil {
		t.Fatal("LoadKeyRegistry with no keys: want error")
	}
}

func TestLoadKeyRegistry_MissingField(t *testing.T) {
	_, err := LoadKeyRegistry("k1", []KeyDef{{Kid: "k1", PrivateKey: TestPrivateKeyPEM}})
	if err == nil {
		t.Fatal("LoadKeyRegistry with missing public key: want error")
	}
}

func TestLoadKeyRegistry_UnknownActiveKid(t *testing.T) {
	_, err := LoadKeyRegistry("nope", []KeyDef{
		{Kid: "k1", PrivateKey: TestPrivateKeyPEM, PublicKey: TestPublicKeyPEM},
	})
	if err == nil {
		t.Fatal("LoadKeyRegistry with unknown active kid: want error")
	}
}

func TestLoadKeyRegistry_DuplicateKid(t *testing.T) {
	_, err := LoadKeyRegistry("k1", []KeyDef{
		{Kid: "k1", PrivateKey: TestPrivateKeyPEM, PublicKey: TestPublicKeyPEM},
		{Kid: "k1", PrivateKey: TestPrivateKey2PEM, PublicKey: TestPublicKey2PEM},
	})
	if err == nil {
		t.Fatal("LoadKeyRegistry with duplicate kid: want error")
	}
}

func TestKeyRegistry_ActiveKeyAndKeyFor(t *testing.T) {
	reg, err := NewTestKeyRegistry()
	if err != nil {
		t.Fatalf("NewTestKeyRegistry: %v", err)
	}
	active, err := reg.ActiveKey()
	if err != nil {
		t.Fatalf("ActiveKey: %v", err)
	}
	if active.Kid != "test-2025" {
		t.Errorf("ActiveKey kid = %q, want test-2025", active.Kid)
	}
	old, err := reg.KeyFor("test-2024")
	if err != nil {
		t.Fatalf("KeyFor(test-2024): %v", err)
	}
	if old.Alg != "RS256" {
		t.Errorf("KeyFor alg = %q, want RS256", old.Alg)
	}
	if _, err := reg.KeyFor("never-loaded"); !errors.Is(err, ErrUnknownKid) {
		t.Errorf("KeyFor unknown kid: want ErrUnknownKid, got %v", err)
	}
}

func TestKeyRegistry_PublicKeySet(t *testing.T) {
	reg, err := NewTestKeyRegistry()
	if err != nil {
		t.Fatalf("NewTestKeyRegistry: %v", err)
	}
	raw := reg.PublicKeySet()

	var doc struct {
		Keys []map[string]interface{} `json:"keys"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal JWKS: %v", err)
	}
	if len(doc.Keys) != 2 {
		t.Fatalf("JWKS has %d keys, want 2", len(doc.Keys))
	}
	kids := map[string]bool{}
	for _, k := range doc.Keys {
		kid, _ := k["kid"].(string)
		kids[kid] = true
		if kty, _ := k["kty"].(string); kty == "" {
			t.Errorf("kid %q: empty kty", kid)
		}
		if use, _ := k["use"].(string); use != "sig" {
			t.Errorf("kid %q: use = %q, want sig", kid, use)
		}
		if alg, _ := k["alg"].(string); alg != "RS256" {
			t.Errorf("kid %q: alg = %q, want RS256", kid, alg)
		}
	}
	if !kids["test-2025"] {
		t.Error("JWKS missing active kid test-2025")
	}

	// Mutating the returned bytes must not affect the registry's copy.
	for i := range raw {
		raw[i] = 0
	}
	raw2 := reg.PublicKeySet()
	if raw2[0] != '{' {
		t.Error("PublicKeySet returned shared backing array")
	}
}
