package utils

import (
	"testing"
)

func TestJwtRoundTrip(t *testing.T) {
	t.Setenv("TOKEN_HOUR_LIFESPAN", "1")

	token, err := JwtGenerate(42, "A")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	parsed, err := JwtValidate(token)
	if err != nil {
		t.Fatalf("JwtValidate: %v", err)
	}
	if !parsed.Valid {
		t.Fatal("expected token to be valid")
	}
	claims, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}
	if claims.ID != 42 || claims.Role != "A" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestJwtValidateRejectsTamperedToken(t *testing.T) {
	t.Setenv("TOKEN_HOUR_LIFESPAN", "1")

	token, err := JwtGenerate(7, "S")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	// Flip the last signature byte.
	tampered := token[:len(token)-1]
	if token[len(token)-1] == 'A' {
		tampered += "B"
	} else {
		tampered += "A"
	}
	if parsed, err := JwtValidate(tampered); err == nil && parsed.Valid {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestJwtGenerateDefaultsLifespan(t *testing.T) {
	t.Setenv("TOKEN_HOUR_LIFESPAN", "")

	token, err := JwtGenerate(1, "A")
	if err != nil {
		t.Fatalf("expected default lifespan when TOKEN_HOUR_LIFESPAN is unset; got %v", err)
	}
	if _, err := JwtValidate(token); err != nil {
		t.Fatalf("JwtValidate: %v", err)
	}
}
