package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/arsenal/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"
	base := int64(7)

	token, err := GenerateToken(secret, model.Actor{UserID: 1, Username: "reyes", Role: model.RoleBaseCommander, BaseID: &base}, 0)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 1 || claims.Username != "reyes" {
		t.Errorf("unexpected identity: %d %q", claims.UserID, claims.Username)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}

	actor := claims.Actor()
	if !actor.CommandsBase(7) {
		t.Errorf("expected actor to command base 7, got %+v", actor)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	admin := model.Actor{UserID: 1, Username: "admin", Role: model.RoleAdmin}
	good, _ := GenerateToken("secret1", admin, time.Hour)

	// A token signed with the right key but the wrong algorithm.
	wrongAlg := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID: 1, Role: model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID: "x", Issuer: Issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	hs512, _ := wrongAlg.SignedString([]byte("secret1"))

	unknownRole, _ := GenerateToken("secret1", model.Actor{UserID: 2, Role: "general"}, time.Hour)
	fallback, _ := GenerateToken("secret1", admin, -time.Hour)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "secret2", good},
		{"garbage", "secret1", "not-a-token"},
		{"wrong algorithm", "secret1", hs512},
		{"unknown role", "secret1", unknownRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateToken(tt.secret, tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}

	// A negative ttl falls back to the default lifetime.
	if _, err := ValidateToken("secret1", fallback); err != nil {
		t.Errorf("expected default ttl token to validate, got %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, _ := GenerateToken(secret, model.Actor{UserID: 1, Username: "test", Role: model.RoleLogisticsOfficer}, 0)
	claims, _ := ValidateToken(secret, token)

	diff := time.Now().Add(TokenExpiry).Sub(claims.ExpiresAt.Time)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
