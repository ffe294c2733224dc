package utils

import "testing"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("test-secret", "user-123", true, 1)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("empty token")
	}

	claims, err := ParseAccessToken("test-secret", tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Fatalf("user id = %q, want user-123", claims.UserID)
	}
	if !claims.IsAdmin {
		t.Fatal("is_admin lost in round trip")
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("secret-a", "user-123", false, 1)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, err := ParseAccessToken("secret-b", tok.Token); err == nil {
		t.Fatal("token signed with another secret must not parse")
	}
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	if _, err := ParseAccessToken("secret", "not-a-jwt"); err == nil {
		t.Fatal("garbage must not parse")
	}
}

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := HashPassword("s3nha-forte", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "s3nha-forte") {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword(hash, "errada") {
		t.Fatal("wrong password accepted")
	}
}
