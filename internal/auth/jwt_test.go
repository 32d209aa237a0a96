package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("ms.reyes", "staff", "eventqr-portal", "test-key", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty tokens")
	}

	claims, err := Parse(pair.AccessToken, "test-key", "eventqr-portal")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "ms.reyes" || claims.Role != "staff" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	pair, err := Issue("ms.reyes", "staff", "eventqr-portal", "test-key", time.Minute, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Parse(pair.AccessToken, "wrong-key", "eventqr-portal"); err == nil {
		t.Error("wrong key accepted")
	}
	if _, err := Parse(pair.AccessToken, "test-key", "someone-else"); err == nil {
		t.Error("issuer mismatch accepted")
	}

	expired, err := Issue("ms.reyes", "staff", "eventqr-portal", "test-key", -time.Minute, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(expired.AccessToken, "test-key", "eventqr-portal"); err == nil {
		t.Error("expired token accepted")
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}
