package token

import (
	"strings"
	"testing"
	"time"
)

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	iss, err := NewIssuer("test-secret", 15*time.Minute)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	raw, err := iss.Issue("voice_assistant_user_42", "voice_assistant_room_42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	identity, room, err := iss.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if identity != "voice_assistant_user_42" {
		t.Fatalf("identity = %q", identity)
	}
	if room != "voice_assistant_room_42" {
		t.Fatalf("room = %q", room)
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	iss1, _ := NewIssuer("secret-one", time.Minute)
	iss2, _ := NewIssuer("secret-two", time.Minute)

	raw, err := iss1.Issue("u1", "r1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, _, err := iss2.Verify(raw); err == nil {
		t.Fatalf("grant signed with another secret must be rejected")
	}
}

func TestVerify_RejectsExpiredGrant(t *testing.T) {
	iss, _ := NewIssuer("test-secret", time.Minute)

	issuedAt := time.Now().Add(-time.Hour)
	iss.now = func() time.Time { return issuedAt }
	raw, err := iss.Issue("u1", "r1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	iss.now = time.Now
	if _, _, err := iss.Verify(raw); err == nil {
		t.Fatalf("expired grant must be rejected")
	}
}

func TestVerify_RejectsGarbage(t *testing.T) {
	iss, _ := NewIssuer("test-secret", time.Minute)
	if _, _, err := iss.Verify("not-a-jwt"); err == nil {
		t.Fatalf("garbage must be rejected")
	}
	if _, _, err := iss.Verify(""); err == nil {
		t.Fatalf("empty grant must be rejected")
	}
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	if _, err := NewIssuer("  ", time.Minute); err == nil || !strings.Contains(err.Error(), "secret") {
		t.Fatalf("err = %v, want secret error", err)
	}
}

func TestIssue_RequiresIdentityAndRoom(t *testing.T) {
	iss, _ := NewIssuer("test-secret", time.Minute)
	if _, err := iss.Issue("", "r1"); err == nil {
		t.Fatalf("empty identity must be rejected")
	}
	if _, err := iss.Issue("u1", ""); err == nil {
		t.Fatalf("empty room must be rejected")
	}
}
