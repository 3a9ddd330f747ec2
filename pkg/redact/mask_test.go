package redact

import (
	"strings"
	"testing"
)

func TestStringMasksMiddle(t *testing.T) {
	got := String("a1b2c3d4e5")
	if !strings.HasPrefix(got, "a1") || !strings.HasSuffix(got, "e5") {
		t.Fatalf("expected ends to be preserved, got %q", got)
	}
	if strings.Contains(got, "b2c3d4") {
		t.Fatalf("expected middle to be masked, got %q", got)
	}
	if String("") != "" {
		t.Fatalf("expected empty input to stay empty")
	}
}

func TestEmailKeepsDomain(t *testing.T) {
	got := Email("alice.smith@example.com")
	if !strings.HasSuffix(got, "@example.com") {
		t.Fatalf("expected domain to be kept, got %q", got)
	}
	if strings.Contains(got, "alice.smith") {
		t.Fatalf("expected local part to be masked, got %q", got)
	}
}

func TestMapMasksSensitiveKeys(t *testing.T) {
	in := map[string]any{
		"token":       "0123456789abcdef",
		"vault_name":  "Team",
		"invite_id":   "id-1",
		"recipient":   "bob@example.com",
		"wrapped_key": []byte("binary"),
	}
	out := Map(in)
	if out["vault_name"] != "Team" || out["invite_id"] != "id-1" {
		t.Fatalf("expected plain values to pass through, got %v", out)
	}
	if out["token"] == in["token"] {
		t.Fatalf("expected token to be masked")
	}
	if !strings.HasSuffix(out["recipient"].(string), "@example.com") {
		t.Fatalf("expected recipient to be masked as email, got %v", out["recipient"])
	}
	if _, ok := out["wrapped_key"]; ok {
		t.Fatalf("expected non string sensitive values to be dropped")
	}
}

func TestIsSensitive(t *testing.T) {
	for _, key := range []string{"token", "Password", "inviter_password", "temporary_key"} {
		if !IsSensitive(key) {
			t.Fatalf("expected %q to be sensitive", key)
		}
	}
	if IsSensitive("vault_id") {
		t.Fatalf("vault_id should not be sensitive")
	}
}
