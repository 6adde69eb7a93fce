package security

import (
	"strings"
	"testing"
)

func TestMaskValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "****"},
		{"12345678", "****"},
		{"sk-proj-abcdef1234", "sk**************34"},
	}
	for _, tt := range tests {
		if got := MaskValue(tt.in); got != tt.want {
			t.Errorf("MaskValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskStringHidesInlineSecrets(t *testing.T) {
	in := `request failed: api_key=sk-proj-verysecretkey12345 status=401`
	out := MaskString(in)

	if strings.Contains(out, "verysecretkey") {
		t.Errorf("secret survived masking: %q", out)
	}
	if !strings.Contains(out, "status=401") {
		t.Errorf("non-secret text mangled: %q", out)
	}
}

func TestSensitiveField(t *testing.T) {
	for _, name := range []string{"api_key", "API_KEY", "Password", "token"} {
		if !SensitiveField(name) {
			t.Errorf("SensitiveField(%q) = false", name)
		}
	}
	if SensitiveField("symbol") {
		t.Error("symbol should not be sensitive")
	}
}
