package utils

import (
	"testing"

	"pgregory.net/rapid"
)

func TestGenerateInviteCode_Shape(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		_ = rapid.Int().Draw(t, "seed") // draw to vary iterations
		code := GenerateInviteCode()

		if len(code) != InviteCodeLength {
			t.Fatalf("expected %d characters, got %d (%q)", InviteCodeLength, len(code), code)
		}
		if !ValidInviteCode(code) {
			t.Fatalf("generated code %q fails its own validation", code)
		}
		for i := 0; i < len(code); i++ {
			c := code[i]
			if !((c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z')) {
				t.Fatalf("code %q contains non base-36 uppercase character %q", code, c)
			}
		}
	})
}

func TestValidInviteCode(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{"ABC123", true},
		{"Z9Z9Z9", true},
		{"abc123", false}, // lowercase never generated
		{"ABC12", false},  // too short
		{"ABC1234", false},
		{"ABC-12", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidInviteCode(c.code); got != c.want {
			t.Errorf("ValidInviteCode(%q) = %v, want %v", c.code, got, c.want)
		}
	}
}

func TestGenerateInviteCode_NoImmediateRepeat(t *testing.T) {
	// 36^6 codes; 100 draws colliding would point at a broken generator.
	seen := make(map[string]bool)
	dupes := 0
	for i := 0; i < 100; i++ {
		code := GenerateInviteCode()
		if seen[code] {
			dupes++
		}
		seen[code] = true
	}
	if dupes > 1 {
		t.Errorf("got %d duplicate codes in 100 draws", dupes)
	}
}
