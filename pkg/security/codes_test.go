package security_test

import (
	"testing"

	"github.com/mealora/mealora-backend/pkg/security"
)

func TestGenerateCodeShape(t *testing.T) {
	code, err := security.GenerateCode(6)
	if err != nil {
		t.Fatalf("GenerateCode returned error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %q", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("non-digit rune %q in code %q", r, code)
		}
	}
}

func TestGenerateCodeRejectsNonPositiveLength(t *testing.T) {
	if _, err := security.GenerateCode(0); err == nil {
		t.Fatal("expected error for zero length")
	}
	if _, err := security.GenerateCode(-4); err == nil {
		t.Fatal("expected error for negative length")
	}
}

func TestCodesEqual(t *testing.T) {
	if !security.CodesEqual("123456", "123456") {
		t.Fatal("identical codes should match")
	}
	if security.CodesEqual("123456", "123457") {
		t.Fatal("different codes should not match")
	}
	if security.CodesEqual("123456", "12345") {
		t.Fatal("different lengths should not match")
	}
}
