package otp

import "testing"

func TestGenerateRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code := Generate()
		if len(code) != 6 {
			t.Fatalf("expected 6-digit code, got %q", code)
		}
		if code[0] == '0' {
			t.Fatalf("code %q outside [100000, 999999]", code)
		}
	}
}

func TestCapabilityTokenLength(t *testing.T) {
	tok := CapabilityToken()
	if len(tok) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(tok))
	}
	if tok == CapabilityToken() {
		t.Fatal("two capability tokens collided")
	}
}

func TestEqual(t *testing.T) {
	if !Equal("123456", "123456") {
		t.Fatal("equal codes reported unequal")
	}
	if Equal("123456", "123457") {
		t.Fatal("different codes reported equal")
	}
	if Equal("123456", "") {
		t.Fatal("empty code reported equal")
	}
}
