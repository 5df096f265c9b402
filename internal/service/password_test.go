package service

import "testing"

func TestHashPasswordAndVerify(t *testing.T) {
	hash, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "secret-password" {
		t.Fatalf("expected hash to differ from plaintext")
	}
	if !VerifySecret("secret-password", hash) {
		t.Fatalf("expected password to verify")
	}
	if VerifySecret("wrong-password", hash) {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestHashCodeAndVerify(t *testing.T) {
	hash, err := HashCode("123456")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !VerifySecret("123456", hash) {
		t.Fatalf("expected code to verify")
	}
	if VerifySecret("654321", hash) {
		t.Fatalf("expected wrong code to fail")
	}
}

func TestVerifySecret_EmptyHash(t *testing.T) {
	if VerifySecret("anything", "") {
		t.Fatalf("expected empty hash to never verify")
	}
}

func TestGenerateCode_SixDigits(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
	}
}
