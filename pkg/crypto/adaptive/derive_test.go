package adaptive

import (
	"bytes"
	"errors"
	"testing"
)

// cheap parameters keep the suite fast
var testParams = KDFParams{Time: 1, Memory: 1024, Threads: 1}

func TestDeriveKey(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}

	k1, err := DeriveKey([]byte("correct horse"), salt, testParams)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if len(k1) != KeySize {
		t.Fatalf("len(key) = %d, want %d", len(k1), KeySize)
	}

	k2, _ := DeriveKey([]byte("correct horse"), salt, testParams)
	if !bytes.Equal(k1, k2) {
		t.Error("DeriveKey() is not deterministic")
	}

	k3, _ := DeriveKey([]byte("battery staple"), salt, testParams)
	if bytes.Equal(k1, k3) {
		t.Error("different passphrases derived the same key")
	}

	otherSalt, _ := NewSalt()
	k4, _ := DeriveKey([]byte("correct horse"), otherSalt, testParams)
	if bytes.Equal(k1, k4) {
		t.Error("different salts derived the same key")
	}
}

func TestDeriveKey_Errors(t *testing.T) {
	salt := make([]byte, SaltSize)

	if _, err := DeriveKey([]byte("short"), salt, testParams); !errors.Is(err, ErrPassphraseTooShort) {
		t.Errorf("error = %v, want ErrPassphraseTooShort", err)
	}
	if _, err := DeriveKey([]byte("long enough"), salt[:4], testParams); !errors.Is(err, ErrInvalidSalt) {
		t.Errorf("error = %v, want ErrInvalidSalt", err)
	}
	if _, err := DeriveKey([]byte("long enough"), salt, KDFParams{}); err == nil {
		t.Error("expected error for zero params")
	}
}

func TestDeriveSubkey(t *testing.T) {
	master := bytes.Repeat([]byte{0x42}, KeySize)
	salt := make([]byte, SaltSize)

	a, err := DeriveSubkey(master, salt, "securestore/default")
	if err != nil {
		t.Fatalf("DeriveSubkey() error = %v", err)
	}
	b, _ := DeriveSubkey(master, salt, "securestore/other")
	if bytes.Equal(a, b) {
		t.Error("different info produced the same subkey")
	}

	if _, err := DeriveSubkey(master[:8], salt, "x"); !errors.Is(err, ErrKeyMaterialShort) {
		t.Errorf("error = %v, want ErrKeyMaterialShort", err)
	}
}

func TestWipe(t *testing.T) {
	key := []byte{1, 2, 3, 4}
	Wipe(key)
	for i, b := range key {
		if b != 0 {
			t.Errorf("key[%d] = %d after Wipe", i, b)
		}
	}
}
