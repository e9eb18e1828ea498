package crypto

import (
	"testing"
)

func TestKeccak256Hex(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "empty input",
			input:    []byte(""),
			expected: "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		},
		{
			name:     "hello world",
			input:    []byte("hello world"),
			expected: "47173285a8d7341e5e972fc677286384f802f8ef42a5ec5f03bbfa254cb01fad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Keccak256Hex(tt.input)
			if got != tt.expected {
				t.Errorf("Keccak256Hex() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestKeccak256_Concatenates(t *testing.T) {
	joined := Keccak256([]byte("hello world"))
	split := Keccak256([]byte("hello"), []byte(" "), []byte("world"))

	if string(joined) != string(split) {
		t.Errorf("Keccak256 over parts differs from Keccak256 over joined input")
	}
}

func TestDecodeHash(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{"with prefix", "0xabcd", 2, false},
		{"without prefix", "abcd", 2, false},
		{"upper case prefix", "0XABCD", 2, false},
		{"empty", "", 0, true},
		{"prefix only", "0x", 0, true},
		{"not hex", "0xzz", 0, true},
		{"odd length", "0xabc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := DecodeHash(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodeHash(%q) expected error, got nil", tt.input)
				}
				if !HasCode(err, ErrCodeValidation) {
					t.Errorf("DecodeHash(%q) error code = %v, want validation", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeHash(%q) returned error: %v", tt.input, err)
			}
			if len(b) != tt.wantLen {
				t.Errorf("DecodeHash(%q) returned %d bytes, want %d", tt.input, len(b), tt.wantLen)
			}
		})
	}
}
