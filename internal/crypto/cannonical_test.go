package crypto

import (
	"math"
	"testing"
)

// test that cannonical rejects invalid json

func TestCanonicalizeJSON(t *testing.T) {
	// invalid json
	jsonData := []byte(`{"test": "value"`)
	_, err := canonicalizeJSON(jsonData)
	if err == nil {
		t.Fatalf("canonicalizeJSON() expected error, got nil")
	}
	t.Logf("canonicalizeJSON() correctly rejected invalid JSON: %v", err)
}

func TestCanonicalMarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
		wantErr  bool
	}{
		{
			name:     "keys are sorted",
			input:    map[string]any{"b": 1, "a": "x"},
			expected: `{"a":"x","b":1}`,
		},
		{
			name:     "html characters are not escaped",
			input:    map[string]string{"k": "<a&b>"},
			expected: `{"k":"<a&b>"}`,
		},
		{
			name:     "array of digests",
			input:    []string{"aa", "bb"},
			expected: `["aa","bb"]`,
		},
		{
			name:    "NaN cannot be serialized",
			input:   map[string]any{"n": math.NaN()},
			wantErr: true,
		},
		{
			name:    "channel cannot be serialized",
			input:   map[string]any{"c": make(chan int)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalMarshal(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("CanonicalMarshal() expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("CanonicalMarshal() returned error: %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("CanonicalMarshal() = %s, want %s", got, tt.expected)
			}
		})
	}
}
