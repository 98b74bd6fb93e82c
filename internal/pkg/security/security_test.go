package security

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"valid simple", "kanunilik ilkesi", false},
		{"valid turkish", "İHTİYATİ TEDBİR ışık", false},
		{"valid at max", strings.Repeat("ş", MaxQueryLength), false},
		{"empty", "", true},
		{"only spaces", "   ", true},
		{"invalid utf8", "ceza\xff", true},
		{"too long", strings.Repeat("a", MaxQueryLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateLimit(t *testing.T) {
	tests := []struct {
		name    string
		limit   uint64
		wantErr bool
	}{
		{"valid min", 1, false},
		{"valid default", DefaultLimit, false},
		{"valid max", 1000, false},
		{"zero", 0, true},
		{"too large", 1001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLimit(tt.limit)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLimit(%d) error = %v, wantErr %v", tt.limit, err, tt.wantErr)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := ValidateLimit(0)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("ValidateLimit(0) error type = %T, want *ValidationError", err)
	}
	if verr.Field != "limit" {
		t.Errorf("Field = %q, want limit", verr.Field)
	}

	want := "validation failed for limit: minimum value is 1 (got: 0)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if got := ValidateQuery("").Error(); got != "validation failed for query: required" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"simple", "hapis cezası", "hapis cezası"},
		{"with spaces", "  hapis  cezası  ", "hapis  cezası"},
		{"with newline", "hapis\ncezası", "hapis cezası"},
		{"with tab", "hapis\tcezası\n", "hapis cezası"},
		{"control chars", "hapis\x00\x01cezası", "hapiscezası"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeQuery(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeQuery(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"simple", "hello world", "hello world"},
		{"newline", "line1\nline2", "line1\\nline2"},
		{"carriage return", "line1\rline2", "line1\\rline2"},
		{"tab", "col1\tcol2", "col1\\tcol2"},
		{"control chars", "hello\x00\x01\x02world", "helloworld"},
		{"long string", strings.Repeat("a", 300), strings.Repeat("a", 200) + "..."},
		{"turkish", "TÜRK CEZA KANUNU", "TÜRK CEZA KANUNU"},
		{"log injection", "tck.txt\nERROR: fake error", "tck.txt\\nERROR: fake error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeForLog(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeForLog(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsBinaryContent(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{"empty", nil, false},
		{"statute text", []byte("TÜRK CEZA KANUNU\n\nMADDE 1 - (1) Metin.\n"), false},
		{"page break", []byte("MADDE 1 - Metin.\f\nMADDE 2 - Metin.\r\n"), false},
		{"with nulls", []byte("hello\x00\x00\x00\x00world"), true},
		{"pdf", append([]byte("%PDF-1.7\n"), make([]byte, 100)...), true},
		{"control bytes", []byte("\x01\x02\x03\x04abcdef"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBinaryContent(tt.content); got != tt.want {
				t.Errorf("IsBinaryContent() = %v, want %v", got, tt.want)
			}
		})
	}
}
