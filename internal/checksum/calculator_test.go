package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256_Calculate(t *testing.T) {
	calc := New()

	// sha256("") is well known
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", calc.Calculate(nil))
	assert.Len(t, calc.Calculate([]byte("alice,mouse1,2024-01-02,5")), 64)
}

func TestSHA256_LineEndingsIgnored(t *testing.T) {
	calc := New()

	lf := calc.Calculate([]byte("user_name,subject_name\nalice,m1\n"))
	tests := []struct {
		name    string
		content string
	}{
		{"crlf", "user_name,subject_name\r\nalice,m1\r\n"},
		{"cr", "user_name,subject_name\ralice,m1\r"},
		{"no trailing newline", "user_name,subject_name\nalice,m1"},
		{"extra trailing newlines", "user_name,subject_name\nalice,m1\n\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, lf, calc.Calculate([]byte(tt.content)))
		})
	}
}

func TestSHA256_ContentChangesDetected(t *testing.T) {
	calc := New()

	base := calc.Calculate([]byte("alice,m1,2024-01-02,5\n"))
	assert.NotEqual(t, base, calc.Calculate([]byte("alice,m1,2024-01-02,6\n")))
	assert.NotEqual(t, base, calc.Calculate([]byte("alice, m1,2024-01-02,5\n")), "inner whitespace is data")
	assert.NotEqual(t, base, calc.Calculate([]byte("Alice,m1,2024-01-02,5\n")), "case is data")
}
