package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePassword("Sup3rSecret"))

	tests := []struct {
		name     string
		password string
	}{
		{"too short", "Ab1"},
		{"too long", "A1" + strings.Repeat("a", 127)},
		{"no uppercase", "lowercase123"},
		{"no lowercase", "UPPERCASE123"},
		{"no digit", "NoDigitsHere"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Error(t, ValidatePassword(tc.password))
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateUsername("alice"))
	assert.NoError(t, ValidateUsername("alice_b-99"))

	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername(strings.Repeat("a", 31)))
	assert.Error(t, ValidateUsername("has space"))
	assert.Error(t, ValidateUsername("_leading"))
	assert.Error(t, ValidateUsername("trailing-"))
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateEmail("alice@x.com"))
	assert.NoError(t, ValidateEmail("a.b+tag@sub.example.org"))

	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("missing@tld"))
	assert.Error(t, ValidateEmail("a@b."+strings.Repeat("c", 260)))
}
