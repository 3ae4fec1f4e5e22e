package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"strong password", "SecureP@ss123", false},
		{"symbols and digits", "MyP@ssw0rd!", false},
		{"multiple symbols", "Secure#P@ssw0rd", false},
		{"too short", "Pa@1", true},
		{"too long", "Aa1!" + strings.Repeat("x", 130), true},
		{"no uppercase", "securepass@123", true},
		{"no lowercase", "SECUREPASS@123", true},
		{"no digit", "SecurePass@xyz", true},
		{"no symbol", "SecurePass123", true},
		{"common password rejected", "Password123!", true},
		{"common password any case", "pAsSwOrD123!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrWeakPassword)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword_ErrorIsGeneric(t *testing.T) {
	// The policy reason must not leak into the error text.
	err := ValidatePassword("short")
	require.Error(t, err)
	assert.Equal(t, "invalid password", err.Error())
}

func TestHashAndComparePassword(t *testing.T) {
	const password = "SecureP@ss123"

	hash, err := HashPassword(password)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	assert.NoError(t, ComparePassword(hash, password))
	assert.Error(t, ComparePassword(hash, "WrongPassword123!"))
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	const password = "SecureP@ss123"

	first, err := HashPassword(password)
	require.NoError(t, err)
	second, err := HashPassword(password)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
