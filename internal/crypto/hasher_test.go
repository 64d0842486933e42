package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashers(t *testing.T) map[string]Hasher {
	t.Helper()
	return map[string]Hasher{
		"bcrypt":   NewBcryptHasher(bcrypt.MinCost),
		"argon2id": NewArgon2idHasher(),
	}
}

func TestHashAndVerify(t *testing.T) {
	for name, h := range hashers(t) {
		t.Run(name, func(t *testing.T) {
			encoded, err := h.Hash("Sturdy_Pass_99")
			require.NoError(t, err)
			assert.NotEqual(t, "Sturdy_Pass_99", encoded)
			assert.True(t, h.Verify("Sturdy_Pass_99", encoded))
		})
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	for name, h := range hashers(t) {
		t.Run(name, func(t *testing.T) {
			encoded, err := h.Hash("Sturdy_Pass_99")
			require.NoError(t, err)
			assert.False(t, h.Verify("Another_Way_42", encoded))
		})
	}
}

func TestHashEmptyPassword(t *testing.T) {
	for name, h := range hashers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := h.Hash("")
			assert.ErrorIs(t, err, ErrEmptyPassword)
		})
	}
}

func TestHashesAreSalted(t *testing.T) {
	for name, h := range hashers(t) {
		t.Run(name, func(t *testing.T) {
			first, err := h.Hash("Sturdy_Pass_99")
			require.NoError(t, err)
			second, err := h.Hash("Sturdy_Pass_99")
			require.NoError(t, err)
			assert.NotEqual(t, first, second)
		})
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	malformed := []string{
		"",
		"plaintext",
		"$argon2id$",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$!!!",
		"$unknown$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
	}
	for name, h := range hashers(t) {
		t.Run(name, func(t *testing.T) {
			for _, encoded := range malformed {
				assert.False(t, h.Verify("Sturdy_Pass_99", encoded), "hash: %q", encoded)
			}
		})
	}
}

func TestVerifyAcrossSchemesFails(t *testing.T) {
	bc := NewBcryptHasher(bcrypt.MinCost)
	ar := NewArgon2idHasher()

	bcHash, err := bc.Hash("Sturdy_Pass_99")
	require.NoError(t, err)
	arHash, err := ar.Hash("Sturdy_Pass_99")
	require.NoError(t, err)

	assert.False(t, ar.Verify("Sturdy_Pass_99", bcHash))
	assert.False(t, bc.Verify("Sturdy_Pass_99", arHash))
}

func TestBcryptCostClamped(t *testing.T) {
	// An out-of-range cost falls back to the default rather than erroring
	h := NewBcryptHasher(99)
	encoded, err := h.Hash("Sturdy_Pass_99")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(encoded))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestArgon2idEncodedFormat(t *testing.T) {
	h := NewArgon2idHasher()
	encoded, err := h.Hash("Sturdy_Pass_99")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=65536,t=1,p=4$"))
	assert.Len(t, strings.Split(encoded, "$"), 6)
}
