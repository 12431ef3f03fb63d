package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	token, err := Generate("secreto", "inventario-ledger", 5, "u1", "b1", "bodeguero")
	require.NoError(t, err)

	claims, err := Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "b1", claims.BranchID)
	assert.Equal(t, "bodeguero", claims.Role)
	assert.Equal(t, "u1", claims.Subject)
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := Generate("secreto", "x", 5, "u1", "", "")
	require.NoError(t, err)

	_, err = Parse("otro", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	token, err := Generate("secreto", "x", -1, "u1", "", "")
	require.NoError(t, err)

	_, err = Parse("secreto", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerate_EmptySecret(t *testing.T) {
	_, err := Generate("", "x", 5, "u1", "", "")
	assert.Error(t, err)
}
