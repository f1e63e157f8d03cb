package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	secret := []byte("secret")

	signed, err := Issue(secret, "alice", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(signed, secret)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestParse(t *testing.T) {
	secret := []byte("secret")

	sign := func(method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
		s, err := jwt.NewWithClaims(method, Claims{RegisteredClaims: claims}).SignedString(key)
		require.NoError(t, err)

		return s
	}

	valid := jwt.RegisteredClaims{
		Subject:   "bob",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	testCases := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{
			name:  "valid",
			token: sign(jwt.SigningMethodHS256, secret, valid),
		},
		{
			name:    "wrong secret",
			token:   sign(jwt.SigningMethodHS256, []byte("other"), valid),
			wantErr: true,
		},
		{
			name:    "wrong algorithm",
			token:   sign(jwt.SigningMethodHS512, secret, valid),
			wantErr: true,
		},
		{
			name: "expired",
			token: sign(jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{
				Subject:   "bob",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			}),
			wantErr: true,
		},
		{
			name:    "missing subject",
			token:   sign(jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{}),
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   "not.a.token",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := Parse(tc.token, secret)

			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "bob", claims.Subject)
		})
	}
}

func TestIssue_Rejects(t *testing.T) {
	_, err := Issue(nil, "alice", time.Hour)
	assert.Error(t, err)

	_, err = Issue([]byte("secret"), "", time.Hour)
	assert.Error(t, err)
}

func TestExtractBearer(t *testing.T) {
	assert.Equal(t, "abc", ExtractBearer("Bearer abc"))
	assert.Equal(t, "abc", ExtractBearer("bearer  abc "))
	assert.Empty(t, ExtractBearer("Basic abc"))
	assert.Empty(t, ExtractBearer("Bearer"))
	assert.Empty(t, ExtractBearer(""))
}
