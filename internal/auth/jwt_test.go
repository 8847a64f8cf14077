package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	mgr := NewJWTManager("test-secret", time.Hour, "https://roamplan.test")

	token, err := mgr.Generate("user-42", "traveller@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := mgr.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "traveller@example.com", claims.Email)
	assert.Equal(t, "https://roamplan.test", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestGenerateRequiresSubject(t *testing.T) {
	mgr := NewJWTManager("test-secret", time.Hour, "")

	_, err := mgr.Generate("", "traveller@example.com")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejections(t *testing.T) {
	mgr := NewJWTManager("test-secret", time.Hour, "")

	t.Run("empty token", func(t *testing.T) {
		_, err := mgr.Validate("   ")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := mgr.Validate("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("another-secret", time.Hour, "")
		token, err := other.Generate("user-42", "")
		require.NoError(t, err)

		_, err = mgr.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewJWTManager("test-secret", -time.Minute, "")
		token, err := expired.Generate("user-42", "")
		require.NoError(t, err)

		_, err = mgr.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenFromHeader(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "bearer token", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "case insensitive scheme", header: "bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "empty header", header: "", wantErr: true},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantErr: true},
		{name: "missing token", header: "Bearer", wantErr: true},
		{name: "too many parts", header: "Bearer one two", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TokenFromHeader(tc.header)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMissingToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
