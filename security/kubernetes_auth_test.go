// ABOUTME: This file tests ServiceAccount token verification
// ABOUTME: Tokens are signed with a throwaway RSA key per test

package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func serviceAccountClaims(namespace, name string, expiresIn time.Duration) ServiceAccountClaims {
	now := time.Now()
	return ServiceAccountClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "system:serviceaccount:" + namespace + ":" + name,
			Audience:  jwt.ClaimStrings{"feedly-sync"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
		Kubernetes: KubernetesClaims{
			Namespace:      namespace,
			ServiceAccount: ServiceAccountReference{Name: name, UID: "uid-1"},
		},
	}
}

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestServiceAccountAuthenticator_Authenticate(t *testing.T) {
	key := generateKey(t)
	otherKey := generateKey(t)

	noName := serviceAccountClaims("feedly", "", time.Hour)
	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, serviceAccountClaims("feedly", "cron", time.Hour)).
		SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	tests := map[string]struct {
		token      string
		allowed    []string
		audience   string
		expectErr  error
		expectName string
	}{
		"allowed account": {
			token:      sign(t, key, serviceAccountClaims("feedly", "cron", time.Hour)),
			allowed:    []string{"feedly:cron"},
			audience:   "feedly-sync",
			expectName: "feedly:cron",
		},
		"empty allow-list admits any account": {
			token:      sign(t, key, serviceAccountClaims("ops", "admin", time.Hour)),
			expectName: "ops:admin",
		},
		"missing token": {
			expectErr: ErrMissingToken,
		},
		"account not allowed": {
			token:     sign(t, key, serviceAccountClaims("ops", "admin", time.Hour)),
			allowed:   []string{"feedly:cron"},
			expectErr: ErrAccountForbidden,
		},
		"expired": {
			token:     sign(t, key, serviceAccountClaims("feedly", "cron", -time.Minute)),
			expectErr: ErrInvalidToken,
		},
		"signed by another key": {
			token:     sign(t, otherKey, serviceAccountClaims("feedly", "cron", time.Hour)),
			expectErr: ErrInvalidToken,
		},
		"hmac signature": {
			token:     hmacToken,
			expectErr: ErrInvalidToken,
		},
		"wrong audience": {
			token:     sign(t, key, serviceAccountClaims("feedly", "cron", time.Hour)),
			audience:  "other-service",
			expectErr: ErrInvalidToken,
		},
		"no service account claim": {
			token:     sign(t, key, noName),
			expectErr: ErrInvalidToken,
		},
		"garbage": {
			token:     "not.a.jwt",
			expectErr: ErrInvalidToken,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			auth := NewServiceAccountAuthenticator(&key.PublicKey, tc.allowed, tc.audience, nil)
			info, err := auth.Authenticate(tc.token)
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				assert.Nil(t, info)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectName, info.QualifiedName())
			assert.Equal(t, "uid-1", info.UID)
		})
	}
}

func TestServiceAccountAuthenticator_NoKey(t *testing.T) {
	auth := NewServiceAccountAuthenticator(nil, nil, "", nil)
	_, err := auth.Authenticate("anything")
	assert.ErrorIs(t, err, ErrNoVerificationKey)
}

func TestLoadPublicKey(t *testing.T) {
	key := generateKey(t)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "sa.pub")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	loaded, err := LoadPublicKey(path)
	require.NoError(t, err)
	assert.Equal(t, 0, key.PublicKey.N.Cmp(loaded.N))

	_, err = LoadPublicKey(filepath.Join(dir, "missing.pub"))
	assert.Error(t, err)

	_, err = ParsePublicKey([]byte("not pem"))
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]struct {
		header string
		expect string
	}{
		"bearer":      {header: "Bearer abc.def", expect: "abc.def"},
		"lower case":  {header: "bearer abc.def", expect: "abc.def"},
		"basic":       {header: "Basic dXNlcjpwYXNz", expect: ""},
		"prefix only": {header: "Bearer ", expect: ""},
		"empty":       {header: "", expect: ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expect, BearerToken(tc.header))
		})
	}
}
