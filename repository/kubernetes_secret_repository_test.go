// ABOUTME: Tests for KubernetesSecretRepository against the fake clientset
// ABOUTME: Covers storage, retrieval, rotation annotations, and missing-secret handling

package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"feedly-sync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

const (
	testNamespace  = "feedly"
	testSecretName = "feedly-oauth2-token"
)

func tokenSecret(t *testing.T, token *models.OAuth2Token) *corev1.Secret {
	t.Helper()
	data, err := json.Marshal(token)
	require.NoError(t, err)
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      testSecretName,
			Namespace: testNamespace,
			Annotations: map[string]string{
				annotationTokenVersion:   "3",
				annotationRefreshHashKey: fingerprint(token.RefreshToken),
			},
		},
		Data: map[string][]byte{secretKeyTokenData: data},
	}
}

func TestKubernetesSecretRepository_GetCurrentToken(t *testing.T) {
	stored := validToken("access-1")

	tests := map[string]struct {
		objects     func(t *testing.T) []*corev1.Secret
		expectError error
	}{
		"existing secret": {
			objects: func(t *testing.T) []*corev1.Secret { return []*corev1.Secret{tokenSecret(t, stored)} },
		},
		"missing secret": {
			objects:     func(t *testing.T) []*corev1.Secret { return nil },
			expectError: ErrTokenNotFound,
		},
		"secret without token data": {
			objects: func(t *testing.T) []*corev1.Secret {
				return []*corev1.Secret{{ObjectMeta: metav1.ObjectMeta{Name: testSecretName, Namespace: testNamespace}}}
			},
			expectError: ErrTokenNotFound,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			client := fake.NewSimpleClientset()
			for _, s := range tc.objects(t) {
				_, err := client.CoreV1().Secrets(testNamespace).Create(context.Background(), s, metav1.CreateOptions{})
				require.NoError(t, err)
			}

			repo := NewKubernetesSecretRepositoryWithClientset(client, testNamespace, testSecretName, nil)
			token, err := repo.GetCurrentToken(context.Background())
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, stored.AccessToken, token.AccessToken)
			assert.Equal(t, stored.RefreshToken, token.RefreshToken)
		})
	}
}

func TestKubernetesSecretRepository_SaveTokenCreatesSecret(t *testing.T) {
	client := fake.NewSimpleClientset()
	repo := NewKubernetesSecretRepositoryWithClientset(client, testNamespace, testSecretName, nil)

	require.NoError(t, repo.SaveToken(context.Background(), validToken("access-1")))

	secret, err := client.CoreV1().Secrets(testNamespace).Get(context.Background(), testSecretName, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "feedly-sync", secret.Labels["app.kubernetes.io/name"])
	assert.Equal(t, "1", secret.Annotations[annotationTokenVersion])
	assert.Equal(t, []byte("access-1"), secret.Data["access_token"])
	assert.NotContains(t, secret.Annotations[annotationRefreshHashKey], "refresh")
}

func TestKubernetesSecretRepository_UpdateTokenRotation(t *testing.T) {
	original := validToken("access-1")
	client := fake.NewSimpleClientset(tokenSecret(t, original))
	repo := NewKubernetesSecretRepositoryWithClientset(client, testNamespace, testSecretName, nil)

	rotated := validToken("access-2")
	rotated.RefreshToken = "refresh-rotated"
	rotated.ExpiresAt = time.Now().Add(2 * time.Hour)
	require.NoError(t, repo.UpdateToken(context.Background(), rotated))

	secret, err := client.CoreV1().Secrets(testNamespace).Get(context.Background(), testSecretName, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "4", secret.Annotations[annotationTokenVersion])
	assert.Equal(t, fingerprint("refresh-rotated"), secret.Annotations[annotationRefreshHashKey])

	token, err := repo.GetCurrentToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", token.AccessToken)
	assert.Equal(t, "refresh-rotated", token.RefreshToken)
}

func TestKubernetesSecretRepository_UpdateTokenMissingSecret(t *testing.T) {
	repo := NewKubernetesSecretRepositoryWithClientset(fake.NewSimpleClientset(), testNamespace, testSecretName, nil)
	assert.ErrorIs(t, repo.UpdateToken(context.Background(), validToken("a")), ErrTokenNotFound)
	assert.ErrorIs(t, repo.SaveToken(context.Background(), nil), ErrInvalidToken)
}

func TestKubernetesSecretRepository_DeleteAndHealth(t *testing.T) {
	client := fake.NewSimpleClientset(tokenSecret(t, validToken("a")))
	repo := NewKubernetesSecretRepositoryWithClientset(client, testNamespace, testSecretName, nil)

	require.NoError(t, repo.DeleteToken(context.Background()))
	require.NoError(t, repo.DeleteToken(context.Background()))
	assert.NoError(t, repo.IsHealthy(context.Background()))

	_, err := repo.GetCurrentToken(context.Background())
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
