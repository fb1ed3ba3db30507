// ABOUTME: Kubernetes Secret-based OAuth2TokenRepository implementation
// ABOUTME: Persists the Feedly token so refresh-token rotation survives pod restarts

package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"feedly-sync/models"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const (
	secretKeyTokenData       = "token_data"
	annotationLastUpdated    = "feedly-sync/last-updated"
	annotationTokenVersion   = "feedly-sync/token-version"
	annotationRefreshHashKey = "feedly-sync/refresh-token-sha256"
)

// KubernetesSecretRepository implements OAuth2TokenRepository using a Kubernetes Secret
type KubernetesSecretRepository struct {
	clientset  kubernetes.Interface
	namespace  string
	secretName string
	logger     *slog.Logger
}

// NewKubernetesSecretRepositoryWithClientset creates a repository over clientset
func NewKubernetesSecretRepositoryWithClientset(clientset kubernetes.Interface, namespace, secretName string, logger *slog.Logger) *KubernetesSecretRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &KubernetesSecretRepository{
		clientset:  clientset,
		namespace:  namespace,
		secretName: secretName,
		logger:     logger,
	}
}

// GetCurrentToken reads the token from the Secret
func (r *KubernetesSecretRepository) GetCurrentToken(ctx context.Context) (*models.OAuth2Token, error) {
	secret, err := r.clientset.CoreV1().Secrets(r.namespace).Get(ctx, r.secretName, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, ErrTokenNotFound
		}
		r.logger.Error("Failed to retrieve token secret",
			"namespace", r.namespace,
			"secret_name", r.secretName,
			"error", err)
		return nil, fmt.Errorf("failed to retrieve token secret: %w", err)
	}

	data, ok := secret.Data[secretKeyTokenData]
	if !ok || len(data) == 0 {
		return nil, ErrTokenNotFound
	}

	var token models.OAuth2Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token data in secret: %w", err)
	}

	r.logger.Debug("Loaded OAuth2 token from secret",
		"secret_name", r.secretName,
		"expires_at", token.ExpiresAt,
		"is_expired", token.IsExpired())

	return &token, nil
}

// SaveToken creates the Secret or overwrites its token
func (r *KubernetesSecretRepository) SaveToken(ctx context.Context, token *models.OAuth2Token) error {
	if token == nil || token.AccessToken == "" {
		return ErrInvalidToken
	}

	data, err := secretData(token)
	if err != nil {
		return err
	}

	secrets := r.clientset.CoreV1().Secrets(r.namespace)
	current, err := secrets.Get(ctx, r.secretName, metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
		return r.createSecret(ctx, token, data)
	case err != nil:
		return fmt.Errorf("failed to read token secret: %w", err)
	default:
		return r.updateSecret(ctx, current, token, data)
	}
}

// UpdateToken overwrites the token of an existing Secret
func (r *KubernetesSecretRepository) UpdateToken(ctx context.Context, token *models.OAuth2Token) error {
	if token == nil || token.AccessToken == "" {
		return ErrInvalidToken
	}

	current, err := r.clientset.CoreV1().Secrets(r.namespace).Get(ctx, r.secretName, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to read token secret: %w", err)
	}

	data, err := secretData(token)
	if err != nil {
		return err
	}
	return r.updateSecret(ctx, current, token, data)
}

// DeleteToken removes the Secret
func (r *KubernetesSecretRepository) DeleteToken(ctx context.Context) error {
	err := r.clientset.CoreV1().Secrets(r.namespace).Delete(ctx, r.secretName, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete token secret: %w", err)
	}
	r.logger.Info("Deleted OAuth2 token secret", "secret_name", r.secretName)
	return nil
}

func secretData(token *models.OAuth2Token) (map[string][]byte, error) {
	tokenBytes, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize token: %w", err)
	}
	return map[string][]byte{
		secretKeyTokenData: tokenBytes,
		"access_token":     []byte(token.AccessToken),
		"refresh_token":    []byte(token.RefreshToken),
		"expires_at":       []byte(token.ExpiresAt.Format(time.RFC3339)),
	}, nil
}

func (r *KubernetesSecretRepository) createSecret(ctx context.Context, token *models.OAuth2Token, data map[string][]byte) error {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      r.secretName,
			Namespace: r.namespace,
			Labels: map[string]string{
				"app.kubernetes.io/name":       "feedly-sync",
				"app.kubernetes.io/component":  "oauth2-token",
				"app.kubernetes.io/managed-by": "feedly-sync",
			},
			Annotations: map[string]string{
				annotationLastUpdated:    time.Now().UTC().Format(time.RFC3339),
				annotationTokenVersion:   "1",
				annotationRefreshHashKey: fingerprint(token.RefreshToken),
			},
		},
		Type: corev1.SecretTypeOpaque,
		Data: data,
	}

	if _, err := r.clientset.CoreV1().Secrets(r.namespace).Create(ctx, secret, metav1.CreateOptions{}); err != nil {
		return fmt.Errorf("failed to create token secret: %w", err)
	}

	r.logger.Info("Created OAuth2 token secret", "secret_name", r.secretName)
	return nil
}

func (r *KubernetesSecretRepository) updateSecret(ctx context.Context, current *corev1.Secret, token *models.OAuth2Token, data map[string][]byte) error {
	if current.Annotations == nil {
		current.Annotations = make(map[string]string)
	}

	version, _ := strconv.Atoi(current.Annotations[annotationTokenVersion])
	newHash := fingerprint(token.RefreshToken)
	rotated := current.Annotations[annotationRefreshHashKey] != "" && current.Annotations[annotationRefreshHashKey] != newHash

	current.Data = data
	current.Annotations[annotationLastUpdated] = time.Now().UTC().Format(time.RFC3339)
	current.Annotations[annotationTokenVersion] = strconv.Itoa(version + 1)
	current.Annotations[annotationRefreshHashKey] = newHash

	if _, err := r.clientset.CoreV1().Secrets(r.namespace).Update(ctx, current, metav1.UpdateOptions{}); err != nil {
		r.logger.Error("Failed to update token secret",
			"secret_name", r.secretName,
			"refresh_token_rotated", rotated,
			"error", err)
		return fmt.Errorf("failed to update token secret: %w", err)
	}

	r.logger.Info("Updated OAuth2 token secret",
		"secret_name", r.secretName,
		"version", version+1,
		"refresh_token_rotated", rotated)
	return nil
}

// IsHealthy checks that the Kubernetes API is reachable; a missing Secret is fine
func (r *KubernetesSecretRepository) IsHealthy(ctx context.Context) error {
	_, err := r.clientset.CoreV1().Secrets(r.namespace).Get(ctx, r.secretName, metav1.GetOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("kubernetes API connectivity check failed: %w", err)
	}
	return nil
}

// fingerprint identifies a refresh token in annotations without exposing it
func fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
