// ABOUTME: Kubernetes ServiceAccount bearer-token authentication for the admin API
// ABOUTME: Verifies RS256 tokens against the cluster issuer key and an allow-list of accounts

package security

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/samber/lo"
)

// Authentication errors
var (
	ErrMissingToken      = errors.New("missing bearer token")
	ErrInvalidToken      = errors.New("invalid service account token")
	ErrAccountForbidden  = errors.New("service account is not allowed")
	ErrNoVerificationKey = errors.New("no token verification key configured")
)

// ServiceAccountInfo identifies the caller behind a verified token
type ServiceAccountInfo struct {
	Subject   string   `json:"subject"`
	Namespace string   `json:"namespace"`
	Name      string   `json:"name"`
	UID       string   `json:"uid"`
	Audience  []string `json:"audience,omitempty"`
}

// QualifiedName is "namespace:name", the form the allow-list uses
func (i *ServiceAccountInfo) QualifiedName() string {
	return i.Namespace + ":" + i.Name
}

// ServiceAccountClaims are the claims of a projected ServiceAccount token
type ServiceAccountClaims struct {
	jwt.RegisteredClaims
	Kubernetes KubernetesClaims `json:"kubernetes.io,omitempty"`
}

type KubernetesClaims struct {
	Namespace      string                  `json:"namespace"`
	ServiceAccount ServiceAccountReference `json:"serviceaccount"`
}

type ServiceAccountReference struct {
	Name string `json:"name"`
	UID  string `json:"uid"`
}

// ServiceAccountAuthenticator verifies ServiceAccount tokens
type ServiceAccountAuthenticator struct {
	publicKey *rsa.PublicKey
	allowed   []string
	audience  string
	logger    *slog.Logger
}

// NewServiceAccountAuthenticator creates an authenticator. A nil key rejects
// every token; an empty allow-list admits any verified account.
func NewServiceAccountAuthenticator(publicKey *rsa.PublicKey, allowed []string, audience string, logger *slog.Logger) *ServiceAccountAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceAccountAuthenticator{
		publicKey: publicKey,
		allowed:   allowed,
		audience:  audience,
		logger:    logger,
	}
}

// LoadPublicKey reads an RSA key from a PEM public key or certificate file
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read verification key: %w", err)
	}
	return ParsePublicKey(data)
}

// ParsePublicKey extracts an RSA key from PEM data
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if block.Type == "CERTIFICATE" {
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse certificate: %w", err)
		}
		key, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("certificate does not contain an RSA key")
		}
		return key, nil
	}

	return jwt.ParseRSAPublicKeyFromPEM(data)
}

// Authenticate verifies tokenString and checks the caller against the allow-list
func (a *ServiceAccountAuthenticator) Authenticate(tokenString string) (*ServiceAccountInfo, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	if a.publicKey == nil {
		return nil, ErrNoVerificationKey
	}

	claims := &ServiceAccountClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if a.audience != "" && !claims.VerifyAudience(a.audience, true) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	if claims.Kubernetes.ServiceAccount.Name == "" {
		return nil, fmt.Errorf("%w: missing service account claim", ErrInvalidToken)
	}

	info := &ServiceAccountInfo{
		Subject:   claims.Subject,
		Namespace: claims.Kubernetes.Namespace,
		Name:      claims.Kubernetes.ServiceAccount.Name,
		UID:       claims.Kubernetes.ServiceAccount.UID,
		Audience:  claims.Audience,
	}

	if len(a.allowed) > 0 && !lo.Contains(a.allowed, info.QualifiedName()) {
		a.logger.Warn("Admin access denied",
			"service_account", info.QualifiedName(),
			"subject", info.Subject)
		return nil, fmt.Errorf("%w: %s", ErrAccountForbidden, info.QualifiedName())
	}

	a.logger.Debug("ServiceAccount token validated",
		"service_account", info.QualifiedName(),
		"expires_at", claims.ExpiresAt)
	return info, nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
