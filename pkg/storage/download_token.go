package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const downloadAudience = "file-download"

var (
	// ErrInvalidDownloadToken is returned for malformed, tampered or foreign tokens.
	ErrInvalidDownloadToken = errors.New("invalid download token")
	// ErrDownloadTokenExpired is returned once a token is past its expiry.
	ErrDownloadTokenExpired = errors.New("download token expired")
)

// DownloadGrant names one stored file and the user it was issued to.
type DownloadGrant struct {
	ResourceID string
	OwnerID    string
	Path       string
	ExpiresAt  time.Time
}

type downloadClaims struct {
	ResourceID string `json:"rid"`
	Path       string `json:"path"`
	jwt.RegisteredClaims
}

// DownloadSigner issues and verifies HS256 download tokens bound to an owner.
type DownloadSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewDownloadSigner constructs a signer. A non-positive ttl means seven days.
func NewDownloadSigner(secret string, ttl time.Duration) *DownloadSigner {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &DownloadSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for grant. ExpiresAt is filled from the signer TTL.
func (s *DownloadSigner) Sign(grant DownloadGrant) (string, DownloadGrant, error) {
	if grant.ResourceID == "" || grant.OwnerID == "" || grant.Path == "" {
		return "", DownloadGrant{}, fmt.Errorf("resource, owner and path required")
	}
	if len(s.secret) == 0 {
		return "", DownloadGrant{}, fmt.Errorf("signing secret missing")
	}
	issuedAt := s.now()
	grant.ExpiresAt = issuedAt.Add(s.ttl).Truncate(time.Second)
	claims := downloadClaims{
		ResourceID: grant.ResourceID,
		Path:       grant.Path,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   grant.OwnerID,
			Audience:  jwt.ClaimStrings{downloadAudience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(grant.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", DownloadGrant{}, fmt.Errorf("sign download token: %w", err)
	}
	return token, grant, nil
}

// Verify checks signature, audience and expiry and returns the grant.
func (s *DownloadSigner) Verify(token string) (DownloadGrant, error) {
	var claims downloadClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(downloadAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return DownloadGrant{}, ErrDownloadTokenExpired
		}
		return DownloadGrant{}, fmt.Errorf("%w: %v", ErrInvalidDownloadToken, err)
	}
	if claims.ResourceID == "" || claims.Subject == "" || claims.Path == "" {
		return DownloadGrant{}, ErrInvalidDownloadToken
	}
	return DownloadGrant{
		ResourceID: claims.ResourceID,
		OwnerID:    claims.Subject,
		Path:       claims.Path,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}
