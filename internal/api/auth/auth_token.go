package auth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/skill-registry/config"
	"github.com/FACorreiaa/skill-registry/internal/api"
)

const minSecretKeyLength = 32

// ErrInvalidToken is returned for every verification failure. The concrete
// reason is only logged.
var ErrInvalidToken = api.NewError(api.ErrUnauthenticated, "invalid or expired token")

// Claims represents the custom claims included in the JWT access token.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"usr"`
	jwt.RegisteredClaims
}

// TokenIssuer signs tokens for an authenticated user.
type TokenIssuer interface {
	Issue(userID int64, username string) (string, error)
}

// TokenVerifier checks a token's signature, issuer and expiry.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

var (
	_ TokenIssuer   = (*JWTManager)(nil)
	_ TokenVerifier = (*JWTManager)(nil)
)

// JWTManager issues and verifies HS256 access tokens.
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewJWTManager fails when the signing key is missing or too short.
func NewJWTManager(cfg config.JWTConfig, logger *slog.Logger) (*JWTManager, error) {
	if len(cfg.SecretKey) < minSecretKeyLength {
		return nil, errors.New("jwt secret key must be at least 32 bytes")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, errors.New("jwt access token ttl must be positive")
	}
	return &JWTManager{
		secret: []byte(cfg.SecretKey),
		issuer: cfg.Issuer,
		ttl:    cfg.AccessTokenTTL,
		now:    time.Now,
		logger: logger,
	}, nil
}

// Issue returns a signed token for the user that expires after the configured TTL.
func (m *JWTManager) Issue(userID int64, username string) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses and validates token.
func (m *JWTManager) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		m.logger.Debug("Token verification failed", slog.Any("error", err))
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 {
		m.logger.Debug("Token carries no user id")
		return nil, ErrInvalidToken
	}
	return claims, nil
}
