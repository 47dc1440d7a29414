package service

import (
	"context"
	"crypto/rsa"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/tenant-auth/internal/repository"
)

// Issuer is the fixed "iss" claim on every token this service signs.
const Issuer = "auth-service"

// AccessClaims is the payload of an RS256 access token: subject (user id),
// role, and the registered time claims.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// RefreshClaims is the payload of an HS256 refresh token.  The registered
// ID claim ("jti") equals the persisted refresh_tokens row id; that linkage
// is what makes rotation and revocation enforceable.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenService signs access and refresh tokens and manages the persisted
// refresh-token rows.
type TokenService struct {
	privateKey    *rsa.PrivateKey
	keyID         string
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	tokens        *repository.TokenRepo
}

// NewTokenService wires the signing material and the token repository.
// keyID is embedded in access-token headers so JWKS consumers can select
// the right key.
func NewTokenService(priv *rsa.PrivateKey, keyID, refreshSecret string, accessTTLMin, refreshTTLDays int, tokens *repository.TokenRepo) *TokenService {
	return &TokenService{
		privateKey:    priv,
		keyID:         keyID,
		refreshSecret: []byte(refreshSecret),
		accessTTL:     time.Duration(accessTTLMin) * time.Minute,
		refreshTTL:    time.Duration(refreshTTLDays) * 24 * time.Hour,
		tokens:        tokens,
	}
}

// AccessTTL returns the configured access-token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// PublicKey exposes the RS256 public half for JWKS serving.
func (s *TokenService) PublicKey() *rsa.PublicKey { return &s.privateKey.PublicKey }

// GenerateAccessToken signs a short-lived RS256 token carrying the user id
// and role.
func (s *TokenService) GenerateAccessToken(userID uint64, role string) (string, error) {
	now := time.Now().UTC()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		Role: role,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.keyID != "" {
		t.Header["kid"] = s.keyID
	}
	signed, err := t.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// GenerateRefreshToken signs a long-lived HS256 token whose jti references
// the persisted row returned by PersistRefreshToken.
func (s *TokenService) GenerateRefreshToken(userID uint64, role string, jti uint64) (string, error) {
	now := time.Now().UTC()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			ID:        strconv.FormatUint(jti, 10),
		},
		Role: role,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("signing refresh token: %w", err)
	}
	return signed, nil
}

// PersistRefreshToken creates the row backing a refresh token and returns
// its id.  The row expiry equals the refresh JWT lifetime and is the
// authoritative expiry for revocation checks.
func (s *TokenService) PersistRefreshToken(ctx context.Context, userID uint64) (uint64, error) {
	return s.tokens.Create(ctx, userID, time.Now().UTC().Add(s.refreshTTL))
}

// DeleteRefreshToken removes one row by id.  Used on rotation and on
// single-device logout; deleting twice is a no-op.
func (s *TokenService) DeleteRefreshToken(ctx context.Context, id uint64) error {
	return s.tokens.DeleteByID(ctx, id)
}

// DeleteAllRefreshTokens removes every row belonging to a user.
func (s *TokenService) DeleteAllRefreshTokens(ctx context.Context, userID uint64) error {
	return s.tokens.DeleteAllForUser(ctx, userID)
}

// VerifyRefreshToken checks the HS256 signature, issuer and expiry of a raw
// refresh token and returns its claims.  It does NOT consult the database;
// the refresh middleware layers the revocation check on top.
func (s *TokenService) VerifyRefreshToken(raw string) (*RefreshClaims, error) {
	tok, err := jwt.ParseWithClaims(raw, &RefreshClaims{},
		func(*jwt.Token) (interface{}, error) { return s.refreshSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*RefreshClaims)
	if !ok || !tok.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// IsRefreshTokenActive reports whether the row referenced by the claims
// still exists for the subject user and has not expired.  Malformed ids and
// lookup failures both read as revoked, failing closed.
func (s *TokenService) IsRefreshTokenActive(ctx context.Context, claims *RefreshClaims) bool {
	id, err := strconv.ParseUint(claims.ID, 10, 64)
	if err != nil {
		return false
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return false
	}
	ok, err := s.tokens.Exists(ctx, id, userID)
	if err != nil {
		return false
	}
	return ok
}
