// Package middleware provides authentication, logging, metrics, tracing and
// rate limiting middleware for the forum API.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenIssuer is the iss claim of every access token.
	TokenIssuer = "forum-api"
	// TokenAudience is the aud claim of every access token.
	TokenAudience = "forum-client"
)

var (
	errMissingToken = errors.New("authorization header required")
	errBadHeader    = errors.New("invalid authorization header format")
)

// Claims is the parsed subset of an access token the API relies on.
type Claims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// RevocationChecker reports whether a token id has been revoked (logout).
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) bool
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager returns a TokenManager for the given signing secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for userID valid for ttl.
func (m *TokenManager) Issue(userID uint, ttl time.Duration) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		UserID:    userID,
		JTI:       uuid.NewString(),
		ExpiresAt: now.Add(ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		ID:        claims.JTI,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse verifies signature, issuer, audience and expiry of tokenString.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	var rc jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &rc, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	userID, err := strconv.ParseUint(rc.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, errors.New("invalid user id in token")
	}

	claims := &Claims{UserID: uint(userID), JTI: rc.ID}
	if rc.ExpiresAt != nil {
		claims.ExpiresAt = rc.ExpiresAt.Time
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", errMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errBadHeader
	}
	return parts[1], nil
}

func (m *TokenManager) authenticate(c *fiber.Ctx, revoked RevocationChecker) (*Claims, error) {
	raw, err := BearerToken(c)
	if err != nil {
		return nil, err
	}
	claims, err := m.Parse(raw)
	if err != nil {
		return nil, err
	}
	if revoked != nil && claims.JTI != "" && revoked.IsRevoked(c.UserContext(), claims.JTI) {
		return nil, errors.New("token has been revoked")
	}
	return claims, nil
}

func setIdentity(c *fiber.Ctx, claims *Claims) {
	c.Locals("userID", claims.UserID)
	c.Locals("jti", claims.JTI)
	c.Locals("tokenExp", claims.ExpiresAt)
	c.SetUserContext(WithUserID(c.UserContext(), claims.UserID))
}

// AuthRequired rejects requests without a valid, unrevoked bearer token and
// stores userID, jti and tokenExp in the request locals.
func AuthRequired(m *TokenManager, revoked RevocationChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := m.authenticate(c, revoked)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
				"code":  "UNAUTHORIZED",
			})
		}
		setIdentity(c, claims)
		return c.Next()
	}
}

// OptionalAuth records the caller identity when a valid token is present and
// lets anonymous requests through unchanged.
func OptionalAuth(m *TokenManager, revoked RevocationChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, err := m.authenticate(c, revoked); err == nil {
			setIdentity(c, claims)
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id, or 0 for anonymous requests.
func UserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}
