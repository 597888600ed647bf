package httpapi

import (
	"context"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/vitalabs/competition-engine/internal/domain/user"
	"github.com/vitalabs/competition-engine/internal/usecase"
)

// claims mirrors the bearer-token shape named in the external-interfaces
// contract: sub, username, role, status, exp.
type claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	jwt.RegisteredClaims
}

// JWTVerifier validates bearer tokens locally against either a JWKS
// endpoint or a static HMAC secret, avoiding a network round trip per
// request. It implements TokenVerifier directly — callers that want a
// remote-introspection fallback should wrap it in FallbackVerifier.
type JWTVerifier struct {
	jwks   *keyfunc.JWKS
	secret []byte
	issuer string
}

// NewJWTVerifier builds a verifier from either a JWKS URL (preferred,
// supports key rotation) or a static secret. Exactly one of jwksURL/secret
// is expected to be non-empty; jwksURL takes precedence.
func NewJWTVerifier(jwksURL, secret, issuer string) (*JWTVerifier, error) {
	v := &JWTVerifier{issuer: issuer}

	if jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  time.Minute,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch jwks from %s: %w", jwksURL, err)
		}
		v.jwks = jwks
		return v, nil
	}

	if secret == "" {
		return nil, fmt.Errorf("either a JWKS URL or a JWT secret is required")
	}
	v.secret = []byte(secret)
	return v, nil
}

func (v *JWTVerifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if v.jwks != nil {
		return v.jwks.Keyfunc(token)
	}
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Method.Alg())
	}
	return v.secret, nil
}

func (v *JWTVerifier) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	_ = ctx

	parsed, err := jwt.ParseWithClaims(token, &claims{}, v.keyFunc, jwt.WithIssuer(v.issuer))
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: %v", usecase.ErrUnauthorized, err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return user.Principal{}, fmt.Errorf("%w: invalid claims", usecase.ErrUnauthorized)
	}

	userID := c.Subject
	if userID == "" {
		return user.Principal{}, fmt.Errorf("%w: token missing sub claim", usecase.ErrUnauthorized)
	}

	role := user.RoleUser
	if c.Role == string(user.RoleAdmin) {
		role = user.RoleAdmin
	}
	status := user.StatusActive
	if c.Status != "" {
		status = user.Status(c.Status)
	}

	return user.Principal{
		UserID:   userID,
		Username: c.Username,
		Role:     role,
		Status:   status,
	}, nil
}

// FallbackVerifier tries a primary verifier first (the local JWT check)
// and, when it fails, falls back to a secondary verifier (remote
// introspection). This lets JWT_LOCAL_VERIFY_ENABLED=false degrade to the
// Anubis path without changing call sites.
type FallbackVerifier struct {
	primary   TokenVerifier
	secondary TokenVerifier
}

func NewFallbackVerifier(primary, secondary TokenVerifier) *FallbackVerifier {
	return &FallbackVerifier{primary: primary, secondary: secondary}
}

func (f *FallbackVerifier) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	if f.primary != nil {
		if p, err := f.primary.VerifyAccessToken(ctx, token); err == nil {
			return p, nil
		}
	}
	if f.secondary == nil {
		return user.Principal{}, fmt.Errorf("%w: no verifier available", usecase.ErrUnauthorized)
	}
	return f.secondary.VerifyAccessToken(ctx, token)
}
