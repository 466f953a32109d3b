package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrNoSecret     = errors.New("token signing secret not configured")
)

// Claims are the bearer token claims understood by the API.
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator validates and issues HS256 bearer tokens
type JWTValidator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTValidator creates a validator. An empty issuer skips the issuer check.
func NewJWTValidator(secret, issuer string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Enabled reports whether a signing secret is configured.
func (v *JWTValidator) Enabled() bool {
	return len(v.secret) > 0
}

// ValidateToken validates a token and returns the caller it identifies
func (v *JWTValidator) ValidateToken(tokenString string) (*Caller, error) {
	if !v.Enabled() {
		return nil, ErrNoSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Caller{
		Subject: claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Roles:   ExtractRoles(claims.Roles),
		Method:  MethodJWT,
	}, nil
}

// IssueToken signs a token for subject valid for ttl.
func (v *JWTValidator) IssueToken(subject, name string, roles []Role, ttl time.Duration) (string, error) {
	if !v.Enabled() {
		return "", ErrNoSecret
	}
	now := v.now()
	claims := Claims{
		Name:  name,
		Roles: make([]string, len(roles)),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	for i, r := range roles {
		claims.Roles[i] = string(r)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ExtractRoles keeps the known roles of a claim, defaulting to viewer.
func ExtractRoles(names []string) []Role {
	roles := make([]Role, 0, len(names))
	for _, n := range names {
		if r, ok := ParseRole(n); ok {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		roles = append(roles, RoleViewer)
	}
	return roles
}
