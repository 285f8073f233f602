package jwt

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAudience is the aud claim Supabase puts on signed-in user tokens.
const DefaultAudience = "authenticated"

// Claims of a Supabase access token. The player id is the subject.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
	ErrMissingSubject = errors.New("token has no subject")
)

// VerifierConfig holds the shared secret Supabase signs tokens with.
type VerifierConfig struct {
	Secret []byte
	// Audience defaults to DefaultAudience.
	Audience string
}

// Verifier validates HS256 access tokens issued by Supabase Auth.
type Verifier struct {
	secret   []byte
	audience string
}

// NewVerifier creates a token verifier.
func NewVerifier(cfg VerifierConfig) *Verifier {
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	return &Verifier{
		secret:   cfg.Secret,
		audience: cfg.Audience,
	}
}

// Verify parses and validates an access token.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	},
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return claims, nil
}
