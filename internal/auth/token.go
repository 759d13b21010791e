package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// method, malformed structure, or expiry in the past. Callers never learn
// which; verification fails closed.
var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and verifies bearer tokens. The signing secret is
// injected once at startup; there is no key rotation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 60 * time.Minute
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// TTL returns the lifetime applied to issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token whose subject is the therapist id.
func (s *TokenService) Issue(subjectID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subjectID,
		"exp": now.Add(s.ttl).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify returns the subject id of a valid token, or ErrInvalidToken.
// An empty subject claim verifies; the access guard rejects it separately.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	mapc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, _ := mapc["sub"].(string)
	return sub, nil
}
