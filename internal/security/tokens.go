package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, badly signed or carries no subject.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a well-signed token's exp claim has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrMissingSecret is returned when the signing secret is empty.
	ErrMissingSecret = errors.New("signing secret is empty")
)

// Claims is the signed payload of a bearer token: {"id", "iat", "exp"}.
type Claims struct {
	SubjectID string `json:"id"`
	jwt.RegisteredClaims
}

// ExpiresAtTime returns the exp claim, or the zero time if absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenProvider issues and validates HS256 bearer tokens. It is immutable once built;
// WithClock returns a copy.
type TokenProvider struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// NewTokenProvider returns a TokenProvider signing with secret. ttl is the fixed lifetime of
// every issued token; leeway is the clock skew tolerated when checking exp and iat.
func NewTokenProvider(secret []byte, ttl, leeway time.Duration) (*TokenProvider, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenProvider{secret: key, ttl: ttl, leeway: leeway, now: time.Now}, nil
}

// WithClock returns a copy of p that reads the current time from now.
func (p *TokenProvider) WithClock(now func() time.Time) *TokenProvider {
	cp := *p
	cp.now = now
	return &cp
}

// TTL returns the configured token lifetime.
func (p *TokenProvider) TTL() time.Duration {
	return p.ttl
}

// Issue signs a token for subjectID. Returns the token and its expiration time.
func (p *TokenProvider) Issue(subjectID string) (token string, expiresAt time.Time, err error) {
	if subjectID == "" {
		return "", time.Time{}, ErrInvalidToken
	}
	now := p.now().UTC().Truncate(time.Second)
	expiresAt = now.Add(p.ttl)
	claims := Claims{
		SubjectID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Parse verifies signature, exp and iat. Returns ErrTokenExpired for a well-signed token
// past its expiry and ErrInvalidToken for everything else that fails.
func (p *TokenProvider) Parse(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(p.leeway),
		jwt.WithTimeFunc(p.now),
	)
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, p.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.SubjectID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Decode verifies the signature only; exp and iat are not checked. Used where an expired
// or revoked token must still be read (logout needs its exp).
func (p *TokenProvider) Decode(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := &Claims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, p.keyFunc); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.SubjectID == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *TokenProvider) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return p.secret, nil
}
