package account

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionSubject = "admin"

// Claims are carried by admin session tokens. PasswordVersion ties the token to the
// credential it was issued for.
type Claims struct {
	jwt.RegisteredClaims
	PasswordVersion int `json:"pwv"`
}

// Session is an issued token.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionIssuer signs and parses HS256 session tokens.
type SessionIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionIssuer requires a non-empty secret and a positive ttl.
func NewSessionIssuer(secret []byte, issuer string, ttl time.Duration) (*SessionIssuer, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecretKey
	}
	if ttl <= 0 {
		return nil, errors.New("account: session ttl must be positive")
	}
	return &SessionIssuer{
		secret: append([]byte(nil), secret...),
		issuer: strings.TrimSpace(issuer),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a token for the given credential version.
func (i *SessionIssuer) Issue(passwordVersion int) (*Session, error) {
	issuedAt := i.now().UTC()
	expiresAt := issuedAt.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   sessionSubject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		PasswordVersion: passwordVersion,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("account: sign session: %w", err)
	}
	return &Session{Token: signed, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// Parse checks signature, algorithm, issuer, subject and expiry.
func (i *SessionIssuer) Parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidSession
	}
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30 * time.Second),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return i.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	if claims.Subject != sessionSubject {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
