package identity

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: the subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWT verifies HS256 bearer tokens.
type JWT struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWT returns a verifier for tokens signed with secret. When issuer is
// non-empty the iss claim must match it.
func NewJWT(secret []byte, issuer string) (*JWT, error) {
	if len(secret) == 0 {
		return nil, errors.New("identity: jwt secret is empty")
	}
	return &JWT{secret: secret, issuer: issuer, now: time.Now}, nil
}

// Authenticate reads "Authorization: Bearer <token>".
func (j *JWT) Authenticate(r *http.Request) (Identity, error) {
	raw := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(strings.TrimSpace(raw), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return Identity{}, unauthenticated(errMissingCredentials)
	}
	return j.Verify(strings.TrimSpace(token))
}

// Verify parses and validates a token string.
func (j *JWT) Verify(token string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, unauthenticated(err)
	}
	if !parsed.Valid {
		return Identity{}, unauthenticated(jwt.ErrSignatureInvalid)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, unauthenticated(errors.New("token has no subject"))
	}
	return Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// Issue mints a token for id valid for ttl.
func (j *JWT) Issue(id Identity, ttl time.Duration) (string, error) {
	now := j.now()
	claims := &Claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}
