// Package identity authenticates incoming requests and yields the caller's
// stable user id and email. The vault never manages accounts itself; it only
// trusts one of the providers below.
package identity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tbourn/go-time-vault/internal/domain"
)

// Identity is an authenticated caller.
type Identity struct {
	UserID string
	Email  string
}

// Provider authenticates a request. Failures wrap domain.ErrUnauthenticated.
type Provider interface {
	Authenticate(r *http.Request) (Identity, error)
}

// Auth modes accepted by New.
const (
	ModeHeader = "header"
	ModeJWT    = "jwt"
)

// New builds the provider named by mode.
func New(mode, jwtSecret, jwtIssuer string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeHeader, "":
		return Header{}, nil
	case ModeJWT:
		return NewJWT([]byte(jwtSecret), jwtIssuer)
	default:
		return nil, fmt.Errorf("identity: unknown auth mode %q", mode)
	}
}

var errMissingCredentials = errors.New("missing credentials")

func unauthenticated(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
}
