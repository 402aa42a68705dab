package identity

import (
	"net/http"
	"strings"
)

// Header names read by the Header provider.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
)

// Header trusts identity headers injected by an upstream gateway. Use it only
// behind a proxy that strips client-supplied copies of these headers.
type Header struct{}

func (Header) Authenticate(r *http.Request) (Identity, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return Identity{}, unauthenticated(errMissingCredentials)
	}
	return Identity{
		UserID: id,
		Email:  strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
	}, nil
}
