package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/jwtauth"
)

// DefaultCapability is the capability required to manage carousels
const DefaultCapability = "core.manage_shop"

// ErrUnauthenticated is returned when a request carries no usable identity
var ErrUnauthenticated = errors.New("unauthenticated")

// Principal is the caller of a request
type Principal struct {
	Subject      string
	Active       bool
	Capabilities []string
}

// Can reports whether the principal holds capability
func (p *Principal) Can(capability string) bool {
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Authorizer identifies the caller of a request
type Authorizer interface {
	Authorize(r *http.Request) (*Principal, error)
}

// AuthorizerFunc adapts a function to the Authorizer interface
type AuthorizerFunc func(r *http.Request) (*Principal, error)

// Authorize calls f
func (f AuthorizerFunc) Authorize(r *http.Request) (*Principal, error) {
	return f(r)
}

// JWTAuthorizer reads HS256 tokens from the Authorization header or the
// "jwt" cookie. Claims: sub, active (defaults to true) and perms.
type JWTAuthorizer struct {
	auth *jwtauth.JWTAuth
}

// NewJWTAuthorizer creates an authorizer verifying tokens signed with secret
func NewJWTAuthorizer(secret []byte) *JWTAuthorizer {
	return &JWTAuthorizer{auth: jwtauth.New("HS256", secret, nil)}
}

// JWTAuth returns the underlying signer, mainly to issue tokens in tests
func (a *JWTAuthorizer) JWTAuth() *jwtauth.JWTAuth {
	return a.auth
}

// Authorize verifies the request token and maps its claims
func (a *JWTAuthorizer) Authorize(r *http.Request) (*Principal, error) {
	token, err := jwtauth.VerifyRequest(a.auth, r, jwtauth.TokenFromHeader, jwtauth.TokenFromCookie)
	if err != nil {
		return nil, err
	}

	claims, err := token.AsMap(r.Context())
	if err != nil {
		return nil, err
	}

	p := &Principal{Active: true}
	if sub, ok := claims["sub"].(string); ok {
		p.Subject = sub
	}
	if active, ok := claims["active"].(bool); ok {
		p.Active = active
	}
	p.Capabilities = capabilities(claims["perms"])

	return p, nil
}

func capabilities(v interface{}) []string {
	switch perms := v.(type) {
	case []string:
		return perms
	case []interface{}:
		out := make([]string, 0, len(perms))
		for _, perm := range perms {
			if s, ok := perm.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(perms)
	}
	return nil
}

// RequireCapability lets through active principals holding capability and
// redirects everyone else to loginURL with the request path as "next".
func RequireCapability(authorizer Authorizer, capability, loginURL string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := authorizer.Authorize(r)
			if err != nil || p == nil || !p.Active || !p.Can(capability) {
				http.Redirect(w, r, loginRedirect(loginURL, r.URL.Path), http.StatusFound)
				return
			}

			next.ServeHTTP(w, withValue(r, principalKey, p))
		})
	}
}

func loginRedirect(loginURL, path string) string {
	sep := "?"
	if strings.Contains(loginURL, "?") {
		sep = "&"
	}
	return loginURL + sep + "next=" + url.QueryEscape(path)
}

// PrincipalFromContext returns the principal admitted by RequireCapability
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}
