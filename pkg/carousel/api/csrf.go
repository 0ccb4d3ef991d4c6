package api

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"regexp"
)

// CSRF names shared with the rendered forms and client scripts
const (
	CSRFCookieName = "csrftoken"
	CSRFHeaderName = "X-CSRFToken"
	CSRFFormField  = "csrfmiddlewaretoken"
)

// CSRFConfig configures the double-submit cookie check
type CSRFConfig struct {
	CookieName string
	CookiePath string
	Secure     bool
}

var csrfTokenPattern = regexp.MustCompile(`^[A-Za-z0-9]{32,64}$`)

// CSRFProtect rejects unsafe requests whose submitted token does not match
// the CSRF cookie. Every response carries the cookie and the token is
// available to handlers through CSRFToken.
func CSRFProtect(config CSRFConfig) Middleware {
	if config.CookieName == "" {
		config.CookieName = CSRFCookieName
	}
	if config.CookiePath == "" {
		config.CookiePath = "/"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(config.CookieName); err == nil && csrfTokenPattern.MatchString(c.Value) {
				token = c.Value
			}

			if !isSafeMethod(r.Method) {
				submitted := r.Header.Get(CSRFHeaderName)
				if submitted == "" {
					submitted = r.PostFormValue(CSRFFormField)
				}
				if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(submitted)) != 1 {
					writeError(w, http.StatusForbidden, "csrf_failed", "CSRF verification failed")
					return
				}
			}

			if token == "" {
				token = newCSRFToken()
				http.SetCookie(w, &http.Cookie{
					Name:     config.CookieName,
					Value:    token,
					Path:     config.CookiePath,
					Secure:   config.Secure,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   365 * 24 * 60 * 60,
				})
			}

			next.ServeHTTP(w, withValue(r, csrfTokenKey, token))
		})
	}
}

// CSRFToken returns the token of the current request
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfTokenKey).(string)
	return token
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func newCSRFToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
