package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueToken(t *testing.T, a *JWTAuthorizer, claims map[string]interface{}) string {
	t.Helper()
	_, token, err := a.JWTAuth().Encode(claims)
	require.NoError(t, err)
	return token
}

func TestJWTAuthorizer_Authorize(t *testing.T) {
	a := NewJWTAuthorizer([]byte("test-secret"))

	tests := []struct {
		name   string
		claims map[string]interface{}
		check  func(t *testing.T, p *Principal)
	}{
		{
			name:   "perms list",
			claims: map[string]interface{}{"sub": "alice", "perms": []string{"core.manage_shop", "core.view_shop"}},
			check: func(t *testing.T, p *Principal) {
				assert.Equal(t, "alice", p.Subject)
				assert.True(t, p.Active)
				assert.True(t, p.Can(DefaultCapability))
			},
		},
		{
			name:   "perms string",
			claims: map[string]interface{}{"sub": "bob", "perms": "core.view_shop core.manage_shop"},
			check: func(t *testing.T, p *Principal) {
				assert.True(t, p.Can(DefaultCapability))
			},
		},
		{
			name:   "inactive",
			claims: map[string]interface{}{"sub": "carol", "active": false},
			check: func(t *testing.T, p *Principal) {
				assert.False(t, p.Active)
				assert.False(t, p.Can(DefaultCapability))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+issueToken(t, a, tt.claims))

			p, err := a.Authorize(req)
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestJWTAuthorizer_Cookie(t *testing.T) {
	a := NewJWTAuthorizer([]byte("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: issueToken(t, a, map[string]interface{}{"sub": "dave"})})

	p, err := a.Authorize(req)
	require.NoError(t, err)
	assert.Equal(t, "dave", p.Subject)
}

func TestJWTAuthorizer_Rejects(t *testing.T) {
	a := NewJWTAuthorizer([]byte("test-secret"))
	other := NewJWTAuthorizer([]byte("other-secret"))

	t.Run("missing token", func(t *testing.T) {
		_, err := a.Authorize(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Error(t, err)
	})

	t.Run("wrong signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issueToken(t, other, map[string]interface{}{"sub": "eve"}))
		_, err := a.Authorize(req)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issueToken(t, a, map[string]interface{}{
			"sub": "frank",
			"exp": time.Now().Add(-time.Hour).Unix(),
		}))
		_, err := a.Authorize(req)
		assert.Error(t, err)
	})
}

func TestRequireCapability(t *testing.T) {
	a := NewJWTAuthorizer([]byte("test-secret"))
	var seen *Principal
	handler := RequireCapability(a, DefaultCapability, "/accounts/login/?lang=en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("admitted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/carousel/items/1/2/", nil)
		req.Header.Set("Authorization", "Bearer "+issueToken(t, a, map[string]interface{}{
			"sub":   "staff",
			"perms": []string{DefaultCapability},
		}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "staff", seen.Subject)
	})

	t.Run("redirected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/carousel/items/1/2/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/accounts/login/?lang=en&next=%2Fcarousel%2Fitems%2F1%2F2%2F", w.Header().Get("Location"))
	})
}
