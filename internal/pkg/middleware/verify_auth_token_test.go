package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func router(enabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterGlobalMiddleware(r, []string{"*"})
	r.GET("/whoami", Auth(enabled), func(c *gin.Context) {
		c.String(http.StatusOK, utils.GetCallerId(c))
	})
	return r
}

func stubVerifier(t *testing.T, verify func(context.Context, string) (*auth.Token, error)) {
	restore := verifyIdToken
	verifyIdToken = verify
	t.Cleanup(func() { verifyIdToken = restore })
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	router(false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestVerifyAuthToken(t *testing.T) {
	stubVerifier(t, func(_ context.Context, token string) (*auth.Token, error) {
		if token != "good-token" {
			return nil, errors.New("token expired")
		}
		return &auth.Token{Subject: "uid-7"}, nil
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "missing", header: "", wantStatus: http.StatusUnauthorized, wantBody: "error.token.required"},
		{name: "invalid", header: "Bearer stale-token", wantStatus: http.StatusUnauthorized, wantBody: "token expired"},
		{name: "valid", header: "Bearer good-token", wantStatus: http.StatusOK, wantBody: "uid-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router(true).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}
