package utils

import (
	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
)

const (
	tokenCtxKey string = "accessToken"
	anonymous   string = "anonymous"
)

type AccessToken struct {
	Token    auth.Token
	RawToken string
}

func SetAccessTokenCtx(token *AccessToken, ctx *gin.Context) {
	ctx.Set(tokenCtxKey, *token)
}

// GetCallerId returns the verified token subject, or "anonymous" when the
// request went through without authentication.
func GetCallerId(ctx *gin.Context) string {
	value, exists := ctx.Get(tokenCtxKey)
	if !exists {
		return anonymous
	}
	at, ok := value.(AccessToken)
	if !ok || at.Token.Subject == "" {
		return anonymous
	}
	return at.Token.Subject
}
