package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/firebase"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/reject"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/utils"
	"github.com/rs/zerolog/log"
)

const (
	accessTokenRequired string = "error.token.required"
	accessTokenInvalid  string = "error.token.invalid"
)

var verifyIdToken = firebase.VerifyIdToken

// Auth returns the token check when enabled, otherwise a pass-through.
func Auth(enabled bool) gin.HandlerFunc {
	if enabled {
		return VerifyAuthToken
	}
	return func(c *gin.Context) {
		c.Next()
	}
}

func VerifyAuthToken(context *gin.Context) {
	authHeader := context.Request.Header.Get("Authorization")
	idTokenValue := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if idTokenValue == "" {
		log.Warn().Msg("Token missing: 401")
		context.AbortWithStatusJSON(
			http.StatusUnauthorized,
			reject.NewProblem().
				WithTitle("Missing access token").
				WithStatus(http.StatusUnauthorized).
				WithCode(accessTokenRequired).
				Build())
		return
	}
	token, err := verifyIdToken(context.Request.Context(), idTokenValue)
	if err != nil {
		log.Warn().Err(err).Msg("Error verifying token")
		context.AbortWithStatusJSON(
			http.StatusUnauthorized,
			reject.NewProblem().
				WithTitle("Cannot verify access token").
				WithStatus(http.StatusUnauthorized).
				WithCode(accessTokenInvalid).
				WithDetail(err.Error()).
				Build())
		return
	}
	accessTokenDetails := utils.AccessToken{
		Token:    *token,
		RawToken: idTokenValue,
	}
	utils.SetAccessTokenCtx(&accessTokenDetails, context)
}
